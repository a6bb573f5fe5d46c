package v1

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/panelbridge/interface/converters/exporter"
	"github.com/shimmeringbee/panelbridge/interface/converters/invoker"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/shimmeringbee/panelbridge/state"
	"github.com/tidwall/gjson"
	"io"
	"net/http"
)

type areaModeChanger func(ctx context.Context, pm state.PanelMapper, panel string, areaID string, modeName string) (gjson.Result, error)

type panelController struct {
	panelMapper    state.PanelMapper
	areaModeChange areaModeChanger
	logger         logwrap.Logger
}

type ChangeModeRequest struct {
	Mode string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Add("content-type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writePanelResult(w http.ResponseWriter, result gjson.Result) {
	w.Header().Add("content-type", "application/json")

	if !result.Exists() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(result.Raw))
}

// writeActionError translates an action failure to a status code.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoker.ActionUserError):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, invoker.PanelNotFound), errors.Is(err, invoker.EntityNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (p *panelController) spcGateway(w http.ResponseWriter, r *http.Request) (string, state.SPCGateway, bool) {
	name := mux.Vars(r)["panel"]

	gw, found := p.panelMapper.SPCGateway(name)
	if !found {
		http.NotFound(w, r)
		return "", nil, false
	}

	return name, gw, true
}

func (p *panelController) listPanels(w http.ResponseWriter, r *http.Request) {
	apiPanels := make(map[string]exporter.ExportedPanel)

	for name, panelType := range p.panelMapper.Panels() {
		gw, _ := p.panelMapper.SPCGateway(name)
		apiPanels[name] = exporter.ExportPanel(name, panelType, gw)
	}

	writeJSON(w, http.StatusOK, apiPanels)
}

func (p *panelController) getPanel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["panel"]

	panelType, found := p.panelMapper.Panels()[name]
	if !found {
		http.NotFound(w, r)
		return
	}

	gw, _ := p.panelMapper.SPCGateway(name)
	writeJSON(w, http.StatusOK, exporter.ExportPanel(name, panelType, gw))
}

func (p *panelController) listAreas(w http.ResponseWriter, r *http.Request) {
	name, gw, ok := p.spcGateway(w, r)
	if !ok {
		return
	}

	apiAreas := make(map[string]exporter.ExportedArea)

	for id, area := range gw.Areas() {
		apiAreas[id] = exporter.ExportArea(name, area, gw)
	}

	writeJSON(w, http.StatusOK, apiAreas)
}

func (p *panelController) getArea(w http.ResponseWriter, r *http.Request) {
	name, gw, ok := p.spcGateway(w, r)
	if !ok {
		return
	}

	area, found := gw.Area(mux.Vars(r)["identifier"])
	if !found {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, exporter.ExportArea(name, area, gw))
}

func (p *panelController) listZonesInArea(w http.ResponseWriter, r *http.Request) {
	name, gw, ok := p.spcGateway(w, r)
	if !ok {
		return
	}

	zones, err := gw.ZonesInArea(mux.Vars(r)["identifier"])
	if errors.Is(err, spc.ErrUnknownArea) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	apiZones := make([]exporter.ExportedZone, 0, len(zones))
	for _, zone := range zones {
		apiZones = append(apiZones, exporter.ExportZone(name, zone))
	}

	writeJSON(w, http.StatusOK, apiZones)
}

func (p *panelController) changeAreaMode(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var request ChangeModeRequest
	if err := json.Unmarshal(data, &request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	result, err := p.areaModeChange(r.Context(), p.panelMapper, params["panel"], params["identifier"], request.Mode)
	if err != nil {
		p.logger.LogWarn(r.Context(), "Failed to change area mode.", logwrap.Datum("panel", params["panel"]), logwrap.Datum("area", params["identifier"]), logwrap.Datum("mode", request.Mode), logwrap.Err(err))
		writeActionError(w, err)
		return
	}

	writePanelResult(w, result)
}

func (p *panelController) listZones(w http.ResponseWriter, r *http.Request) {
	name, gw, ok := p.spcGateway(w, r)
	if !ok {
		return
	}

	apiZones := make(map[string]exporter.ExportedZone)

	for id, zone := range gw.Zones() {
		apiZones[id] = exporter.ExportZone(name, zone)
	}

	writeJSON(w, http.StatusOK, apiZones)
}

func (p *panelController) getZone(w http.ResponseWriter, r *http.Request) {
	name, gw, ok := p.spcGateway(w, r)
	if !ok {
		return
	}

	zone, found := gw.Zone(mux.Vars(r)["identifier"])
	if !found {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, exporter.ExportZone(name, zone))
}
