package v1

import (
	"context"
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/panelbridge/state"
	"github.com/tidwall/gjson"
	"net/http"
)

type inceptionQuerier func(ctx context.Context, pm state.PanelMapper, panel string, kind string, id string) (gjson.Result, error)
type inceptionCommander func(ctx context.Context, pm state.PanelMapper, panel string, kind string, id string, command string) (gjson.Result, error)

type inceptionController struct {
	panelMapper state.PanelMapper
	querier     inceptionQuerier
	commander   inceptionCommander
	logger      logwrap.Logger
}

func (i *inceptionController) queryEntity(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	result, err := i.querier(r.Context(), i.panelMapper, params["panel"], params["kind"], params["identifier"])
	if err != nil {
		i.logger.LogWarn(r.Context(), "Failed to query inception panel.", logwrap.Datum("panel", params["panel"]), logwrap.Datum("kind", params["kind"]), logwrap.Err(err))
		writeActionError(w, err)
		return
	}

	writePanelResult(w, result)
}

func (i *inceptionController) controlEntity(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	result, err := i.commander(r.Context(), i.panelMapper, params["panel"], params["kind"], params["identifier"], params["command"])
	if err != nil {
		i.logger.LogWarn(r.Context(), "Failed to control inception entity.", logwrap.Datum("panel", params["panel"]), logwrap.Datum("kind", params["kind"]), logwrap.Datum("id", params["identifier"]), logwrap.Datum("command", params["command"]), logwrap.Err(err))
		writeActionError(w, err)
		return
	}

	writePanelResult(w, result)
}
