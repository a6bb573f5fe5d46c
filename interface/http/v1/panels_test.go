package v1

import (
	"context"
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/panelbridge/interface/converters/exporter"
	"github.com/shimmeringbee/panelbridge/interface/converters/invoker"
	"github.com/shimmeringbee/panelbridge/spc"
	"github.com/shimmeringbee/panelbridge/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newPanelRouter(pc *panelController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/panels", pc.listPanels).Methods("GET")
	router.HandleFunc("/panels/{panel}", pc.getPanel).Methods("GET")
	router.HandleFunc("/panels/{panel}/areas", pc.listAreas).Methods("GET")
	router.HandleFunc("/panels/{panel}/areas/{identifier}", pc.getArea).Methods("GET")
	router.HandleFunc("/panels/{panel}/areas/{identifier}/zones", pc.listZonesInArea).Methods("GET")
	router.HandleFunc("/panels/{panel}/areas/{identifier}/mode", pc.changeAreaMode).Methods("PUT")
	router.HandleFunc("/panels/{panel}/zones", pc.listZones).Methods("GET")
	router.HandleFunc("/panels/{panel}/zones/{identifier}", pc.getZone).Methods("GET")
	return router
}

func Test_panelController_listPanels(t *testing.T) {
	t.Run("returns all panels with their type", func(t *testing.T) {
		gw := &state.MockSPCGateway{}
		defer gw.AssertExpectations(t)
		gw.On("Areas").Return(map[string]spc.Area{"1": {ID: "1"}})

		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("Panels").Return(map[string]state.PanelType{"home": state.PanelTypeSPC, "office": state.PanelTypeInception})
		pm.On("SPCGateway", "home").Return(gw, true)
		pm.On("SPCGateway", "office").Return(nil, false)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodGet, "/panels", nil)
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var actual map[string]exporter.ExportedPanel
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &actual))

		assert.Equal(t, "spc", actual["home"].PanelType)
		assert.Equal(t, []string{"1"}, actual["home"].Areas)
		assert.Equal(t, "inception", actual["office"].PanelType)
	})

	t.Run("returns 404 for an unknown panel", func(t *testing.T) {
		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("Panels").Return(map[string]state.PanelType{})

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodGet, "/panels/missing", nil)
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func Test_panelController_areas(t *testing.T) {
	t.Run("returns a single area with alarm status", func(t *testing.T) {
		gw := &state.MockSPCGateway{}
		defer gw.AssertExpectations(t)
		gw.On("Area", "1").Return(spc.Area{ID: "1", Name: "House", Mode: spc.AreaModeFullSet, ZoneIDs: []string{"3"}}, true)
		gw.On("AreaAlarmed", "1").Return(true, nil)

		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("SPCGateway", "home").Return(gw, true)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodGet, "/panels/home/areas/1", nil)
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "full_set", gjson.Get(rr.Body.String(), "Mode").String())
		assert.True(t, gjson.Get(rr.Body.String(), "Alarmed").Bool())
		assert.Equal(t, "home", gjson.Get(rr.Body.String(), "Panel").String())
	})

	t.Run("returns 404 for an unknown area", func(t *testing.T) {
		gw := &state.MockSPCGateway{}
		defer gw.AssertExpectations(t)
		gw.On("Area", "7").Return(spc.Area{}, false)

		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("SPCGateway", "home").Return(gw, true)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodGet, "/panels/home/areas/7", nil)
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("lists zones in an area in order", func(t *testing.T) {
		gw := &state.MockSPCGateway{}
		defer gw.AssertExpectations(t)
		gw.On("ZonesInArea", "1").Return([]spc.Zone{{ID: "1", AreaID: "1"}, {ID: "3", AreaID: "1"}}, nil)
		gw.On("ZonesInArea", "9").Return([]spc.Zone(nil), spc.ErrUnknownArea)

		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("SPCGateway", "home").Return(gw, true)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}
		router := newPanelRouter(pc)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panels/home/areas/1/zones", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []any{"1", "3"}, gjson.Get(rr.Body.String(), "#.Identifier").Value())

		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panels/home/areas/9/zones", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func Test_panelController_changeAreaMode(t *testing.T) {
	t.Run("passes the requested mode to the invoker and returns the gateway response", func(t *testing.T) {
		pm := &state.MockPanelMapper{}

		called := false
		pc := &panelController{
			panelMapper: pm,
			logger:      logwrap.New(discard.Discard()),
			areaModeChange: func(ctx context.Context, mapper state.PanelMapper, panel string, areaID string, modeName string) (gjson.Result, error) {
				called = true
				assert.Equal(t, pm, mapper)
				assert.Equal(t, "home", panel)
				assert.Equal(t, "1", areaID)
				assert.Equal(t, "full_set", modeName)
				return gjson.Parse(`{"status":"success"}`), nil
			},
		}

		req := httptest.NewRequest(http.MethodPut, "/panels/home/areas/1/mode", strings.NewReader(`{"Mode":"full_set"}`))
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"success"}`, rr.Body.String())
	})

	t.Run("returns 400 if the body is not json", func(t *testing.T) {
		pc := &panelController{panelMapper: &state.MockPanelMapper{}, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodPut, "/panels/home/areas/1/mode", strings.NewReader(`full_set`))
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("maps invoker errors to status codes", func(t *testing.T) {
		cases := map[error]int{
			invoker.ActionUserError: http.StatusBadRequest,
			invoker.PanelNotFound:   http.StatusNotFound,
			invoker.EntityNotFound:  http.StatusNotFound,
			spc.ErrRequestFailed:    http.StatusBadGateway,
		}

		for err, status := range cases {
			returnErr := err

			pc := &panelController{
				panelMapper: &state.MockPanelMapper{},
				logger:      logwrap.New(discard.Discard()),
				areaModeChange: func(context.Context, state.PanelMapper, string, string, string) (gjson.Result, error) {
					return gjson.Result{}, returnErr
				},
			}

			req := httptest.NewRequest(http.MethodPut, "/panels/home/areas/1/mode", strings.NewReader(`{"Mode":"unset"}`))
			rr := httptest.NewRecorder()
			newPanelRouter(pc).ServeHTTP(rr, req)

			assert.Equal(t, status, rr.Code, err.Error())
		}
	})

	t.Run("changes mode through the real invoker", func(t *testing.T) {
		gw := &state.MockSPCGateway{}
		defer gw.AssertExpectations(t)
		gw.On("Area", "1").Return(spc.Area{ID: "1"}, true)
		gw.On("ChangeMode", mock.Anything, "1", spc.AreaModePartSetA).Return(gjson.Result{}, nil)

		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("SPCGateway", "home").Return(gw, true)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard()), areaModeChange: invoker.ChangeAreaMode}

		req := httptest.NewRequest(http.MethodPut, "/panels/home/areas/1/mode", strings.NewReader(`{"Mode":"part_set_a"}`))
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func Test_panelController_zones(t *testing.T) {
	t.Run("lists all zones on the panel", func(t *testing.T) {
		gw := &state.MockSPCGateway{}
		defer gw.AssertExpectations(t)
		gw.On("Zones").Return(map[string]spc.Zone{
			"1": {ID: "1", Name: "Entrance", AreaID: "1", Type: spc.ZoneTypeEntryExit},
			"3": {ID: "3", Name: "Smoke sensor", AreaID: "1", Type: spc.ZoneTypeFire},
		})

		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("SPCGateway", "home").Return(gw, true)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodGet, "/panels/home/zones", nil)
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "entry_exit", gjson.Get(rr.Body.String(), "1.ZoneType").String())
		assert.Equal(t, "fire", gjson.Get(rr.Body.String(), "3.ZoneType").String())
	})

	t.Run("returns 404 for zones of an unknown panel", func(t *testing.T) {
		pm := &state.MockPanelMapper{}
		defer pm.AssertExpectations(t)
		pm.On("SPCGateway", "away").Return(nil, false)

		pc := &panelController{panelMapper: pm, logger: logwrap.New(discard.Discard())}

		req := httptest.NewRequest(http.MethodGet, "/panels/away/zones/1", nil)
		rr := httptest.NewRecorder()
		newPanelRouter(pc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
