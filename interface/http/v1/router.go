package v1

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/panelbridge/interface/converters/exporter"
	"github.com/shimmeringbee/panelbridge/interface/converters/invoker"
	"github.com/shimmeringbee/panelbridge/interface/http/auth"
	"github.com/shimmeringbee/panelbridge/state"
	"net/http"
)

func ConstructRouter(mapper state.PanelMapper, l logwrap.Logger, ap auth.AuthenticationProvider, eventbus state.EventSubscriber) http.Handler {
	protected := mux.NewRouter()

	pc := panelController{
		panelMapper:    mapper,
		areaModeChange: invoker.ChangeAreaMode,
		logger:         l,
	}

	ic := inceptionController{
		panelMapper: mapper,
		querier:     invoker.QueryInception,
		commander:   invoker.InvokeInceptionCommand,
		logger:      l,
	}

	ec := eventsController{
		eventbus:    eventbus,
		eventMapper: exporter.NewEventExporter(mapper),
		logger:      l,
	}

	protected.HandleFunc("/panels", pc.listPanels).Methods("GET")
	protected.HandleFunc("/panels/{panel}", pc.getPanel).Methods("GET")
	protected.HandleFunc("/panels/{panel}/areas", pc.listAreas).Methods("GET")
	protected.HandleFunc("/panels/{panel}/areas/{identifier}", pc.getArea).Methods("GET")
	protected.HandleFunc("/panels/{panel}/areas/{identifier}/zones", pc.listZonesInArea).Methods("GET")
	protected.HandleFunc("/panels/{panel}/areas/{identifier}/mode", pc.changeAreaMode).Methods("PUT")
	protected.HandleFunc("/panels/{panel}/zones", pc.listZones).Methods("GET")
	protected.HandleFunc("/panels/{panel}/zones/{identifier}", pc.getZone).Methods("GET")

	protected.HandleFunc("/inception/{panel}/{kind}", ic.queryEntity).Methods("GET")
	protected.HandleFunc("/inception/{panel}/{kind}/{identifier}", ic.queryEntity).Methods("GET")
	protected.HandleFunc("/inception/{panel}/{kind}/{identifier}/{command}", ic.controlEntity).Methods("POST")

	protected.HandleFunc("/events/websocket", ec.serveWebsocket).Methods("GET")
	protected.HandleFunc("/events/sse", ec.serveServerSideEvent).Methods("GET")

	apiRoot := mux.NewRouter()
	apiRoot.Handle("/auth/type", authenticationType(ap)).Methods("GET")
	apiRoot.Handle("/auth/check", ap.AuthenticationMiddleware(http.HandlerFunc(authenticationCheck))).Methods("GET")
	apiRoot.PathPrefix("/auth").Handler(ap.AuthenticationRouter())
	apiRoot.PathPrefix("/").Handler(ap.AuthenticationMiddleware(protected))

	return apiRoot
}
