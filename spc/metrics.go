package spc

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts gateway activity, a nil *Metrics is valid and records nothing.
type Metrics struct {
	eventsReceived  *prometheus.CounterVec
	eventsDiscarded *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	reconnects      prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer, panel string) (*Metrics, error) {
	labels := prometheus.Labels{"panel": panel}

	m := &Metrics{
		eventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "panelbridge",
			Subsystem:   "spc",
			Name:        "events_received_total",
			Help:        "SIA events resolved to an entity, by resource kind.",
			ConstLabels: labels,
		}, []string{"resource"}),
		eventsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "panelbridge",
			Subsystem:   "spc",
			Name:        "events_discarded_total",
			Help:        "SIA events discarded, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "panelbridge",
			Subsystem:   "spc",
			Name:        "fetch_failures_total",
			Help:        "Failed requests to the SPC web gateway, by HTTP method.",
			ConstLabels: labels,
		}, []string{"method"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "panelbridge",
			Subsystem:   "spc",
			Name:        "websocket_reconnects_total",
			Help:        "Websocket reconnection attempts to the SPC web gateway.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{m.eventsReceived, m.eventsDiscarded, m.fetchFailures, m.reconnects} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) eventReceived(r Resource) {
	if m != nil {
		m.eventsReceived.WithLabelValues(string(r)).Inc()
	}
}

func (m *Metrics) eventDiscarded(reason string) {
	if m != nil {
		m.eventsDiscarded.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) fetchFailed(method string) {
	if m != nil {
		m.fetchFailures.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) reconnected() {
	if m != nil {
		m.reconnects.Inc()
	}
}
