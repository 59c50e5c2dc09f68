// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tubbz-alt/pabv-control/internal/controller"
	"github.com/Tubbz-alt/pabv-control/internal/params"
	"github.com/Tubbz-alt/pabv-control/internal/protocol"
	"github.com/Tubbz-alt/pabv-control/internal/relay"
)

const namespace = "ambu"

// RelaySource is the read side of the relay machine.
type RelaySource interface {
	Snapshot() relay.Snapshot
}

// ParamSource is the read side of the parameter store.
type ParamSource interface {
	Snapshot() params.Parameters
}

// Metrics counts controller events and exposes relay and parameter state.
// It implements controller.Observer.
type Metrics struct {
	Messages      *prometheus.CounterVec
	Changes       prometheus.Counter
	Serial        prometheus.Gauge
	Broadcasts    *prometheus.CounterVec
	SendFailures  *prometheus.CounterVec
	PersistErrors prometheus.Counter

	collectors []prometheus.Collector
}

var _ controller.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by channel and dispatch outcome.",
		}, []string{"source", "outcome"}),
		Changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_changes_total",
			Help:      "Ticks in which the configuration changed.",
		}),
		Serial: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_serial",
			Help:      "Current configuration serial number.",
		}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Configuration broadcasts by reason.",
		}, []string{"reason"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Outbound messages dropped by channel.",
		}, []string{"source"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed parameter record writes.",
		}),
	}
	m.collectors = []prometheus.Collector{
		m.Messages, m.Changes, m.Serial, m.Broadcasts, m.SendFailures, m.PersistErrors,
	}
	return m
}

// WatchRelay exports relay state read at scrape time.
func (m *Metrics) WatchRelay(r RelaySource) {
	m.collectors = append(m.collectors, &relayCollector{src: r})
}

// WatchParams exports the live parameters read at scrape time.
func (m *Metrics) WatchParams(p ParamSource) {
	m.collectors = append(m.collectors, &paramsCollector{src: p})
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves reg in the exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveSave is a params.WithSaveHook callback.
func (m *Metrics) ObserveSave(err error) {
	if err != nil {
		m.PersistErrors.Inc()
	}
}

// ---- controller.Observer ----

func (m *Metrics) MessageHandled(source string, outcome protocol.Outcome) {
	m.Messages.WithLabelValues(source, string(outcome)).Inc()
}

func (m *Metrics) Changed(c controller.Change) {
	m.Changes.Inc()
	m.Serial.Set(float64(c.Serial))
}

func (m *Metrics) Broadcasted(serial uint32, reason controller.Reason) {
	m.Serial.Set(float64(serial))
	m.Broadcasts.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) SendFailed(source string, _ error) {
	m.SendFailures.WithLabelValues(source).Inc()
}
