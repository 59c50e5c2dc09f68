// internal/metrics/collectors.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tubbz-alt/pabv-control/internal/relay"
)

var (
	relayStateDesc = prometheus.NewDesc(
		namespace+"_relay_state",
		"Relay machine state (1 for the current state).",
		[]string{"state"}, nil,
	)
	relayCyclesDesc = prometheus.NewDesc(
		namespace+"_relay_stall_cycles_total",
		"Relay power cycles forced by the stall watchdog.",
		nil, nil,
	)
	relayEnergizedDesc = prometheus.NewDesc(
		namespace+"_relay_energized",
		"Last commanded relay output.",
		nil, nil,
	)
	relayFaultDesc = prometheus.NewDesc(
		namespace+"_relay_fault",
		"Last relay command failed.",
		nil, nil,
	)
	paramDesc = prometheus.NewDesc(
		namespace+"_param",
		"Live operating parameter.",
		[]string{"param"}, nil,
	)
)

var relayStates = []relay.State{relay.Off, relay.On, relay.CycleOff, relay.CycleOn}

type relayCollector struct {
	src RelaySource
}

func (c *relayCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- relayStateDesc
	ch <- relayCyclesDesc
	ch <- relayEnergizedDesc
	ch <- relayFaultDesc
}

func (c *relayCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Snapshot()
	for _, st := range relayStates {
		ch <- prometheus.MustNewConstMetric(relayStateDesc, prometheus.GaugeValue, b2f(s.State == st), st.String())
	}
	ch <- prometheus.MustNewConstMetric(relayCyclesDesc, prometheus.CounterValue, float64(s.CycleCount))
	ch <- prometheus.MustNewConstMetric(relayEnergizedDesc, prometheus.GaugeValue, b2f(s.Energized))
	ch <- prometheus.MustNewConstMetric(relayFaultDesc, prometheus.GaugeValue, b2f(s.Faulted))
}

type paramsCollector struct {
	src ParamSource
}

func (c *paramsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- paramDesc
}

func (c *paramsCollector) Collect(ch chan<- prometheus.Metric) {
	p := c.src.Snapshot()
	for _, kv := range []struct {
		name string
		v    float64
	}{
		{"resp_rate", float64(p.RespRate)},
		{"inh_time", float64(p.InhTime)},
		{"pip_max", float64(p.PipMax)},
		{"pip_offset", float64(p.PipOffset)},
		{"vol_max", float64(p.VolMax)},
		{"vol_factor", float64(p.VolFactor)},
		{"vol_max_adj", float64(p.VolMaxAdj)},
		{"vol_in_thold", float64(p.VolInThold)},
		{"peep_min", float64(p.PeepMin)},
		{"run_state", float64(p.RunState)},
		{"run_mode", float64(p.RunMode)},
		{"on_time_ms", float64(p.OnTimeMillis())},
		{"off_time_ms", float64(p.OffTimeMillis())},
	} {
		ch <- prometheus.MustNewConstMetric(paramDesc, prometheus.GaugeValue, kv.v, kv.name)
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
