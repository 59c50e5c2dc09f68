// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/Tubbz-alt/pabv-control/internal/config"
	"github.com/Tubbz-alt/pabv-control/internal/writer/ingest"
	wmodbus "github.com/Tubbz-alt/pabv-control/internal/writer/modbus"
)

// BuildStatusPlan converts the status config into a plan.
// Returns nil when the mirror is disabled.
// Assumes config has already passed validation.
func BuildStatusPlan(s cfg.StatusConfig, deviceName string) *StatusPlan {
	if s.Endpoint == "" {
		return nil
	}
	return &StatusPlan{
		Endpoint:   s.Endpoint,
		UnitID:     s.UnitID,
		BaseSlot:   s.BaseSlot,
		DeviceName: deviceName,
	}
}

// BuildStatusWriter wires a plan to its endpoint client.
// Raw-ingest endpoints get their own stateless client; everything else
// must be present in clients.
func BuildStatusWriter(plan *StatusPlan, clients map[string]*wmodbus.EndpointClient, timeout time.Duration) (StatusWriter, bool, error) {
	if plan == nil {
		return nil, false, nil
	}
	m := make(map[string]endpointClient, len(clients)+1)
	for ep, c := range clients {
		m[ep] = c
	}
	if ingest.IsIngest(plan.Endpoint) {
		c, err := ingest.NewClient(plan.Endpoint, timeout)
		if err != nil {
			return nil, false, err
		}
		m[plan.Endpoint] = c
	}
	sw, ok := NewDeviceStatusWriter(plan, m)
	return sw, ok, nil
}

// BuildEndpointClients creates one Modbus client per unique endpoint.
// Empty and raw-ingest endpoints are skipped.
func BuildEndpointClients(endpoints []string, timeout time.Duration, baud int) (map[string]*wmodbus.EndpointClient, func() error, error) {
	unique := map[string]struct{}{}
	for _, ep := range endpoints {
		if ep != "" && !ingest.IsIngest(ep) {
			unique[ep] = struct{}{}
		}
	}

	clients := make(map[string]*wmodbus.EndpointClient)
	var closers []func() error

	for endpoint := range unique {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  timeout,
			BaudRate: baud,
		})
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
