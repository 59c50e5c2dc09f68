// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Tubbz-alt/pabv-control/internal/relay"
	"github.com/Tubbz-alt/pabv-control/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	for i := 0; i < len(cfg.Device.Name); i++ {
		if cfg.Device.Name[i] > 0x7F {
			return errors.New("device.name must contain ASCII characters only")
		}
	}

	switch cfg.Device.Identity {
	case IdentityPlatform:
	case IdentityFile:
		if cfg.Device.IdentityFile == "" {
			return errors.New("device.identity_file is required when device.identity is \"file\"")
		}
	case IdentityStatic:
		if len(cfg.Device.StaticID) != 4 {
			return fmt.Errorf("device.static_id must hold 4 words, got %d", len(cfg.Device.StaticID))
		}
	default:
		return fmt.Errorf("device.identity %q: want platform, file or static", cfg.Device.Identity)
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if cfg.Timing.TickMs <= 0 {
		return fmt.Errorf("timing.tick_ms must be > 0, got %d", cfg.Timing.TickMs)
	}
	if cfg.Timing.ConfigMillis <= 0 {
		return fmt.Errorf("timing.config_millis must be > 0, got %d", cfg.Timing.ConfigMillis)
	}
	if cfg.Params.WarnIntervalMs < 0 {
		return fmt.Errorf("params.warn_interval_ms must be >= 0, got %d", cfg.Params.WarnIntervalMs)
	}

	// ------------------------------------------------------------
	// RELAY (safety constants)
	// ------------------------------------------------------------

	// The off dwell protects the patient circuit; config may lengthen it, never shorten it.
	if cfg.Relay.MinOffMs < int(relay.DefaultMinOffMillis) {
		return fmt.Errorf(
			"relay.min_off_ms must be >= %d, got %d",
			relay.DefaultMinOffMillis,
			cfg.Relay.MinOffMs,
		)
	}
	if cfg.Relay.MinOffMs < cfg.Timing.TickMs {
		return fmt.Errorf(
			"relay.min_off_ms (%d) shorter than one tick (%d)",
			cfg.Relay.MinOffMs,
			cfg.Timing.TickMs,
		)
	}
	if cfg.Relay.StallMs <= 0 {
		return fmt.Errorf("relay.stall_ms must be > 0, got %d", cfg.Relay.StallMs)
	}
	if cfg.Relay.ActivityPressure <= 0 {
		return fmt.Errorf("relay.activity_pressure must be > 0, got %g", cfg.Relay.ActivityPressure)
	}
	if cfg.Relay.ReportMs < 0 {
		return fmt.Errorf("relay.report_ms must be >= 0, got %d", cfg.Relay.ReportMs)
	}

	// ------------------------------------------------------------
	// CHANNELS
	// ------------------------------------------------------------

	for name, ch := range map[string]SerialConfig{
		"primary": cfg.Channels.Primary,
		"display": cfg.Channels.Display,
	} {
		if ch.Port == "" {
			continue
		}
		if ch.Baud <= 0 {
			return fmt.Errorf("channels.%s.baud must be > 0, got %d", name, ch.Baud)
		}
		if ch.TimeoutMs < 0 {
			return fmt.Errorf("channels.%s.timeout_ms must be >= 0, got %d", name, ch.TimeoutMs)
		}
	}
	if cfg.Channels.Primary.Port != "" && cfg.Channels.Primary.Port == cfg.Channels.Display.Port {
		return fmt.Errorf("channels: primary and display share port %s", cfg.Channels.Primary.Port)
	}

	// ------------------------------------------------------------
	// MODBUS ENDPOINTS
	// ------------------------------------------------------------

	for key, ep := range map[string]string{
		"relay.coil.endpoint": cfg.Relay.Coil.Endpoint,
		"sensor.endpoint":     cfg.Sensor.Endpoint,
		"status.endpoint":     cfg.Status.Endpoint,
	} {
		if strings.HasPrefix(ep, "rtu:") && len(ep) == len("rtu:") {
			return fmt.Errorf("%s: rtu endpoint without serial port", key)
		}
	}
	// Raw ingest is push-only: it can carry the status block and nothing else.
	for key, ep := range map[string]string{
		"relay.coil.endpoint": cfg.Relay.Coil.Endpoint,
		"sensor.endpoint":     cfg.Sensor.Endpoint,
	} {
		if strings.HasPrefix(ep, "ingest:") {
			return fmt.Errorf("%s: ingest endpoints only serve status", key)
		}
	}
	if cfg.Status.Endpoint == "ingest:" {
		return errors.New("status.endpoint: ingest endpoint without address")
	}

	if cfg.Sensor.Endpoint != "" {
		if cfg.Sensor.FC != 3 && cfg.Sensor.FC != 4 {
			return fmt.Errorf("sensor.fc must be 3 or 4, got %d", cfg.Sensor.FC)
		}
		if cfg.Sensor.Scale == 0 {
			return errors.New("sensor.scale must not be 0")
		}
		if cfg.Sensor.IntervalMs <= 0 {
			return fmt.Errorf("sensor.interval_ms must be > 0, got %d", cfg.Sensor.IntervalMs)
		}
	}

	if cfg.Status.Endpoint != "" && cfg.Status.IntervalMs <= 0 {
		return fmt.Errorf("status.interval_ms must be > 0, got %d", cfg.Status.IntervalMs)
	}

	if err := validateModbusOwnership(cfg); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// OBSERVABILITY
	// ------------------------------------------------------------

	if cfg.History.Queue < 0 {
		return fmt.Errorf("history.queue must be >= 0, got %d", cfg.History.Queue)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", cfg.Log.Format)
	}

	return nil
}

// validateModbusOwnership rejects coil, sensor and status ranges that
// overlap in the same table of the same unit on the same endpoint.
func validateModbusOwnership(cfg *Config) error {
	type span struct {
		start uint32
		end   uint32
		owner string
	}

	// key = endpoint | unit_id | table
	spans := make(map[string][]span)

	claim := func(endpoint string, unit uint8, table string, start, qty uint32, owner string) error {
		if endpoint == "" {
			return nil
		}
		end := start + qty - 1
		if end > 0xFFFF {
			return fmt.Errorf("%s: address range %d-%d exceeds 65535", owner, start, end)
		}

		key := fmt.Sprintf("%s|%d|%s", endpoint, unit, table)
		for _, s := range spans[key] {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"modbus overlap: endpoint=%s unit_id=%d table=%s range=%d-%d (%s) overlaps range=%d-%d (%s)",
					endpoint,
					unit,
					table,
					start,
					end,
					owner,
					s.start,
					s.end,
					s.owner,
				)
			}
		}
		spans[key] = append(spans[key], span{start: start, end: end, owner: owner})
		return nil
	}

	if err := claim(
		cfg.Relay.Coil.Endpoint,
		cfg.Relay.Coil.UnitID,
		"coils",
		uint32(cfg.Relay.Coil.Address),
		1,
		"relay.coil",
	); err != nil {
		return err
	}

	sensorTable := "input"
	if cfg.Sensor.FC == 3 {
		sensorTable = "holding"
	}
	if err := claim(
		cfg.Sensor.Endpoint,
		cfg.Sensor.UnitID,
		sensorTable,
		uint32(cfg.Sensor.Address),
		1,
		"sensor",
	); err != nil {
		return err
	}

	return claim(
		cfg.Status.Endpoint,
		cfg.Status.UnitID,
		"holding",
		uint32(cfg.Status.BaseSlot)*status.SlotsPerDevice,
		status.SlotsPerDevice,
		"status",
	)
}
