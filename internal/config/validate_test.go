// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a valid config quickly
func valid() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:     "AMBU-01",
			Identity: IdentityStatic,
			StaticID: []uint32{1, 2, 3, 4},
		},
		Timing: TimingConfig{TickMs: 10, ConfigMillis: 1000},
		Relay: RelayConfig{
			MinOffMs:         10000,
			StallMs:          6000,
			ActivityPressure: 2,
			ReportMs:         1000,
			Coil:             CoilConfig{Endpoint: "plc:502", UnitID: 1, Address: 0},
		},
		Sensor: SensorConfig{
			Endpoint:   "plc:502",
			UnitID:     1,
			FC:         4,
			Address:    0,
			Scale:      0.1,
			IntervalMs: 20,
		},
		Status: StatusConfig{
			Endpoint:   "plc:502",
			UnitID:     1,
			BaseSlot:   0,
			IntervalMs: 1000,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// ---- tests ----

func TestValidate_OK(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"non ascii name":       func(c *Config) { c.Device.Name = "ÄMBU" },
		"unknown identity":     func(c *Config) { c.Device.Identity = "bios" },
		"file without path":    func(c *Config) { c.Device.Identity = IdentityFile },
		"short static id":      func(c *Config) { c.Device.StaticID = []uint32{1} },
		"zero tick":            func(c *Config) { c.Timing.TickMs = 0 },
		"zero config millis":   func(c *Config) { c.Timing.ConfigMillis = 0 },
		"zero min off":         func(c *Config) { c.Relay.MinOffMs = 0 },
		"min off below tick":   func(c *Config) { c.Timing.TickMs = 20000 },
		"min off below floor":  func(c *Config) { c.Relay.MinOffMs = 9999 },
		"min off from typo":    func(c *Config) { c.Relay.MinOffMs = 10 },
		"zero stall":           func(c *Config) { c.Relay.StallMs = 0 },
		"zero activity":        func(c *Config) { c.Relay.ActivityPressure = 0 },
		"serial without baud":  func(c *Config) { c.Channels.Primary = SerialConfig{Port: "/dev/ttyACM0"} },
		"shared serial port":   func(c *Config) { c.Channels.Primary = SerialConfig{Port: "/dev/x", Baud: 1}; c.Channels.Display = c.Channels.Primary },
		"bare rtu endpoint":    func(c *Config) { c.Relay.Coil.Endpoint = "rtu:" },
		"sensor bad fc":        func(c *Config) { c.Sensor.FC = 1 },
		"sensor zero scale":    func(c *Config) { c.Sensor.Scale = 0 },
		"status zero interval": func(c *Config) { c.Status.IntervalMs = 0 },
		"bad log level":        func(c *Config) { c.Log.Level = "loud" },
		"bad log format":       func(c *Config) { c.Log.Format = "xml" },
		"ingest coil":          func(c *Config) { c.Relay.Coil.Endpoint = "ingest:10.0.0.9:9502" },
		"bare ingest status":   func(c *Config) { c.Status.Endpoint = "ingest:" },
	}

	for name, mutate := range cases {
		c := valid()
		mutate(c)
		if err := Validate(c); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestValidate_SensorOverlapsStatusBlock(t *testing.T) {
	c := valid()
	c.Sensor.FC = 3
	c.Sensor.Address = 5 // inside status slots 0-19

	err := Validate(c)
	if err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
	if !strings.Contains(err.Error(), "modbus overlap") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoOverlapDifferentUnit(t *testing.T) {
	c := valid()
	c.Sensor.FC = 3
	c.Sensor.Address = 5
	c.Sensor.UnitID = 2

	if err := Validate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoOverlapDifferentEndpoints(t *testing.T) {
	c := valid()
	c.Sensor.FC = 3
	c.Sensor.Address = 5
	c.Sensor.Endpoint = "rtu:/dev/ttyUSB0"

	if err := Validate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StatusBlockPastAddressSpace(t *testing.T) {
	c := valid()
	c.Status.BaseSlot = 3300 // 66000

	if err := Validate(c); err == nil {
		t.Fatalf("expected address range error, got nil")
	}
}

func TestNormalize(t *testing.T) {
	c := valid()
	c.Device.Name = "A-VERY-LONG-DEVICE-NAME"
	c.Sensor.StaleMs = 0
	c.Log.Level = "DEBUG"
	c.Log.Format = "JSON"

	if err := Validate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Normalize(c)

	if c.Device.Name != "A-VERY-LONG-DEVI" {
		t.Fatalf("device name not truncated: %q", c.Device.Name)
	}
	if c.Channels.Primary.Queue != 8 || c.Channels.Display.Queue != 8 {
		t.Fatalf("queue defaults not applied: %+v", c.Channels)
	}
	if c.Sensor.StaleMs != 100 {
		t.Fatalf("stale_ms: got=%d want=100", c.Sensor.StaleMs)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Fatalf("log not lowercased: %+v", c.Log)
	}
}
