// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/Tubbz-alt/pabv-control/internal/status"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// Normalize device name:
	// - ASCII already validated
	// - Truncate to the status block capacity
	if len(cfg.Device.Name) > status.DeviceNameMaxChars {
		cfg.Device.Name = cfg.Device.Name[:status.DeviceNameMaxChars]
	}

	for _, ch := range []*SerialConfig{&cfg.Channels.Primary, &cfg.Channels.Display} {
		if ch.Queue <= 0 {
			ch.Queue = 8
		}
	}

	// A sample older than a few poll intervals is not trusted.
	if cfg.Sensor.Endpoint != "" && cfg.Sensor.StaleMs < cfg.Sensor.IntervalMs {
		cfg.Sensor.StaleMs = 5 * cfg.Sensor.IntervalMs
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	// No other normalization is performed here.
	// Defaults belong to Load; derived names belong to the composition root.
}
