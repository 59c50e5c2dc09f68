// internal/config/load.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: AMBU_RELAY_MIN_OFF_MS.
const EnvPrefix = "AMBU"

// Load reads the YAML file at path, expands ${VAR} references, applies
// defaults and AMBU_* environment overrides.
// An empty path yields defaults plus environment.
// Load does not validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := v.ReadConfig(strings.NewReader(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.name", "")
	v.SetDefault("device.identity", IdentityFile)
	v.SetDefault("device.identity_file", "/var/lib/ambu/device-id")

	v.SetDefault("params.path", "/var/lib/ambu/params.bin")
	v.SetDefault("params.warn_interval_ms", 10000)

	for _, ch := range []string{"primary", "display"} {
		v.SetDefault("channels."+ch+".port", "")
		v.SetDefault("channels."+ch+".baud", 57600)
		v.SetDefault("channels."+ch+".timeout_ms", 100)
		v.SetDefault("channels."+ch+".queue", 8)
	}

	v.SetDefault("timing.tick_ms", 10)
	v.SetDefault("timing.config_millis", 1000)

	v.SetDefault("relay.min_off_ms", 10000)
	v.SetDefault("relay.stall_ms", 6000)
	v.SetDefault("relay.activity_pressure", 2.0)
	v.SetDefault("relay.report_ms", 1000)
	v.SetDefault("relay.coil.endpoint", "")
	v.SetDefault("relay.coil.unit_id", 1)
	v.SetDefault("relay.coil.address", 0)

	v.SetDefault("sensor.endpoint", "")
	v.SetDefault("sensor.unit_id", 1)
	v.SetDefault("sensor.fc", 4)
	v.SetDefault("sensor.address", 0)
	v.SetDefault("sensor.scale", 0.1)
	v.SetDefault("sensor.offset", 0.0)
	v.SetDefault("sensor.signed", true)
	v.SetDefault("sensor.interval_ms", 20)
	v.SetDefault("sensor.stale_ms", 500)

	v.SetDefault("status.endpoint", "")
	v.SetDefault("status.unit_id", 1)
	v.SetDefault("status.base_slot", 0)
	v.SetDefault("status.interval_ms", 1000)

	v.SetDefault("alarm.mute_ms", 120000)

	v.SetDefault("history.dsn", "")
	v.SetDefault("history.queue", 64)

	v.SetDefault("metrics.listen", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}
