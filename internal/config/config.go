// internal/config/config.go
package config

type Config struct {
	Device   DeviceConfig   `yaml:"device" mapstructure:"device"`
	Params   ParamsConfig   `yaml:"params" mapstructure:"params"`
	Channels ChannelsConfig `yaml:"channels" mapstructure:"channels"`
	Timing   TimingConfig   `yaml:"timing" mapstructure:"timing"`
	Relay    RelayConfig    `yaml:"relay" mapstructure:"relay"`
	Sensor   SensorConfig   `yaml:"sensor" mapstructure:"sensor"`
	Status   StatusConfig   `yaml:"status" mapstructure:"status"`
	Alarm    AlarmConfig    `yaml:"alarm" mapstructure:"alarm"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ---- DEVICE ----

// Identity sources.
const (
	IdentityPlatform = "platform"
	IdentityFile     = "file"
	IdentityStatic   = "static"
)

type DeviceConfig struct {
	Name         string   `yaml:"name" mapstructure:"name"`
	Identity     string   `yaml:"identity" mapstructure:"identity"`
	IdentityFile string   `yaml:"identity_file" mapstructure:"identity_file"`
	StaticID     []uint32 `yaml:"static_id" mapstructure:"static_id"`
}

// ---- PARAMETER STORE ----

type ParamsConfig struct {
	// Path of the persisted record. Empty keeps the record in memory only.
	Path           string `yaml:"path" mapstructure:"path"`
	WarnIntervalMs int    `yaml:"warn_interval_ms" mapstructure:"warn_interval_ms"`
}

// ---- MESSAGE CHANNELS ----

type ChannelsConfig struct {
	Primary SerialConfig `yaml:"primary" mapstructure:"primary"`
	Display SerialConfig `yaml:"display" mapstructure:"display"`
}

type SerialConfig struct {
	// Port is the serial device. Empty disables the channel.
	Port      string `yaml:"port" mapstructure:"port"`
	Baud      int    `yaml:"baud" mapstructure:"baud"`
	TimeoutMs int    `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	Queue     int    `yaml:"queue" mapstructure:"queue"`
}

// ---- TIMING ----

type TimingConfig struct {
	TickMs       int `yaml:"tick_ms" mapstructure:"tick_ms"`
	ConfigMillis int `yaml:"config_millis" mapstructure:"config_millis"`
}

// ---- RELAY ----

type RelayConfig struct {
	MinOffMs         int        `yaml:"min_off_ms" mapstructure:"min_off_ms"`
	StallMs          int        `yaml:"stall_ms" mapstructure:"stall_ms"`
	ActivityPressure float64    `yaml:"activity_pressure" mapstructure:"activity_pressure"`
	ReportMs         int        `yaml:"report_ms" mapstructure:"report_ms"`
	Coil             CoilConfig `yaml:"coil" mapstructure:"coil"`
}

// CoilConfig locates the relay coil. Empty endpoint runs without hardware.
type CoilConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	UnitID   uint8  `yaml:"unit_id" mapstructure:"unit_id"`
	Address  uint16 `yaml:"address" mapstructure:"address"`
}

// ---- PRESSURE SENSOR ----

type SensorConfig struct {
	// Endpoint of the pressure transducer. Empty reads zero pressure.
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	UnitID     uint8   `yaml:"unit_id" mapstructure:"unit_id"`
	FC         uint8   `yaml:"fc" mapstructure:"fc"` // 3 or 4
	Address    uint16  `yaml:"address" mapstructure:"address"`
	Scale      float64 `yaml:"scale" mapstructure:"scale"`
	Offset     float64 `yaml:"offset" mapstructure:"offset"`
	Signed     bool    `yaml:"signed" mapstructure:"signed"`
	IntervalMs int     `yaml:"interval_ms" mapstructure:"interval_ms"`
	StaleMs    int     `yaml:"stale_ms" mapstructure:"stale_ms"`
}

// ---- STATUS MIRROR ----

type StatusConfig struct {
	// Endpoint receiving the status block. Empty disables the mirror.
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	UnitID     uint8  `yaml:"unit_id" mapstructure:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot" mapstructure:"base_slot"`
	IntervalMs int    `yaml:"interval_ms" mapstructure:"interval_ms"`
}

// ---- ALARM ----

type AlarmConfig struct {
	MuteMs int `yaml:"mute_ms" mapstructure:"mute_ms"`
}

// ---- HISTORY ----

type HistoryConfig struct {
	// DSN of the postgres audit database. Empty disables history.
	DSN   string `yaml:"dsn" mapstructure:"dsn"`
	Queue int    `yaml:"queue" mapstructure:"queue"`
}

// ---- METRICS ----

type MetricsConfig struct {
	// Listen address for /metrics. Empty disables the endpoint.
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// ModbusTimeoutMs is the request timeout for every Modbus endpoint.
const ModbusTimeoutMs = 500
