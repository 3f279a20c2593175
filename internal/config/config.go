// internal/config/config.go
package config

// Config is shared by the acquisition and display processes.
// It is built once at startup and passed by value afterwards.
type Config struct {
	Link        LinkConfig        `yaml:"link"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Record      RecordConfig      `yaml:"record"`
	Store       StoreConfig       `yaml:"store"`
	Mirror      MirrorConfig      `yaml:"mirror"`
	Display     DisplayConfig     `yaml:"display"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ---- LINK (sync transport) ----

type LinkConfig struct {
	Network    string `yaml:"network"` // unix | tcp
	Address    string `yaml:"address"` // socket path or host:port
	BufferSize int    `yaml:"buffer_size"`

	// Producer side
	Handshake  bool `yaml:"handshake"`
	SyncWaitMs int  `yaml:"sync_wait_ms"`
	TimeoutMs  int  `yaml:"timeout_ms"`
}

// ---- ACQUISITION ----

type AcquisitionConfig struct {
	IntervalMs        int    `yaml:"interval_ms"`
	InitRetryMs       int    `yaml:"init_retry_ms"`
	ErrorDelayMs      int    `yaml:"error_delay_ms"`
	PersistIntervalMs int    `yaml:"persist_interval_ms"`
	ReinitAfter       int    `yaml:"reinit_after"` // consecutive all-node failures; 0 disables
	CPUTempPath       string `yaml:"cpu_temp_path"`

	Ports []PortConfig `yaml:"ports"`
	Nodes []NodeConfig `yaml:"nodes"` // read order
}

type PortConfig struct {
	ID        string `yaml:"id"`
	Mode      string `yaml:"mode"`     // rtu | tcp
	Endpoint  string `yaml:"endpoint"` // serial device or host:port
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"` // N | E | O
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`
	LatencyMs int    `yaml:"latency_ms"` // pause between requests on this port
}

type NodeConfig struct {
	Name    string        `yaml:"name"`
	Port    string        `yaml:"port"`
	SlaveID uint8         `yaml:"slave_id"`
	Points  []PointConfig `yaml:"points"`
}

// PointConfig is one register-backed measurement.
type PointConfig struct {
	Name     string  `yaml:"name"`
	FC       uint8   `yaml:"fc"` // 3 holding, 4 input
	Address  uint16  `yaml:"address"`
	Quantity uint16  `yaml:"quantity"` // 1 or 2 registers
	Signed   bool    `yaml:"signed"`
	Scale    float64 `yaml:"scale"`
	Decimals *int    `yaml:"decimals"` // nil = shortest representation
}

// ---- RECORD LAYOUT ----

type RecordConfig struct {
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig maps one record position to its source.
// Source is "timestamp", "cpu_temperature" or "<NODE>.<point>".
type FieldConfig struct {
	Title  string `yaml:"title"`
	Source string `yaml:"source"`
}

// ---- PERSISTENCE ----

type StoreConfig struct {
	CSVPath   string      `yaml:"csv_path"`
	Driver    string      `yaml:"driver"` // mysql | postgres; empty disables remote store
	DSN       string      `yaml:"dsn"`
	Table     string      `yaml:"table"`
	TimeoutMs int         `yaml:"timeout_ms"`
	Retry     RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMs int `yaml:"initial_delay_ms"`
	MaxDelayMs     int `yaml:"max_delay_ms"`
}

// MirrorConfig enables the optional latest-record mirror. Empty Addr disables it.
type MirrorConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	Channel  string `yaml:"channel"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	Title           string            `yaml:"title"`
	IntervalMs      int               `yaml:"interval_ms"`
	AcceptTimeoutMs int               `yaml:"accept_timeout_ms"`
	Components      []ComponentConfig `yaml:"components"`
}

type ComponentConfig struct {
	Name       string            `yaml:"name"`
	Parameters []ParameterConfig `yaml:"parameters"`
}

type ParameterConfig struct {
	Label string `yaml:"label"`
	Field int    `yaml:"field"`
}

// ---- AMBIENT ----

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // text | json
	Output   string `yaml:"output"` // stdout | file
	FilePath string `yaml:"file_path"`
}

// MetricsConfig holds per-process listen addresses. Empty disables.
type MetricsConfig struct {
	AcquireAddr string `yaml:"acquire_addr"`
	DisplayAddr string `yaml:"display_addr"`
}

// Titles returns the record column titles in wire order.
func (c *Config) Titles() []string {
	out := make([]string, 0, len(c.Record.Fields))
	for _, f := range c.Record.Fields {
		out = append(out, f.Title)
	}
	return out
}

// FieldCount is N, the fixed record length.
func (c *Config) FieldCount() int { return len(c.Record.Fields) }
