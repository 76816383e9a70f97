package config

import "time"

// Config is the root configuration shared by the futarchy-graph commands.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint" envconfig:"endpoint"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"storage"`
	Mirror   MirrorConfig   `yaml:"mirror" envconfig:"mirror"`
	Server   ServerConfig   `yaml:"server" envconfig:"server"`
	Log      LogConfig      `yaml:"log" envconfig:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"metrics"`
}

// EndpointConfig holds the GraphQL endpoint settings.
type EndpointConfig struct {
	HTTPURL     string            `yaml:"http_url" envconfig:"http_url"`
	WSURL       string            `yaml:"ws_url" envconfig:"ws_url"` // derived from http_url when empty
	AdminSecret string            `yaml:"admin_secret" envconfig:"admin_secret"`
	Role        string            `yaml:"role" envconfig:"role"`
	Headers     map[string]string `yaml:"headers" envconfig:"headers"`
	Timeout     time.Duration     `yaml:"timeout" envconfig:"timeout"`
	MaxRetries  int               `yaml:"max_retries" envconfig:"max_retries"`
	RetryDelay  time.Duration     `yaml:"retry_delay" envconfig:"retry_delay"`
	// Validate checks outgoing documents against the catalog schema.
	Validate bool `yaml:"validate" envconfig:"validate"`
}

// StorageConfig selects where mirrored rows are written.
type StorageConfig struct {
	Backend       string `yaml:"backend" envconfig:"backend"` // memory or postgres
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn" envconfig:"clickhouse_dsn"` // optional analytics copy
	Migrate       bool   `yaml:"migrate" envconfig:"migrate"`
}

// MirrorConfig holds backfill and stream settings.
type MirrorConfig struct {
	Tables            []string      `yaml:"tables" envconfig:"tables"` // empty mirrors every table
	PageSize          int           `yaml:"page_size" envconfig:"page_size"`
	BatchSize         int           `yaml:"batch_size" envconfig:"batch_size"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay" envconfig:"reconnect_delay"`
	MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay" envconfig:"max_reconnect_delay"`
	PingInterval      time.Duration `yaml:"ping_interval" envconfig:"ping_interval"`
}

// ServerConfig holds the schema server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"addr"`
	// Snapshot is a compact schema file to serve instead of the built-in catalog.
	Snapshot        string        `yaml:"snapshot" envconfig:"snapshot"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"level"`
	Format string `yaml:"format" envconfig:"format"` // text or json
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"addr"` // empty disables the metrics listener
}
