package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = 500 * time.Millisecond
	DefaultBackend           = BackendMemory
	DefaultPageSize          = 1000
	DefaultBatchSize         = 100
	DefaultReconnectDelay    = 1 * time.Second
	DefaultMaxReconnectDelay = 30 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultServerAddr        = ":8080"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = FormatText
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

func (c *Config) applyDefaults() {
	if c.Endpoint.Timeout == 0 {
		c.Endpoint.Timeout = DefaultTimeout
	}
	if c.Endpoint.MaxRetries == 0 {
		c.Endpoint.MaxRetries = DefaultMaxRetries
	}
	if c.Endpoint.RetryDelay == 0 {
		c.Endpoint.RetryDelay = DefaultRetryDelay
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}

	if c.Mirror.PageSize == 0 {
		c.Mirror.PageSize = DefaultPageSize
	}
	if c.Mirror.BatchSize == 0 {
		c.Mirror.BatchSize = DefaultBatchSize
	}
	if c.Mirror.ReconnectDelay == 0 {
		c.Mirror.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Mirror.MaxReconnectDelay == 0 {
		c.Mirror.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	if c.Mirror.PingInterval == 0 {
		c.Mirror.PingInterval = DefaultPingInterval
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
