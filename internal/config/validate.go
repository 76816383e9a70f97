package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// Validate checks that configured values are usable. The endpoint URL is
// optional here; commands that talk to it call RequireEndpoint.
func (c *Config) Validate() error {
	if c.Endpoint.HTTPURL != "" {
		if err := checkURL("endpoint.http_url", c.Endpoint.HTTPURL, "http", "https"); err != nil {
			return err
		}
	}
	if c.Endpoint.WSURL != "" {
		if err := checkURL("endpoint.ws_url", c.Endpoint.WSURL, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.Endpoint.Timeout < 0 {
		return errors.New("endpoint.timeout must be >= 0")
	}
	if c.Endpoint.MaxRetries < 0 {
		return errors.New("endpoint.max_retries must be >= 0")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %s or %s, got %q", BackendMemory, BackendPostgres, c.Storage.Backend)
	}

	if c.Mirror.PageSize < 1 {
		return errors.New("mirror.page_size must be >= 1")
	}
	if c.Mirror.BatchSize < 1 {
		return errors.New("mirror.batch_size must be >= 1")
	}
	if c.Mirror.MaxReconnectDelay < c.Mirror.ReconnectDelay {
		return errors.New("mirror.max_reconnect_delay must be >= mirror.reconnect_delay")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		return fmt.Errorf("log.format must be %s or %s, got %q", FormatText, FormatJSON, c.Log.Format)
	}

	return nil
}

// RequireEndpoint reports an error when no GraphQL endpoint is configured.
func (c *Config) RequireEndpoint() error {
	if c.Endpoint.HTTPURL == "" {
		return errors.New("endpoint.http_url is required")
	}
	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host in %q", key, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s: scheme must be one of %v, got %q", key, schemes, u.Scheme)
}
