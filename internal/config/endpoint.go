package config

import "futarchy-graph/internal/hasura"

// ClientOptions turns the endpoint settings into hasura client options.
func (e EndpointConfig) ClientOptions() []hasura.ClientOption {
	opts := []hasura.ClientOption{
		hasura.WithMaxRetries(e.MaxRetries),
		hasura.WithAdminSecret(e.AdminSecret),
		hasura.WithRole(e.Role),
	}
	if e.Timeout > 0 {
		opts = append(opts, hasura.WithTimeout(e.Timeout))
	}
	if e.RetryDelay > 0 {
		opts = append(opts, hasura.WithRetryDelay(e.RetryDelay))
	}
	for k, v := range e.Headers {
		opts = append(opts, hasura.WithHeader(k, v))
	}
	return opts
}

// WebSocketURL returns ws_url, or the websocket form of http_url.
func (e EndpointConfig) WebSocketURL() string {
	if e.WSURL != "" {
		return e.WSURL
	}
	return hasura.WebSocketURL(e.HTTPURL)
}

// WSHeaders are the headers sent in the subscription connection_init payload.
func (e EndpointConfig) WSHeaders() map[string]string {
	h := make(map[string]string, len(e.Headers)+2)
	for k, v := range e.Headers {
		h[k] = v
	}
	if e.AdminSecret != "" {
		h[hasura.HeaderAdminSecret] = e.AdminSecret
	}
	if e.Role != "" {
		h[hasura.HeaderRole] = e.Role
	}
	return h
}

// WSConfig returns the subscription client settings.
func (m MirrorConfig) WSConfig() hasura.WSConfig {
	cfg := hasura.DefaultWSConfig()
	if m.ReconnectDelay > 0 {
		cfg.ReconnectDelay = m.ReconnectDelay
	}
	if m.MaxReconnectDelay > 0 {
		cfg.MaxReconnectDelay = m.MaxReconnectDelay
	}
	if m.PingInterval > 0 {
		cfg.PingInterval = m.PingInterval
	}
	return cfg
}
