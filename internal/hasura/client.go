package hasura

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Hasura request headers.
const (
	HeaderAdminSecret = "x-hasura-admin-secret"
	HeaderRole        = "x-hasura-role"
)

// Executor runs operations. Client implements it; tests substitute fakes.
type Executor interface {
	// Do decodes data.<RootField> into out.
	Do(ctx context.Context, op *Operation, out any) error
	// Raw returns the whole data object.
	Raw(ctx context.Context, op *Operation) (json.RawMessage, error)
}

// DocumentValidator checks a GraphQL document before it is sent.
// *schema.Validator satisfies it.
type DocumentValidator interface {
	Validate(document string) error
}

// Client posts GraphQL operations to a Hasura endpoint.
type Client struct {
	endpoint    string
	client      *http.Client
	headers     map[string]string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	validator   DocumentValidator
	metrics     *observability.Metrics
	logger      logrus.FieldLogger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithAdminSecret sends x-hasura-admin-secret.
func WithAdminSecret(secret string) ClientOption {
	return WithHeader(HeaderAdminSecret, secret)
}

// WithRole sends x-hasura-role.
func WithRole(role string) ClientOption {
	return WithHeader(HeaderRole, role)
}

// WithHeader sets an extra request header. Empty values are ignored.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// WithValidator rejects invalid documents before any request is made.
func WithValidator(v DocumentValidator) ClientOption {
	return func(c *Client) {
		c.validator = v
	}
}

// WithMetrics sets the metrics the client records to.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the GraphQL endpoint, e.g.
// https://example.com/v1/graphql.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		headers:     make(map[string]string),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		metrics:     observability.DefaultMetrics,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Headers returns a copy of the headers sent with every request.
func (c *Client) Headers() map[string]string {
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

// request is the GraphQL-over-HTTP request body.
type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

func newRequest(op *Operation) request {
	return request{Query: op.Document, Variables: op.Variables, OperationName: op.Name}
}

// Do runs op and decodes data.<RootField> into out. A null root field,
// e.g. a missing <table>_by_pk row, returns ErrNotFound.
func (c *Client) Do(ctx context.Context, op *Operation, out any) error {
	data, err := c.Raw(ctx, op)
	if err != nil {
		return err
	}
	return decodeRoot(data, op.RootField, out)
}

// Raw runs op and returns the data object.
func (c *Client) Raw(ctx context.Context, op *Operation) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.execute(ctx, op)
	if c.metrics != nil {
		c.metrics.RecordGraphQLRequest(string(op.Type), time.Since(start), err)
	}
	return data, err
}

// execute posts the operation, retrying transport errors, 429 and 5xx
// responses with exponential backoff. GraphQL errors are not retried.
func (c *Client) execute(ctx context.Context, op *Operation) (json.RawMessage, error) {
	if c.validator != nil {
		if err := c.validator.Validate(op.Document); err != nil {
			return nil, fmt.Errorf("%s: %w", op.Name, err)
		}
	}

	body, err := json.Marshal(newRequest(op))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var (
		data      json.RawMessage
		permanent bool
	)
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			permanent = true
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited (429)")
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		d, err := parseResponse(respBody)
		if err != nil {
			permanent = true
			var errs *Errors
			if resp.StatusCode != http.StatusOK && !errors.As(err, &errs) {
				err = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			}
			return backoff.Permanent(err)
		}
		data = d
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryDelay
	eb.MaxInterval = c.maxDelay
	eb.Multiplier = c.backoffMult
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		if c.metrics != nil {
			c.metrics.GraphQLRetries.Inc()
		}
		c.logger.WithFields(logrus.Fields{
			"operation": op.Name,
			"retry_in":  wait,
		}).WithError(err).Warn("graphql request failed, retrying")
	}

	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		if permanent {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("max retries exceeded: %w", err)
	}
	return data, nil
}

// parseResponse extracts data from a GraphQL response, turning the errors
// array and Hasura's {"error","code"} envelope into *Errors.
func parseResponse(body []byte) (json.RawMessage, error) {
	if raw, dt, _, err := jsonparser.Get(body, "errors"); err == nil && dt == jsonparser.Array {
		var list []*GraphQLError
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("unmarshal errors: %w", err)
		}
		if len(list) > 0 {
			return nil, newErrors(list)
		}
	}
	if msg, err := jsonparser.GetString(body, "error"); err == nil {
		gqlErr := &GraphQLError{Message: msg}
		if code, err := jsonparser.GetString(body, "code"); err == nil {
			gqlErr.Extensions = map[string]any{"code": code}
		}
		return nil, newErrors([]*GraphQLError{gqlErr})
	}

	raw, dt, _, err := jsonparser.Get(body, "data")
	if err != nil {
		return nil, fmt.Errorf("response has no data: %w", err)
	}
	if dt != jsonparser.Object {
		return nil, fmt.Errorf("response data is %s, want object", dt)
	}
	return raw, nil
}

// decodeRoot decodes data.<field> into out.
func decodeRoot(data []byte, field string, out any) error {
	raw, dt, _, err := jsonparser.Get(data, field)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return fmt.Errorf("%w: response has no field %s", ErrUnknownField, field)
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", field, err)
	}
	if dt == jsonparser.Null {
		return fmt.Errorf("%s: %w", field, ErrNotFound)
	}
	if out == nil {
		return nil
	}
	if dt == jsonparser.String {
		// jsonparser strips the quotes of string values.
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return fmt.Errorf("extract %s: %w", field, err)
		}
		quoted, err := json.Marshal(s)
		if err != nil {
			return err
		}
		raw = quoted
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}
