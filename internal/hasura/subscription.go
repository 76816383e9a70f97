package hasura

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buger/jsonparser"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/observability"
)

// Subprotocol is the websocket subprotocol Hasura speaks for subscriptions.
const Subprotocol = "graphql-transport-ws"

// graphql-transport-ws message types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

var (
	// ErrClientClosed is returned by operations on a closed client.
	ErrClientClosed = errors.New("subscription client closed")

	errNotConnected = errors.New("not connected")
)

// WSConfig configures SubscriptionClient behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending protocol pings.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// AckTimeout bounds the wait for connection_ack.
	AckTimeout time.Duration
	// BufferSize is the event buffer of each subscription.
	BufferSize int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		AckTimeout:        10 * time.Second,
		BufferSize:        256,
	}
}

// Event is one result of a subscription: the value of the root field, or an
// error reported by the server.
type Event struct {
	Data json.RawMessage
	Err  error
}

// Subscriber starts subscriptions. SubscriptionClient implements it.
type Subscriber interface {
	// Subscribe starts op. After a reconnect the subscription is restarted
	// with the operation resume returns, or op when resume is nil or
	// returns nil. The channel is closed when the server completes the
	// subscription, ctx is done or the client is closed.
	Subscribe(ctx context.Context, op *Operation, resume func() *Operation) (<-chan Event, error)
}

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscription struct {
	id     string
	resume func() *Operation
	ch     chan Event

	opMu   sync.Mutex
	op     *Operation
	sentOn *websocket.Conn

	stop     chan struct{}
	once     sync.Once
	mu       sync.RWMutex
	finished bool
}

func (s *subscription) operation() *Operation {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.op
}

// deliver blocks until ev is queued so no event is dropped.
func (s *subscription) deliver(ev Event, done <-chan struct{}) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finished {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	case <-s.stop:
		return false
	case <-done:
		return false
	}
}

func (s *subscription) finish() {
	s.once.Do(func() {
		close(s.stop)
		s.mu.Lock()
		s.finished = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// SubscriptionClient runs GraphQL subscriptions over graphql-transport-ws.
type SubscriptionClient struct {
	endpoint string
	config   WSConfig
	headers  map[string]string
	logger   logrus.FieldLogger
	metrics  *observability.Metrics

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	subs   map[string]*subscription
	subsMu sync.RWMutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// SubscriptionOption configures SubscriptionClient.
type SubscriptionOption func(*SubscriptionClient)

// WithWSConfig replaces the default configuration.
func WithWSConfig(cfg WSConfig) SubscriptionOption {
	return func(c *SubscriptionClient) {
		c.config = cfg
	}
}

// WithWSHeader adds a header to the connection_init payload. Empty values
// are ignored.
func WithWSHeader(key, value string) SubscriptionOption {
	return func(c *SubscriptionClient) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// WithWSHeaders adds every header of h to the connection_init payload.
func WithWSHeaders(h map[string]string) SubscriptionOption {
	return func(c *SubscriptionClient) {
		for k, v := range h {
			if v != "" {
				c.headers[k] = v
			}
		}
	}
}

// WithWSLogger sets the logger.
func WithWSLogger(l logrus.FieldLogger) SubscriptionOption {
	return func(c *SubscriptionClient) {
		c.logger = l
	}
}

// WithWSMetrics sets the metrics the client records to.
func WithWSMetrics(m *observability.Metrics) SubscriptionOption {
	return func(c *SubscriptionClient) {
		c.metrics = m
	}
}

// NewSubscriptionClient connects to a websocket endpoint, e.g.
// wss://example.com/v1/graphql, and completes the connection handshake.
func NewSubscriptionClient(ctx context.Context, endpoint string, opts ...SubscriptionOption) (*SubscriptionClient, error) {
	c := &SubscriptionClient{
		endpoint: endpoint,
		config:   DefaultWSConfig(),
		headers:  make(map[string]string),
		logger:   logrus.StandardLogger(),
		metrics:  observability.DefaultMetrics,
		subs:     make(map[string]*subscription),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.config.BufferSize <= 0 {
		c.config.BufferSize = DefaultWSConfig().BufferSize
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	// Start reader goroutine
	c.wg.Add(1)
	go c.readLoop()

	// Start ping goroutine
	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect dials the endpoint and waits for connection_ack.
func (c *SubscriptionClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{Subprotocol},
	}

	conn, resp, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	if err := c.handshake(conn); err != nil {
		conn.Close()
		return err
	}

	if c.closed.Load() {
		conn.Close()
		return ErrClientClosed
	}
	c.conn = conn
	return nil
}

func (c *SubscriptionClient) handshake(conn *websocket.Conn) error {
	payload, err := json.Marshal(map[string]any{"headers": c.headers})
	if err != nil {
		return fmt.Errorf("marshal connection_init: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(wsMessage{Type: msgConnectionInit, Payload: payload}); err != nil {
		return fmt.Errorf("write connection_init: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.config.AckTimeout))
	defer conn.SetReadDeadline(time.Time{})
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("wait for connection_ack: %w", err)
		}
		switch msg.Type {
		case msgConnectionAck:
			return nil
		case msgPing:
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := conn.WriteJSON(wsMessage{Type: msgPong}); err != nil {
				return fmt.Errorf("write pong: %w", err)
			}
		default:
			return fmt.Errorf("unexpected %q before connection_ack", msg.Type)
		}
	}
}

// Subscribe starts a subscription. See Subscriber.
func (c *SubscriptionClient) Subscribe(ctx context.Context, op *Operation, resume func() *Operation) (<-chan Event, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	s := &subscription{
		id:     uuid.NewString(),
		op:     op,
		resume: resume,
		ch:     make(chan Event, c.config.BufferSize),
		stop:   make(chan struct{}),
	}

	c.subsMu.Lock()
	c.subs[s.id] = s
	c.subsMu.Unlock()

	// While disconnected the subscription is sent by resubscribeAll.
	if err := c.sendSubscribe(s); err != nil && !errors.Is(err, errNotConnected) {
		c.subsMu.Lock()
		delete(c.subs, s.id)
		c.subsMu.Unlock()
		s.finish()
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ActiveSubscriptions.Inc()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-ctx.Done():
			c.unsubscribe(s)
		case <-s.stop:
		case <-c.done:
		}
	}()

	return s.ch, nil
}

// sendSubscribe sends the current operation of s unless it was already sent
// on the current connection.
func (c *SubscriptionClient) sendSubscribe(s *subscription) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}

	s.opMu.Lock()
	if s.sentOn == c.conn {
		s.opMu.Unlock()
		return nil
	}
	op := s.op
	s.sentOn = c.conn
	s.opMu.Unlock()

	payload, err := json.Marshal(newRequest(op))
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(wsMessage{ID: s.id, Type: msgSubscribe, Payload: payload}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

func (c *SubscriptionClient) write(msg wsMessage) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(msg)
}

// unsubscribe sends complete and releases the subscription.
func (c *SubscriptionClient) unsubscribe(s *subscription) {
	if err := c.write(wsMessage{ID: s.id, Type: msgComplete}); err != nil && !errors.Is(err, errNotConnected) {
		c.logger.WithError(err).WithField("id", s.id).Debug("write complete failed")
	}
	c.release(s)
}

func (c *SubscriptionClient) release(s *subscription) {
	c.subsMu.Lock()
	_, ok := c.subs[s.id]
	delete(c.subs, s.id)
	c.subsMu.Unlock()
	if ok && c.metrics != nil {
		c.metrics.ActiveSubscriptions.Dec()
	}
	s.finish()
}

// Close closes the WebSocket connection and every subscription channel.
func (c *SubscriptionClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for id, s := range c.subs {
		subs = append(subs, s)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()
	for _, s := range subs {
		if c.metrics != nil {
			c.metrics.ActiveSubscriptions.Dec()
		}
		s.finish()
	}

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *SubscriptionClient) readLoop() {
	defer c.wg.Done()

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.WithError(err).Warn("websocket read failed, reconnecting")
			c.dropConn(conn)
			if !c.reconnecting.Swap(true) {
				c.wg.Add(1)
				go c.reconnect()
			}
			continue
		}

		c.handleMessage(message)
	}
}

func (c *SubscriptionClient) dropConn(conn *websocket.Conn) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == conn {
		c.conn.Close()
		c.conn = nil
	}
}

// reconnect dials with exponential backoff until it succeeds or the client
// is closed, then resubscribes.
func (c *SubscriptionClient) reconnect() {
	defer c.wg.Done()
	defer c.reconnecting.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Wait before reconnecting
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.config.ReconnectDelay):
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.config.ReconnectDelay
	eb.MaxInterval = c.config.MaxReconnectDelay
	eb.MaxElapsedTime = 0

	err := backoff.RetryNotify(func() error {
		dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
		defer dialCancel()
		err := c.connect(dialCtx)
		if errors.Is(err, ErrClientClosed) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(eb, ctx), func(err error, wait time.Duration) {
		c.logger.WithError(err).WithField("retry_in", wait).Warn("websocket reconnect failed")
	})
	if err != nil {
		return
	}

	if c.metrics != nil {
		c.metrics.SubscriptionReconnects.Inc()
	}
	c.logger.Info("websocket reconnected")
	c.resubscribeAll()
}

// resubscribeAll restarts every active subscription on the new connection
// under its previous id.
func (c *SubscriptionClient) resubscribeAll() {
	c.subsMu.RLock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subsMu.RUnlock()

	for _, s := range subs {
		if s.resume != nil {
			if next := s.resume(); next != nil {
				s.opMu.Lock()
				s.op = next
				s.opMu.Unlock()
			}
		}
		if err := c.sendSubscribe(s); err != nil {
			c.logger.WithError(err).WithField("id", s.id).Warn("resubscribe failed")
		}
	}
}

// handleMessage processes incoming WebSocket message.
func (c *SubscriptionClient) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.WithError(err).Debug("ignoring malformed websocket message")
		return
	}
	if c.metrics != nil {
		c.metrics.SubscriptionMessages.WithLabelValues(msg.Type).Inc()
	}

	switch msg.Type {
	case msgPing:
		if err := c.write(wsMessage{Type: msgPong}); err != nil {
			c.logger.WithError(err).Debug("write pong failed")
		}
	case msgPong, msgConnectionAck:
	case msgNext:
		if s := c.lookup(msg.ID); s != nil {
			s.deliver(c.nextEvent(s, msg.Payload), c.done)
		}
	case msgError:
		if s := c.lookup(msg.ID); s != nil {
			s.deliver(Event{Err: parseErrorPayload(msg.Payload)}, c.done)
			c.release(s)
		}
	case msgComplete:
		if s := c.lookup(msg.ID); s != nil {
			c.release(s)
		}
	default:
		c.logger.WithField("type", msg.Type).Debug("ignoring websocket message")
	}
}

func (c *SubscriptionClient) lookup(id string) *subscription {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return c.subs[id]
}

// nextEvent turns a next payload ({data, errors}) into an Event.
func (c *SubscriptionClient) nextEvent(s *subscription, payload []byte) Event {
	data, err := parseResponse(payload)
	if err != nil {
		return Event{Err: err}
	}
	raw, _, _, err := jsonparser.Get(data, s.operation().RootField)
	if err != nil {
		return Event{Err: fmt.Errorf("extract %s: %w", s.operation().RootField, err)}
	}
	return Event{Data: json.RawMessage(raw)}
}

// parseErrorPayload decodes the payload of an error message, an array of
// GraphQL errors.
func parseErrorPayload(payload []byte) error {
	var list []*GraphQLError
	if err := json.Unmarshal(payload, &list); err != nil || len(list) == 0 {
		return newErrors([]*GraphQLError{{Message: "subscription failed: " + string(payload)}})
	}
	return newErrors(list)
}

// pingLoop sends periodic protocol pings to keep connection alive.
func (c *SubscriptionClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(wsMessage{Type: msgPing}); err != nil && !errors.Is(err, errNotConnected) {
				// Connection might be dead, reader will handle reconnect
				c.logger.WithError(err).Debug("write ping failed")
			}
		}
	}
}

// WebSocketURL derives the websocket endpoint from an http(s) GraphQL URL.
func WebSocketURL(httpURL string) string {
	switch {
	case strings.HasPrefix(httpURL, "https://"):
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	case strings.HasPrefix(httpURL, "http://"):
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	return httpURL
}
