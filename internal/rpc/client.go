package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeJamon/xrplgate/internal/metrics"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var (
	// ErrNotConnected is returned by requests made while no connection is
	// open.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionClosed is returned to requests still waiting when the
	// connection goes away.
	ErrConnectionClosed = errors.New("connection closed")
)

// Config configures a Client.
type Config struct {
	URL            string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// RateLimit caps requests per second. Zero disables the limit.
	RateLimit float64
	Burst     int
}

// Client is a rippled websocket API client. Requests are correlated to
// responses by id, so one Client can be shared by concurrent callers.
type Client struct {
	cfg     Config
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
	nextID  atomic.Uint64

	mu      sync.Mutex
	session *session
}

// session is one open websocket connection with its in-flight requests.
type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}

	pendingMu sync.Mutex
	pending   map[uint64]chan reply
	err       error
}

type reply struct {
	msg *message
	err error
}

type message struct {
	ID           *uint64         `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorCode    int             `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

// NewClient creates a client for cfg.URL. It does not connect.
func NewClient(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	c := &Client{
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.DialTimeout},
		logger:  logger,
		metrics: m,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// URL returns the node endpoint.
func (c *Client) URL() string { return c.cfg.URL }

// IsConnected reports whether a connection is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Connect opens a connection if none is open.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.connect(ctx)
	return err
}

// connect reports whether this call opened the connection.
func (c *Client) connect(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return false, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	conn, _, err := c.dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", c.cfg.URL, err)
	}
	s := &session{
		conn:    conn,
		done:    make(chan struct{}),
		pending: make(map[uint64]chan reply),
	}
	c.session = s
	go c.readLoop(s)
	c.logger.Debug("connected to node", "url", c.cfg.URL)
	return true, nil
}

// Disconnect closes the open connection, if any.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}

	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	err := s.conn.Close()
	<-s.done
	c.logger.Debug("disconnected from node", "url", c.cfg.URL)
	return err
}

// Acquire makes sure a connection is open for the duration of one
// operation. The returned release closes the connection only if Acquire
// opened it, and is safe to call on every exit path.
func (c *Client) Acquire(ctx context.Context) (release func(), err error) {
	opened, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	if !opened {
		return func() {}, nil
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := c.Disconnect(); err != nil {
				c.logger.Warn("closing node connection", "error", err)
			}
		})
	}, nil
}

func (c *Client) readLoop(s *session) {
	var err error
	defer func() {
		s.fail(err)
		close(s.done)
		c.mu.Lock()
		if c.session == s {
			c.session = nil
		}
		c.mu.Unlock()
	}()

	for {
		var data []byte
		_, data, err = s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("node connection lost", "url", c.cfg.URL, "error", err)
			}
			return
		}
		var msg message
		if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil {
			c.logger.Warn("undecodable node message", "error", jsonErr)
			continue
		}
		// Stream messages (ledgerClosed, transaction, ...) have no id.
		if msg.ID == nil {
			continue
		}
		s.deliver(*msg.ID, &msg)
	}
}

func (s *session) register(id uint64) (chan reply, error) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan reply, 1)
	s.pending[id] = ch
	return ch, nil
}

func (s *session) forget(id uint64) {
	s.pendingMu.Lock()
	delete(s.pending, id)
	s.pendingMu.Unlock()
}

func (s *session) deliver(id uint64, msg *message) {
	s.pendingMu.Lock()
	ch, ok := s.pending[id]
	delete(s.pending, id)
	s.pendingMu.Unlock()
	if ok {
		ch <- reply{msg: msg}
	}
}

func (s *session) fail(cause error) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.err = ErrConnectionClosed
	if cause != nil {
		s.err = fmt.Errorf("%w: %v", ErrConnectionClosed, cause)
	}
	for id, ch := range s.pending {
		ch <- reply{err: s.err}
		delete(s.pending, id)
	}
}

// Request sends command with params and decodes the result object into
// result, which may be nil. Node side failures are returned as *RpcError.
func (c *Client) Request(ctx context.Context, command string, params map[string]any, result any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveNodeRequest(command, requestStatus(err), time.Since(start))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}

	id := c.nextID.Add(1)
	body := make(map[string]any, len(params)+2)
	for k, v := range params {
		body[k] = v
	}
	body["id"] = id
	body["command"] = command
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", command, err)
	}

	ch, err := s.register(id)
	if err != nil {
		return err
	}
	defer s.forget(id)

	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(c.cfg.RequestTimeout))
	err = s.conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("sending %s: %w", command, err)
	}
	c.logger.DebugContext(ctx, "node request", "command", command, "id", id)

	timeout := time.NewTimer(c.cfg.RequestTimeout)
	defer timeout.Stop()

	var r reply
	select {
	case r = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout.C:
		return fmt.Errorf("%s: no response after %s", command, c.cfg.RequestTimeout)
	}
	if r.err != nil {
		return r.err
	}
	if r.msg.Status == "error" || r.msg.Error != "" {
		return newRpcError(command, r.msg)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(r.msg.Result, result); err != nil {
		return fmt.Errorf("decoding %s result: %w", command, err)
	}
	return nil
}

func requestStatus(err error) string {
	var rpcErr *RpcError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rpcErr):
		return rpcErr.ErrorString
	default:
		return "transport"
	}
}
