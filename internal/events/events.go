// Package events publishes submission outcomes to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "xrplgate.outcomes"

// OutcomeEvent describes one finished submission.
type OutcomeEvent struct {
	TxType          string    `json:"txType"`
	Account         string    `json:"account"`
	Hash            string    `json:"hash,omitempty"`
	Sequence        uint32    `json:"sequence"`
	ResultCode      string    `json:"resultCode,omitempty"`
	Success         bool      `json:"success"`
	Validated       bool      `json:"validated"`
	LedgerIndex     uint32    `json:"ledgerIndex,omitempty"`
	Attempts        int       `json:"attempts"`
	CreatedObjectID string    `json:"createdObjectId,omitempty"`
	IdempotencyKey  string    `json:"idempotencyKey,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Config configures the NATS connection.
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	ReconnectWait time.Duration
	MaxReconnects int
	Timeout       time.Duration
}

// Publisher sends OutcomeEvents to <prefix>.<account>.
type Publisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

// Connect dials NATS and returns a publisher over the connection.
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Name == "" {
		cfg.Name = "xrplgate"
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return NewPublisher(nc, cfg.SubjectPrefix, logger), nil
}

// NewPublisher wraps an established connection.
func NewPublisher(conn Conn, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{conn: conn, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// Subject returns the subject events of account are published on.
func (p *Publisher) Subject(account string) string {
	return p.prefix + "." + account
}

// Publish sends ev. Timestamp defaults to now.
func (p *Publisher) Publish(ctx context.Context, ev OutcomeEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding outcome event: %w", err)
	}
	subject := p.Subject(ev.Account)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	p.logger.DebugContext(ctx, "outcome published", "subject", subject, "hash", ev.Hash)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
