// Package submit signs built transactions, submits them and follows them
// to validation.
package submit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/events"
	"github.com/LeJamon/xrplgate/internal/idempotency"
	"github.com/LeJamon/xrplgate/internal/journal"
	"github.com/LeJamon/xrplgate/internal/metrics"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/settlement"
)

// Node is the node access the executor needs.
type Node interface {
	Acquire(ctx context.Context) (release func(), err error)
	AccountInfo(ctx context.Context, account, ledgerIndex string) (*rpc.AccountInfo, error)
	Submit(ctx context.Context, txBlob string) (*rpc.SubmitResult, error)
	Tx(ctx context.Context, hash string) (*tx.Envelope, error)
	ValidatedLedger(ctx context.Context) (uint32, error)
}

// Builder resolves an intent for one attempt.
type Builder interface {
	Build(ctx context.Context, in tx.Intent, sequence uint32) (*tx.Built, error)
}

// Signer produces the signed blob and hash of a transaction.
type Signer interface {
	Sign(ctx context.Context, txJSON map[string]any) (blob, hash string, err error)
}

// Recorder stores finished attempts.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Publisher announces finished submissions.
type Publisher interface {
	Publish(ctx context.Context, ev events.OutcomeEvent) error
}

// Config tunes waiting and retrying.
type Config struct {
	// MaxRetries is how many times an expired attempt is rebuilt and
	// submitted again.
	MaxRetries   int
	RetryDelay   time.Duration
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Second, PollInterval: time.Second}
}

// Outcome is the final state of a submitted transaction. A ledger
// rejection is an Outcome with Success false, not an error.
type Outcome struct {
	TxType      string            `json:"txType"`
	Account     string            `json:"account"`
	ResultCode  string            `json:"resultCode"`
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Hash        string            `json:"hash"`
	Sequence    uint32            `json:"sequence"`
	LedgerIndex uint32            `json:"ledgerIndex,omitempty"`
	Validated   bool              `json:"validated"`
	Meta        *meta.Meta        `json:"meta,omitempty"`
	Settlement  settlement.Result `json:"settlement"`
	Attempts    int               `json:"attempts"`
	Raw         json.RawMessage   `json:"-"`
}

// Options are per call settings of Execute.
type Options struct {
	// IdempotencyKey, when set and a guard is configured, makes the call
	// at most once per key.
	IdempotencyKey string
}

// Executor runs transactions against one node.
type Executor struct {
	node      Node
	builder   Builder
	cfg       Config
	guard     idempotency.Guard
	recorder  Recorder
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

func WithGuard(g idempotency.Guard) Option { return func(e *Executor) { e.guard = g } }
func WithRecorder(r Recorder) Option       { return func(e *Executor) { e.recorder = r } }
func WithPublisher(p Publisher) Option     { return func(e *Executor) { e.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}
func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.logger = l } }

func New(node Node, builder Builder, cfg Config, opts ...Option) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	e := &Executor{node: node, builder: builder, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Submit signs, submits and waits for one built transaction. The node
// connection is opened if needed and closed again only if this call opened
// it.
func (e *Executor) Submit(ctx context.Context, built *tx.Built, signer Signer) (*Outcome, error) {
	var sent bool
	return e.submit(ctx, built, signer, &sent)
}

func (e *Executor) submit(ctx context.Context, built *tx.Built, signer Signer, sent *bool) (*Outcome, error) {
	txType, account := string(built.TxType()), built.Account()
	release, err := e.node.Acquire(ctx)
	if err != nil {
		return nil, &xrplerr.NodeError{Op: "connect", TxType: txType, Account: account, Err: err}
	}
	defer release()

	blob, hash, err := signer.Sign(ctx, built.TxJSON())
	if err != nil {
		return nil, err
	}

	log := e.logger.With("tx_type", txType, "account", account, "sequence", built.Sequence, "hash", hash)
	*sent = true
	res, err := e.node.Submit(ctx, blob)
	if err != nil {
		return nil, &xrplerr.NodeError{Op: "submit", TxType: txType, Account: account, Err: err}
	}
	if res.TxJSON.Hash != "" {
		hash = res.TxJSON.Hash
	}
	code := res.EngineResult
	log.InfoContext(ctx, "transaction submitted", "result", code, "fee", built.Fee,
		"last_ledger_sequence", built.LastLedgerSequence)

	switch {
	case tx.IsDuplicate(code):
		return nil, &xrplerr.DuplicateError{TxType: txType, Account: account, Code: code, Hash: hash}
	case code == tx.TefMAX_LEDGER:
		return nil, &xrplerr.ExpiredError{TxType: txType, Account: account, Hash: hash, LastLedgerSequence: built.LastLedgerSequence}
	case tx.IsFinalPreliminary(code):
		// Rejected before reaching a ledger. Nothing to wait for.
		return &Outcome{
			TxType:     txType,
			Account:    account,
			ResultCode: code,
			Message:    tx.Message(code),
			Hash:       hash,
			Sequence:   built.Sequence,
		}, nil
	}

	env, err := e.wait(ctx, built, hash, log)
	if err != nil {
		return nil, err
	}
	return e.outcome(built, env), nil
}

// wait polls until hash is validated or the validated ledger passes the
// transaction's LastLedgerSequence.
func (e *Executor) wait(ctx context.Context, built *tx.Built, hash string, log *slog.Logger) (*tx.Envelope, error) {
	txType, account := string(built.TxType()), built.Account()
	var lastErr error
	for {
		// The validated index is read before the lookup: if it is already
		// past the window and the lookup finds nothing, nothing can follow.
		validated, vErr := e.node.ValidatedLedger(ctx)
		env, err := e.node.Tx(ctx, hash)
		switch {
		case err == nil && env.Validated && env.Meta != nil:
			return env, nil
		case err != nil && ctx.Err() != nil:
			return nil, &xrplerr.UnknownOutcomeError{Hash: hash, Err: ctx.Err()}
		case errors.Is(err, rpc.ErrConnectionClosed) || errors.Is(err, rpc.ErrNotConnected):
			return nil, &xrplerr.UnknownOutcomeError{Hash: hash, Err: err}
		case err != nil && !rpc.IsRpcError(err, rpc.ErrTxnNotFound):
			lastErr = err
			log.WarnContext(ctx, "transaction lookup failed", "error", err)
		}
		if vErr == nil && validated > built.LastLedgerSequence {
			return nil, &xrplerr.ExpiredError{TxType: txType, Account: account, Hash: hash, LastLedgerSequence: built.LastLedgerSequence}
		}
		if vErr != nil {
			lastErr = vErr
		}

		if err := sleep(ctx, e.cfg.PollInterval); err != nil {
			if lastErr != nil {
				err = errors.Join(err, lastErr)
			}
			return nil, &xrplerr.UnknownOutcomeError{Hash: hash, Err: err}
		}
	}
}

func (e *Executor) outcome(built *tx.Built, env *tx.Envelope) *Outcome {
	code := env.ResultCode()
	out := &Outcome{
		TxType:      string(built.TxType()),
		Account:     built.Account(),
		ResultCode:  code,
		Success:     tx.IsSuccess(code),
		Message:     tx.Message(code),
		Hash:        env.Hash,
		Sequence:    built.Sequence,
		LedgerIndex: env.LedgerIndex,
		Validated:   true,
		Meta:        env.Meta,
		Raw:         env.Raw,
	}
	var created uint32
	if built.TxType() == tx.TypeOfferCreate {
		created = built.Sequence
	}
	out.Settlement = settlement.Analyze(env.Meta.AffectedNodes, out.Account, created)
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
