// Package service exposes the account, payment, token and exchange
// operations built on the submission pipeline.
package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/network"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/signing"
	"github.com/LeJamon/xrplgate/internal/submit"
)

// Node is the node access the read operations and remote signing need.
type Node interface {
	Acquire(ctx context.Context) (release func(), err error)
	AccountInfo(ctx context.Context, account, ledgerIndex string) (*rpc.AccountInfo, error)
	AccountOffers(ctx context.Context, req rpc.AccountOffersRequest) (*rpc.AccountOffersResult, error)
	BookOffers(ctx context.Context, req rpc.BookOffersRequest) (*rpc.BookOffersResult, error)
	AccountLines(ctx context.Context, req rpc.AccountLinesRequest) (*rpc.AccountLinesResult, error)
	AccountTx(ctx context.Context, req rpc.AccountTxRequest) (*rpc.AccountTxResult, error)
	Tx(ctx context.Context, hash string) (*tx.Envelope, error)
	signing.NodeSigner
}

// Executor runs write operations.
type Executor interface {
	Execute(ctx context.Context, in tx.Intent, signer submit.Signer, opts submit.Options) (*submit.Outcome, error)
}

// Auth is what a write operation needs besides its intent.
type Auth struct {
	Seed string
	// IdempotencyKey, when set, makes the operation at most once per key.
	IdempotencyKey string
}

// Service runs the use cases against one node.
type Service struct {
	node   Node
	exec   Executor
	mode   signing.Mode
	policy network.WindowPolicy
	faucet *Faucet
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSigningMode selects where signatures are produced. Local is the
// default.
func WithSigningMode(m signing.Mode) Option { return func(s *Service) { s.mode = m } }

// WithWindowPolicy sets the margins used for operations that pick their
// own expiry margin.
func WithWindowPolicy(p network.WindowPolicy) Option { return func(s *Service) { s.policy = p } }

// WithFaucet enables account creation through a test network faucet.
func WithFaucet(f *Faucet) Option { return func(s *Service) { s.faucet = f } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

func New(node Node, exec Executor, opts ...Option) *Service {
	s := &Service{node: node, exec: exec, mode: signing.ModeLocal}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// signer derives the signer for auth and checks that it controls account.
// No node request is made.
func (s *Service) signer(auth Auth, account string) (signing.Signer, error) {
	if auth.Seed == "" {
		return nil, xrplerr.Input("seed", "required")
	}
	signer, err := signing.New(s.mode, auth.Seed, s.node)
	if err != nil {
		return nil, xrplerr.Input("seed", "%v", err)
	}
	if signer.Address() != account {
		return nil, &xrplerr.AddressMismatchError{Derived: signer.Address(), Requested: account}
	}
	return signer, nil
}

func (s *Service) execute(ctx context.Context, auth Auth, in tx.Intent) (*submit.Outcome, error) {
	if in == nil {
		return nil, xrplerr.Input("intent", "required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	signer, err := s.signer(auth, in.Source())
	if err != nil {
		return nil, err
	}
	out, err := s.exec.Execute(ctx, in, signer, submit.Options{IdempotencyKey: auth.IdempotencyKey})
	if err != nil {
		s.logger.WarnContext(ctx, "operation failed", "tx_type", in.TxType(), "account", in.Source(), "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "operation finished",
		"tx_type", in.TxType(),
		"account", in.Source(),
		"result", out.ResultCode,
		"hash", out.Hash,
	)
	return out, nil
}

// read runs fn with a node connection held for its duration. Errors are
// reported as node errors of op.
func read[T any](ctx context.Context, s *Service, op, account string, fn func() (T, error)) (T, error) {
	var zero T
	release, err := s.node.Acquire(ctx)
	if err != nil {
		return zero, &xrplerr.NodeError{Op: "connect", Account: account, Err: err}
	}
	defer release()
	v, err := fn()
	if err != nil {
		return zero, &xrplerr.NodeError{Op: op, Account: account, Err: err}
	}
	return v, nil
}
