package submit

import (
	"context"
	"errors"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/events"
	"github.com/LeJamon/xrplgate/internal/idempotency"
	"github.com/LeJamon/xrplgate/internal/journal"
)

// Execute builds, signs and submits in, retrying with a fresh sequence and
// window when an attempt expires. Only expiry is retried.
func (e *Executor) Execute(ctx context.Context, in tx.Intent, signer Signer, opts Options) (*Outcome, error) {
	if in == nil {
		return nil, xrplerr.Input("intent", "required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	txType, account := string(in.TxType()), in.Source()
	if addressed, ok := signer.(interface{ Address() string }); ok && addressed.Address() != account {
		return nil, &xrplerr.AddressMismatchError{Derived: addressed.Address(), Requested: account}
	}

	key := opts.IdempotencyKey
	guarded := key != "" && e.guard != nil
	if guarded {
		err := e.guard.Reserve(ctx, key, idempotency.Record{TxType: txType, Account: account})
		var conflict *idempotency.ConflictError
		if errors.As(err, &conflict) {
			e.metrics.RecordIdempotencyRejection()
			return nil, &xrplerr.DuplicateError{TxType: txType, Account: account, Key: key, Hash: conflict.Existing.Hash}
		}
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	var sent bool
	out, err := e.execute(ctx, in, signer, key, &sent)

	if guarded {
		e.settleKey(ctx, key, txType, account, out, err, sent)
	}
	result := resultLabel(out, err)
	e.metrics.RecordSubmission(txType, result, time.Since(start))
	if out != nil || sent {
		e.publish(ctx, in, key, out, err)
	}
	return out, err
}

func (e *Executor) execute(ctx context.Context, in tx.Intent, signer Signer, key string, sent *bool) (*Outcome, error) {
	txType, account := string(in.TxType()), in.Source()
	release, err := e.node.Acquire(ctx)
	if err != nil {
		return nil, &xrplerr.NodeError{Op: "connect", TxType: txType, Account: account, Err: err}
	}
	defer release()

	maxAttempts := e.cfg.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		log := e.logger.With("tx_type", txType, "account", account, "attempt", attempt)
		// An earlier attempt that expired can no longer reach a ledger.
		*sent = false

		info, err := e.node.AccountInfo(ctx, account, "current")
		if err != nil {
			return nil, &xrplerr.NodeError{Op: "account_info", TxType: txType, Account: account, Err: err}
		}
		built, err := e.builder.Build(ctx, in, info.AccountData.Sequence)
		if err != nil {
			return nil, err
		}

		out, err := e.submit(ctx, built, signer, sent)
		if out != nil {
			out.Attempts = attempt
		}
		e.record(ctx, built, key, attempt, out, err)

		var expired *xrplerr.ExpiredError
		if !errors.As(err, &expired) {
			return out, err
		}
		expired.Attempts = attempt
		if attempt >= maxAttempts {
			log.WarnContext(ctx, "transaction expired, no retries left", "last_ledger_sequence", expired.LastLedgerSequence)
			return nil, expired
		}
		log.InfoContext(ctx, "transaction expired, retrying", "last_ledger_sequence", expired.LastLedgerSequence,
			"delay", e.cfg.RetryDelay)
		e.metrics.RecordRetry(txType)
		if err := sleep(ctx, e.cfg.RetryDelay); err != nil {
			return nil, &xrplerr.UnknownOutcomeError{Hash: expired.Hash, Err: err}
		}
	}
}

// settleKey completes the idempotency key once the transaction may have
// reached a ledger, and releases it when it cannot have: nothing was sent,
// or the window expired.
func (e *Executor) settleKey(ctx context.Context, key, txType, account string, out *Outcome, err error, sent bool) {
	if out == nil && (!sent || errors.Is(err, xrplerr.ErrExpired)) {
		if relErr := e.guard.Release(ctx, key); relErr != nil {
			e.logger.WarnContext(ctx, "releasing idempotency key", "key", key, "error", relErr)
		}
		return
	}
	rec := idempotency.Record{TxType: txType, Account: account}
	if out != nil {
		rec.Hash, rec.ResultCode = out.Hash, out.ResultCode
	} else {
		rec.ResultCode = resultLabel(nil, err)
		var (
			unknown *xrplerr.UnknownOutcomeError
			dup     *xrplerr.DuplicateError
		)
		switch {
		case errors.As(err, &unknown):
			rec.Hash = unknown.Hash
		case errors.As(err, &dup):
			rec.Hash = dup.Hash
		}
	}
	if cErr := e.guard.Complete(ctx, key, rec); cErr != nil {
		e.logger.WarnContext(ctx, "completing idempotency key", "key", key, "error", cErr)
	}
}

func (e *Executor) record(ctx context.Context, built *tx.Built, key string, attempt int, out *Outcome, err error) {
	if e.recorder == nil {
		return
	}
	entry := journal.Entry{
		IdempotencyKey: key,
		TxType:         string(built.TxType()),
		Account:        built.Account(),
		Sequence:       built.Sequence,
		Attempt:        attempt,
	}
	if out != nil {
		entry.Hash = out.Hash
		entry.LedgerIndex = out.LedgerIndex
		entry.ResultCode = out.ResultCode
		entry.Success = out.Success
		entry.Validated = out.Validated
		if out.Meta != nil {
			entry.Meta, _ = out.Meta.MarshalJSON()
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}
	recErr := e.recorder.Record(ctx, entry)
	e.metrics.RecordJournalWrite(recErr)
	if recErr != nil {
		e.logger.WarnContext(ctx, "journal write failed", "tx_type", entry.TxType, "account", entry.Account, "error", recErr)
	}
}

func (e *Executor) publish(ctx context.Context, in tx.Intent, key string, out *Outcome, err error) {
	if e.publisher == nil {
		return
	}
	ev := events.OutcomeEvent{
		TxType:         string(in.TxType()),
		Account:        in.Source(),
		IdempotencyKey: key,
	}
	if out != nil {
		ev.Hash = out.Hash
		ev.Sequence = out.Sequence
		ev.ResultCode = out.ResultCode
		ev.Success = out.Success
		ev.Validated = out.Validated
		ev.LedgerIndex = out.LedgerIndex
		ev.Attempts = out.Attempts
		ev.CreatedObjectID = out.Settlement.CreatedObjectID
	}
	if err != nil {
		ev.Error = err.Error()
	}
	pubErr := e.publisher.Publish(ctx, ev)
	e.metrics.RecordEventPublish(pubErr)
	if pubErr != nil {
		e.logger.WarnContext(ctx, "outcome event not published", "account", ev.Account, "error", pubErr)
	}
}

// resultLabel names the result of a call for metrics and records.
func resultLabel(out *Outcome, err error) string {
	switch {
	case out != nil:
		return out.ResultCode
	case errors.Is(err, xrplerr.ErrExpired):
		return "expired"
	case errors.Is(err, xrplerr.ErrDuplicateSubmission):
		return "duplicate"
	case errors.Is(err, xrplerr.ErrOutcomeUnknown):
		return "unknown"
	case errors.Is(err, xrplerr.ErrNodeUnavailable):
		return "node_error"
	case errors.Is(err, xrplerr.ErrInput), errors.Is(err, xrplerr.ErrAddressMismatch):
		return "rejected_input"
	default:
		return "error"
	}
}
