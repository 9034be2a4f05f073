// Package builder turns transaction intents into fully specified
// transactions ready for signing.
package builder

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/currency"
	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/network"
)

// FeeAdvisor supplies the fee for each built transaction.
type FeeAdvisor interface {
	Recommend(ctx context.Context) network.Recommendation
}

// LedgerWindow supplies the expiry window for each built transaction.
type LedgerWindow interface {
	CurrentAndExpiry(ctx context.Context, margin uint32) (network.Window, error)
}

// Builder resolves intents against live node state.
type Builder struct {
	fees   FeeAdvisor
	window LedgerWindow
	policy network.WindowPolicy
	logger *slog.Logger
}

func New(fees FeeAdvisor, window LedgerWindow, policy network.WindowPolicy, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{fees: fees, window: window, policy: policy, logger: logger}
}

// Build validates in and fills in fee, sequence, expiry and flags. Input
// errors are returned before any node request. The same intent, sequence,
// fee and window always produce the same transaction.
func (b *Builder) Build(ctx context.Context, in tx.Intent, sequence uint32) (*tx.Built, error) {
	if in == nil {
		return nil, xrplerr.Input("intent", "required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if sequence == 0 {
		return nil, xrplerr.Input("sequence", "required")
	}

	built := &tx.Built{Intent: in, Sequence: sequence}
	var err error
	switch v := in.(type) {
	case *tx.Payment:
		built.Fields, built.Flags = paymentFields(v)
	case *tx.TrustSet:
		built.Fields, built.Flags, err = trustSetFields(v)
	case *tx.AccountSet:
		built.Fields, err = accountSetFields(v)
	case *tx.OfferCreate:
		built.Fields, built.Flags = offerCreateFields(v)
	case *tx.OfferCancel:
		built.Fields = map[string]any{"OfferSequence": v.OfferSequence}
	default:
		return nil, xrplerr.Input("intent", "unsupported transaction type %T", in)
	}
	if err != nil {
		return nil, err
	}

	margin := b.policy.MarginFor(in.TxType())
	if ts, ok := in.(*tx.TrustSet); ok && ts.Margin > 0 {
		margin = ts.Margin
	}
	window, err := b.window.CurrentAndExpiry(ctx, margin)
	if err != nil {
		var nodeErr *xrplerr.NodeError
		if errors.As(err, &nodeErr) {
			nodeErr.TxType = string(in.TxType())
			nodeErr.Account = in.Source()
			return nil, nodeErr
		}
		return nil, &xrplerr.NodeError{Op: "ledger_current", TxType: string(in.TxType()), Account: in.Source(), Err: err}
	}
	built.LastLedgerSequence = window.LastLedgerSequence
	built.Fee = b.fees.Recommend(ctx).Drops

	b.logger.DebugContext(ctx, "transaction built",
		"tx_type", in.TxType(),
		"account", in.Source(),
		"summary", Describe(built),
	)
	return built, nil
}

func paymentFields(p *tx.Payment) (map[string]any, uint32) {
	fields := map[string]any{
		"Destination": p.Destination,
		"Amount":      canonical(p.Amount).Map(),
	}
	if p.DestinationTag != nil {
		fields["DestinationTag"] = *p.DestinationTag
	}
	if p.SendMax != nil {
		fields["SendMax"] = canonical(*p.SendMax).Map()
	}
	if len(p.Memos) > 0 {
		memos := make([]any, 0, len(p.Memos))
		for _, m := range p.Memos {
			memo := map[string]any{}
			if m.Type != "" {
				memo["MemoType"] = hexOf(m.Type)
			}
			if m.Data != "" {
				memo["MemoData"] = hexOf(m.Data)
			}
			if m.Format != "" {
				memo["MemoFormat"] = hexOf(m.Format)
			}
			memos = append(memos, map[string]any{"Memo": memo})
		}
		fields["Memos"] = memos
	}
	var flags uint32
	if p.PartialPayment {
		flags |= tx.TfPartialPayment
	}
	return fields, flags
}

func trustSetFields(t *tx.TrustSet) (map[string]any, uint32, error) {
	fields := map[string]any{
		"LimitAmount": amount.Issued(t.Currency, t.Issuer, t.Limit).Map(),
	}
	if t.QualityIn != nil {
		fields["QualityIn"] = *t.QualityIn
	}
	if t.QualityOut != nil {
		fields["QualityOut"] = *t.QualityOut
	}

	var flags uint32
	setNoRipple := t.RipplingDisabled || (t.NoRipple != nil && *t.NoRipple)
	clearNoRipple := t.NoRipple != nil && !*t.NoRipple
	if setNoRipple && clearNoRipple {
		return nil, 0, xrplerr.Input("noRipple", "cannot both set and clear no-ripple")
	}
	if setNoRipple {
		flags |= tx.TfSetNoRipple
	}
	if clearNoRipple {
		flags |= tx.TfClearNoRipple
	}
	if t.Freeze != nil {
		if *t.Freeze {
			flags |= tx.TfSetFreeze
		} else {
			flags |= tx.TfClearFreeze
		}
	}
	if t.Authorize {
		flags |= tx.TfSetfAuth
	}
	return fields, flags, nil
}

func accountSetFields(a *tx.AccountSet) (map[string]any, error) {
	fields := map[string]any{}
	if len(a.SetFlags) == 1 {
		fields["SetFlag"] = uint32(a.SetFlags[0])
	}
	if len(a.ClearFlags) == 1 {
		fields["ClearFlag"] = uint32(a.ClearFlags[0])
	}
	if a.TransferRatePercent != nil {
		rate, err := tx.TransferRate(*a.TransferRatePercent)
		if err != nil {
			return nil, err
		}
		fields["TransferRate"] = rate
	}
	if a.Domain != nil {
		fields["Domain"] = strings.ToUpper(hex.EncodeToString([]byte(*a.Domain)))
	}
	if a.EmailHash != nil {
		fields["EmailHash"] = strings.ToUpper(*a.EmailHash)
	}
	if a.MessageKey != nil {
		fields["MessageKey"] = *a.MessageKey
	}
	if a.TickSize != nil {
		fields["TickSize"] = *a.TickSize
	}
	return fields, nil
}

func offerCreateFields(o *tx.OfferCreate) (map[string]any, uint32) {
	fields := map[string]any{
		"TakerGets": canonical(o.TakerGets).Map(),
		"TakerPays": canonical(o.TakerPays).Map(),
	}
	if o.Expiration != nil {
		fields["Expiration"] = meta.ToRippleTime(*o.Expiration)
	}
	if o.ReplaceOfferSequence != nil {
		fields["OfferSequence"] = *o.ReplaceOfferSequence
	}
	var flags uint32
	if o.Passive {
		flags |= tx.TfPassive
	}
	if o.ImmediateOrCancel {
		flags |= tx.TfImmediateOrCancel
	}
	if o.FillOrKill {
		flags |= tx.TfFillOrKill
	}
	if o.Sell {
		flags |= tx.TfSell
	}
	return fields, flags
}

// canonical returns a with its currency code in canonical form.
func canonical(a amount.Amount) amount.Amount {
	if a.IsNative() {
		return a
	}
	a.Currency = currency.Canonicalize(string(a.Currency))
	return a
}

// hexOf returns s upper-cased when it already is an even length hex string,
// and its hex encoding otherwise.
func hexOf(s string) string {
	if len(s)%2 == 0 {
		if _, err := hex.DecodeString(s); err == nil {
			return strings.ToUpper(s)
		}
	}
	return strings.ToUpper(hex.EncodeToString([]byte(s)))
}

// Describe renders a short human readable summary of a built transaction.
func Describe(b *tx.Built) string {
	return fmt.Sprintf("%s from %s seq=%d fee=%d lls=%d flags=%#x",
		b.TxType(), b.Account(), b.Sequence, b.Fee, b.LastLedgerSequence, b.Flags)
}
