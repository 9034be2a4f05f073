package network

import (
	"context"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
)

// Default expiry margins in ledgers.
const (
	DefaultMargin      uint32 = 20
	DefaultTrustMargin uint32 = 100
)

// LedgerSource is the node query the window depends on.
type LedgerSource interface {
	LedgerCurrent(ctx context.Context) (uint32, error)
}

// WindowPolicy holds the expiry margins per transaction kind.
type WindowPolicy struct {
	Margin      uint32
	TrustMargin uint32
}

// MarginFor returns the margin for a transaction type: TrustMargin for
// TrustSet, Margin for everything else.
func (p WindowPolicy) MarginFor(t tx.Type) uint32 {
	if t != tx.TypeTrustSet {
		return p.Standard()
	}
	if p.TrustMargin == 0 {
		return DefaultTrustMargin
	}
	return p.TrustMargin
}

// Standard is the margin for transactions without a type specific one.
func (p WindowPolicy) Standard() uint32 {
	if p.Margin == 0 {
		return DefaultMargin
	}
	return p.Margin
}

// Window is the open ledger index and the last ledger a transaction may be
// included in.
type Window struct {
	Current            uint32
	LastLedgerSequence uint32
}

// LedgerWindow computes expiry windows from the node's open ledger.
type LedgerWindow struct {
	src LedgerSource
}

func NewLedgerWindow(src LedgerSource) *LedgerWindow {
	return &LedgerWindow{src: src}
}

// CurrentAndExpiry returns the open ledger index and that index plus
// margin. A failed query is returned as *xrplerr.NodeError; an unknown
// ledger index has no safe default.
func (w *LedgerWindow) CurrentAndExpiry(ctx context.Context, margin uint32) (Window, error) {
	current, err := w.src.LedgerCurrent(ctx)
	if err != nil {
		return Window{}, &xrplerr.NodeError{Op: "ledger_current", Err: err}
	}
	return Window{Current: current, LastLedgerSequence: current + margin}, nil
}
