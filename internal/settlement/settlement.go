// Package settlement reads what a validated transaction did to one account
// from its affected ledger entries.
package settlement

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/currency"
	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/shopspring/decimal"
)

// Change is a balance movement seen from one account. Value is a positive
// magnitude; native changes are in whole XRP.
type Change struct {
	Currency     currency.Code
	Counterparty string
	Value        decimal.Decimal
}

func (c Change) String() string {
	if c.Currency.IsNative() {
		return c.Value.String() + " XRP"
	}
	return fmt.Sprintf("%s %s/%s", c.Value, currency.Display(c.Currency), c.Counterparty)
}

func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Currency     string `json:"currency"`
		Counterparty string `json:"counterparty,omitempty"`
		Value        string `json:"value"`
	}{string(c.Currency), c.Counterparty, c.Value.String()})
}

// Result is the settlement of one transaction for one account. At most one
// delivered and one received change is kept; when several entries match,
// the last one wins.
type Result struct {
	// CreatedObjectID is the sequence of the offer the transaction placed,
	// empty when none was found.
	CreatedObjectID string  `json:"createdObjectId,omitempty"`
	Delivered       *Change `json:"delivered,omitempty"`
	Received        *Change `json:"received,omitempty"`
}

// Empty reports whether the analysis found nothing.
func (r Result) Empty() bool {
	return r.CreatedObjectID == "" && r.Delivered == nil && r.Received == nil
}

// Analyze derives the settlement of entries for account. txSequence is the
// submitted transaction's sequence, used as the created offer id when the
// metadata does not carry one; pass zero for transactions that create no
// offer.
func Analyze(entries []meta.AffectedEntry, account string, txSequence uint32) Result {
	var res Result
	res.CreatedObjectID = createdOfferID(entries)
	if res.CreatedObjectID == "" && txSequence != 0 {
		res.CreatedObjectID = strconv.FormatUint(uint64(txSequence), 10)
	}

	for _, e := range entries {
		if e.Kind != meta.Modified {
			continue
		}
		var (
			delta Change
			ok    bool
		)
		switch e.EntryType {
		case meta.EntryAccountRoot:
			delta, ok = accountRootDelta(e, account)
		case meta.EntryRippleState:
			delta, ok = rippleStateDelta(e, account)
		}
		if !ok {
			continue
		}
		switch delta.Value.Sign() {
		case 1:
			res.Received = &delta
		case -1:
			delta.Value = delta.Value.Neg()
			res.Delivered = &delta
		}
	}
	return res
}

// createdOfferID returns the sequence of the first created Offer entry,
// from its fields or else from the third segment of its ledger index.
func createdOfferID(entries []meta.AffectedEntry) string {
	for _, e := range entries {
		if e.Kind != meta.Created || e.EntryType != meta.EntryOffer {
			continue
		}
		if seq, ok := e.NewFields.Uint32("Sequence"); ok && seq != 0 {
			return strconv.FormatUint(uint64(seq), 10)
		}
		if parts := strings.Split(e.LedgerIndex, ":"); len(parts) >= 3 && parts[2] != "" {
			return parts[2]
		}
	}
	return ""
}

// accountRootDelta returns the signed native balance change of account.
func accountRootDelta(e meta.AffectedEntry, account string) (Change, bool) {
	owner, _ := e.FinalFields.String("Account")
	if owner != account {
		return Change{}, false
	}
	final, ok := e.FinalFields.String("Balance")
	if !ok {
		return Change{}, false
	}
	prev, ok := e.PreviousFields.String("Balance")
	if !ok {
		return Change{}, false
	}
	finalDrops, err := decimal.NewFromString(final)
	if err != nil {
		return Change{}, false
	}
	prevDrops, err := decimal.NewFromString(prev)
	if err != nil {
		return Change{}, false
	}
	return Change{
		Currency: currency.Native,
		Value:    amount.DropsToXRP(finalDrops.Sub(prevDrops)),
	}, true
}

// rippleStateDelta reads a trust line balance change. The stored balance is
// from the low account's side, so it is negated for the high account.
func rippleStateDelta(e meta.AffectedEntry, account string) (Change, bool) {
	high, okHigh := e.FinalFields.Amount("HighLimit")
	low, okLow := e.FinalFields.Amount("LowLimit")
	if !okHigh || !okLow {
		return Change{}, false
	}
	var counterparty string
	switch account {
	case high.Issuer:
		counterparty = low.Issuer
	case low.Issuer:
		counterparty = high.Issuer
	default:
		return Change{}, false
	}

	final, ok := e.FinalFields.Amount("Balance")
	if !ok {
		return Change{}, false
	}
	prev, ok := e.PreviousFields.Amount("Balance")
	if !ok {
		return Change{}, false
	}
	finalValue, err := final.Decimal()
	if err != nil {
		return Change{}, false
	}
	prevValue, err := prev.Decimal()
	if err != nil {
		return Change{}, false
	}
	delta := finalValue.Sub(prevValue)
	if account == high.Issuer {
		delta = delta.Neg()
	}
	return Change{
		Currency:     final.Currency,
		Counterparty: counterparty,
		Value:        delta,
	}, true
}
