package tx

import (
	"time"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/shopspring/decimal"
)

// Type is a ledger transaction type name.
type Type string

const (
	TypePayment     Type = "Payment"
	TypeTrustSet    Type = "TrustSet"
	TypeAccountSet  Type = "AccountSet"
	TypeOfferCreate Type = "OfferCreate"
	TypeOfferCancel Type = "OfferCancel"
)

// Intent is what a caller wants a transaction to do. The set of
// implementations is closed: *Payment, *TrustSet, *AccountSet,
// *OfferCreate and *OfferCancel.
type Intent interface {
	TxType() Type
	Source() string
	// Validate checks the intent without any node access.
	Validate() error
	intent()
}

// Memo is attached to a Payment. Data that is not hex is hex-encoded when
// the transaction is built.
type Memo struct {
	Type   string `json:"type,omitempty"`
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"`
}

// Payment moves Amount from Account to Destination.
type Payment struct {
	Account        string
	Destination    string
	Amount         amount.Amount
	DestinationTag *uint32
	SendMax        *amount.Amount
	PartialPayment bool
	Memos          []Memo
}

func (*Payment) TxType() Type     { return TypePayment }
func (p *Payment) Source() string { return p.Account }
func (*Payment) intent()          {}

func (p *Payment) Validate() error {
	if err := requireAccount("account", p.Account); err != nil {
		return err
	}
	if err := requireAccount("destination", p.Destination); err != nil {
		return err
	}
	if err := requirePositive("amount", p.Amount); err != nil {
		return err
	}
	if p.SendMax != nil {
		if err := requirePositive("sendMax", *p.SendMax); err != nil {
			return err
		}
	}
	if p.Amount.IsNative() && p.Account == p.Destination {
		return xrplerr.Input("destination", "cannot send XRP to the sending account")
	}
	for _, m := range p.Memos {
		if m.Data == "" && m.Type == "" && m.Format == "" {
			return xrplerr.Input("memos", "empty memo")
		}
	}
	return nil
}

// TrustSet creates or changes the trust line from Account to Issuer.
type TrustSet struct {
	Account    string
	Issuer     string
	Currency   string
	Limit      string
	QualityIn  *uint32
	QualityOut *uint32
	// RipplingDisabled asks for the no-ripple flag to be set.
	RipplingDisabled bool
	// NoRipple sets (true) or clears (false) the no-ripple flag. Nil leaves
	// it alone unless RipplingDisabled is set.
	NoRipple *bool
	// Freeze sets (true) or clears (false) the freeze flag.
	Freeze *bool
	// Authorize marks the line as authorized by the issuer side.
	Authorize bool
	// Margin overrides the expiry margin for this transaction when non-zero.
	Margin uint32
}

func (*TrustSet) TxType() Type     { return TypeTrustSet }
func (t *TrustSet) Source() string { return t.Account }
func (*TrustSet) intent()          {}

func (t *TrustSet) Validate() error {
	if err := requireAccount("account", t.Account); err != nil {
		return err
	}
	if err := requireAccount("issuer", t.Issuer); err != nil {
		return err
	}
	if t.Currency == "" {
		return xrplerr.Input("currency", "required")
	}
	limit := amount.Issued(t.Currency, t.Issuer, t.Limit)
	if limit.IsNative() {
		return xrplerr.Input("currency", "trust lines cannot hold XRP")
	}
	d, err := limit.Decimal()
	if err != nil {
		return xrplerr.Input("limit", "%q is not a number", t.Limit)
	}
	if d.IsNegative() {
		return xrplerr.Input("limit", "%s is negative", t.Limit)
	}
	if t.RipplingDisabled && t.NoRipple != nil && !*t.NoRipple {
		return xrplerr.Input("noRipple", "cannot both set and clear no-ripple")
	}
	return nil
}

// AccountSet changes account level settings. The ledger accepts at most one
// SetFlag and one ClearFlag per transaction.
type AccountSet struct {
	Account    string
	SetFlags   []AccountFlag
	ClearFlags []AccountFlag
	// TransferRatePercent is the fee charged on transfers of issued
	// currencies, from 0 to 100.
	TransferRatePercent *string
	// Domain is plain text. An empty string clears the domain.
	Domain     *string
	EmailHash  *string
	MessageKey *string
	TickSize   *uint8
}

func (*AccountSet) TxType() Type     { return TypeAccountSet }
func (a *AccountSet) Source() string { return a.Account }
func (*AccountSet) intent()          {}

func (a *AccountSet) Validate() error {
	if err := requireAccount("account", a.Account); err != nil {
		return err
	}
	if len(a.SetFlags) > 1 {
		return xrplerr.Input("setFlags", "at most one flag per transaction, got %d", len(a.SetFlags))
	}
	if len(a.ClearFlags) > 1 {
		return xrplerr.Input("clearFlags", "at most one flag per transaction, got %d", len(a.ClearFlags))
	}
	for _, f := range append(append([]AccountFlag{}, a.SetFlags...), a.ClearFlags...) {
		if !f.Valid() {
			return xrplerr.Input("flags", "unknown account flag %d", uint32(f))
		}
	}
	if len(a.SetFlags) == 1 && len(a.ClearFlags) == 1 && a.SetFlags[0] == a.ClearFlags[0] {
		return xrplerr.Input("flags", "cannot both set and clear %s", a.SetFlags[0])
	}
	if a.TransferRatePercent != nil {
		if _, err := TransferRate(*a.TransferRatePercent); err != nil {
			return err
		}
	}
	if a.TickSize != nil && *a.TickSize != 0 && (*a.TickSize < 3 || *a.TickSize > 15) {
		return xrplerr.Input("tickSize", "must be 0 or between 3 and 15, got %d", *a.TickSize)
	}
	if a.EmailHash != nil && len(*a.EmailHash) != 32 && *a.EmailHash != "" {
		return xrplerr.Input("emailHash", "must be 32 hex characters")
	}
	return nil
}

var (
	billion = decimal.NewFromInt(1_000_000_000)
	hundred = decimal.NewFromInt(100)
)

// TransferRate converts a percentage into the ledger's TransferRate, which is
// 1e9 scaled: 0.5 percent becomes 1005000000 and zero becomes 1000000000.
func TransferRate(percent string) (uint32, error) {
	pct, err := decimal.NewFromString(percent)
	if err != nil {
		return 0, xrplerr.Input("transferRate", "%q is not a number", percent)
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return 0, xrplerr.Input("transferRate", "must be between 0 and 100, got %s", percent)
	}
	rate := billion.Mul(decimal.NewFromInt(1).Add(pct.Div(hundred))).Floor()
	return uint32(rate.IntPart()), nil
}

// OfferCreate places an offer to give TakerGets in exchange for TakerPays.
type OfferCreate struct {
	Account   string
	TakerGets amount.Amount
	TakerPays amount.Amount
	// Expiration, if set, is when the offer stops being active.
	Expiration *time.Time
	// ReplaceOfferSequence cancels an existing offer in the same
	// transaction.
	ReplaceOfferSequence *uint32
	Passive              bool
	ImmediateOrCancel    bool
	FillOrKill           bool
	Sell                 bool
}

func (*OfferCreate) TxType() Type     { return TypeOfferCreate }
func (o *OfferCreate) Source() string { return o.Account }
func (*OfferCreate) intent()          {}

func (o *OfferCreate) Validate() error {
	if err := requireAccount("account", o.Account); err != nil {
		return err
	}
	if err := requirePositive("takerGets", o.TakerGets); err != nil {
		return err
	}
	if err := requirePositive("takerPays", o.TakerPays); err != nil {
		return err
	}
	if o.TakerGets.IsNative() && o.TakerPays.IsNative() {
		return xrplerr.Input("takerPays", "cannot exchange XRP for XRP")
	}
	if !o.TakerGets.IsNative() && !o.TakerPays.IsNative() &&
		o.TakerGets.Currency == o.TakerPays.Currency && o.TakerGets.Issuer == o.TakerPays.Issuer {
		return xrplerr.Input("takerPays", "cannot exchange %s for itself", o.TakerGets.Currency)
	}
	if o.ImmediateOrCancel && o.FillOrKill {
		return xrplerr.Input("flags", "immediateOrCancel and fillOrKill are exclusive")
	}
	if o.ReplaceOfferSequence != nil && *o.ReplaceOfferSequence == 0 {
		return xrplerr.Input("offerSequence", "must be positive")
	}
	return nil
}

// OfferCancel removes the offer created by the transaction with
// OfferSequence.
type OfferCancel struct {
	Account       string
	OfferSequence uint32
}

func (*OfferCancel) TxType() Type     { return TypeOfferCancel }
func (o *OfferCancel) Source() string { return o.Account }
func (*OfferCancel) intent()          {}

func (o *OfferCancel) Validate() error {
	if err := requireAccount("account", o.Account); err != nil {
		return err
	}
	if o.OfferSequence == 0 {
		return xrplerr.Input("offerSequence", "required")
	}
	return nil
}

func requireAccount(field, address string) error {
	if address == "" {
		return xrplerr.Input(field, "required")
	}
	if address[0] != 'r' {
		return xrplerr.Input(field, "%q is not a classic address", address)
	}
	return nil
}

func requirePositive(field string, a amount.Amount) error {
	if err := a.Validate(); err != nil {
		if inputErr, ok := err.(*xrplerr.InputError); ok {
			inputErr.Field = field + "." + inputErr.Field
		}
		return err
	}
	d, _ := a.Decimal()
	if !d.IsPositive() {
		return xrplerr.Input(field, "must be positive, got %s", a.Value)
	}
	return nil
}
