// Package amount models ledger amounts: native drops or an issued currency
// value tied to an issuer.
package amount

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/LeJamon/xrplgate/internal/core/currency"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/shopspring/decimal"
)

// DropsPerXRP is the number of drops in one XRP.
const DropsPerXRP = 1_000_000

var dropsPerXRP = decimal.NewFromInt(DropsPerXRP)

// Amount is either a native amount in drops or an issued amount. Native
// amounts carry currency.Native and no issuer.
type Amount struct {
	Currency currency.Code
	Issuer   string
	// Value is an integer count of drops for native amounts and a decimal
	// string otherwise.
	Value string
}

// Native returns a native amount of the given drops.
func Native(drops string) Amount {
	return Amount{Currency: currency.Native, Value: drops}
}

// NativeDrops returns a native amount from an integer count of drops.
func NativeDrops(drops int64) Amount {
	return Native(strconv.FormatInt(drops, 10))
}

// NativeFromXRP converts a decimal XRP string into a native amount in drops.
func NativeFromXRP(xrp string) (Amount, error) {
	drops, err := XRPToDrops(xrp)
	if err != nil {
		return Amount{}, err
	}
	return Native(drops.String()), nil
}

// Issued returns an issued amount with a canonical currency code.
func Issued(code, issuer, value string) Amount {
	return Amount{Currency: currency.Canonicalize(code), Issuer: issuer, Value: value}
}

// New builds an amount from caller input. A native currency takes its value
// in XRP and is converted to drops; any other currency requires an issuer.
func New(code, issuer, value string) (Amount, error) {
	if code == "" {
		return Amount{}, xrplerr.Input("currency", "required")
	}
	if currency.Canonicalize(code).IsNative() {
		return NativeFromXRP(value)
	}
	a := Issued(code, issuer, value)
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// IsNative reports whether a is denominated in drops.
func (a Amount) IsNative() bool { return a.Currency.IsNative() }

// IsZero reports whether a has no currency set.
func (a Amount) IsZero() bool { return a.Currency == "" && a.Value == "" }

// Decimal returns the numeric value: drops for native amounts, the issued
// value otherwise.
func (a Amount) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Zero, xrplerr.Input("amount", "%q is not a number", a.Value)
	}
	return d, nil
}

// Drops returns the integer drops of a native amount.
func (a Amount) Drops() (int64, error) {
	if !a.IsNative() {
		return 0, xrplerr.Input("amount", "%s is not native", a.Currency)
	}
	n, err := strconv.ParseInt(a.Value, 10, 64)
	if err != nil {
		return 0, xrplerr.Input("amount", "%q is not a whole number of drops", a.Value)
	}
	return n, nil
}

// Validate checks the shape of a. It does not check the sign.
func (a Amount) Validate() error {
	if a.Currency == "" {
		return xrplerr.Input("currency", "required")
	}
	if a.IsNative() {
		if a.Issuer != "" {
			return xrplerr.Input("issuer", "native amounts have no issuer")
		}
		if _, err := a.Drops(); err != nil {
			return err
		}
		return nil
	}
	if a.Issuer == "" {
		return xrplerr.Input("issuer", "required for %s", a.Currency)
	}
	if _, err := a.Decimal(); err != nil {
		return err
	}
	return nil
}

// Neg returns a with its value negated.
func (a Amount) Neg() Amount {
	d, err := a.Decimal()
	if err != nil {
		return a
	}
	a.Value = d.Neg().String()
	return a
}

func (a Amount) String() string {
	if a.IsNative() {
		return a.Value + " drops"
	}
	return fmt.Sprintf("%s %s/%s", a.Value, currency.Display(a.Currency), a.Issuer)
}

type issuedJSON struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
	Value    string `json:"value"`
}

// MarshalJSON renders native amounts as a drops string and issued amounts as
// a currency/issuer/value object.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsNative() {
		return json.Marshal(a.Value)
	}
	return json.Marshal(issuedJSON{Currency: string(a.Currency), Issuer: a.Issuer, Value: a.Value})
}

// UnmarshalJSON accepts both forms produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var drops string
	if err := json.Unmarshal(data, &drops); err == nil {
		*a = Native(drops)
		return nil
	}
	var obj issuedJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding amount: %w", err)
	}
	*a = Amount{Currency: currency.Code(obj.Currency), Issuer: obj.Issuer, Value: obj.Value}
	if obj.Currency == string(currency.Native) && obj.Issuer == "" {
		a.Currency = currency.Native
	}
	return nil
}

// Map renders a for a transaction map: a string for native amounts and a
// string keyed object otherwise.
func (a Amount) Map() any {
	if a.IsNative() {
		return a.Value
	}
	return map[string]any{
		"currency": string(a.Currency),
		"issuer":   a.Issuer,
		"value":    a.Value,
	}
}
