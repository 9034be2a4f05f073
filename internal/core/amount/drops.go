package amount

import (
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/shopspring/decimal"
)

// XRPToDrops converts a decimal XRP string to drops. Negative values and
// values finer than one drop are rejected.
func XRPToDrops(xrp string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(xrp)
	if err != nil {
		return decimal.Zero, xrplerr.Input("amount", "%q is not a number", xrp)
	}
	if d.IsNegative() {
		return decimal.Zero, xrplerr.Input("amount", "%s is negative", xrp)
	}
	drops := d.Mul(dropsPerXRP)
	if !drops.Equal(drops.Truncate(0)) {
		return decimal.Zero, xrplerr.Input("amount", "%s XRP is not a whole number of drops", xrp)
	}
	return drops.Truncate(0), nil
}

// DropsToXRP converts drops to XRP.
func DropsToXRP(drops decimal.Decimal) decimal.Decimal {
	return drops.Div(dropsPerXRP)
}
