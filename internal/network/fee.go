// Package network derives submission parameters from live node state: the
// transaction fee and the LastLedgerSequence expiry window.
package network

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/LeJamon/xrplgate/internal/metrics"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"golang.org/x/sync/singleflight"
)

// DefaultFallbackDrops is the fee used when the node cannot be asked.
const DefaultFallbackDrops uint64 = 10

// FeeSource is the node query the advisor depends on.
type FeeSource interface {
	Fee(ctx context.Context) (*rpc.FeeResult, error)
}

// FeeTier is a snapshot of the node's fee levels in drops.
type FeeTier struct {
	Minimum    uint64
	Median     uint64
	OpenLedger uint64
}

// FeePolicy tunes the advisor.
type FeePolicy struct {
	// FallbackDrops replaces the recommendation when the fee query fails.
	FallbackDrops uint64
	// MaxDrops caps the recommendation, never below the minimum tier.
	// Zero means no cap.
	MaxDrops uint64
}

// Recommendation is the advisor's answer.
type Recommendation struct {
	Tier FeeTier
	// Drops is the fee to put on the transaction.
	Drops uint64
	// Fallback is set when Drops came from FeePolicy.FallbackDrops.
	Fallback bool
}

// FeeAdvisor recommends transaction fees. Concurrent callers share one
// in-flight fee query.
type FeeAdvisor struct {
	src     FeeSource
	policy  FeePolicy
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewFeeAdvisor creates an advisor reading fee levels from src.
func NewFeeAdvisor(src FeeSource, policy FeePolicy, m *metrics.Metrics, logger *slog.Logger) *FeeAdvisor {
	if policy.FallbackDrops == 0 {
		policy.FallbackDrops = DefaultFallbackDrops
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FeeAdvisor{src: src, policy: policy, metrics: m, logger: logger}
}

// Recommend returns the median fee raised to at least the minimum fee. It
// never fails: when the node cannot be queried the fallback fee is used.
func (a *FeeAdvisor) Recommend(ctx context.Context) Recommendation {
	v, err, _ := a.group.Do("fee", func() (any, error) {
		res, err := a.src.Fee(ctx)
		if err != nil {
			return nil, err
		}
		return parseTier(res)
	})
	if err != nil {
		a.logger.WarnContext(ctx, "fee query failed, using fallback fee",
			"fallback_drops", a.policy.FallbackDrops, "error", err)
		a.metrics.RecordFee(a.policy.FallbackDrops, true)
		return Recommendation{Drops: a.policy.FallbackDrops, Fallback: true}
	}

	tier := v.(FeeTier)
	drops := tier.Median
	if drops < tier.Minimum {
		drops = tier.Minimum
	}
	if a.policy.MaxDrops > 0 && drops > a.policy.MaxDrops {
		drops = max(a.policy.MaxDrops, tier.Minimum)
	}
	a.logger.DebugContext(ctx, "fee recommended",
		"minimum", tier.Minimum, "median", tier.Median, "open_ledger", tier.OpenLedger, "fee", drops)
	a.metrics.RecordFee(drops, false)
	return Recommendation{Tier: tier, Drops: drops}
}

func parseTier(res *rpc.FeeResult) (FeeTier, error) {
	minimum, err := strconv.ParseUint(res.Drops.MinimumFee, 10, 64)
	if err != nil {
		return FeeTier{}, fmt.Errorf("parsing minimum_fee %q: %w", res.Drops.MinimumFee, err)
	}
	median, err := strconv.ParseUint(res.Drops.MedianFee, 10, 64)
	if err != nil {
		return FeeTier{}, fmt.Errorf("parsing median_fee %q: %w", res.Drops.MedianFee, err)
	}
	// The open ledger fee is informational only.
	open, _ := strconv.ParseUint(res.Drops.OpenLedgerFee, 10, 64)
	return FeeTier{Minimum: minimum, Median: median, OpenLedger: open}, nil
}
