package network

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFeeSource struct {
	minimum, median, open string
	err                   error
	calls                 atomic.Int32
	delay                 time.Duration
}

func (m *mockFeeSource) Fee(ctx context.Context) (*rpc.FeeResult, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	var res rpc.FeeResult
	res.Drops.MinimumFee = m.minimum
	res.Drops.MedianFee = m.median
	res.Drops.OpenLedgerFee = m.open
	return &res, nil
}

func TestRecommendUsesMedian(t *testing.T) {
	src := &mockFeeSource{minimum: "10", median: "5000", open: "12"}
	rec := NewFeeAdvisor(src, FeePolicy{}, nil, nil).Recommend(context.Background())

	assert.False(t, rec.Fallback)
	assert.Equal(t, uint64(5000), rec.Drops)
	assert.Equal(t, FeeTier{Minimum: 10, Median: 5000, OpenLedger: 12}, rec.Tier)
}

func TestRecommendNeverBelowMinimum(t *testing.T) {
	cases := []struct{ minimum, median string }{
		{"10", "5"},
		{"10", "0"},
		{"12", "12"},
		{"100", "99"},
		// Lexical comparison would get this one wrong.
		{"9", "10"},
	}
	for _, tc := range cases {
		src := &mockFeeSource{minimum: tc.minimum, median: tc.median}
		rec := NewFeeAdvisor(src, FeePolicy{}, nil, nil).Recommend(context.Background())
		assert.GreaterOrEqual(t, rec.Drops, rec.Tier.Minimum, "%+v", tc)
		assert.GreaterOrEqual(t, rec.Drops, rec.Tier.Median, "%+v", tc)
	}
}

func TestRecommendFallsBackOnFailure(t *testing.T) {
	src := &mockFeeSource{err: errors.New("connection refused")}
	rec := NewFeeAdvisor(src, FeePolicy{}, nil, nil).Recommend(context.Background())
	assert.True(t, rec.Fallback)
	assert.Equal(t, DefaultFallbackDrops, rec.Drops)

	garbage := &mockFeeSource{minimum: "ten", median: "12"}
	rec = NewFeeAdvisor(garbage, FeePolicy{FallbackDrops: 15}, nil, nil).Recommend(context.Background())
	assert.True(t, rec.Fallback)
	assert.Equal(t, uint64(15), rec.Drops)
}

func TestRecommendCap(t *testing.T) {
	src := &mockFeeSource{minimum: "10", median: "5000"}
	rec := NewFeeAdvisor(src, FeePolicy{MaxDrops: 100}, nil, nil).Recommend(context.Background())
	assert.Equal(t, uint64(100), rec.Drops)

	src = &mockFeeSource{minimum: "200", median: "5000"}
	rec = NewFeeAdvisor(src, FeePolicy{MaxDrops: 100}, nil, nil).Recommend(context.Background())
	assert.Equal(t, uint64(200), rec.Drops)
}

func TestRecommendSharesInFlightQuery(t *testing.T) {
	src := &mockFeeSource{minimum: "10", median: "20", delay: 100 * time.Millisecond}
	advisor := NewFeeAdvisor(src, FeePolicy{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, uint64(20), advisor.Recommend(context.Background()).Drops)
		}()
	}
	wg.Wait()
	assert.Less(t, src.calls.Load(), int32(8))
}

type mockLedgerSource struct {
	current uint32
	err     error
}

func (m *mockLedgerSource) LedgerCurrent(context.Context) (uint32, error) {
	return m.current, m.err
}

func TestCurrentAndExpiry(t *testing.T) {
	w, err := NewLedgerWindow(&mockLedgerSource{current: 1000}).CurrentAndExpiry(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, Window{Current: 1000, LastLedgerSequence: 1020}, w)
}

func TestCurrentAndExpiryFailureIsFatal(t *testing.T) {
	cause := errors.New("timeout")
	_, err := NewLedgerWindow(&mockLedgerSource{err: cause}).CurrentAndExpiry(context.Background(), 20)
	assert.ErrorIs(t, err, xrplerr.ErrNodeUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestMarginFor(t *testing.T) {
	p := WindowPolicy{}
	assert.Equal(t, uint32(100), p.MarginFor(tx.TypeTrustSet))
	assert.Equal(t, uint32(20), p.MarginFor(tx.TypeOfferCreate))
	assert.Equal(t, uint32(20), p.MarginFor(tx.TypePayment))

	p = WindowPolicy{Margin: 5, TrustMargin: 50}
	assert.Equal(t, uint32(50), p.MarginFor(tx.TypeTrustSet))
	assert.Equal(t, uint32(5), p.MarginFor(tx.TypeAccountSet))
}
