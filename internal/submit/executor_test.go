package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LeJamon/xrplgate/internal/builder"
	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/core/xrplerr"
	"github.com/LeJamon/xrplgate/internal/events"
	"github.com/LeJamon/xrplgate/internal/idempotency"
	"github.com/LeJamon/xrplgate/internal/journal"
	"github.com/LeJamon/xrplgate/internal/metrics"
	"github.com/LeJamon/xrplgate/internal/network"
	"github.com/LeJamon/xrplgate/internal/rpc"
	"github.com/LeJamon/xrplgate/internal/signing/mocks"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maker = "rMAKERxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

// fakeNode plays a node whose open ledger is fixed and whose validated
// ledger advances by one on every query.
type fakeNode struct {
	mu sync.Mutex

	connected bool
	acquires  int
	releases  int

	sequence     uint32
	accountInfos int
	// accountErr fails every account_info after the first accountOK calls.
	accountErr error
	accountOK  int

	// submitCodes is consumed one per submit; the last one repeats.
	submitCodes []string
	submitErr   error
	submits     []string

	validated uint32
	// lookup decides what tx returns for the n-th submitted transaction.
	lookup func(submitIndex int, hash string) (*tx.Envelope, error)
}

func (f *fakeNode) Acquire(context.Context) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.connected {
		return func() {}, nil
	}
	f.connected = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.releases++
		f.connected = false
	}, nil
}

func (f *fakeNode) AccountInfo(_ context.Context, account, _ string) (*rpc.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountInfos++
	if f.accountErr != nil && f.accountInfos > f.accountOK {
		return nil, f.accountErr
	}
	info := &rpc.AccountInfo{}
	info.AccountData.Account = account
	info.AccountData.Sequence = f.sequence
	return info, nil
}

func (f *fakeNode) Submit(_ context.Context, blob string) (*rpc.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submits = append(f.submits, blob)
	code := tx.TesSUCCESS
	if n := len(f.submitCodes); n > 0 {
		code = f.submitCodes[min(len(f.submits)-1, n-1)]
	}
	return &rpc.SubmitResult{EngineResult: code}, nil
}

func (f *fakeNode) Tx(ctx context.Context, hash string) (*tx.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	n := len(f.submits)
	lookup := f.lookup
	f.mu.Unlock()
	return lookup(n, hash)
}

func (f *fakeNode) ValidatedLedger(ctx context.Context) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validated++
	return f.validated, nil
}

type fixedFees struct{}

func (fixedFees) Recommend(context.Context) network.Recommendation {
	return network.Recommendation{Tier: network.FeeTier{Minimum: 10, Median: 12}, Drops: 12}
}

type fixedWindow struct{ current uint32 }

func (w fixedWindow) CurrentAndExpiry(_ context.Context, margin uint32) (network.Window, error) {
	return network.Window{Current: w.current, LastLedgerSequence: w.current + margin}, nil
}

func validatedEnvelope(hash, code string, affected string) *tx.Envelope {
	var m meta.Meta
	if err := json.Unmarshal([]byte(`{"TransactionResult":"`+code+`","AffectedNodes":`+affected+`}`), &m); err != nil {
		panic(err)
	}
	return &tx.Envelope{Hash: hash, LedgerIndex: 1003, Validated: true, Meta: &m}
}

func txnNotFound() error {
	return &rpc.RpcError{Command: "tx", ErrorString: rpc.ErrTxnNotFound}
}

func offerIntent() *tx.OfferCreate {
	return &tx.OfferCreate{
		Account:   maker,
		TakerGets: amount.Native("20"),
		TakerPays: amount.Issued("ABC", "rISSUER", "10"),
	}
}

func newExecutor(node *fakeNode, cfg Config, opts ...Option) *Executor {
	b := builder.New(fixedFees{}, fixedWindow{current: 1000}, network.WindowPolicy{}, nil)
	return New(node, b, cfg, opts...)
}

func fastConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Millisecond, PollInterval: time.Millisecond}
}

func expectSigning(ctrl *gomock.Controller, account string) *mocks.MockSigner {
	signer := mocks.NewMockSigner(ctrl)
	signer.EXPECT().Address().Return(account).AnyTimes()
	var calls int
	signer.EXPECT().Sign(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, txJSON map[string]any) (string, string, error) {
			calls++
			return fmt.Sprintf("BLOB%d", calls), fmt.Sprintf("HASH%d", calls), nil
		}).AnyTimes()
	return signer
}

func TestExecuteOfferCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence: 42,
		lookup: func(_ int, hash string) (*tx.Envelope, error) {
			return validatedEnvelope(hash, tx.TesSUCCESS, `[
				{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"AB","NewFields":{"Account":"`+maker+`","Sequence":42}}}]`), nil
		},
	}
	out, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.True(t, out.Validated)
	assert.Equal(t, tx.TesSUCCESS, out.ResultCode)
	assert.Equal(t, "transaction succeeded", out.Message)
	assert.Equal(t, "HASH1", out.Hash)
	assert.Equal(t, uint32(42), out.Sequence)
	assert.Equal(t, uint32(1003), out.LedgerIndex)
	assert.Equal(t, "42", out.Settlement.CreatedObjectID)
	assert.Equal(t, 1, out.Attempts)

	assert.False(t, node.connected, "connection opened by the call must be closed")
	assert.Equal(t, 1, node.releases)
}

func TestExecuteKeepsCallerConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		connected: true,
		sequence:  42,
		lookup: func(_ int, hash string) (*tx.Envelope, error) {
			return validatedEnvelope(hash, tx.TesSUCCESS, `[]`), nil
		},
	}
	_, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)
	assert.True(t, node.connected)
	assert.Zero(t, node.releases)
}

func TestExecuteReleasesOnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{accountErr: errors.New("actNotFound")}
	_, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})

	var nodeErr *xrplerr.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "account_info", nodeErr.Op)
	assert.Equal(t, "OfferCreate", nodeErr.TxType)
	assert.Equal(t, maker, nodeErr.Account)
	assert.False(t, node.connected)
}

func TestExecuteLedgerRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence: 42,
		lookup: func(_ int, hash string) (*tx.Envelope, error) {
			return validatedEnvelope(hash, tx.TecUNFUNDED_OFFER, `[]`), nil
		},
	}
	out, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, tx.TecUNFUNDED_OFFER, out.ResultCode)
	assert.Equal(t, "offer is not funded", out.Message)
	assert.Len(t, node.submits, 1)
}

func TestExecutePreliminaryRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence:    42,
		submitCodes: []string{"temBAD_OFFER"},
		lookup: func(int, string) (*tx.Envelope, error) {
			t.Error("rejected transaction must not be polled")
			return nil, txnNotFound()
		},
	}
	out, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.False(t, out.Validated)
	assert.Equal(t, "temBAD_OFFER", out.ResultCode)
	assert.Equal(t, "transaction failed: temBAD_OFFER", out.Message)
}

func TestExecuteDuplicateNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{sequence: 42, submitCodes: []string{tx.TefALREADY}}
	_, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})

	var dup *xrplerr.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, tx.TefALREADY, dup.Code)
	assert.Len(t, node.submits, 1)
	assert.Equal(t, 1, node.accountInfos)
}

func TestExecuteRedundantIsRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence:    42,
		submitCodes: []string{tx.TemREDUNDANT},
		lookup: func(int, string) (*tx.Envelope, error) {
			t.Error("rejected transaction must not be polled")
			return nil, txnNotFound()
		},
	}
	out, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.False(t, out.Validated)
	assert.Equal(t, tx.TemREDUNDANT, out.ResultCode)
	assert.Equal(t, "transaction would do nothing", out.Message)
	assert.Len(t, node.submits, 1)
}

func TestExecuteRetriesExpiredWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := prometheus.NewRegistry()
	node := &fakeNode{
		sequence:  42,
		validated: 1015,
		lookup: func(n int, hash string) (*tx.Envelope, error) {
			if n == 1 {
				return nil, txnNotFound()
			}
			return validatedEnvelope(hash, tx.TesSUCCESS, `[]`), nil
		},
	}
	out, err := newExecutor(node, fastConfig(), WithMetrics(metrics.NewMetrics(reg))).
		Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, "HASH2", out.Hash)
	assert.Equal(t, 2, node.accountInfos, "each attempt re-reads the sequence")
	assert.Equal(t, []string{"BLOB1", "BLOB2"}, node.submits)
	retries, err := testutil.GatherAndCount(reg, "xrplgate_submission_retries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, retries)
}

func TestExecuteExpiredAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence:  42,
		validated: 1015,
		lookup: func(int, string) (*tx.Envelope, error) {
			return nil, txnNotFound()
		},
	}
	cfg := fastConfig()
	cfg.MaxRetries = 2
	_, err := newExecutor(node, cfg).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})

	var expired *xrplerr.ExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, 3, expired.Attempts)
	assert.Equal(t, uint32(1020), expired.LastLedgerSequence)
	assert.Len(t, node.submits, 3)
	assert.False(t, node.connected)
}

func TestExecuteMaxLedgerPreliminaryIsExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence:    42,
		submitCodes: []string{tx.TefMAX_LEDGER, tx.TesSUCCESS},
		lookup: func(_ int, hash string) (*tx.Envelope, error) {
			return validatedEnvelope(hash, tx.TesSUCCESS, `[]`), nil
		},
	}
	out, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Attempts)
}

func TestExecuteCancelledWhileWaiting(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		sequence: 42,
		lookup: func(int, string) (*tx.Envelope, error) {
			return nil, txnNotFound()
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	cfg := fastConfig()
	cfg.PollInterval = 5 * time.Millisecond
	_, err := newExecutor(node, cfg).Execute(ctx, offerIntent(), expectSigning(ctrl, maker), Options{})

	var unknown *xrplerr.UnknownOutcomeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "HASH1", unknown.Hash)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteInputErrorBeforeNodeAccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{}
	_, err := newExecutor(node, fastConfig()).Execute(context.Background(),
		&tx.OfferCancel{Account: maker}, mocks.NewMockSigner(ctrl), Options{})
	assert.ErrorIs(t, err, xrplerr.ErrInput)
	assert.Zero(t, node.acquires)
}

func TestExecuteAddressMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	signer := mocks.NewMockSigner(ctrl)
	signer.EXPECT().Address().Return("rSOMEONEELSE").AnyTimes()
	node := &fakeNode{}

	_, err := newExecutor(node, fastConfig()).Execute(context.Background(), offerIntent(), signer, Options{})
	var mismatch *xrplerr.AddressMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "rSOMEONEELSE", mismatch.Derived)
	assert.Equal(t, maker, mismatch.Requested)
	assert.Zero(t, node.acquires)
}

func TestExecuteSignerFailureSendsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	signer := mocks.NewMockSigner(ctrl)
	signer.EXPECT().Address().Return(maker).AnyTimes()
	signer.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("", "", errors.New("bad key")).Times(1)

	guard, err := idempotency.NewMemory(8)
	require.NoError(t, err)
	node := &fakeNode{sequence: 42}
	_, err = newExecutor(node, fastConfig(), WithGuard(guard)).
		Execute(context.Background(), offerIntent(), signer, Options{IdempotencyKey: "k1"})
	assert.EqualError(t, err, "bad key")
	assert.Empty(t, node.submits)

	_, err = guard.Lookup(context.Background(), "k1")
	assert.ErrorIs(t, err, idempotency.ErrNotFound, "nothing was sent, so the key is free again")
}

func TestExecuteIdempotencyKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	guard, err := idempotency.NewMemory(8)
	require.NoError(t, err)
	node := &fakeNode{
		sequence: 42,
		lookup: func(_ int, hash string) (*tx.Envelope, error) {
			return validatedEnvelope(hash, tx.TesSUCCESS, `[]`), nil
		},
	}
	exec := newExecutor(node, fastConfig(), WithGuard(guard))
	signer := expectSigning(ctrl, maker)

	first, err := exec.Execute(context.Background(), offerIntent(), signer, Options{IdempotencyKey: "order-1"})
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), offerIntent(), signer, Options{IdempotencyKey: "order-1"})
	var dup *xrplerr.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "order-1", dup.Key)
	assert.Equal(t, first.Hash, dup.Hash)
	assert.Len(t, node.submits, 1)

	rec, err := guard.Lookup(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, idempotency.StateCompleted, rec.State)
	assert.Equal(t, tx.TesSUCCESS, rec.ResultCode)

	_, err = exec.Execute(context.Background(), offerIntent(), signer, Options{IdempotencyKey: "order-2"})
	assert.NoError(t, err)
}

func TestExecuteReleasesKeyWhenRetryFailsBeforeSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	guard, err := idempotency.NewMemory(8)
	require.NoError(t, err)
	node := &fakeNode{
		sequence:   42,
		validated:  1015,
		accountErr: errors.New("noNetwork"),
		accountOK:  1,
		lookup: func(int, string) (*tx.Envelope, error) {
			return nil, txnNotFound()
		},
	}
	_, err = newExecutor(node, fastConfig(), WithGuard(guard)).
		Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{IdempotencyKey: "order-1"})
	require.ErrorIs(t, err, xrplerr.ErrNodeUnavailable)
	assert.Len(t, node.submits, 1)
	assert.Equal(t, 2, node.accountInfos)

	_, err = guard.Lookup(context.Background(), "order-1")
	assert.ErrorIs(t, err, idempotency.ErrNotFound)
}

type memoryRecorder struct {
	entries []journal.Entry
}

func (m *memoryRecorder) Record(_ context.Context, e journal.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

type memoryPublisher struct {
	events []events.OutcomeEvent
	err    error
}

func (m *memoryPublisher) Publish(_ context.Context, ev events.OutcomeEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

func TestExecuteRecordsAndPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := &memoryRecorder{}
	pub := &memoryPublisher{err: errors.New("nats down")}
	node := &fakeNode{
		sequence:  42,
		validated: 1015,
		lookup: func(n int, hash string) (*tx.Envelope, error) {
			if n == 1 {
				return nil, txnNotFound()
			}
			return validatedEnvelope(hash, tx.TesSUCCESS, `[
				{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"AB","NewFields":{"Sequence":42}}}]`), nil
		},
	}
	out, err := newExecutor(node, fastConfig(), WithRecorder(rec), WithPublisher(pub)).
		Execute(context.Background(), offerIntent(), expectSigning(ctrl, maker), Options{IdempotencyKey: "k"})
	require.NoError(t, err, "publish failures do not fail the call")

	require.Len(t, rec.entries, 2)
	assert.Equal(t, 1, rec.entries[0].Attempt)
	assert.Contains(t, rec.entries[0].Error, "not validated by ledger 1020")
	assert.Equal(t, 2, rec.entries[1].Attempt)
	assert.True(t, rec.entries[1].Success)
	assert.Equal(t, "HASH2", rec.entries[1].Hash)
	assert.NotEmpty(t, rec.entries[1].Meta)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, out.Hash, ev.Hash)
	assert.Equal(t, "42", ev.CreatedObjectID)
	assert.Equal(t, 2, ev.Attempts)
	assert.Equal(t, "k", ev.IdempotencyKey)
}

func TestSubmitSingleBuilt(t *testing.T) {
	ctrl := gomock.NewController(t)
	node := &fakeNode{
		lookup: func(_ int, hash string) (*tx.Envelope, error) {
			return validatedEnvelope(hash, tx.TesSUCCESS, `[]`), nil
		},
	}
	built := &tx.Built{
		Intent:             &tx.OfferCancel{Account: maker, OfferSequence: 41},
		Fee:                12,
		Sequence:           43,
		LastLedgerSequence: 1020,
		Fields:             map[string]any{"OfferSequence": uint32(41)},
	}
	signer := mocks.NewMockSigner(ctrl)
	signer.EXPECT().Sign(gomock.Any(), built.TxJSON()).Return("BLOB", "H", nil)

	out, err := newExecutor(node, fastConfig()).Submit(context.Background(), built, signer)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Empty(t, out.Settlement.CreatedObjectID)
	assert.False(t, node.connected)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "tesSUCCESS", resultLabel(&Outcome{ResultCode: "tesSUCCESS"}, nil))
	assert.Equal(t, "expired", resultLabel(nil, &xrplerr.ExpiredError{}))
	assert.Equal(t, "duplicate", resultLabel(nil, &xrplerr.DuplicateError{}))
	assert.Equal(t, "unknown", resultLabel(nil, &xrplerr.UnknownOutcomeError{Err: context.Canceled}))
	assert.Equal(t, "node_error", resultLabel(nil, &xrplerr.NodeError{Err: errors.New("x")}))
	assert.Equal(t, "rejected_input", resultLabel(nil, xrplerr.Input("f", "bad")))
	assert.Equal(t, "error", resultLabel(nil, errors.New("other")))
}
