package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode answers websocket requests from a table of canned results.
type fakeNode struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	handlers map[string]func(req map[string]any) (any, string)
	requests []map[string]any
	conns    int
	live     []*websocket.Conn
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	f := &fakeNode{t: t, handlers: map[string]func(map[string]any) (any, string){}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

// drop closes every upgraded connection from the server side.
func (f *fakeNode) drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.live {
		_ = conn.Close()
	}
	f.live = nil
}

func (f *fakeNode) handle(command string, h func(req map[string]any) (any, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[command] = h
}

func (f *fakeNode) result(command string, result any) {
	f.handle(command, func(map[string]any) (any, string) { return result, "" })
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	f.mu.Lock()
	f.conns++
	f.live = append(f.live, conn)
	f.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			f.t.Errorf("fake node got bad request: %v", err)
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		h := f.handlers[req["command"].(string)]
		f.mu.Unlock()

		resp := map[string]any{"id": req["id"], "type": "response"}
		if h == nil {
			resp["status"] = "error"
			resp["error"] = "unknownCmd"
		} else if result, errStr := h(req); errStr != "" {
			resp["status"] = "error"
			resp["error"] = errStr
			resp["error_message"] = errStr + " from fake"
		} else {
			resp["status"] = "success"
			resp["result"] = result
		}
		out, _ := json.Marshal(resp)
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return
		}
	}
}

func (f *fakeNode) lastRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	c := NewClient(Config{URL: wsURL(srv), RequestTimeout: 2 * time.Second}, nil, nil)
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func TestRequestRequiresConnection(t *testing.T) {
	_, srv := newFakeNode(t)
	c := newTestClient(t, srv)

	_, err := c.Fee(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestFee(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("fee", map[string]any{
		"ledger_current_index": 1000,
		"drops": map[string]any{
			"base_fee":        "10",
			"median_fee":      "5000",
			"minimum_fee":     "10",
			"open_ledger_fee": "12",
		},
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	fee, err := c.Fee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5000", fee.Drops.MedianFee)
	assert.Equal(t, "10", fee.Drops.MinimumFee)
	assert.Equal(t, uint32(1000), fee.LedgerCurrentIndex)
}

func TestRpcErrorResponse(t *testing.T) {
	node, srv := newFakeNode(t)
	node.handle("account_info", func(map[string]any) (any, string) { return nil, ErrActNotFound })
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	_, err := c.AccountInfo(context.Background(), "rNobody", "")
	require.Error(t, err)
	assert.True(t, IsRpcError(err, ErrActNotFound))
	assert.Contains(t, err.Error(), "account_info")
	assert.Equal(t, "current", node.lastRequest()["ledger_index"])
}

func TestAcquireOnlyReleasesWhatItOpened(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("ledger_current", map[string]any{"ledger_current_index": 7})
	c := newTestClient(t, srv)
	ctx := context.Background()

	release, err := c.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsConnected())

	inner, err := c.Acquire(ctx)
	require.NoError(t, err)
	inner()
	assert.True(t, c.IsConnected(), "inner release must not close a connection it did not open")

	idx, err := c.LedgerCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), idx)

	release()
	assert.False(t, c.IsConnected())
	release()
}

func TestConcurrentRequestsAreCorrelated(t *testing.T) {
	node, srv := newFakeNode(t)
	node.handle("account_info", func(req map[string]any) (any, string) {
		return map[string]any{"account_data": map[string]any{"Account": req["account"], "Sequence": 1}}, ""
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	accounts := []string{"rA", "rB", "rC", "rD", "rE", "rF"}
	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func(account string) {
			defer wg.Done()
			info, err := c.AccountInfo(context.Background(), account, "validated")
			if assert.NoError(t, err) {
				assert.Equal(t, account, info.AccountData.Account)
			}
		}(account)
	}
	wg.Wait()
}

func TestAccountTxDecodesBothLayouts(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("account_tx", map[string]any{
		"account": "rA",
		"transactions": []any{
			map[string]any{
				"tx": map[string]any{
					"TransactionType": "OfferCreate", "Account": "rA", "Sequence": 5,
					"Fee": "12", "Flags": 0, "date": 750000000, "hash": "H1",
				},
				"meta":      map[string]any{"TransactionResult": "tesSUCCESS", "AffectedNodes": []any{}},
				"validated": true,
			},
			map[string]any{
				"tx_json": map[string]any{
					"TransactionType": "OfferCancel", "Account": "rA", "Sequence": 6,
					"OfferSequence": 5, "Fee": "12", "Flags": 0, "date": 750000010,
				},
				"hash":         "H2",
				"ledger_index": 99,
				"meta": map[string]any{"TransactionResult": "tesSUCCESS", "AffectedNodes": []any{
					map[string]any{"DeletedNode": map[string]any{"LedgerEntryType": "Offer", "LedgerIndex": "X", "FinalFields": map[string]any{"Sequence": 5}}},
				}},
				"validated": true,
			},
		},
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	res, err := c.AccountTx(context.Background(), AccountTxRequest{Account: "rA", Limit: 20})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)

	first := res.Transactions[0]
	assert.Equal(t, "H1", first.Hash)
	assert.Equal(t, int64(750000000), first.Date)
	assert.Equal(t, "tesSUCCESS", first.ResultCode())

	second := res.Transactions[1]
	assert.Equal(t, "H2", second.Hash)
	assert.Equal(t, uint32(5), second.Tx.OfferSequence)
	assert.Equal(t, uint32(99), second.LedgerIndex)
	require.NotNil(t, second.Meta)
	assert.Equal(t, meta.Deleted, second.Meta.AffectedNodes[0].Kind)

	req := node.lastRequest()
	assert.Equal(t, float64(-1), req["ledger_index_min"])
	assert.Equal(t, float64(20), req["limit"])
	assert.Equal(t, false, req["forward"])
}

func TestTxLookup(t *testing.T) {
	node, srv := newFakeNode(t)
	node.handle("tx", func(req map[string]any) (any, string) {
		if req["transaction"] != "ABC" {
			return nil, ErrTxnNotFound
		}
		return map[string]any{
			"TransactionType": "Payment", "Account": "rA", "Destination": "rB",
			"Amount": "1000", "Sequence": 3, "Fee": "10", "Flags": 0,
			"hash": "ABC", "ledger_index": 50, "validated": true,
			"meta": map[string]any{"TransactionResult": "tecUNFUNDED_PAYMENT", "AffectedNodes": []any{}},
		}, ""
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	env, err := c.Tx(context.Background(), "ABC")
	require.NoError(t, err)
	assert.True(t, env.Validated)
	assert.Equal(t, uint32(50), env.LedgerIndex)
	assert.Equal(t, "tecUNFUNDED_PAYMENT", env.ResultCode())
	assert.Equal(t, "1000", env.Tx.Amount.Value)

	_, err = c.Tx(context.Background(), "NOPE")
	assert.True(t, IsRpcError(err, ErrTxnNotFound))
}

func TestSubmit(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("submit", map[string]any{
		"engine_result":         "tesSUCCESS",
		"engine_result_message": "The transaction was applied.",
		"accepted":              true,
		"tx_json":               map[string]any{"hash": "HH", "Sequence": 4},
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	res, err := c.Submit(context.Background(), "DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, "tesSUCCESS", res.EngineResult)
	assert.Equal(t, "HH", res.TxJSON.Hash)
	assert.Equal(t, "DEADBEEF", node.lastRequest()["tx_blob"])
}

func TestPendingRequestFailsWhenServerCloses(t *testing.T) {
	node, srv := newFakeNode(t)
	block := make(chan struct{})
	defer close(block)
	node.handle("fee", func(map[string]any) (any, string) {
		<-block
		return nil, "unused"
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	errc := make(chan error, 1)
	go func() {
		_, err := c.Fee(context.Background())
		errc <- err
	}()
	time.Sleep(50 * time.Millisecond)
	node.drop()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not fail after connection loss")
	}
}

func TestContextCancelStopsWaiting(t *testing.T) {
	node, srv := newFakeNode(t)
	block := make(chan struct{})
	node.handle("fee", func(map[string]any) (any, string) {
		<-block
		return map[string]any{}, ""
	})
	c := newTestClient(t, srv)
	require.NoError(t, c.Connect(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Fee(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}
