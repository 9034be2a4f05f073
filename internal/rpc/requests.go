package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LeJamon/xrplgate/internal/core/tx"
)

// Fee returns the node's current fee levels.
func (c *Client) Fee(ctx context.Context) (*FeeResult, error) {
	var res FeeResult
	if err := c.Request(ctx, "fee", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LedgerCurrent returns the index of the node's open ledger.
func (c *Client) LedgerCurrent(ctx context.Context) (uint32, error) {
	var res struct {
		LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	}
	if err := c.Request(ctx, "ledger_current", nil, &res); err != nil {
		return 0, err
	}
	return res.LedgerCurrentIndex, nil
}

// ValidatedLedger returns the index of the latest validated ledger.
func (c *Client) ValidatedLedger(ctx context.Context) (uint32, error) {
	var res struct {
		LedgerIndex uint32 `json:"ledger_index"`
		Validated   bool   `json:"validated"`
	}
	params := map[string]any{"ledger_index": "validated"}
	if err := c.Request(ctx, "ledger", params, &res); err != nil {
		return 0, err
	}
	return res.LedgerIndex, nil
}

// AccountInfo returns the account root of account. An empty ledgerIndex
// reads the open ledger, where Sequence is the next one to use.
func (c *Client) AccountInfo(ctx context.Context, account, ledgerIndex string) (*AccountInfo, error) {
	if ledgerIndex == "" {
		ledgerIndex = "current"
	}
	var res AccountInfo
	params := map[string]any{"account": account, "ledger_index": ledgerIndex}
	if err := c.Request(ctx, "account_info", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AccountOffers returns the open offers owned by an account.
func (c *Client) AccountOffers(ctx context.Context, req AccountOffersRequest) (*AccountOffersResult, error) {
	params := map[string]any{"account": req.Account, "ledger_index": orDefault(req.LedgerIndex, "validated")}
	if req.Limit > 0 {
		params["limit"] = req.Limit
	}
	if len(req.Marker) > 0 {
		params["marker"] = req.Marker
	}
	var res AccountOffersResult
	if err := c.Request(ctx, "account_offers", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BookOffers returns offers of one order book side, best quality first.
func (c *Client) BookOffers(ctx context.Context, req BookOffersRequest) (*BookOffersResult, error) {
	params := map[string]any{
		"taker_gets":   req.TakerGets,
		"taker_pays":   req.TakerPays,
		"ledger_index": orDefault(req.LedgerIndex, "validated"),
	}
	if req.Taker != "" {
		params["taker"] = req.Taker
	}
	if req.Limit > 0 {
		params["limit"] = req.Limit
	}
	var res BookOffersResult
	if err := c.Request(ctx, "book_offers", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AccountLines returns the trust lines of an account.
func (c *Client) AccountLines(ctx context.Context, req AccountLinesRequest) (*AccountLinesResult, error) {
	params := map[string]any{"account": req.Account, "ledger_index": orDefault(req.LedgerIndex, "validated")}
	if req.Peer != "" {
		params["peer"] = req.Peer
	}
	if req.Limit > 0 {
		params["limit"] = req.Limit
	}
	if len(req.Marker) > 0 {
		params["marker"] = req.Marker
	}
	var res AccountLinesResult
	if err := c.Request(ctx, "account_lines", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AccountTx returns the transaction history of an account, newest first
// unless Forward is set.
func (c *Client) AccountTx(ctx context.Context, req AccountTxRequest) (*AccountTxResult, error) {
	params := map[string]any{
		"account":          req.Account,
		"ledger_index_min": boundOr(req.LedgerIndexMin),
		"ledger_index_max": boundOr(req.LedgerIndexMax),
		"forward":          req.Forward,
		"binary":           false,
	}
	if req.Limit > 0 {
		params["limit"] = req.Limit
	}
	if len(req.Marker) > 0 {
		params["marker"] = req.Marker
	}
	var raw struct {
		Account      string          `json:"account"`
		Transactions []txEntry       `json:"transactions"`
		Marker       json.RawMessage `json:"marker,omitempty"`
	}
	if err := c.Request(ctx, "account_tx", params, &raw); err != nil {
		return nil, err
	}
	res := &AccountTxResult{Account: raw.Account, Marker: raw.Marker}
	for i := range raw.Transactions {
		env, err := raw.Transactions[i].envelope(nil)
		if err != nil {
			return nil, fmt.Errorf("account_tx entry %d: %w", i, err)
		}
		res.Transactions = append(res.Transactions, env)
	}
	return res, nil
}

// Tx looks a transaction up by hash. A transaction the node does not know
// yet yields an *RpcError with ErrTxnNotFound.
func (c *Client) Tx(ctx context.Context, hash string) (*tx.Envelope, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, "tx", map[string]any{"transaction": hash, "binary": false}, &raw); err != nil {
		return nil, err
	}
	var entry txEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decoding tx result: %w", err)
	}
	env, err := entry.envelope(raw)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// Submit sends a signed transaction blob.
func (c *Client) Submit(ctx context.Context, txBlob string) (*SubmitResult, error) {
	var res SubmitResult
	if err := c.Request(ctx, "submit", map[string]any{"tx_blob": txBlob}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Sign asks the node to sign txJSON with secret. Only use this against a
// node you run: the secret is sent over the connection.
func (c *Client) Sign(ctx context.Context, txJSON map[string]any, secret string) (*SignResult, error) {
	params := map[string]any{"tx_json": txJSON, "secret": secret, "offline": false}
	var res SignResult
	if err := c.Request(ctx, "sign", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boundOr(n int64) int64 {
	if n == 0 {
		return -1
	}
	return n
}
