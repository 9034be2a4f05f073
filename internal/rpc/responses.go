package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/LeJamon/xrplgate/internal/core/tx"
)

// FeeResult is the result of the fee command. Drop values are decimal
// strings as sent by the node.
type FeeResult struct {
	CurrentLedgerSize  string `json:"current_ledger_size"`
	CurrentQueueSize   string `json:"current_queue_size"`
	LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	Drops              struct {
		BaseFee       string `json:"base_fee"`
		MedianFee     string `json:"median_fee"`
		MinimumFee    string `json:"minimum_fee"`
		OpenLedgerFee string `json:"open_ledger_fee"`
	} `json:"drops"`
}

// AccountRoot holds the account_info fields the pipeline uses.
type AccountRoot struct {
	Account      string `json:"Account"`
	Balance      string `json:"Balance"`
	Sequence     uint32 `json:"Sequence"`
	Flags        uint32 `json:"Flags"`
	OwnerCount   uint32 `json:"OwnerCount"`
	Domain       string `json:"Domain,omitempty"`
	EmailHash    string `json:"EmailHash,omitempty"`
	MessageKey   string `json:"MessageKey,omitempty"`
	RegularKey   string `json:"RegularKey,omitempty"`
	TransferRate uint32 `json:"TransferRate,omitempty"`
	TickSize     uint8  `json:"TickSize,omitempty"`
}

// AccountInfo is the result of account_info.
type AccountInfo struct {
	AccountData        AccountRoot `json:"account_data"`
	LedgerCurrentIndex uint32      `json:"ledger_current_index,omitempty"`
	LedgerIndex        uint32      `json:"ledger_index,omitempty"`
	Validated          bool        `json:"validated"`
}

// AccountOffersRequest selects offers owned by Account.
type AccountOffersRequest struct {
	Account     string
	Limit       int
	Marker      json.RawMessage
	LedgerIndex string
}

// AccountOffer is one entry of account_offers.
type AccountOffer struct {
	Flags      uint32        `json:"flags"`
	Seq        uint32        `json:"seq"`
	TakerGets  amount.Amount `json:"taker_gets"`
	TakerPays  amount.Amount `json:"taker_pays"`
	Quality    string        `json:"quality"`
	Expiration uint32        `json:"expiration,omitempty"`
}

// AccountOffersResult is the result of account_offers.
type AccountOffersResult struct {
	Account string          `json:"account"`
	Offers  []AccountOffer  `json:"offers"`
	Marker  json.RawMessage `json:"marker,omitempty"`
}

// Issue names a currency in an order book. Issuer is empty for XRP.
type Issue struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

// BookOffersRequest selects one side of an order book.
type BookOffersRequest struct {
	TakerGets   Issue
	TakerPays   Issue
	Taker       string
	Limit       int
	LedgerIndex string
}

// BookOffer is an Offer ledger entry as returned by book_offers.
type BookOffer struct {
	Account         string         `json:"Account"`
	Sequence        uint32         `json:"Sequence"`
	Flags           uint32         `json:"Flags"`
	TakerGets       amount.Amount  `json:"TakerGets"`
	TakerPays       amount.Amount  `json:"TakerPays"`
	Expiration      uint32         `json:"Expiration,omitempty"`
	BookDirectory   string         `json:"BookDirectory"`
	Index           string         `json:"index"`
	Quality         string         `json:"quality"`
	OwnerFunds      string         `json:"owner_funds,omitempty"`
	TakerGetsFunded *amount.Amount `json:"taker_gets_funded,omitempty"`
	TakerPaysFunded *amount.Amount `json:"taker_pays_funded,omitempty"`
}

// BookOffersResult is the result of book_offers.
type BookOffersResult struct {
	LedgerCurrentIndex uint32      `json:"ledger_current_index,omitempty"`
	LedgerIndex        uint32      `json:"ledger_index,omitempty"`
	Offers             []BookOffer `json:"offers"`
}

// AccountLinesRequest selects trust lines of Account, optionally only those
// shared with Peer.
type AccountLinesRequest struct {
	Account     string
	Peer        string
	Limit       int
	Marker      json.RawMessage
	LedgerIndex string
}

// TrustLine is one entry of account_lines, seen from the requesting
// account: Account is the peer.
type TrustLine struct {
	Account        string `json:"account"`
	Balance        string `json:"balance"`
	Currency       string `json:"currency"`
	Limit          string `json:"limit"`
	LimitPeer      string `json:"limit_peer"`
	QualityIn      uint32 `json:"quality_in"`
	QualityOut     uint32 `json:"quality_out"`
	NoRipple       bool   `json:"no_ripple,omitempty"`
	NoRipplePeer   bool   `json:"no_ripple_peer,omitempty"`
	Authorized     bool   `json:"authorized,omitempty"`
	PeerAuthorized bool   `json:"peer_authorized,omitempty"`
	Freeze         bool   `json:"freeze,omitempty"`
	FreezePeer     bool   `json:"freeze_peer,omitempty"`
}

// AccountLinesResult is the result of account_lines.
type AccountLinesResult struct {
	Account string          `json:"account"`
	Lines   []TrustLine     `json:"lines"`
	Marker  json.RawMessage `json:"marker,omitempty"`
}

// AccountTxRequest selects the transaction history of Account. Zero
// ledger bounds mean the full range the node has.
type AccountTxRequest struct {
	Account        string
	LedgerIndexMin int64
	LedgerIndexMax int64
	Limit          int
	Forward        bool
	Marker         json.RawMessage
}

// AccountTxResult is the result of account_tx.
type AccountTxResult struct {
	Account      string
	Transactions []tx.Envelope
	Marker       json.RawMessage
}

// SubmitResult is the result of submit: the preliminary outcome of applying
// the transaction to the node's open ledger.
type SubmitResult struct {
	EngineResult         string `json:"engine_result"`
	EngineResultCode     int    `json:"engine_result_code"`
	EngineResultMessage  string `json:"engine_result_message"`
	TxBlob               string `json:"tx_blob"`
	Accepted             bool   `json:"accepted"`
	Applied              bool   `json:"applied"`
	Broadcast            bool   `json:"broadcast"`
	Kept                 bool   `json:"kept"`
	Queued               bool   `json:"queued"`
	ValidatedLedgerIndex uint32 `json:"validated_ledger_index"`
	TxJSON               struct {
		Hash     string `json:"hash"`
		Sequence uint32 `json:"Sequence"`
	} `json:"tx_json"`
}

// SignResult is the result of sign.
type SignResult struct {
	TxBlob string `json:"tx_blob"`
	TxJSON struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// txEntry accepts both the API v1 layout (tx) and the v2 layout (tx_json
// with hash and ledger fields beside it).
type txEntry struct {
	Tx          json.RawMessage `json:"tx"`
	TxJSON      json.RawMessage `json:"tx_json"`
	Meta        json.RawMessage `json:"meta"`
	Hash        string          `json:"hash"`
	LedgerIndex uint32          `json:"ledger_index"`
	Date        int64           `json:"date"`
	Validated   bool            `json:"validated"`
}

func (e *txEntry) envelope(fallback json.RawMessage) (tx.Envelope, error) {
	body := e.TxJSON
	if len(body) == 0 {
		body = e.Tx
	}
	if len(body) == 0 {
		body = fallback
	}
	var env tx.Envelope
	if err := json.Unmarshal(body, &env.Tx); err != nil {
		return env, fmt.Errorf("decoding transaction: %w", err)
	}
	env.Raw = body
	env.Validated = e.Validated
	env.Hash = firstNonEmpty(e.Hash, env.Tx.Hash)
	env.Tx.Hash = env.Hash
	env.LedgerIndex = e.LedgerIndex
	if env.LedgerIndex == 0 {
		env.LedgerIndex = env.Tx.LedgerIndex
	}
	env.Date = env.Tx.Date
	if env.Date == 0 {
		env.Date = e.Date
	}
	if len(e.Meta) > 0 && e.Meta[0] == '{' {
		var m meta.Meta
		if err := json.Unmarshal(e.Meta, &m); err != nil {
			return env, err
		}
		env.Meta = &m
	}
	return env, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
