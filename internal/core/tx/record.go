package tx

import (
	"encoding/json"

	"github.com/LeJamon/xrplgate/internal/core/amount"
	"github.com/LeJamon/xrplgate/internal/core/meta"
)

// Record is a transaction as the node reports it in tx and account_tx
// responses. Only the fields the pipeline reads are decoded.
type Record struct {
	TransactionType    string         `json:"TransactionType"`
	Account            string         `json:"Account"`
	Destination        string         `json:"Destination,omitempty"`
	DestinationTag     *uint32        `json:"DestinationTag,omitempty"`
	Sequence           uint32         `json:"Sequence"`
	OfferSequence      uint32         `json:"OfferSequence,omitempty"`
	Fee                string         `json:"Fee"`
	Flags              uint32         `json:"Flags"`
	LastLedgerSequence uint32         `json:"LastLedgerSequence,omitempty"`
	Amount             *amount.Amount `json:"Amount,omitempty"`
	DeliverMax         *amount.Amount `json:"DeliverMax,omitempty"`
	SendMax            *amount.Amount `json:"SendMax,omitempty"`
	TakerGets          *amount.Amount `json:"TakerGets,omitempty"`
	TakerPays          *amount.Amount `json:"TakerPays,omitempty"`
	LimitAmount        *amount.Amount `json:"LimitAmount,omitempty"`
	Memos              []MemoWrapper  `json:"Memos,omitempty"`
	Date               int64          `json:"date,omitempty"`
	Hash               string         `json:"hash,omitempty"`
	LedgerIndex        uint32         `json:"ledger_index,omitempty"`
}

// MemoWrapper is the wire form of one memo.
type MemoWrapper struct {
	Memo struct {
		MemoType   string `json:"MemoType,omitempty"`
		MemoData   string `json:"MemoData,omitempty"`
		MemoFormat string `json:"MemoFormat,omitempty"`
	} `json:"Memo"`
}

// DeliveredAmount returns the amount a Payment moved: the metadata's
// delivered amount when present, else DeliverMax or Amount.
func (r *Record) DeliveredAmount(m *meta.Meta) *amount.Amount {
	if m != nil && m.DeliveredAmount != nil {
		return m.DeliveredAmount
	}
	if r.DeliverMax != nil {
		return r.DeliverMax
	}
	return r.Amount
}

// Envelope is a transaction with its validation status and metadata.
type Envelope struct {
	Tx          Record
	Meta        *meta.Meta
	Hash        string
	LedgerIndex uint32
	Date        int64
	Validated   bool
	// Raw is the transaction object as received.
	Raw json.RawMessage
}

// ResultCode returns the metadata result, empty when the transaction is not
// yet in a ledger.
func (e *Envelope) ResultCode() string {
	if e.Meta == nil {
		return ""
	}
	return e.Meta.TransactionResult
}
