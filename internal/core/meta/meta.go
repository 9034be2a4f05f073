// Package meta decodes transaction metadata: the result code and the list
// of ledger entries a validated transaction created, modified or deleted.
package meta

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/LeJamon/xrplgate/internal/core/amount"
)

// Kind says what happened to an affected entry.
type Kind int

const (
	Created Kind = iota + 1
	Modified
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "CreatedNode"
	case Modified:
		return "ModifiedNode"
	case Deleted:
		return "DeletedNode"
	default:
		return "Unknown"
	}
}

// Ledger entry types the pipeline inspects.
const (
	EntryAccountRoot = "AccountRoot"
	EntryRippleState = "RippleState"
	EntryOffer       = "Offer"
)

// AffectedEntry is one element of the AffectedNodes list.
type AffectedEntry struct {
	Kind           Kind
	EntryType      string
	LedgerIndex    string
	NewFields      Fields
	FinalFields    Fields
	PreviousFields Fields
}

// Meta is the metadata of a validated transaction.
type Meta struct {
	TransactionResult string
	TransactionIndex  uint32
	AffectedNodes     []AffectedEntry
	DeliveredAmount   *amount.Amount
}

type rawEntry struct {
	LedgerEntryType string `json:"LedgerEntryType"`
	LedgerIndex     string `json:"LedgerIndex"`
	NewFields       Fields `json:"NewFields"`
	FinalFields     Fields `json:"FinalFields"`
	PreviousFields  Fields `json:"PreviousFields"`
}

type rawNode struct {
	Created  *rawEntry `json:"CreatedNode"`
	Modified *rawEntry `json:"ModifiedNode"`
	Deleted  *rawEntry `json:"DeletedNode"`
}

type rawMeta struct {
	TransactionResult string          `json:"TransactionResult"`
	TransactionIndex  uint32          `json:"TransactionIndex"`
	AffectedNodes     []rawNode       `json:"AffectedNodes"`
	DeliveredAmount   json.RawMessage `json:"delivered_amount"`
}

// UnmarshalJSON decodes the node's wrapped AffectedNodes form.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw rawMeta
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding metadata: %w", err)
	}
	out := Meta{
		TransactionResult: raw.TransactionResult,
		TransactionIndex:  raw.TransactionIndex,
		AffectedNodes:     make([]AffectedEntry, 0, len(raw.AffectedNodes)),
	}
	for i, node := range raw.AffectedNodes {
		var (
			kind  Kind
			entry *rawEntry
		)
		switch {
		case node.Created != nil:
			kind, entry = Created, node.Created
		case node.Modified != nil:
			kind, entry = Modified, node.Modified
		case node.Deleted != nil:
			kind, entry = Deleted, node.Deleted
		default:
			return fmt.Errorf("decoding metadata: affected node %d has no known kind", i)
		}
		out.AffectedNodes = append(out.AffectedNodes, AffectedEntry{
			Kind:           kind,
			EntryType:      entry.LedgerEntryType,
			LedgerIndex:    entry.LedgerIndex,
			NewFields:      entry.NewFields,
			FinalFields:    entry.FinalFields,
			PreviousFields: entry.PreviousFields,
		})
	}
	// "unavailable" is reported for old ledgers and is not an amount.
	if len(raw.DeliveredAmount) > 0 && string(raw.DeliveredAmount) != `"unavailable"` {
		var delivered amount.Amount
		if err := json.Unmarshal(raw.DeliveredAmount, &delivered); err == nil {
			out.DeliveredAmount = &delivered
		}
	}
	*m = out
	return nil
}

// MarshalJSON renders the node's wrapped form.
func (m Meta) MarshalJSON() ([]byte, error) {
	nodes := make([]rawNode, 0, len(m.AffectedNodes))
	for _, e := range m.AffectedNodes {
		entry := &rawEntry{
			LedgerEntryType: e.EntryType,
			LedgerIndex:     e.LedgerIndex,
			NewFields:       e.NewFields,
			FinalFields:     e.FinalFields,
			PreviousFields:  e.PreviousFields,
		}
		switch e.Kind {
		case Created:
			nodes = append(nodes, rawNode{Created: entry})
		case Modified:
			nodes = append(nodes, rawNode{Modified: entry})
		case Deleted:
			nodes = append(nodes, rawNode{Deleted: entry})
		}
	}
	raw := struct {
		TransactionResult string         `json:"TransactionResult"`
		TransactionIndex  uint32         `json:"TransactionIndex"`
		AffectedNodes     []rawNode      `json:"AffectedNodes"`
		DeliveredAmount   *amount.Amount `json:"delivered_amount,omitempty"`
	}{m.TransactionResult, m.TransactionIndex, nodes, m.DeliveredAmount}
	return json.Marshal(raw)
}

// Fields holds the raw field values of a ledger entry.
type Fields map[string]json.RawMessage

// String returns a string field.
func (f Fields) String(key string) (string, bool) {
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Uint32 returns a numeric field. Numbers sent as strings are accepted.
func (f Fields) Uint32(key string) (uint32, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	var n uint32
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// Amount returns an amount field such as Balance or HighLimit.
func (f Fields) Amount(key string) (amount.Amount, bool) {
	raw, ok := f[key]
	if !ok {
		return amount.Amount{}, false
	}
	var a amount.Amount
	if err := json.Unmarshal(raw, &a); err != nil {
		return amount.Amount{}, false
	}
	return a, true
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}
