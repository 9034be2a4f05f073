package tx

import (
	"maps"
	"strconv"
)

// Built is an intent resolved into one submittable transaction: fee,
// sequence, expiry window and flags fixed. A Built is used for exactly one
// submission attempt; retries build a new one.
type Built struct {
	Intent             Intent
	Fee                uint64
	Sequence           uint32
	LastLedgerSequence uint32
	Flags              uint32
	// Fields holds the type specific transaction fields in their wire
	// form, keyed by field name.
	Fields map[string]any
}

func (b *Built) TxType() Type    { return b.Intent.TxType() }
func (b *Built) Account() string { return b.Intent.Source() }

// TxJSON renders the transaction as the field map handed to a signer.
func (b *Built) TxJSON() map[string]any {
	out := make(map[string]any, len(b.Fields)+6)
	maps.Copy(out, b.Fields)
	out["TransactionType"] = string(b.TxType())
	out["Account"] = b.Account()
	out["Fee"] = strconv.FormatUint(b.Fee, 10)
	out["Sequence"] = b.Sequence
	out["LastLedgerSequence"] = b.LastLedgerSequence
	out["Flags"] = b.Flags
	return out
}
