// Package history picks the transactions that touched one ledger object
// out of an account's transaction history.
package history

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/LeJamon/xrplgate/internal/core/tx"
	"github.com/LeJamon/xrplgate/internal/settlement"
)

// ObjectType names the kind of ledger object being traced.
type ObjectType string

const ObjectOffer ObjectType = meta.EntryOffer

// relevantTypes lists the transaction types that can affect each object
// type.
var relevantTypes = map[ObjectType][]string{
	ObjectOffer: {string(tx.TypeOfferCreate), string(tx.TypeOfferCancel), string(tx.TypePayment)},
}

// Entry is one correlated transaction.
type Entry struct {
	Timestamp  time.Time          `json:"timestamp"`
	Type       string             `json:"type"`
	Hash       string             `json:"hash"`
	ResultCode string             `json:"resultCode"`
	Succeeded  bool               `json:"succeeded"`
	Settlement *settlement.Result `json:"settlement,omitempty"`
}

// Correlate returns the transactions in txs that created, cancelled or
// consumed the object of objectType owned by account with the given
// sequence. The input order is kept.
func Correlate(txs []tx.Envelope, objectType ObjectType, sequence uint32, account string) []Entry {
	types := relevantTypes[objectType]
	var out []Entry
	for i := range txs {
		env := &txs[i]
		if !slices.Contains(types, env.Tx.TransactionType) || !matches(env, objectType, sequence, account) {
			continue
		}
		entry := Entry{
			Timestamp:  meta.FromRippleTime(env.Date),
			Type:       env.Tx.TransactionType,
			Hash:       env.Hash,
			ResultCode: env.ResultCode(),
			Succeeded:  tx.IsSuccess(env.ResultCode()),
		}
		if env.Meta != nil {
			var created uint32
			if env.Tx.TransactionType == string(tx.TypeOfferCreate) && env.Tx.Account == account {
				created = env.Tx.Sequence
			}
			res := settlement.Analyze(env.Meta.AffectedNodes, account, created)
			if !res.Empty() {
				entry.Settlement = &res
			}
		}
		out = append(out, entry)
	}
	return out
}

func matches(env *tx.Envelope, objectType ObjectType, sequence uint32, account string) bool {
	if env.Tx.Sequence == sequence && env.Tx.Account == account {
		return true
	}
	if env.Tx.OfferSequence == sequence && env.Tx.Account == account {
		return true
	}
	if env.Meta == nil {
		return false
	}
	suffix := ":" + strconv.FormatUint(uint64(sequence), 10)
	for _, e := range env.Meta.AffectedNodes {
		if e.EntryType != string(objectType) || e.Kind == meta.Created {
			continue
		}
		if strings.HasSuffix(e.LedgerIndex, suffix) || strings.Contains(e.LedgerIndex, suffix+":") {
			return true
		}
		owner, _ := e.FinalFields.String("Account")
		if seq, ok := e.FinalFields.Uint32("Sequence"); ok && seq == sequence && owner == account {
			return true
		}
	}
	return false
}
