package meta

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const offerCreateMeta = `{
  "AffectedNodes": [
    {
      "ModifiedNode": {
        "FinalFields": {"Account": "rAlice", "Balance": "99999988", "Sequence": 43},
        "LedgerEntryType": "AccountRoot",
        "LedgerIndex": "13F1A95D7AAB7108D5CE7EEAF504B2894B8C674E6D68499076441C4837282BF8",
        "PreviousFields": {"Balance": "100000000", "Sequence": 42}
      }
    },
    {
      "CreatedNode": {
        "LedgerEntryType": "Offer",
        "LedgerIndex": "offer:rAlice:42",
        "NewFields": {
          "Account": "rAlice",
          "Sequence": 42,
          "TakerGets": "20000000",
          "TakerPays": {"currency": "ABC", "issuer": "rIssuer", "value": "10"}
        }
      }
    },
    {
      "DeletedNode": {
        "FinalFields": {"Account": "rBob", "Sequence": "7"},
        "LedgerEntryType": "Offer",
        "LedgerIndex": "AB12"
      }
    }
  ],
  "TransactionIndex": 3,
  "TransactionResult": "tesSUCCESS",
  "delivered_amount": "unavailable"
}`

func TestDecodeMeta(t *testing.T) {
	var m Meta
	require.NoError(t, json.Unmarshal([]byte(offerCreateMeta), &m))

	assert.Equal(t, "tesSUCCESS", m.TransactionResult)
	assert.Equal(t, uint32(3), m.TransactionIndex)
	assert.Nil(t, m.DeliveredAmount)
	require.Len(t, m.AffectedNodes, 3)

	root := m.AffectedNodes[0]
	assert.Equal(t, Modified, root.Kind)
	assert.Equal(t, EntryAccountRoot, root.EntryType)
	bal, ok := root.FinalFields.String("Balance")
	require.True(t, ok)
	assert.Equal(t, "99999988", bal)
	prev, ok := root.PreviousFields.String("Balance")
	require.True(t, ok)
	assert.Equal(t, "100000000", prev)

	offer := m.AffectedNodes[1]
	assert.Equal(t, Created, offer.Kind)
	seq, ok := offer.NewFields.Uint32("Sequence")
	require.True(t, ok)
	assert.Equal(t, uint32(42), seq)
	pays, ok := offer.NewFields.Amount("TakerPays")
	require.True(t, ok)
	assert.Equal(t, "10", pays.Value)
	gets, ok := offer.NewFields.Amount("TakerGets")
	require.True(t, ok)
	assert.True(t, gets.IsNative())

	deleted := m.AffectedNodes[2]
	assert.Equal(t, Deleted, deleted.Kind)
	seq, ok = deleted.FinalFields.Uint32("Sequence")
	require.True(t, ok)
	assert.Equal(t, uint32(7), seq)
}

func TestDecodeDeliveredAmount(t *testing.T) {
	var m Meta
	require.NoError(t, json.Unmarshal([]byte(`{"AffectedNodes":[],"TransactionResult":"tesSUCCESS","delivered_amount":"15"}`), &m))
	require.NotNil(t, m.DeliveredAmount)
	assert.Equal(t, "15", m.DeliveredAmount.Value)
}

func TestDecodeRejectsUnknownNode(t *testing.T) {
	var m Meta
	err := json.Unmarshal([]byte(`{"AffectedNodes":[{"RenamedNode":{}}]}`), &m)
	assert.Error(t, err)
}

func TestMetaRoundTrip(t *testing.T) {
	var m Meta
	require.NoError(t, json.Unmarshal([]byte(offerCreateMeta), &m))
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var again Meta
	require.NoError(t, json.Unmarshal(data, &again))
	require.Len(t, again.AffectedNodes, len(m.AffectedNodes))
	for i, e := range m.AffectedNodes {
		assert.Equal(t, e.Kind, again.AffectedNodes[i].Kind)
		assert.Equal(t, e.EntryType, again.AffectedNodes[i].EntryType)
		assert.Equal(t, e.LedgerIndex, again.AffectedNodes[i].LedgerIndex)
	}
	pays, ok := again.AffectedNodes[1].NewFields.Amount("TakerPays")
	require.True(t, ok)
	assert.Equal(t, "rIssuer", pays.Issuer)
}

func TestFieldsMissing(t *testing.T) {
	var f Fields
	_, ok := f.String("Balance")
	assert.False(t, ok)
	_, ok = f.Uint32("Sequence")
	assert.False(t, ok)
	assert.False(t, f.Has("Account"))
}

func TestRippleTime(t *testing.T) {
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), FromRippleTime(0))
	assert.Equal(t, int64(946684800+750000000), FromRippleTime(750000000).Unix())
	assert.Equal(t, uint32(10), ToRippleTime(time.Unix(RippleEpoch+10, 0)))
	assert.Equal(t, uint32(0), ToRippleTime(time.Unix(0, 0)))
}
