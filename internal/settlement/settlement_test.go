package settlement

import (
	"encoding/json"
	"testing"

	"github.com/LeJamon/xrplgate/internal/core/currency"
	"github.com/LeJamon/xrplgate/internal/core/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	maker  = "rMAKERxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	issuer = "rISSUERxxxxxxxxxxxxxxxxxxxxxxxxxxx"
)

func decodeEntries(t *testing.T, affected string) []meta.AffectedEntry {
	t.Helper()
	var m meta.Meta
	require.NoError(t, json.Unmarshal([]byte(`{"TransactionResult":"tesSUCCESS","AffectedNodes":`+affected+`}`), &m))
	return m.AffectedNodes
}

func TestCreatedOfferFromNewFields(t *testing.T) {
	entries := decodeEntries(t, `[
		{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"ABC:rMAKER:7","NewFields":{"Account":"`+maker+`","Sequence":42}}}
	]`)
	res := Analyze(entries, maker, 99)
	assert.Equal(t, "42", res.CreatedObjectID)
}

func TestCreatedOfferFromLedgerIndex(t *testing.T) {
	entries := decodeEntries(t, `[
		{"ModifiedNode":{"LedgerEntryType":"DirectoryNode","LedgerIndex":"D1","FinalFields":{}}},
		{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"ABC:rMAKER:17","NewFields":{"Account":"`+maker+`"}}}
	]`)
	assert.Equal(t, "17", Analyze(entries, maker, 99).CreatedObjectID)
}

func TestCreatedOfferFallsBackToTransactionSequence(t *testing.T) {
	entries := decodeEntries(t, `[
		{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"8F2C","NewFields":{}}}
	]`)
	assert.Equal(t, "99", Analyze(entries, maker, 99).CreatedObjectID)
	assert.Equal(t, "99", Analyze(nil, maker, 99).CreatedObjectID)
	assert.Empty(t, Analyze(nil, maker, 0).CreatedObjectID)
}

func TestCreatedOfferFirstEntryWins(t *testing.T) {
	entries := decodeEntries(t, `[
		{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"A","NewFields":{"Sequence":5}}},
		{"CreatedNode":{"LedgerEntryType":"Offer","LedgerIndex":"B","NewFields":{"Sequence":6}}}
	]`)
	assert.Equal(t, "5", Analyze(entries, maker, 0).CreatedObjectID)
}

func TestNativeBalanceDelta(t *testing.T) {
	entries := decodeEntries(t, `[
		{"ModifiedNode":{"LedgerEntryType":"AccountRoot","LedgerIndex":"A1",
			"FinalFields":{"Account":"`+maker+`","Balance":"97000000"},
			"PreviousFields":{"Balance":"100000000"}}},
		{"ModifiedNode":{"LedgerEntryType":"AccountRoot","LedgerIndex":"A2",
			"FinalFields":{"Account":"rOTHER","Balance":"103000000"},
			"PreviousFields":{"Balance":"100000000"}}}
	]`)
	res := Analyze(entries, maker, 0)
	require.NotNil(t, res.Delivered)
	assert.Nil(t, res.Received)
	assert.Equal(t, currency.Native, res.Delivered.Currency)
	assert.Equal(t, "3", res.Delivered.Value.String())
	assert.Empty(t, res.Delivered.Counterparty)
}

func TestNativeBalanceWithoutPreviousIsIgnored(t *testing.T) {
	entries := decodeEntries(t, `[
		{"ModifiedNode":{"LedgerEntryType":"AccountRoot","LedgerIndex":"A1",
			"FinalFields":{"Account":"`+maker+`","Balance":"97000000","OwnerCount":2},
			"PreviousFields":{"OwnerCount":1}}}
	]`)
	assert.True(t, Analyze(entries, maker, 0).Empty())
}

func rippleState(highIssuer, lowIssuer, prev, final string) string {
	return `{"ModifiedNode":{"LedgerEntryType":"RippleState","LedgerIndex":"R1",
		"FinalFields":{
			"Balance":{"currency":"USD","issuer":"rrrrrrrrrrrrrrrrrrrrBZbvji","value":"` + final + `"},
			"HighLimit":{"currency":"USD","issuer":"` + highIssuer + `","value":"0"},
			"LowLimit":{"currency":"USD","issuer":"` + lowIssuer + `","value":"1000"}},
		"PreviousFields":{
			"Balance":{"currency":"USD","issuer":"rrrrrrrrrrrrrrrrrrrrBZbvji","value":"` + prev + `"}}}}`
}

func TestTrustLineDeltaInvertedForHighSide(t *testing.T) {
	entries := decodeEntries(t, `[`+rippleState(issuer, maker, "5", "8")+`]`)

	res := Analyze(entries, issuer, 0)
	require.NotNil(t, res.Delivered)
	assert.Nil(t, res.Received)
	assert.Equal(t, "3", res.Delivered.Value.String())
	assert.Equal(t, currency.Code("USD"), res.Delivered.Currency)
	assert.Equal(t, maker, res.Delivered.Counterparty)
}

func TestTrustLineDeltaForLowSide(t *testing.T) {
	entries := decodeEntries(t, `[`+rippleState(issuer, maker, "5", "8")+`]`)

	res := Analyze(entries, maker, 0)
	require.NotNil(t, res.Received)
	assert.Nil(t, res.Delivered)
	assert.Equal(t, "3", res.Received.Value.String())
	assert.Equal(t, issuer, res.Received.Counterparty)
}

func TestTrustLineOfOtherAccountsIgnored(t *testing.T) {
	entries := decodeEntries(t, `[`+rippleState(issuer, "rSOMEONE", "5", "8")+`]`)
	assert.True(t, Analyze(entries, maker, 0).Empty())
}

func TestLastWriteWins(t *testing.T) {
	entries := decodeEntries(t, `[
		`+rippleState(issuer, maker, "5", "8")+`,
		{"ModifiedNode":{"LedgerEntryType":"AccountRoot","LedgerIndex":"A1",
			"FinalFields":{"Account":"`+maker+`","Balance":"100500000"},
			"PreviousFields":{"Balance":"100000000"}}}
	]`)
	res := Analyze(entries, maker, 0)
	require.NotNil(t, res.Received)
	assert.Equal(t, currency.Native, res.Received.Currency)
	assert.Equal(t, "0.5", res.Received.Value.String())
}

func TestChangeJSON(t *testing.T) {
	entries := decodeEntries(t, `[`+rippleState(issuer, maker, "5", "8")+`]`)
	data, err := json.Marshal(Analyze(entries, maker, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"received":{"currency":"USD","counterparty":"`+issuer+`","value":"3"}}`, string(data))
}
