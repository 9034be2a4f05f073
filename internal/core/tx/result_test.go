package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuccessOnlyForTesSuccess(t *testing.T) {
	assert.True(t, IsSuccess("tesSUCCESS"))
	for _, code := range []string{"tecUNFUNDED", "temREDUNDANT", "terPRE_SEQ", "tesSUCCESS ", "TESSUCCESS", ""} {
		assert.False(t, IsSuccess(code), code)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Class{
		"tesSUCCESS":     ClassSuccess,
		"tecPATH_DRY":    ClassClaimed,
		"tefPAST_SEQ":    ClassFailure,
		"telINSUF_FEE_P": ClassLocal,
		"temBAD_AMOUNT":  ClassMalformed,
		"terQUEUED":      ClassRetry,
		"somethingElse":  ClassUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, Classify(code), code)
	}
}

func TestIsFinalPreliminary(t *testing.T) {
	assert.True(t, IsFinalPreliminary("temBAD_FEE"))
	assert.True(t, IsFinalPreliminary("tefPAST_SEQ"))
	assert.True(t, IsFinalPreliminary("telCAN_NOT_QUEUE"))
	assert.False(t, IsFinalPreliminary("tesSUCCESS"))
	assert.False(t, IsFinalPreliminary("tecUNFUNDED_PAYMENT"))
	assert.False(t, IsFinalPreliminary("terQUEUED"))
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate(TefALREADY))
	assert.False(t, IsDuplicate(TemREDUNDANT))
	assert.False(t, IsDuplicate(TefPAST_SEQ))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "trust line not set", Message("tecNO_LINE"))
	assert.Equal(t, "insufficient balance", Message("tecUNFUNDED"))
	assert.Equal(t, "transaction failed: tecSOMETHING_NEW", Message("tecSOMETHING_NEW"))
	assert.Equal(t, "transaction succeeded", Message("tesSUCCESS"))
}
