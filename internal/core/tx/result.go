package tx

import "strings"

// Result codes the pipeline refers to by name. Every other code is carried
// through verbatim.
const (
	TesSUCCESS               = "tesSUCCESS"
	TecPATH_PARTIAL          = "tecPATH_PARTIAL"
	TecUNFUNDED_OFFER        = "tecUNFUNDED_OFFER"
	TecUNFUNDED_PAYMENT      = "tecUNFUNDED_PAYMENT"
	TecNO_DST                = "tecNO_DST"
	TecNO_DST_INSUF_XRP      = "tecNO_DST_INSUF_XRP"
	TecNO_LINE_INSUF_RESERVE = "tecNO_LINE_INSUF_RESERVE"
	TecPATH_DRY              = "tecPATH_DRY"
	TecUNFUNDED              = "tecUNFUNDED"
	TecNO_ISSUER             = "tecNO_ISSUER"
	TecNO_AUTH               = "tecNO_AUTH"
	TecNO_LINE               = "tecNO_LINE"
	TecFROZEN                = "tecFROZEN"
	TecNO_PERMISSION         = "tecNO_PERMISSION"
	TecINSUFFICIENT_RESERVE  = "tecINSUFFICIENT_RESERVE"
	TecDST_TAG_NEEDED        = "tecDST_TAG_NEEDED"
	TecEXPIRED               = "tecEXPIRED"
	TecKILLED                = "tecKILLED"
	TefALREADY               = "tefALREADY"
	TefPAST_SEQ              = "tefPAST_SEQ"
	TefMAX_LEDGER            = "tefMAX_LEDGER"
	TemREDUNDANT             = "temREDUNDANT"
	TerQUEUED                = "terQUEUED"
	TerPRE_SEQ               = "terPRE_SEQ"
)

// Class groups result codes by their three letter prefix.
type Class int

const (
	ClassUnknown Class = iota
	// ClassSuccess (tes): applied.
	ClassSuccess
	// ClassClaimed (tec): included in a ledger, fee claimed, not applied.
	ClassClaimed
	// ClassFailure (tef): failed against the current ledger state.
	ClassFailure
	// ClassLocal (tel): rejected by the local server.
	ClassLocal
	// ClassMalformed (tem): malformed, will never succeed.
	ClassMalformed
	// ClassRetry (ter): may succeed once the ledger advances.
	ClassRetry
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "tes"
	case ClassClaimed:
		return "tec"
	case ClassFailure:
		return "tef"
	case ClassLocal:
		return "tel"
	case ClassMalformed:
		return "tem"
	case ClassRetry:
		return "ter"
	default:
		return "unknown"
	}
}

// Classify returns the class of a result code.
func Classify(code string) Class {
	switch {
	case strings.HasPrefix(code, "tes"):
		return ClassSuccess
	case strings.HasPrefix(code, "tec"):
		return ClassClaimed
	case strings.HasPrefix(code, "tef"):
		return ClassFailure
	case strings.HasPrefix(code, "tel"):
		return ClassLocal
	case strings.HasPrefix(code, "tem"):
		return ClassMalformed
	case strings.HasPrefix(code, "ter"):
		return ClassRetry
	default:
		return ClassUnknown
	}
}

// IsSuccess reports whether code is exactly tesSUCCESS.
func IsSuccess(code string) bool {
	return code == TesSUCCESS
}

// IsDuplicate reports whether a preliminary result says the transaction was
// already submitted.
func IsDuplicate(code string) bool {
	return code == TefALREADY
}

// IsFinalPreliminary reports whether a preliminary submit result rules out
// later inclusion in a ledger. tec codes are excluded because such
// transactions are still applied to claim the fee.
func IsFinalPreliminary(code string) bool {
	switch Classify(code) {
	case ClassMalformed, ClassFailure, ClassLocal:
		return true
	default:
		return false
	}
}

var messages = map[string]string{
	TecPATH_DRY:              "no payment path; check that a trust line exists",
	TecNO_LINE:               "trust line not set",
	TecNO_AUTH:               "not authorized to hold this currency",
	TecPATH_PARTIAL:          "only a partial payment was possible",
	TecNO_ISSUER:             "issuer does not exist",
	TecUNFUNDED:              "insufficient balance",
	TecUNFUNDED_PAYMENT:      "insufficient balance",
	TecUNFUNDED_OFFER:        "offer is not funded",
	TecDST_TAG_NEEDED:        "destination tag required",
	TecNO_PERMISSION:         "no permission for this setting",
	TecNO_DST:                "destination account does not exist",
	TecNO_DST_INSUF_XRP:      "amount too small to create the destination account",
	TecNO_LINE_INSUF_RESERVE: "insufficient reserve to create a trust line",
	TecINSUFFICIENT_RESERVE:  "insufficient reserve",
	TecFROZEN:                "trust line is frozen",
	TecKILLED:                "offer could not be filled and was killed",
	TecEXPIRED:               "offer expiration already passed",
	TefPAST_SEQ:              "sequence already used",
	TefMAX_LEDGER:            "LastLedgerSequence already passed",
	TemREDUNDANT:             "transaction would do nothing",
}

// Message returns a readable description of a non-success code.
func Message(code string) string {
	if IsSuccess(code) {
		return "transaction succeeded"
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "transaction failed: " + code
}
