package tx

// Universal transaction flags.
const (
	TfFullyCanonicalSig uint32 = 0x80000000
)

// OfferCreate flags.
const (
	TfPassive           uint32 = 0x00010000
	TfImmediateOrCancel uint32 = 0x00020000
	TfFillOrKill        uint32 = 0x00040000
	TfSell              uint32 = 0x00080000
)

// Payment flags.
const (
	TfNoRippleDirect uint32 = 0x00010000
	TfPartialPayment uint32 = 0x00020000
	TfLimitQuality   uint32 = 0x00040000
)

// TrustSet flags.
const (
	TfSetfAuth      uint32 = 0x00010000
	TfSetNoRipple   uint32 = 0x00020000
	TfClearNoRipple uint32 = 0x00040000
	TfSetFreeze     uint32 = 0x00100000
	TfClearFreeze   uint32 = 0x00200000
)

// AccountFlag is an AccountSet SetFlag/ClearFlag value.
type AccountFlag uint32

const (
	AsfRequireDest   AccountFlag = 1
	AsfRequireAuth   AccountFlag = 2
	AsfDisallowXRP   AccountFlag = 3
	AsfDisableMaster AccountFlag = 4
	AsfAccountTxnID  AccountFlag = 5
	AsfNoFreeze      AccountFlag = 6
	AsfGlobalFreeze  AccountFlag = 7
	AsfDefaultRipple AccountFlag = 8
	AsfDepositAuth   AccountFlag = 9
)

var accountFlagNames = map[AccountFlag]string{
	AsfRequireDest:   "requireDest",
	AsfRequireAuth:   "requireAuth",
	AsfDisallowXRP:   "disallowXRP",
	AsfDisableMaster: "disableMaster",
	AsfAccountTxnID:  "accountTxnID",
	AsfNoFreeze:      "noFreeze",
	AsfGlobalFreeze:  "globalFreeze",
	AsfDefaultRipple: "defaultRipple",
	AsfDepositAuth:   "depositAuth",
}

func (f AccountFlag) String() string {
	if name, ok := accountFlagNames[f]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether f is a known AccountSet flag.
func (f AccountFlag) Valid() bool {
	_, ok := accountFlagNames[f]
	return ok
}

// ParseAccountFlag looks a flag up by its name, as printed by String.
func ParseAccountFlag(name string) (AccountFlag, bool) {
	for f, n := range accountFlagNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}
