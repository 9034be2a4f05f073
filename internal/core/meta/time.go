package meta

import "time"

// RippleEpoch is 2000-01-01T00:00:00Z in Unix seconds. Ledger timestamps
// count seconds from it.
const RippleEpoch int64 = 946684800

// FromRippleTime converts a ledger timestamp to UTC time.
func FromRippleTime(rippleTime int64) time.Time {
	return time.Unix(rippleTime+RippleEpoch, 0).UTC()
}

// ToRippleTime converts t to a ledger timestamp. Times before the epoch
// map to zero.
func ToRippleTime(t time.Time) uint32 {
	unix := t.Unix()
	if unix < RippleEpoch {
		return 0
	}
	return uint32(unix - RippleEpoch)
}
