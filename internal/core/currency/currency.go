// Package currency canonicalizes user supplied currency identifiers into the
// form carried by transactions: the native sentinel, a three character
// standard code or a 160-bit code rendered as 40 upper-case hex characters.
package currency

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code is a canonical currency identifier.
type Code string

// Native identifies the network's base asset.
const Native Code = "XRP"

// HexLength is the width of a non-standard currency code.
const HexLength = 40

// IsNative reports whether c is the base asset.
func (c Code) IsNative() bool { return c == Native }

func (c Code) String() string { return string(c) }

// Canonicalize maps any input string to a Code. It never fails: inputs that
// are not a standard or hex code are hex-encoded, left padded with zeros and
// truncated to HexLength characters.
func Canonicalize(code string) Code {
	if strings.EqualFold(code, string(Native)) {
		return Native
	}
	if len(code) == 3 {
		return Code(code)
	}
	if IsHex(code) {
		return Code(strings.ToUpper(code))
	}
	encoded := strings.ToUpper(hex.EncodeToString([]byte(code)))
	if len(encoded) < HexLength {
		encoded = strings.Repeat("0", HexLength-len(encoded)) + encoded
	}
	return Code(encoded[:HexLength])
}

// IsHex reports whether s is exactly HexLength hex characters.
func IsHex(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Display renders a code for people. Hex codes holding printable UTF-8 text
// are decoded with their zero padding removed; everything else is returned
// unchanged.
func Display(c Code) string {
	if !IsHex(string(c)) {
		return string(c)
	}
	raw, err := hex.DecodeString(string(c))
	if err != nil {
		return string(c)
	}
	raw = bytes.TrimLeft(raw, "\x00")
	if len(raw) == 0 || !utf8.Valid(raw) {
		return string(c)
	}
	for _, r := range string(raw) {
		if !unicode.IsPrint(r) {
			return string(c)
		}
	}
	return string(raw)
}
