package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Alphabet is the XRPL base58 alphabet.
const Alphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

var xrplAlphabet = base58.NewAlphabet(Alphabet)

var (
	// ErrChecksum is returned when a base58check string fails its checksum.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrPrefix is returned when a decoded value has an unexpected version
	// prefix or length.
	ErrPrefix = errors.New("unexpected prefix or length")
)

// Version prefixes.
var (
	prefixAccountID     = []byte{0x00}
	prefixAccountPublic = []byte{0x23}
	prefixSeedSecp      = []byte{0x21}
	prefixSeedEd25519   = []byte{0x01, 0xE1, 0x4B}
)

func encodeCheck(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+4)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.EncodeAlphabet(buf, xrplAlphabet)
}

func decodeCheck(s string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(s, xrplAlphabet)
	if err != nil {
		return nil, fmt.Errorf("decoding base58: %w", err)
	}
	if len(raw) < 5 {
		return nil, ErrPrefix
	}
	body, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, ErrChecksum
	}
	return body, nil
}

// decodeWithPrefix strips prefix from a checked value and requires the
// remaining payload to be size bytes.
func decodeWithPrefix(s string, prefix []byte, size int) ([]byte, error) {
	body, err := decodeCheck(s)
	if err != nil {
		return nil, err
	}
	if len(body) != len(prefix)+size || !bytes.HasPrefix(body, prefix) {
		return nil, ErrPrefix
	}
	return body[len(prefix):], nil
}
