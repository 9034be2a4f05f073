package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// SeedSize is the number of entropy bytes in a family seed.
const SeedSize = 16

// ErrRandomGeneration is returned when random number generation fails.
var ErrRandomGeneration = errors.New("failed to generate random bytes")

// EncodeSeed renders seed entropy as a family seed. secp256k1 seeds start
// with "s", Ed25519 seeds with "sEd".
func EncodeSeed(entropy []byte, keyType KeyType) (string, error) {
	if len(entropy) != SeedSize {
		return "", fmt.Errorf("seed entropy must be %d bytes, got %d", SeedSize, len(entropy))
	}
	switch keyType {
	case KeyTypeSecp256k1:
		return encodeCheck(prefixSeedSecp, entropy), nil
	case KeyTypeEd25519:
		return encodeCheck(prefixSeedEd25519, entropy), nil
	default:
		return "", fmt.Errorf("encoding seed: unsupported key type %s", keyType)
	}
}

// DecodeSeed parses a family seed into its entropy and key type.
func DecodeSeed(seed string) ([]byte, KeyType, error) {
	if entropy, err := decodeWithPrefix(seed, prefixSeedEd25519, SeedSize); err == nil {
		return entropy, KeyTypeEd25519, nil
	}
	entropy, err := decodeWithPrefix(seed, prefixSeedSecp, SeedSize)
	if err != nil {
		return nil, KeyTypeUnknown, fmt.Errorf("invalid seed: %w", err)
	}
	return entropy, KeyTypeSecp256k1, nil
}

// SeedFromPassphrase derives seed entropy the way rippled's wallet_propose
// does for a passphrase.
func SeedFromPassphrase(passphrase string) []byte {
	h := Sha512Half([]byte(passphrase))
	return h[:SeedSize]
}

// RandomSeed returns fresh seed entropy from crypto/rand.
func RandomSeed() ([]byte, error) {
	b := make([]byte, SeedSize)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, ErrRandomGeneration
	}
	return b, nil
}
