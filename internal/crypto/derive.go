package crypto

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrNoValidKey is returned when no valid secp256k1 scalar was found. The
// search space makes this practically unreachable.
var ErrNoValidKey = errors.New("no valid secp256k1 key in search space")

// Keypair is a derived account keypair. Keys are upper-case hex: secp256k1
// private keys carry a 00 prefix and Ed25519 keys an ED prefix, matching
// rippled's wallet_propose output.
type Keypair struct {
	Type       KeyType
	PublicKey  string
	PrivateKey string
}

// DeriveKeypair derives the account keypair for seed entropy.
func DeriveKeypair(entropy []byte, keyType KeyType) (*Keypair, error) {
	if len(entropy) != SeedSize {
		return nil, fmt.Errorf("seed entropy must be %d bytes, got %d", SeedSize, len(entropy))
	}
	switch keyType {
	case KeyTypeSecp256k1:
		return deriveSecp256k1(entropy)
	case KeyTypeEd25519:
		return deriveEd25519(entropy), nil
	default:
		return nil, fmt.Errorf("deriving keypair: unsupported key type %s", keyType)
	}
}

func deriveEd25519(entropy []byte) *Keypair {
	raw := Sha512Half(entropy)
	priv := ed25519.NewKeyFromSeed(raw[:])
	pub := append([]byte{0xED}, priv.Public().(ed25519.PublicKey)...)
	return &Keypair{
		Type:       KeyTypeEd25519,
		PublicKey:  strings.ToUpper(hex.EncodeToString(pub)),
		PrivateKey: "ED" + strings.ToUpper(hex.EncodeToString(raw[:])),
	}
}

// deriveSecp256k1 follows rippled's generator scheme: a root key from the
// seed, an intermediate key from the root public key, and the account key
// as their sum modulo the curve order.
func deriveSecp256k1(entropy []byte) (*Keypair, error) {
	root, err := scalarSearch(func(seq uint32) [32]byte {
		return Sha512Half(entropy, be32(seq))
	})
	if err != nil {
		return nil, err
	}
	rootPub := secp256k1.NewPrivateKey(root).PubKey().SerializeCompressed()

	intermediate, err := scalarSearch(func(seq uint32) [32]byte {
		return Sha512Half(rootPub, be32(0), be32(seq))
	})
	if err != nil {
		return nil, err
	}

	var account secp256k1.ModNScalar
	account.Add2(root, intermediate)
	privBytes := account.Bytes()
	_, pub := btcec.PrivKeyFromBytes(privBytes[:])

	return &Keypair{
		Type:       KeyTypeSecp256k1,
		PublicKey:  strings.ToUpper(hex.EncodeToString(pub.SerializeCompressed())),
		PrivateKey: "00" + strings.ToUpper(hex.EncodeToString(privBytes[:])),
	}, nil
}

// scalarSearch returns the first candidate that is a valid private key:
// non-zero and below the curve order.
func scalarSearch(candidate func(seq uint32) [32]byte) (*secp256k1.ModNScalar, error) {
	for seq := uint32(0); seq < 1<<16; seq++ {
		h := candidate(seq)
		var s secp256k1.ModNScalar
		if overflow := s.SetBytes(&h); overflow != 0 || s.IsZero() {
			continue
		}
		return &s, nil
	}
	return nil, ErrNoValidKey
}

func be32(n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b[:]
}
