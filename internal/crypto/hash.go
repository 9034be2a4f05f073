package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// AccountIDSize is the size of an XRPL account ID in bytes.
const AccountIDSize = 20

// Sha512Half returns the first 32 bytes of the SHA-512 of msg.
func Sha512Half(msg ...[]byte) [32]byte {
	h := sha512.New()
	for _, m := range msg {
		h.Write(m)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil)[:32])
	return result
}

// CalcAccountID computes RIPEMD160(SHA256(publicKey)). The whole public key,
// including the 0xED prefix of Ed25519 keys, is hashed.
func CalcAccountID(publicKey []byte) [AccountIDSize]byte {
	sha256Hash := sha256.Sum256(publicKey)

	hasher := ripemd160.New()
	hasher.Write(sha256Hash[:])

	var result [AccountIDSize]byte
	copy(result[:], hasher.Sum(nil))
	return result
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}
