package crypto

import (
	"encoding/hex"
	"fmt"
)

// Wallet is an account address together with the keys and seed that
// control it.
type Wallet struct {
	Address string
	Seed    string
	Keypair
}

// WalletFromSeed derives the wallet controlled by a family seed.
func WalletFromSeed(seed string) (*Wallet, error) {
	entropy, keyType, err := DecodeSeed(seed)
	if err != nil {
		return nil, err
	}
	kp, err := DeriveKeypair(entropy, keyType)
	if err != nil {
		return nil, err
	}
	pub, err := hex.DecodeString(kp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decoding derived public key: %w", err)
	}
	return &Wallet{Address: AddressFromPublicKey(pub), Seed: seed, Keypair: *kp}, nil
}

// GenerateWallet creates a wallet from fresh random entropy.
func GenerateWallet(keyType KeyType) (*Wallet, error) {
	entropy, err := RandomSeed()
	if err != nil {
		return nil, err
	}
	seed, err := EncodeSeed(entropy, keyType)
	if err != nil {
		return nil, err
	}
	return WalletFromSeed(seed)
}
