package crypto

import "encoding/hex"

// EncodeAddress renders an account ID as a classic r-address.
func EncodeAddress(accountID [AccountIDSize]byte) string {
	return encodeCheck(prefixAccountID, accountID[:])
}

// DecodeAddress parses a classic r-address into its account ID.
func DecodeAddress(address string) ([AccountIDSize]byte, error) {
	var id [AccountIDSize]byte
	payload, err := decodeWithPrefix(address, prefixAccountID, AccountIDSize)
	if err != nil {
		return id, err
	}
	copy(id[:], payload)
	return id, nil
}

// IsValidAddress reports whether address is a well formed classic address.
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// AddressFromPublicKey returns the classic address controlled by a 33 byte
// public key.
func AddressFromPublicKey(publicKey []byte) string {
	return EncodeAddress(CalcAccountID(publicKey))
}

// AddressFromPublicKeyHex is AddressFromPublicKey for hex input.
func AddressFromPublicKeyHex(publicKeyHex string) (string, error) {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", err
	}
	if PublicKeyType(pub) == KeyTypeUnknown {
		return "", ErrPrefix
	}
	return AddressFromPublicKey(pub), nil
}

// EncodeAccountPublicKey renders a public key in its "a..." base58 form.
func EncodeAccountPublicKey(publicKey []byte) string {
	return encodeCheck(prefixAccountPublic, publicKey)
}
