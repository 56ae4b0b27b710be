package types

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// AddressSize is the length of an account address in bytes.
const AddressSize = 20

// Address identifies an account: the trailing 20 bytes of the SHA-256 digest
// of the account's Ed25519 public key.
type Address [AddressSize]byte

// ZeroAddress is the all-zeroes address. No account may legitimately hold it.
var ZeroAddress Address

// AddressFromPublicKey derives the account address from an Ed25519 public key.
func AddressFromPublicKey(pub ed25519.PublicKey) Address {
	digest := sha256.Sum256(pub)
	var a Address
	copy(a[:], digest[len(digest)-AddressSize:])
	return a
}

// AddressFromBytes creates an Address from a byte slice. Returns an error if
// len != AddressSize.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// AddressFromHex parses a hex-encoded string into an Address.
func AddressFromHex(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	return AddressFromBytes(b)
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// Hex returns the lowercase hex-encoded string.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}
