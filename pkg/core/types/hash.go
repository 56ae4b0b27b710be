package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the length of all hashes in bytes.
const HashSize = 32

// Hash represents a 32-byte SHA-256 digest.
type Hash [HashSize]byte

// ZeroHash is the all-zeroes hash, used as the parent of the genesis block
// and as the Merkle root of an empty transaction list.
var ZeroHash Hash

// HashFromBytes creates a Hash from a byte slice. Returns error if len != 32.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a hex-encoded string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	return HashFromBytes(b)
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Hex returns the lowercase hex-encoded string.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero returns true if every byte is 0x00.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Cmp compares two hashes as big-endian unsigned integers, returning a
// negative number if h < other, zero if equal, and positive if h > other.
// Byte-wise lexicographic comparison is equivalent to big-endian integer
// comparison for fixed-width digests.
func (h Hash) Cmp(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// LessOrEqual reports whether h <= target, interpreting both as big-endian
// unsigned integers. This is the proof-of-work acceptance test.
func (h Hash) LessOrEqual(target Hash) bool {
	return h.Cmp(target) <= 0
}

// ComputeSHA256 computes SHA-256 of arbitrary data and returns it as a Hash.
func ComputeSHA256(data []byte) Hash {
	return sha256.Sum256(data)
}

// Hashable is implemented by anything that can be reduced to a single
// digest. The Merkle tree does not use it; it takes raw byte leaves.
type Hashable interface {
	Hash() Hash
}
