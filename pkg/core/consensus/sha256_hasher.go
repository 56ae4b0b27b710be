package consensus

import (
	"crypto/sha256"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// SHA256Hasher implements Hasher using a single SHA-256 pass. This chain's
// proof-of-work is deliberately cheap: the difficulty target, not the hash
// function, is what makes the puzzle tractable for a classroom node.
type SHA256Hasher struct{}

var _ Hasher = (*SHA256Hasher)(nil)

// NewSHA256Hasher returns a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Hash computes SHA256(headerBytes).
func (h *SHA256Hasher) Hash(headerBytes []byte) (types.Hash, error) {
	return sha256.Sum256(headerBytes), nil
}

// Close is a no-op for SHA256Hasher.
func (h *SHA256Hasher) Close() {}
