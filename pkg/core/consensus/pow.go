package consensus

import "github.com/chronodrachma/chrd/pkg/core/types"

// Hasher computes Proof-of-Work hashes over a block header's serialized
// bytes. The interface is kept swappable even though this node only ever
// exercises SHA256Hasher: a validator and a miner must agree on one
// implementation, so new hash functions plug in without touching callers.
type Hasher interface {
	// Hash computes the PoW hash of the given header bytes.
	Hash(headerBytes []byte) (types.Hash, error)

	// Close releases any resources held by the hasher.
	Close()
}

// MeetsDifficulty reports whether powHash satisfies target: the
// proof-of-work acceptance test is hash(header) <= target, compared as
// big-endian unsigned integers.
func MeetsDifficulty(powHash, target types.Hash) bool {
	return powHash.LessOrEqual(target)
}
