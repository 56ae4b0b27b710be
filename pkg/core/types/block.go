package types

import "encoding/binary"

// Header carries everything that identifies a block and anchors it to its
// parent and content. hash(block) derives only from the header.
type Header struct {
	Parent     Hash
	Nonce      uint32 // varied during proof-of-work search.
	Difficulty Hash   // target: valid iff hash(header) <= Difficulty.
	Timestamp  uint64 // milliseconds since the Unix epoch.
	MerkleRoot Hash
}

// Serialize returns a deterministic encoding of the header.
// Field order: Parent(32) || Nonce(4) || Difficulty(32) || Timestamp(8) || MerkleRoot(32).
func (h *Header) Serialize() []byte {
	buf := make([]byte, HashSize+4+HashSize+8+HashSize)
	off := 0
	copy(buf[off:], h.Parent[:])
	off += HashSize
	binary.BigEndian.PutUint32(buf[off:], h.Nonce)
	off += 4
	copy(buf[off:], h.Difficulty[:])
	off += HashSize
	binary.BigEndian.PutUint64(buf[off:], h.Timestamp)
	off += 8
	copy(buf[off:], h.MerkleRoot[:])
	return buf
}

// Hash computes hash(block) = SHA-256(serialize(Hd)).
func (h *Header) Hash() Hash {
	return ComputeSHA256(h.Serialize())
}

// MeetsDifficulty reports whether the header's hash satisfies its own
// difficulty target: hash(header) <= header.Difficulty, compared as
// big-endian unsigned integers.
func (h *Header) MeetsDifficulty() bool {
	return h.Hash().LessOrEqual(h.Difficulty)
}

// Content is a block's body: the ordered list of signed transactions bound
// to the header via MerkleRoot.
type Content struct {
	Transactions []SignedTransaction
}

// Block is a complete header plus content.
type Block struct {
	Header  Header
	Content Content
}

// Hash returns the block's identity hash (the header hash).
func (b *Block) Hash() Hash {
	return b.Header.Hash()
}
