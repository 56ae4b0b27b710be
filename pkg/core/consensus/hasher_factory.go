package consensus

// NewHasher returns the Hasher used by the miner's proof-of-work search.
// The network worker's inbound validation does not take a Hasher: it
// calls Header.MeetsDifficulty, which hashes with SHA-256 directly.
func NewHasher() (Hasher, error) {
	return NewSHA256Hasher(), nil
}
