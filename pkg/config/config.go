// Package config holds the network-wide parameters baked into every node
// at build time: the genesis difficulty target, the ICO account, and the
// worker defaults. None of it is meant to vary at runtime; only the CLI's
// transport-level flags (bind addresses, peers, worker counts) do that,
// and those remain an external collaborator per the CLI surface.
package config

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// DifficultyTarget is the fixed 32-byte proof-of-work target: a block is
// valid iff hash(header) <= DifficultyTarget, compared big-endian. The
// first byte is zero and the second is 0x01, so CPU mining on this
// prototype's SHA256Hasher stays tractable for a classroom demo.
var DifficultyTarget = types.Hash{
	0x00, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// ICOPublicKeyHex is the build-time Ed25519 public key whose derived
// address receives the entire initial supply. A real launch would treat
// this as a published network parameter, not a per-node secret; there is
// no corresponding private key shipped with the node.
const ICOPublicKeyHex = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

// ICOBalance is the total supply seeded into the ICO account at genesis.
const ICOBalance types.Amount = 1_000_000

// DefaultBlockSizeLimit bounds the serialized transaction content a
// candidate block may carry.
const DefaultBlockSizeLimit = 4000

// DefaultNetworkWorkers is the reference network worker pool size.
const DefaultNetworkWorkers = 4

// GeneratorThetaMultiplierMin and GeneratorThetaMultiplierMax bound the
// reference range for the transaction generator's interval: interval =
// k * theta milliseconds, k chosen in [Min, Max].
const (
	GeneratorThetaMultiplierMin = 2.5
	GeneratorThetaMultiplierMax = 10.0
)

// GeneratorReceiverCount is the number of receiver addresses the
// transaction generator round-robins across.
const GeneratorReceiverCount = 2

// ICOAddress parses ICOPublicKeyHex and derives its account address. It
// panics on malformed configuration, since a bad build-time constant
// should fail fast at startup rather than surface as a runtime error.
func ICOAddress() types.Address {
	pub, err := hex.DecodeString(ICOPublicKeyHex)
	if err != nil {
		panic("config: invalid ICOPublicKeyHex: " + err.Error())
	}
	return types.AddressFromPublicKey(ed25519.PublicKey(pub))
}
