package miner

import (
	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// Broadcaster is the network collaborator the commit worker notifies
// after installing a freshly mined block. Satisfied by *p2p.Server.
type Broadcaster interface {
	BroadcastNewBlockHashes(hashes []types.Hash)
}

// Worker is the single consumer on a Miner's finished-block channel: the
// commit/broadcast side described alongside the miner loop. It exists
// because re-checking staleness and talking to the network should not
// block the miner's own search loop.
type Worker struct {
	miner   *Miner
	chain   *chainstore.Chain
	network Broadcaster
}

// NewWorker constructs the commit/broadcast worker for miner.
func NewWorker(miner *Miner, chain *chainstore.Chain, network Broadcaster) *Worker {
	return &Worker{miner: miner, chain: chain, network: network}
}

// Run consumes blocks from the miner's finished channel until it closes.
func (w *Worker) Run() {
	for block := range w.miner.FinishedBlocks() {
		w.commit(block)
	}
}

// commit is called after the miner has already inserted block into the
// chain store and advanced the tip (if it was still ahead of the rest of
// the chain). The only thing left to decide is whether it's still worth
// telling the network about: if a block arriving from the network raced
// it to the same height in between, block is no longer the tip and
// announcing it would just point peers at a dead end.
func (w *Worker) commit(block *types.Block) {
	hash := block.Hash()
	if hash != w.chain.Tip() {
		return
	}
	w.network.BroadcastNewBlockHashes([]types.Hash{hash})
}
