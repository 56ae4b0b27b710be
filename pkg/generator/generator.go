// Package generator implements the synthetic transaction workload: a
// node can run a generator that derives valid transfers from its own
// account's tip state so a demo network has gossip traffic without a
// human operator.
package generator

import (
	"crypto/ed25519"
	"log"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// Broadcaster is the network collaborator notified of newly generated
// transactions. Satisfied by *p2p.Server.
type Broadcaster interface {
	BroadcastNewTransactionHashes(hashes []types.Hash)
}

// Generator produces one transaction every interval from myAddress,
// alternating receivers round-robin, as long as myAddress holds a
// positive balance at the chain's tip.
type Generator struct {
	chain   *chainstore.Chain
	state   *chainstore.BlockState
	pool    *mempool.Mempool
	network Broadcaster

	myAddress types.Address
	key       ed25519.PrivateKey
	receivers []types.Address

	control chan control
	nextRcv int
}

type control struct {
	stop     bool
	interval time.Duration
}

// New constructs a Generator. receivers must be non-empty.
func New(chain *chainstore.Chain, state *chainstore.BlockState, pool *mempool.Mempool, network Broadcaster, myAddress types.Address, key ed25519.PrivateKey, receivers []types.Address) *Generator {
	return &Generator{
		chain:     chain,
		state:     state,
		pool:      pool,
		network:   network,
		myAddress: myAddress,
		key:       key,
		receivers: receivers,
		control:   make(chan control, 1),
	}
}

// Run fires one generation attempt every interval until Stop is called.
// It is meant to run on its own goroutine.
func (g *Generator) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case c := <-g.control:
			if c.stop {
				return
			}
			ticker.Reset(c.interval)
		case <-ticker.C:
			g.generateOnce()
		}
	}
}

// Stop signals Run to return.
func (g *Generator) Stop() {
	g.control <- control{stop: true}
}

// SetInterval changes the firing interval without restarting the
// generator.
func (g *Generator) SetInterval(interval time.Duration) {
	g.control <- control{interval: interval}
}

func (g *Generator) generateOnce() {
	tip := g.chain.Tip()
	snapshot, err := g.state.Get(tip)
	if err != nil {
		return
	}
	s := snapshot.Get(g.myAddress)
	if s.Balance == 0 {
		return
	}

	value := s.Balance / 2
	if value == 0 {
		value = 1
	}

	receiver := g.receivers[g.nextRcv%len(g.receivers)]
	g.nextRcv++

	tx := types.Transaction{
		Sender:   g.myAddress,
		Receiver: receiver,
		Value:    value,
		Nonce:    s.Nonce + 1,
	}
	st := types.Sign(tx, g.key)
	hash := st.Hash()

	if !g.pool.Insert(st) {
		return
	}
	log.Printf("generator: created tx %s (nonce %d, value %d) to %s", hash.Hex(), tx.Nonce, tx.Value, receiver.Hex())
	g.network.BroadcastNewTransactionHashes([]types.Hash{hash})
}
