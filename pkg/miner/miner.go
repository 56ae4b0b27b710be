// Package miner implements the mining worker: it assembles candidate
// blocks from the mempool against the tip's account state, searches for a
// proof-of-work nonce, and commits winning blocks.
package miner

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/merkle"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// ControlSignal names what a ControlMessage asks the miner to do.
type ControlSignal int

const (
	// ControlStart transitions the miner to Running(lambda).
	ControlStart ControlSignal = iota
	// ControlUpdate is a hint to restart the current iteration so the
	// miner picks up a new tip or mempool contents sooner.
	ControlUpdate
	// ControlExit transitions the miner to ShutDown.
	ControlExit
)

// ControlMessage is sent on the miner's single control channel.
type ControlMessage struct {
	Signal       ControlSignal
	LambdaMicros uint64 // meaningful only when Signal == ControlStart
}

type operatingState int

const (
	statePaused operatingState = iota
	stateRunning
	stateShutDown
)

// DefaultBlockSizeLimit is the reference byte budget for a block's
// serialized transaction content.
const DefaultBlockSizeLimit = 4000

// Miner is the long-lived worker described by the state machine
// Paused / Running(lambda) / ShutDown. It starts Paused and is driven
// entirely by messages sent on its control channel.
type Miner struct {
	chain          *chainstore.Chain
	state          *chainstore.BlockState
	pool           *mempool.Mempool
	hasher         consensus.Hasher
	blockSizeLimit int

	control  chan ControlMessage
	finished chan *types.Block

	wg sync.WaitGroup
}

// New constructs a Miner. blockSizeLimit <= 0 uses DefaultBlockSizeLimit.
func New(chain *chainstore.Chain, state *chainstore.BlockState, pool *mempool.Mempool, hasher consensus.Hasher, blockSizeLimit int) *Miner {
	if blockSizeLimit <= 0 {
		blockSizeLimit = DefaultBlockSizeLimit
	}
	return &Miner{
		chain:          chain,
		state:          state,
		pool:           pool,
		hasher:         hasher,
		blockSizeLimit: blockSizeLimit,
		control:        make(chan ControlMessage, 8),
		finished:       make(chan *types.Block, 8),
	}
}

// Control returns the channel callers send ControlMessages on.
func (m *Miner) Control() chan<- ControlMessage {
	return m.control
}

// FinishedBlocks returns the channel the miner emits successfully mined
// blocks on; the commit/broadcast worker (see Worker) is the consumer.
func (m *Miner) FinishedBlocks() <-chan *types.Block {
	return m.finished
}

// Run drives the state machine until a ControlExit is received. It is
// meant to be run on its own goroutine.
func (m *Miner) Run() {
	m.wg.Add(1)
	defer m.wg.Done()

	state := statePaused
	var lambda time.Duration

	for {
		switch state {
		case stateShutDown:
			return

		case statePaused:
			msg := <-m.control
			state, lambda = m.applyControl(msg, state, lambda)

		case stateRunning:
			select {
			case msg := <-m.control:
				state, lambda = m.applyControl(msg, state, lambda)
				continue
			default:
			}

			if m.mineOnce() && lambda > 0 {
				time.Sleep(lambda)
			}
		}
	}
}

// Wait blocks until Run has returned.
func (m *Miner) Wait() {
	m.wg.Wait()
}

func (m *Miner) applyControl(msg ControlMessage, current operatingState, lambda time.Duration) (operatingState, time.Duration) {
	switch msg.Signal {
	case ControlStart:
		return stateRunning, time.Duration(msg.LambdaMicros) * time.Microsecond
	case ControlExit:
		return stateShutDown, 0
	case ControlUpdate:
		return current, lambda
	default:
		return statePaused, 0
	}
}

// mineOnce performs one candidate-assembly-and-search iteration. It
// returns true iff a block was found and committed.
func (m *Miner) mineOnce() bool {
	parent := m.chain.Tip()

	parentBlock, err := m.chain.Block(parent)
	if err != nil {
		log.Printf("miner: tip block missing from chain store: %v", err)
		return false
	}
	difficulty := parentBlock.Header.Difficulty

	parentState, err := m.state.Get(parent)
	if err != nil {
		// State and chain can lag each other; skip this iteration.
		return false
	}
	working := parentState.Clone()

	candidates := m.pool.Snapshot()
	selected := make([]types.SignedTransaction, 0, len(candidates))
	serialized := make([][]byte, 0, len(candidates))
	size := 0

	for _, st := range candidates {
		bytes := st.Serialize()
		if size+len(bytes) > m.blockSizeLimit {
			continue
		}

		switch working.Apply(st.Transaction) {
		case types.TxAccepted:
			selected = append(selected, st)
			serialized = append(serialized, bytes)
			size += len(bytes)
		case types.TxStale:
			m.pool.Remove(st.Hash())
		case types.TxLeft:
			// leave pending for a future block
		}
	}

	header := types.Header{
		Parent:     parent,
		Nonce:      rand.Uint32(),
		Difficulty: difficulty,
		Timestamp:  uint64(time.Now().UnixMilli()),
		MerkleRoot: merkle.New(serialized).Root(),
	}
	block := &types.Block{
		Header:  header,
		Content: types.Content{Transactions: selected},
	}

	powHash, err := m.hasher.Hash(header.Serialize())
	if err != nil {
		log.Printf("miner: hasher error: %v", err)
		return false
	}
	if !consensus.MeetsDifficulty(powHash, difficulty) {
		return false
	}

	hash := block.Hash()
	if err := m.chain.Insert(block); err != nil {
		log.Printf("miner: failed to insert mined block: %v", err)
		return false
	}
	if err := m.state.Set(hash, working); err != nil {
		log.Printf("miner: failed to record block state: %v", err)
	}
	for _, st := range selected {
		m.pool.Remove(st.Hash())
	}

	log.Printf("miner: mined block %s on parent %s (%d txs)", hash.Hex(), parent.Hex(), len(selected))

	select {
	case m.finished <- block:
	default:
		log.Printf("miner: finished-block channel full, dropping notification for %s", hash.Hex())
	}

	return true
}
