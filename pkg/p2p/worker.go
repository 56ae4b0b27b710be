package p2p

import (
	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// inboundMessage pairs a decoded message with the peer it arrived from,
// so a worker can reply to the right connection.
type inboundMessage struct {
	msg  Message
	peer *Peer
}

// Pool is the network worker pool: N workers draining a shared channel of
// inbound messages, running the gossip protocol's state machine and
// maintaining the orphan buffer.
type Pool struct {
	chain   *chainstore.Chain
	state   *chainstore.BlockState
	mempool *mempool.Mempool
	server  *Server
	orphans *orphanBuffer
	inbound chan inboundMessage
}

// NewPool constructs a worker pool over chain, state, and mempool. server
// is used to broadcast to all connected peers.
func NewPool(chain *chainstore.Chain, state *chainstore.BlockState, mp *mempool.Mempool, server *Server) *Pool {
	return &Pool{
		chain:   chain,
		state:   state,
		mempool: mp,
		server:  server,
		orphans: newOrphanBuffer(),
		inbound: make(chan inboundMessage, 256),
	}
}

// Enqueue feeds a decoded message from peer into the shared inbound
// channel for a worker to pick up.
func (p *Pool) Enqueue(msg Message, peer *Peer) {
	p.inbound <- inboundMessage{msg: msg, peer: peer}
}

// Start launches n worker goroutines. They run until the inbound channel
// is closed.
func (p *Pool) Start(n int) {
	for i := 0; i < n; i++ {
		go p.workerLoop()
	}
}

// Close shuts every worker down by closing the inbound channel.
func (p *Pool) Close() {
	close(p.inbound)
}

func (p *Pool) workerLoop() {
	for item := range p.inbound {
		p.handle(item.msg, item.peer)
	}
}

func (p *Pool) handle(msg Message, peer *Peer) {
	switch m := msg.(type) {
	case *MsgPing:
		peer.Send(&MsgPong{Nonce: m.Nonce})

	case *MsgPong:
		// Liveness only; nothing further to do.

	case *MsgNewBlockHashes:
		var missing []types.Hash
		for _, h := range m.Hashes {
			if !p.chain.Has(h) {
				missing = append(missing, h)
			}
		}
		if len(missing) > 0 {
			peer.Send(&MsgGetBlocks{Hashes: missing})
		}

	case *MsgNewTransactionHashes:
		var missing []types.Hash
		for _, h := range m.Hashes {
			if !p.mempool.Seen(h) {
				missing = append(missing, h)
			}
		}
		if len(missing) > 0 {
			peer.Send(&MsgGetTransactions{Hashes: missing})
		}

	case *MsgGetBlocks:
		var blocks []types.Block
		for _, h := range m.Hashes {
			if b, err := p.chain.Block(h); err == nil {
				blocks = append(blocks, *b)
			}
		}
		if len(blocks) > 0 {
			peer.Send(&MsgBlocks{Blocks: blocks})
		}

	case *MsgGetTransactions:
		var sts []types.SignedTransaction
		for _, h := range m.Hashes {
			if st, ok := p.mempool.Get(h); ok {
				sts = append(sts, st)
			}
		}
		if len(sts) > 0 {
			peer.Send(&MsgTransactions{Transactions: sts})
		}

	case *MsgTransactions:
		p.handleTransactions(m.Transactions)

	case *MsgBlocks:
		p.handleBlocks(m.Blocks, peer)
	}
}

func (p *Pool) handleTransactions(sts []types.SignedTransaction) {
	var newHashes []types.Hash
	for _, st := range sts {
		st := st
		if err := st.Verify(); err != nil {
			continue
		}
		if p.mempool.Insert(st) {
			newHashes = append(newHashes, st.Hash())
		}
	}
	if len(newHashes) > 0 {
		p.server.BroadcastNewTransactionHashes(newHashes)
	}
}

// handleBlocks implements the gossip protocol's Blocks handler: validate
// each block, install what can be installed immediately, orphan-buffer
// the rest, then drain the orphan buffer for anything unblocked by a
// freshly installed parent.
func (p *Pool) handleBlocks(blocks []types.Block, origin *Peer) {
	var broadcastBatch []types.Hash
	var missingParents []types.Hash
	var processStack []*types.Block

	for i := range blocks {
		b := blocks[i]
		hash := b.Hash()

		if p.chain.Has(hash) {
			continue
		}
		if !b.Header.MeetsDifficulty() {
			continue
		}
		if !blockSignaturesValid(&b) {
			continue
		}

		if p.chain.Has(b.Header.Parent) {
			if err := p.installBlock(&b); err != nil {
				continue
			}
			broadcastBatch = append(broadcastBatch, hash)
			processStack = append(processStack, &b)
		} else {
			p.orphans.add(&b)
			missingParents = append(missingParents, b.Header.Parent)
		}
	}

	for len(processStack) > 0 {
		last := len(processStack) - 1
		installed := processStack[last]
		processStack = processStack[:last]

		for _, child := range p.orphans.popChildren(installed.Hash()) {
			if err := p.installBlock(child); err != nil {
				continue
			}
			broadcastBatch = append(broadcastBatch, child.Hash())
			processStack = append(processStack, child)
		}
	}

	if len(missingParents) > 0 && origin != nil {
		origin.Send(&MsgGetBlocks{Hashes: missingParents})
	}
	if len(broadcastBatch) > 0 {
		p.server.BroadcastNewBlockHashes(broadcastBatch)
	}
}

func (p *Pool) installBlock(b *types.Block) error {
	if err := p.chain.Insert(b); err != nil {
		return err
	}
	for _, st := range b.Content.Transactions {
		p.mempool.Remove(st.Hash())
	}
	p.applyState(b)
	return nil
}

// applyState derives by_block[hash(b)] from by_block[b.parent] by
// applying b's transactions in order. The reference network worker is
// known to skip this step; this implementation closes that gap so a
// block mined elsewhere still extends the state tree for this node's
// generator and miner to build on.
func (p *Pool) applyState(b *types.Block) {
	parentState, err := p.state.Get(b.Header.Parent)
	if err != nil {
		return
	}
	working := parentState.Clone()
	for _, st := range b.Content.Transactions {
		working.Apply(st.Transaction)
	}
	_ = p.state.Set(b.Hash(), working)
}

func blockSignaturesValid(b *types.Block) bool {
	for i := range b.Content.Transactions {
		if err := b.Content.Transactions[i].Verify(); err != nil {
			return false
		}
	}
	return true
}
