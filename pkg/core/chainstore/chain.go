package chainstore

import (
	"errors"
	"sync"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// ErrParentNotFound is returned by Insert when a block's parent is not
// yet present in the store. Not fatal: callers orphan-buffer the block
// and retry once the parent arrives.
var ErrParentNotFound = errors.New("chainstore: parent not found")

// Chain is the block index: every accepted block, its height, and the
// current tip. It is one of the chain's three shared singletons and is
// guarded by a single exclusive lock; callers must take it first among
// the three (chain -> mempool -> block_state) when more than one is held.
type Chain struct {
	mu        sync.RWMutex
	store     *store
	genesis   types.Hash
	tip       types.Hash
	tipHeight uint64
}

// New constructs a Chain seeded with a fixed genesis block: all-zero
// parent, nonce 0, timestamp 0, zero Merkle root, and the given canonical
// difficulty target.
func New(difficulty types.Hash) (*Chain, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}

	genesis := &types.Block{
		Header: types.Header{
			Parent:     types.ZeroHash,
			Nonce:      0,
			Difficulty: difficulty,
			Timestamp:  0,
			MerkleRoot: types.ZeroHash,
		},
		Content: types.Content{Transactions: nil},
	}
	hash := genesis.Hash()

	if err := st.putBlock(genesis); err != nil {
		return nil, err
	}
	if err := st.putHeight(hash, 0); err != nil {
		return nil, err
	}
	if err := st.putTip(hash); err != nil {
		return nil, err
	}

	return &Chain{
		store:     st,
		genesis:   hash,
		tip:       hash,
		tipHeight: 0,
	}, nil
}

// Genesis returns the hash of the genesis block.
func (c *Chain) Genesis() types.Hash {
	return c.genesis
}

// Has reports whether hash is present in the chain store.
func (c *Chain) Has(hash types.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.hasBlock(hash)
}

// Block returns the block stored under hash.
func (c *Chain) Block(hash types.Hash) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.getBlock(hash)
}

// Height returns the height recorded for hash.
func (c *Chain) Height(hash types.Hash) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.getHeight(hash)
}

// Tip returns the current tip hash: the highest-height block known,
// first-seen wins on a height tie.
func (c *Chain) Tip() types.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// TipHeight returns the height of the current tip.
func (c *Chain) TipHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHeight
}

// Insert adds b to the chain store. It is idempotent: a block already
// present is a no-op. Otherwise the parent must already be known; the
// tip advances iff the new block's height strictly exceeds the current
// tip's height (equal heights keep the incumbent tip).
func (c *Chain) Insert(b *types.Block) error {
	hash := b.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.hasBlock(hash) {
		return nil
	}

	parentHeight, err := c.store.getHeight(b.Header.Parent)
	if err != nil {
		return ErrParentNotFound
	}
	height := parentHeight + 1

	if err := c.store.putBlock(b); err != nil {
		return err
	}
	if err := c.store.putHeight(hash, height); err != nil {
		return err
	}

	if height > c.tipHeight {
		if err := c.store.putTip(hash); err != nil {
			return err
		}
		c.tip = hash
		c.tipHeight = height
	}

	return nil
}

// LongestChain walks parent pointers from the tip back to genesis and
// returns the hashes in genesis-to-tip order.
func (c *Chain) LongestChain() ([]types.Hash, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var reversed []types.Hash
	cur := c.tip
	for {
		reversed = append(reversed, cur)
		if cur == c.genesis {
			break
		}
		block, err := c.store.getBlock(cur)
		if err != nil {
			return nil, err
		}
		cur = block.Header.Parent
	}

	chain := make([]types.Hash, len(reversed))
	for i, h := range reversed {
		chain[len(reversed)-1-i] = h
	}
	return chain, nil
}

// Close releases the underlying storage engine.
func (c *Chain) Close() error {
	return c.store.Close()
}
