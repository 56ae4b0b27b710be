package chainstore

import (
	"errors"
	"sync"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// ErrStateMissing is returned when a block's state snapshot has not been
// derived yet; callers should skip the current iteration rather than
// treat this as fatal, since the chain store and block-state map can lag
// each other briefly.
var ErrStateMissing = errors.New("chainstore: state missing for block")

// BlockState is the third of the chain's three shared singletons:
// by_block maps a block hash to the account state (nonce, balance)
// observed after applying that block's transactions. It is guarded by
// its own lock, taken last in the chain -> mempool -> block_state order.
type BlockState struct {
	mu    sync.RWMutex
	store *store
}

// NewBlockState opens a fresh, empty BlockState.
func NewBlockState() (*BlockState, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	return &BlockState{store: st}, nil
}

// SeedGenesis writes the genesis entry: a single ICO account with the
// given balance and nonce 0. Must be called once, before any message is
// processed, per the genesis/ICO contract.
func (bs *BlockState) SeedGenesis(genesis types.Hash, icoAddr types.Address, icoBalance types.Amount) error {
	state := types.StateMap{
		icoAddr: {Nonce: 0, Balance: icoBalance},
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.store.putState(genesis, state)
}

// Get returns the state snapshot recorded for block hash.
func (bs *BlockState) Get(hash types.Hash) (types.StateMap, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	state, err := bs.store.getState(hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrStateMissing
		}
		return nil, err
	}
	return state, nil
}

// Set records the state snapshot produced by applying a block's
// transactions to its parent's state.
func (bs *BlockState) Set(hash types.Hash, state types.StateMap) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.store.putState(hash, state)
}

// Close releases the underlying storage engine.
func (bs *BlockState) Close() error {
	return bs.store.Close()
}
