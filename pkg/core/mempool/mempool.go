// Package mempool holds validated, unconfirmed transactions awaiting
// inclusion in a block.
package mempool

import (
	"sync"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// Mempool is one of the chain's three shared singletons: a set of pending
// transactions plus a monotonic seen-set so re-gossip can never resurrect
// an already-included transaction. It is guarded by a single lock, taken
// after the chain store and before block-state in the fixed lock order.
type Mempool struct {
	mu   sync.Mutex
	txs  map[types.Hash]types.SignedTransaction
	seen map[types.Hash]struct{}
}

// New returns an empty Mempool.
func New() *Mempool {
	return &Mempool{
		txs:  make(map[types.Hash]types.SignedTransaction),
		seen: make(map[types.Hash]struct{}),
	}
}

// Insert admits st iff its hash has never been seen before. Both the
// pending map and the seen-set are written; seen is never cleared, so a
// transaction that has already been included or evicted cannot re-enter
// through re-gossip. Reports whether st was newly inserted.
func (mp *Mempool) Insert(st types.SignedTransaction) bool {
	hash := st.Hash()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.seen[hash]; ok {
		return false
	}
	mp.seen[hash] = struct{}{}
	mp.txs[hash] = st
	return true
}

// Remove evicts hash from the pending map only; the seen-set is
// monotonic and is never touched by Remove.
func (mp *Mempool) Remove(hash types.Hash) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	delete(mp.txs, hash)
}

// Has reports whether hash is currently pending.
func (mp *Mempool) Has(hash types.Hash) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	_, ok := mp.txs[hash]
	return ok
}

// Seen reports whether hash has ever been admitted, regardless of whether
// it is still pending. Used to decide whether an inbound tx hash needs to
// be fetched at all.
func (mp *Mempool) Seen(hash types.Hash) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	_, ok := mp.seen[hash]
	return ok
}

// Get returns the pending transaction for hash, if any.
func (mp *Mempool) Get(hash types.Hash) (types.SignedTransaction, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	st, ok := mp.txs[hash]
	return st, ok
}

// Snapshot returns an independent copy of every currently pending
// transaction, for the miner to select from without holding the lock
// during the (potentially lengthy) PoW search.
func (mp *Mempool) Snapshot() []types.SignedTransaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]types.SignedTransaction, 0, len(mp.txs))
	for _, st := range mp.txs {
		out = append(out, st)
	}
	return out
}

// Size returns the number of currently pending transactions.
func (mp *Mempool) Size() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.txs)
}
