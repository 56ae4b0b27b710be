package p2p

import (
	"sync"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// orphanBuffer holds blocks whose parent has not yet been seen, indexed
// by the missing parent hash for O(1) child lookup once that parent
// arrives. Transient: nothing here is persisted.
type orphanBuffer struct {
	mu       sync.Mutex
	byParent map[types.Hash][]*types.Block
}

func newOrphanBuffer() *orphanBuffer {
	return &orphanBuffer{byParent: make(map[types.Hash][]*types.Block)}
}

// add records b as waiting on its parent to appear.
func (ob *orphanBuffer) add(b *types.Block) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	parent := b.Header.Parent
	ob.byParent[parent] = append(ob.byParent[parent], b)
}

// popChildren removes and returns every orphan waiting on parent.
func (ob *orphanBuffer) popChildren(parent types.Hash) []*types.Block {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	children := ob.byParent[parent]
	delete(ob.byParent, parent)
	return children
}
