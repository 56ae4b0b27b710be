// Package merkle implements the binary Merkle tree used to bind a block's
// header to its transaction content.
package merkle

import "github.com/chronodrachma/chrd/pkg/core/types"

// Tree is a binary Merkle tree over arbitrary byte data. A layer with odd
// cardinality is padded by duplicating the last node of that layer before
// combining pairs.
type Tree struct {
	layers [][]types.Hash
}

// New hashes each datum in data to form the leaf layer, then builds every
// parent layer up to the root. An empty input produces a tree whose root
// is the all-zero digest.
func New(data [][]byte) *Tree {
	leaves := make([]types.Hash, len(data))
	for i, d := range data {
		leaves[i] = types.ComputeSHA256(d)
	}
	return newFromLeaves(leaves)
}

func newFromLeaves(leaves []types.Hash) *Tree {
	t := &Tree{layers: [][]types.Hash{leaves}}
	layer := leaves
	for len(layer) > 1 {
		layer = nextLayer(layer)
		t.layers = append(t.layers, layer)
	}
	return t
}

func padLayer(layer []types.Hash) []types.Hash {
	if len(layer)%2 == 0 {
		return layer
	}
	padded := make([]types.Hash, len(layer)+1)
	copy(padded, layer)
	padded[len(layer)] = layer[len(layer)-1]
	return padded
}

func nextLayer(layer []types.Hash) []types.Hash {
	padded := padLayer(layer)
	next := make([]types.Hash, len(padded)/2)
	for i := range next {
		left := padded[2*i]
		right := padded[2*i+1]
		combined := make([]byte, 0, types.HashSize*2)
		combined = append(combined, left.Bytes()...)
		combined = append(combined, right.Bytes()...)
		next[i] = types.ComputeSHA256(combined)
	}
	return next
}

// Root returns the tree's root hash: the all-zero digest for an empty
// tree, the single leaf for a one-element tree.
func (t *Tree) Root() types.Hash {
	top := t.layers[len(t.layers)-1]
	if len(top) == 0 {
		return types.ZeroHash
	}
	return top[0]
}

// Proof returns the sibling hash at each layer on the path from leaf i up
// to the root, bottom-up. An out-of-range index returns a nil proof.
func (t *Tree) Proof(i int) []types.Hash {
	if len(t.layers[0]) == 0 || i < 0 || i >= len(t.layers[0]) {
		return nil
	}
	var proof []types.Hash
	index := i
	for layerIdx := 0; layerIdx < len(t.layers)-1; layerIdx++ {
		padded := padLayer(t.layers[layerIdx])
		sibling := index + 1
		if index%2 == 1 {
			sibling = index - 1
		}
		proof = append(proof, padded[sibling])
		index /= 2
	}
	return proof
}

// Verify recomputes the path from datum at index using proof and compares
// the result against root. leafCount is the number of leaves the tree the
// proof was drawn from had at construction time.
func Verify(root types.Hash, datum []byte, proof []types.Hash, index int, leafCount int) bool {
	if index < 0 || index >= leafCount {
		return false
	}
	current := types.ComputeSHA256(datum)
	for _, sibling := range proof {
		combined := make([]byte, 0, types.HashSize*2)
		if index%2 == 0 {
			combined = append(combined, current.Bytes()...)
			combined = append(combined, sibling.Bytes()...)
		} else {
			combined = append(combined, sibling.Bytes()...)
			combined = append(combined, current.Bytes()...)
		}
		current = types.ComputeSHA256(combined)
		index /= 2
	}
	return current == root
}
