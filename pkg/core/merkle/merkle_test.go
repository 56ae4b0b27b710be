package merkle

import (
	"testing"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

func TestTree_TwoLeafRoundTrip(t *testing.T) {
	leaf0 := []byte{0x0a, 0x0b, 0x00, 0x0e, 0x0d}
	leaf1 := []byte{0x01, 0x01, 0x00, 0x02, 0x02}

	tree := New([][]byte{leaf0, leaf1})
	root := tree.Root()

	wantRoot := types.ComputeSHA256(append(
		append([]byte{}, types.ComputeSHA256(leaf0).Bytes()...),
		types.ComputeSHA256(leaf1).Bytes()...,
	))
	if root != wantRoot {
		t.Errorf("root = %s, want %s", root.Hex(), wantRoot.Hex())
	}

	proof0 := tree.Proof(0)
	if len(proof0) != 1 {
		t.Fatalf("proof(0) length = %d, want 1", len(proof0))
	}
	if wantSibling := types.ComputeSHA256(leaf1); proof0[0] != wantSibling {
		t.Errorf("proof(0)[0] = %s, want %s", proof0[0].Hex(), wantSibling.Hex())
	}

	if !Verify(root, leaf0, proof0, 0, 2) {
		t.Errorf("Verify(root, leaf0, proof(0), 0, 2) = false, want true")
	}
	if !Verify(root, leaf1, tree.Proof(1), 1, 2) {
		t.Errorf("Verify(root, leaf1, proof(1), 1, 2) = false, want true")
	}
}

func TestTree_EmptyInput(t *testing.T) {
	tree := New(nil)
	if got := tree.Root(); got != types.ZeroHash {
		t.Errorf("empty tree root = %s, want zero hash", got.Hex())
	}
}

func TestTree_SingleLeaf(t *testing.T) {
	datum := []byte("solitary")
	tree := New([][]byte{datum})
	want := types.ComputeSHA256(datum)
	if got := tree.Root(); got != want {
		t.Errorf("single-leaf root = %s, want %s", got.Hex(), want.Hex())
	}
	if proof := tree.Proof(0); len(proof) != 0 {
		t.Errorf("single-leaf proof(0) = %v, want empty", proof)
	}
}

func TestTree_OddLayerDuplication(t *testing.T) {
	data := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	tree := New(data)
	root := tree.Root()

	for i := range data {
		proof := tree.Proof(i)
		if !Verify(root, data[i], proof, i, len(data)) {
			t.Errorf("Verify failed to round-trip for leaf %d", i)
		}
	}
}

func TestTree_ProofOutOfRange(t *testing.T) {
	tree := New([][]byte{[]byte("only")})
	if proof := tree.Proof(5); proof != nil {
		t.Errorf("out-of-range Proof(5) = %v, want nil", proof)
	}
	if Verify(tree.Root(), []byte("only"), nil, 5, 1) {
		t.Errorf("Verify with out-of-range index = true, want false")
	}
}
