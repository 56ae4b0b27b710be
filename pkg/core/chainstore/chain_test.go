package chainstore

import (
	"testing"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

func testDifficulty() types.Hash {
	var h types.Hash
	h[0] = 0x00
	h[1] = 0x01
	for i := 2; i < types.HashSize; i++ {
		h[i] = 0xff
	}
	return h
}

func mineBlock(t *testing.T, parent types.Hash, difficulty types.Hash, nonceStart uint32) *types.Block {
	t.Helper()
	for nonce := nonceStart; ; nonce++ {
		b := &types.Block{
			Header: types.Header{
				Parent:     parent,
				Nonce:      nonce,
				Difficulty: difficulty,
				Timestamp:  uint64(nonce),
				MerkleRoot: types.ZeroHash,
			},
		}
		if b.Hash().LessOrEqual(difficulty) {
			return b
		}
		if nonce-nonceStart > 1_000_000 {
			t.Fatalf("failed to mine a block satisfying difficulty within budget")
		}
	}
}

func TestNew_GenesisOnly(t *testing.T) {
	chain, err := New(testDifficulty())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer chain.Close()

	longest, err := chain.LongestChain()
	if err != nil {
		t.Fatalf("LongestChain() error = %v", err)
	}
	if len(longest) != 1 {
		t.Fatalf("LongestChain() length = %d, want 1", len(longest))
	}
	if longest[0] != chain.Genesis() {
		t.Errorf("LongestChain()[0] = %s, want genesis %s", longest[0].Hex(), chain.Genesis().Hex())
	}
	if chain.Tip() != chain.Genesis() {
		t.Errorf("Tip() = %s, want genesis", chain.Tip().Hex())
	}
	if height, err := chain.Height(chain.Genesis()); err != nil || height != 0 {
		t.Errorf("Height(genesis) = (%d, %v), want (0, nil)", height, err)
	}
}

func TestInsert_IdempotentAndHeightMonotonic(t *testing.T) {
	difficulty := testDifficulty()
	chain, err := New(difficulty)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer chain.Close()

	b1 := mineBlock(t, chain.Genesis(), difficulty, 0)
	if err := chain.Insert(b1); err != nil {
		t.Fatalf("Insert(b1) error = %v", err)
	}
	if chain.Tip() != b1.Hash() {
		t.Fatalf("Tip() after b1 = %s, want %s", chain.Tip().Hex(), b1.Hash().Hex())
	}

	if err := chain.Insert(b1); err != nil {
		t.Fatalf("re-Insert(b1) error = %v, want nil (idempotent)", err)
	}
	if chain.Tip() != b1.Hash() || chain.TipHeight() != 1 {
		t.Fatalf("Insert(b1) twice changed chain state: tip=%s height=%d", chain.Tip().Hex(), chain.TipHeight())
	}

	b2 := mineBlock(t, b1.Hash(), difficulty, 0)
	if err := chain.Insert(b2); err != nil {
		t.Fatalf("Insert(b2) error = %v", err)
	}
	if chain.TipHeight() != 2 {
		t.Errorf("TipHeight() after b2 = %d, want 2", chain.TipHeight())
	}
}

func TestInsert_UnknownParentRejected(t *testing.T) {
	difficulty := testDifficulty()
	chain, err := New(difficulty)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer chain.Close()

	orphan := mineBlock(t, types.Hash{0xAB}, difficulty, 0)
	if err := chain.Insert(orphan); err != ErrParentNotFound {
		t.Fatalf("Insert(orphan) error = %v, want ErrParentNotFound", err)
	}
}

func TestFork_EqualHeightKeepsIncumbentTip(t *testing.T) {
	difficulty := testDifficulty()
	chain, err := New(difficulty)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer chain.Close()

	first := mineBlock(t, chain.Genesis(), difficulty, 0)
	if err := chain.Insert(first); err != nil {
		t.Fatalf("Insert(first) error = %v", err)
	}

	second := mineBlock(t, chain.Genesis(), difficulty, first.Header.Nonce+1)
	if second.Hash() == first.Hash() {
		t.Fatal("test setup produced two identical sibling blocks")
	}
	if err := chain.Insert(second); err != nil {
		t.Fatalf("Insert(second) error = %v", err)
	}

	if chain.Tip() != first.Hash() {
		t.Errorf("Tip() after equal-height sibling = %s, want incumbent %s", chain.Tip().Hex(), first.Hash().Hex())
	}
}
