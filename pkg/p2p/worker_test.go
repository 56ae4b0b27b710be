package p2p

import (
	"crypto/ed25519"
	"net"
	"testing"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
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

// pipedPeer returns a *Peer wrapping one end of an in-memory connection,
// plus the other end for the test to read replies from or write
// requests into.
func pipedPeer(server *Server) (*Peer, net.Conn) {
	a, b := net.Pipe()
	return NewPeer(a, server, false), b
}

func newTestPool(t *testing.T) (*Pool, *chainstore.Chain, *chainstore.BlockState, *mempool.Mempool) {
	t.Helper()
	difficulty := testDifficulty()

	chain, err := chainstore.New(difficulty)
	if err != nil {
		t.Fatalf("chainstore.New: %v", err)
	}
	t.Cleanup(func() { chain.Close() })

	state, err := chainstore.NewBlockState()
	if err != nil {
		t.Fatalf("NewBlockState: %v", err)
	}
	t.Cleanup(func() { state.Close() })
	if err := state.SeedGenesis(chain.Genesis(), types.Address{0xaa}, 1000); err != nil {
		t.Fatalf("SeedGenesis: %v", err)
	}

	mp := mempool.New()
	server := NewServer(ServerConfig{}, chain, state, mp)
	return server.pool, chain, state, mp
}

func TestHandle_NewBlockHashesTriggersGetBlocksForUnknown(t *testing.T) {
	pool, chain, _, _ := newTestPool(t)
	peer, other := pipedPeer(nil)
	defer other.Close()

	unknown := types.Hash{0x99}
	go pool.handle(&MsgNewBlockHashes{Hashes: []types.Hash{chain.Genesis(), unknown}}, peer)

	other.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := DecodeMessage(other)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	getBlocks, ok := reply.(*MsgGetBlocks)
	if !ok {
		t.Fatalf("reply type = %T, want *MsgGetBlocks", reply)
	}
	if len(getBlocks.Hashes) != 1 || getBlocks.Hashes[0] != unknown {
		t.Fatalf("requested hashes = %v, want [%x] (only the unknown one)", getBlocks.Hashes, unknown)
	}
}

func TestHandle_NewTransactionHashesTriggersGetTransactionsForUnseen(t *testing.T) {
	pool, _, _, mp := newTestPool(t)
	peer, other := pipedPeer(nil)
	defer other.Close()

	seen := signedTestTx(t, 1)
	mp.Insert(seen)
	unseen := types.Hash{0x77}

	go pool.handle(&MsgNewTransactionHashes{Hashes: []types.Hash{seen.Hash(), unseen}}, peer)

	other.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := DecodeMessage(other)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	getTx, ok := reply.(*MsgGetTransactions)
	if !ok {
		t.Fatalf("reply type = %T, want *MsgGetTransactions", reply)
	}
	if len(getTx.Hashes) != 1 || getTx.Hashes[0] != unseen {
		t.Fatalf("requested hashes = %v, want [%x]", getTx.Hashes, unseen)
	}
}

func TestHandleBlocks_OrphanIsReconciledOnceParentArrives(t *testing.T) {
	pool, chain, _, _ := newTestPool(t)
	difficulty := testDifficulty()

	b1 := mineBlock(t, chain.Genesis(), difficulty, 0)
	b2 := mineBlock(t, b1.Hash(), difficulty, 0)

	// b2 arrives first: its parent b1 is unknown, so it must be
	// orphan-buffered rather than rejected outright.
	pool.handleBlocks([]types.Block{*b2}, nil)
	if chain.Has(b2.Hash()) {
		t.Fatal("b2 must not be installed before its parent b1 arrives")
	}

	// b1 arrives: installing it should pull b2 out of the orphan buffer
	// and install it too.
	pool.handleBlocks([]types.Block{*b1}, nil)

	if !chain.Has(b1.Hash()) {
		t.Fatal("b1 should be installed")
	}
	if !chain.Has(b2.Hash()) {
		t.Fatal("b2 should be reconciled out of the orphan buffer once b1 arrives")
	}
	if chain.Tip() != b2.Hash() {
		t.Fatalf("tip = %s, want b2 %s", chain.Tip().Hex(), b2.Hash().Hex())
	}
}

func TestHandleBlocks_RejectsBlockFailingDifficulty(t *testing.T) {
	pool, chain, _, _ := newTestPool(t)

	// An all-zero difficulty target is never satisfied by a random
	// hash in practice; use it to construct a block that fails PoW.
	bad := &types.Block{
		Header: types.Header{
			Parent:     chain.Genesis(),
			Nonce:      1,
			Difficulty: types.ZeroHash,
			Timestamp:  1,
			MerkleRoot: types.ZeroHash,
		},
	}

	pool.handleBlocks([]types.Block{*bad}, nil)

	if chain.Has(bad.Hash()) {
		t.Fatal("a block failing its own difficulty target must be rejected")
	}
}

func TestHandleBlocks_IdempotentOnAlreadyKnownBlock(t *testing.T) {
	pool, chain, _, _ := newTestPool(t)
	difficulty := testDifficulty()
	b1 := mineBlock(t, chain.Genesis(), difficulty, 0)

	pool.handleBlocks([]types.Block{*b1}, nil)
	pool.handleBlocks([]types.Block{*b1}, nil)

	if chain.TipHeight() != 1 {
		t.Fatalf("TipHeight() = %d, want 1 (re-delivery must be a no-op)", chain.TipHeight())
	}
}

func signedTestTx(t *testing.T, nonce uint32) types.SignedTransaction {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sender := types.AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	tx := types.Transaction{
		Sender:   sender,
		Receiver: types.Address{0x02},
		Value:    1,
		Nonce:    nonce,
	}
	return types.Sign(tx, priv)
}
