package mempool

import (
	"crypto/ed25519"
	"testing"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

func signedTx(t *testing.T, nonce uint32, value types.Amount) types.SignedTransaction {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sender := types.AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	tx := types.Transaction{
		Sender:   sender,
		Receiver: types.Address{0x02},
		Value:    value,
		Nonce:    nonce,
	}
	return types.Sign(tx, priv)
}

func TestInsert_NewTransactionAdmitted(t *testing.T) {
	mp := New()
	st := signedTx(t, 1, 10)

	if !mp.Insert(st) {
		t.Fatal("expected first insert of a fresh transaction to succeed")
	}
	if mp.Size() != 1 {
		t.Fatalf("size = %d, want 1", mp.Size())
	}
	if !mp.Has(st.Hash()) {
		t.Fatal("expected pending transaction to be present")
	}
	if !mp.Seen(st.Hash()) {
		t.Fatal("expected transaction to be marked seen")
	}
}

func TestInsert_DuplicateRejected(t *testing.T) {
	mp := New()
	st := signedTx(t, 1, 10)

	mp.Insert(st)
	if mp.Insert(st) {
		t.Fatal("expected re-gossip of an already-seen transaction to be rejected")
	}
	if mp.Size() != 1 {
		t.Fatalf("size = %d, want 1 after duplicate insert", mp.Size())
	}
}

func TestRemove_EvictsFromPendingButNotSeen(t *testing.T) {
	mp := New()
	st := signedTx(t, 1, 10)
	mp.Insert(st)

	mp.Remove(st.Hash())

	if mp.Has(st.Hash()) {
		t.Fatal("expected removed transaction to no longer be pending")
	}
	if !mp.Seen(st.Hash()) {
		t.Fatal("seen-set must remain monotonic across Remove")
	}
}

func TestInsert_AfterRemoveStillRejected(t *testing.T) {
	// A transaction that was included in a block (and thus Removed) must
	// never re-enter the pool if it is re-gossiped, since seen is
	// monotonic and is consulted first.
	mp := New()
	st := signedTx(t, 1, 10)
	mp.Insert(st)
	mp.Remove(st.Hash())

	if mp.Insert(st) {
		t.Fatal("expected a previously-included transaction to remain permanently rejected")
	}
	if mp.Size() != 0 {
		t.Fatalf("size = %d, want 0", mp.Size())
	}
}

func TestSnapshot_IndependentOfPool(t *testing.T) {
	mp := New()
	st1 := signedTx(t, 1, 10)
	st2 := signedTx(t, 1, 20)
	mp.Insert(st1)
	mp.Insert(st2)

	snap := mp.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}

	mp.Remove(st1.Hash())
	if len(snap) != 2 {
		t.Fatalf("mutating the pool after Snapshot must not affect the returned slice")
	}
}

func TestGet_ReturnsPendingTransaction(t *testing.T) {
	mp := New()
	st := signedTx(t, 1, 10)
	mp.Insert(st)

	got, ok := mp.Get(st.Hash())
	if !ok {
		t.Fatal("expected Get to find a pending transaction")
	}
	if got.Transaction.Value != 10 {
		t.Fatalf("value = %d, want 10", got.Transaction.Value)
	}

	mp.Remove(st.Hash())
	if _, ok := mp.Get(st.Hash()); ok {
		t.Fatal("expected Get to miss after Remove")
	}
}
