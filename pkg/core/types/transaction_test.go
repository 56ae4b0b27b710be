package types

import (
	"crypto/ed25519"
	"testing"
)

func newTestKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return priv
}

func TestSignVerify_RoundTrip(t *testing.T) {
	priv := newTestKey(t)
	sender := AddressFromPublicKey(priv.Public().(ed25519.PublicKey))

	tx := Transaction{Sender: sender, Receiver: addrN(7), Value: 10, Nonce: 1}
	st := Sign(tx, priv)

	if err := st.Verify(); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
}

func TestVerify_WrongSenderAddress(t *testing.T) {
	priv := newTestKey(t)
	tx := Transaction{Sender: addrN(9), Receiver: addrN(7), Value: 10, Nonce: 1}
	st := Sign(tx, priv)

	if err := st.Verify(); err != ErrWrongSender {
		t.Fatalf("Verify() = %v, want ErrWrongSender", err)
	}
}

func TestVerify_TamperedValue(t *testing.T) {
	priv := newTestKey(t)
	sender := AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	tx := Transaction{Sender: sender, Receiver: addrN(7), Value: 10, Nonce: 1}
	st := Sign(tx, priv)

	st.Transaction.Value = 999
	if err := st.Verify(); err != ErrInvalidSignature {
		t.Fatalf("Verify() after tampering = %v, want ErrInvalidSignature", err)
	}
}

func TestSignedTransactionHash_Deterministic(t *testing.T) {
	priv := newTestKey(t)
	sender := AddressFromPublicKey(priv.Public().(ed25519.PublicKey))
	tx := Transaction{Sender: sender, Receiver: addrN(7), Value: 10, Nonce: 1}
	st := Sign(tx, priv)

	h1 := st.Hash()
	h2 := st.Hash()
	if h1 != h2 {
		t.Fatalf("Hash() not deterministic: %s vs %s", h1.Hex(), h2.Hex())
	}
}

func TestTransactionSerialize_FieldOrder(t *testing.T) {
	tx := Transaction{Sender: addrN(1), Receiver: addrN(2), Value: 3, Nonce: 4}
	buf := tx.Serialize()
	if len(buf) != AddressSize*2+8 {
		t.Fatalf("Serialize() length = %d, want %d", len(buf), AddressSize*2+8)
	}
	if buf[AddressSize-1] != 1 || buf[2*AddressSize-1] != 2 || buf[2*AddressSize+3] != 3 || buf[2*AddressSize+7] != 4 {
		t.Fatalf("Serialize() = %x, want sender || receiver || value(BE) || nonce(BE)", buf)
	}
}
