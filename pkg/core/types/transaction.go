package types

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
)

// Transaction is a single signed-at-the-account-level value transfer:
// sender pays receiver value chronos, occupying the sender's next nonce.
type Transaction struct {
	Sender   Address
	Receiver Address
	Value    Amount
	Nonce    uint32 // must equal sender_state.nonce + 1 to be accepted.
}

// Serialize returns a deterministic byte encoding of the transaction fields,
// the exact bytes a signature is computed and verified over.
func (tx *Transaction) Serialize() []byte {
	buf := make([]byte, AddressSize+AddressSize+4+4)
	off := 0
	copy(buf[off:], tx.Sender[:])
	off += AddressSize
	copy(buf[off:], tx.Receiver[:])
	off += AddressSize
	binary.BigEndian.PutUint32(buf[off:], uint32(tx.Value))
	off += 4
	binary.BigEndian.PutUint32(buf[off:], tx.Nonce)
	return buf
}

// SignedTransaction pairs a Transaction with the signature and public key
// that authorize it.
type SignedTransaction struct {
	Transaction Transaction
	Signature   []byte
	PublicKey   []byte
}

var ErrWrongSender = errors.New("types: public key does not derive the sender address")
var ErrInvalidSignature = errors.New("types: signature does not verify")

// Serialize returns a deterministic byte encoding of the entire signed
// transaction (transaction bytes, then signature, then public key), used
// only for hashing — never for the signature itself, which covers just the
// inner Transaction.
func (st *SignedTransaction) Serialize() []byte {
	inner := st.Transaction.Serialize()
	buf := make([]byte, 0, len(inner)+len(st.Signature)+len(st.PublicKey)+16)
	var lenbuf [8]byte

	buf = append(buf, inner...)

	binary.BigEndian.PutUint64(lenbuf[:], uint64(len(st.Signature)))
	buf = append(buf, lenbuf[:]...)
	buf = append(buf, st.Signature...)

	binary.BigEndian.PutUint64(lenbuf[:], uint64(len(st.PublicKey)))
	buf = append(buf, lenbuf[:]...)
	buf = append(buf, st.PublicKey...)

	return buf
}

// Hash computes hash(ST) = SHA-256(serialize(ST)).
func (st *SignedTransaction) Hash() Hash {
	return ComputeSHA256(st.Serialize())
}

// Sign produces a SignedTransaction by signing tx's serialized bytes with
// priv, attaching priv's public key.
func Sign(tx Transaction, priv ed25519.PrivateKey) SignedTransaction {
	pub := priv.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(priv, tx.Serialize())
	return SignedTransaction{
		Transaction: tx,
		Signature:   sig,
		PublicKey:   append([]byte(nil), pub...),
	}
}

// Verify checks that the public key derives the claimed sender address and
// that the signature verifies over the inner transaction's serialized bytes.
func (st *SignedTransaction) Verify() error {
	pub := ed25519.PublicKey(st.PublicKey)
	if AddressFromPublicKey(pub) != st.Transaction.Sender {
		return ErrWrongSender
	}
	if !ed25519.Verify(pub, st.Transaction.Serialize(), st.Signature) {
		return ErrInvalidSignature
	}
	return nil
}
