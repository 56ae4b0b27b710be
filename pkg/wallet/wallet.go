// Package wallet provides key management and signing helpers for the CLI
// wallet/balance/send subcommands.
package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"os"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// GenerateKeyPair generates a new Ed25519 keypair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

// SaveKey saves the private key to a file in hex format.
func SaveKey(filename string, privKey ed25519.PrivateKey) error {
	hexKey := hex.EncodeToString(privKey)
	return os.WriteFile(filename, []byte(hexKey), 0600)
}

// LoadKey loads a private key from a file (hex format).
func LoadKey(filename string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(string(data))
}

// SignTransaction signs tx with privKey and returns the resulting
// SignedTransaction.
func SignTransaction(tx types.Transaction, privKey ed25519.PrivateKey) (types.SignedTransaction, error) {
	if len(privKey) != ed25519.PrivateKeySize {
		return types.SignedTransaction{}, errors.New("wallet: invalid private key length")
	}
	return types.Sign(tx, privKey), nil
}

// PubKeyToAddress derives the account address from an Ed25519 public key.
func PubKeyToAddress(pubKey ed25519.PublicKey) types.Address {
	return types.AddressFromPublicKey(pubKey)
}
