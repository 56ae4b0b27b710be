package p2p

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/chronodrachma/chrd/pkg/core/types"
)

// MessageType identifies the tag of a wire message.
type MessageType byte

const (
	MsgTypePing                 MessageType = 0x01
	MsgTypePong                 MessageType = 0x02
	MsgTypeNewBlockHashes       MessageType = 0x03
	MsgTypeGetBlocks            MessageType = 0x04
	MsgTypeBlocks               MessageType = 0x05
	MsgTypeNewTransactionHashes MessageType = 0x06
	MsgTypeGetTransactions      MessageType = 0x07
	MsgTypeTransactions         MessageType = 0x08
)

// Message is the tagged-union wire protocol: Ping/Pong liveness, and the
// inventory/getdata/data triad for blocks and transactions.
type Message interface {
	Type() MessageType
}

// MsgPing carries an opaque nonce the peer must echo back in MsgPong.
type MsgPing struct{ Nonce string }

func (m *MsgPing) Type() MessageType { return MsgTypePing }

// MsgPong echoes a MsgPing's nonce.
type MsgPong struct{ Nonce string }

func (m *MsgPong) Type() MessageType { return MsgTypePong }

// MsgNewBlockHashes announces block hashes the sender has.
type MsgNewBlockHashes struct{ Hashes []types.Hash }

func (m *MsgNewBlockHashes) Type() MessageType { return MsgTypeNewBlockHashes }

// MsgGetBlocks requests full blocks by hash.
type MsgGetBlocks struct{ Hashes []types.Hash }

func (m *MsgGetBlocks) Type() MessageType { return MsgTypeGetBlocks }

// MsgBlocks carries full blocks in response to MsgGetBlocks.
type MsgBlocks struct{ Blocks []types.Block }

func (m *MsgBlocks) Type() MessageType { return MsgTypeBlocks }

// MsgNewTransactionHashes announces transaction hashes the sender has.
type MsgNewTransactionHashes struct{ Hashes []types.Hash }

func (m *MsgNewTransactionHashes) Type() MessageType { return MsgTypeNewTransactionHashes }

// MsgGetTransactions requests full signed transactions by hash.
type MsgGetTransactions struct{ Hashes []types.Hash }

func (m *MsgGetTransactions) Type() MessageType { return MsgTypeGetTransactions }

// MsgTransactions carries full signed transactions in response to
// MsgGetTransactions, or unsolicited from a generator.
type MsgTransactions struct{ Transactions []types.SignedTransaction }

func (m *MsgTransactions) Type() MessageType { return MsgTypeTransactions }

// EncodeMessage writes a tagged message to w: a one-byte type tag
// followed by its Gob-encoded payload. No length prefix is written;
// peers write messages back to back on the connection.
func EncodeMessage(w io.Writer, msg Message) error {
	if _, err := w.Write([]byte{byte(msg.Type())}); err != nil {
		return err
	}
	return gob.NewEncoder(w).Encode(msg)
}

// DecodeMessage reads a tagged message from r.
func DecodeMessage(r io.Reader) (Message, error) {
	typeBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, typeBuf); err != nil {
		return nil, err
	}

	var msg Message
	switch MessageType(typeBuf[0]) {
	case MsgTypePing:
		msg = &MsgPing{}
	case MsgTypePong:
		msg = &MsgPong{}
	case MsgTypeNewBlockHashes:
		msg = &MsgNewBlockHashes{}
	case MsgTypeGetBlocks:
		msg = &MsgGetBlocks{}
	case MsgTypeBlocks:
		msg = &MsgBlocks{}
	case MsgTypeNewTransactionHashes:
		msg = &MsgNewTransactionHashes{}
	case MsgTypeGetTransactions:
		msg = &MsgGetTransactions{}
	case MsgTypeTransactions:
		msg = &MsgTransactions{}
	default:
		return nil, fmt.Errorf("p2p: unknown message type 0x%x", typeBuf[0])
	}

	if err := gob.NewDecoder(r).Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func init() {
	gob.Register(&MsgPing{})
	gob.Register(&MsgPong{})
	gob.Register(&MsgNewBlockHashes{})
	gob.Register(&MsgGetBlocks{})
	gob.Register(&MsgBlocks{})
	gob.Register(&MsgNewTransactionHashes{})
	gob.Register(&MsgGetTransactions{})
	gob.Register(&MsgTransactions{})
}
