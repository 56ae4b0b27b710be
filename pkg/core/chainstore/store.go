// Package chainstore holds the Chain Store and BlockState, the two shared
// singletons that track every accepted block and the per-block account
// state derived from it.
package chainstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/chronodrachma/chrd/pkg/core/types"
	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by store lookups that miss.
var ErrNotFound = errors.New("chainstore: key not found")

// store wraps an in-memory BadgerDB instance. It is never given a path:
// nothing here ever reaches the filesystem, so a restart always begins
// from a fresh genesis. Chain and BlockState each open their own
// instance; keys are namespaced by prefix within an instance.
type store struct {
	db *badger.DB
}

func openStore() (*store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("chainstore: open badger: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func blockKey(h types.Hash) []byte  { return []byte(fmt.Sprintf("block:%x", h)) }
func heightKey(h types.Hash) []byte { return []byte(fmt.Sprintf("height:%x", h)) }
func stateKey(h types.Hash) []byte  { return []byte(fmt.Sprintf("state:%x", h)) }

const tipKey = "tip"

func (s *store) putBlock(block *types.Block) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(block); err != nil {
		return err
	}
	hash := block.Hash()
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(hash), buf.Bytes())
	})
}

func (s *store) getBlock(hash types.Hash) (*types.Block, error) {
	var block types.Block
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&block)
		})
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *store) hasBlock(hash types.Hash) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blockKey(hash))
		return err
	})
	return err == nil
}

func (s *store) putHeight(hash types.Hash, height uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, height)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(heightKey(hash), buf)
	})
}

func (s *store) getHeight(hash types.Hash) (uint64, error) {
	var height uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(heightKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			height = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	return height, err
}

func (s *store) putTip(hash types.Hash) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tipKey), hash[:])
	})
}

func (s *store) putState(hash types.Hash, state types.StateMap) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey(hash), buf.Bytes())
	})
}

func (s *store) getState(hash types.Hash) (types.StateMap, error) {
	var state types.StateMap
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&state)
		})
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
