// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state hosts the protocol's mutable storage: raw cells keyed by
// (component address, slot) on top of a kv store, journaled so that any
// operation can be reverted as a whole.
package state

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/voltfi/vecore/kv"
	"github.com/voltfi/vecore/stackedmap"
	"github.com/voltfi/vecore/ve"
)

const (
	storagePrefix = "s" // prefix of persisted storage cell keys

	readCacheSize = 65536
)

type storageKey struct {
	addr ve.Address
	key  ve.Bytes32
}

func (k *storageKey) persistent() []byte {
	b := make([]byte, 0, 1+ve.AddressLength+32)
	b = append(b, storagePrefix...)
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

// State manages the main accounting model of the protocol.
// All reads see pending writes; RevertTo discards everything written since
// the matching NewCheckpoint.
type State struct {
	store kv.GetPutter
	sm    *stackedmap.StackedMap[storageKey, []byte]
	cache *lru.Cache // committed raw values, under the journal
}

// New creates a state object attached to the given store.
func New(store kv.GetPutter) *State {
	cache, _ := lru.New(readCacheSize)
	st := &State{
		store: store,
		cache: cache,
	}
	st.sm = stackedmap.New(st.srcGetter)
	st.sm.Push() // base level collecting committed-to-be writes
	return st
}

func (s *State) srcGetter(key storageKey) ([]byte, bool, error) {
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]byte), true, nil
	}
	raw, err := s.store.Get(key.persistent())
	if err != nil {
		if s.store.IsNotFound(err) {
			s.cache.Add(key, []byte(nil))
			return nil, true, nil
		}
		return nil, false, errors.Wrap(err, "get storage")
	}
	s.cache.Add(key, raw)
	return raw, true, nil
}

// GetRawStorage returns the raw cell value. Empty means unset.
func (s *State) GetRawStorage(addr ve.Address, key ve.Bytes32) (rlp.RawValue, error) {
	raw, _, err := s.sm.Get(storageKey{addr, key})
	return raw, err
}

// SetRawStorage sets the raw cell value. Empty unsets the cell.
func (s *State) SetRawStorage(addr ve.Address, key ve.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns a cell decoded as Bytes32.
func (s *State) GetStorage(addr ve.Address, key ve.Bytes32) (ve.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return ve.Bytes32{}, err
	}
	if len(raw) == 0 {
		return ve.Bytes32{}, nil
	}
	var b []byte
	if err := rlp.DecodeBytes(raw, &b); err != nil {
		return ve.Bytes32{}, errors.Wrap(err, "decode storage")
	}
	return ve.BytesToBytes32(b), nil
}

// SetStorage sets a cell to a Bytes32 value, trimmed of leading zeros.
func (s *State) SetStorage(addr ve.Address, key, value ve.Bytes32) {
	trimmed := bytes.TrimLeft(value[:], "\x00")
	if len(trimmed) == 0 {
		s.SetRawStorage(addr, key, nil)
		return
	}
	encoded, _ := rlp.EncodeToBytes(trimmed)
	s.SetRawStorage(addr, key, encoded)
}

// EncodeStorage sets the cell to the value encoded by enc.
// An encoder returning nil bytes unsets the cell.
func (s *State) EncodeStorage(addr ve.Address, key ve.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return err
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage passes the cell's raw value into dec.
// Unset cells yield empty bytes.
func (s *State) DecodeStorage(addr ve.Address, key ve.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	return dec(raw)
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns the checkpoint to be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint, discarding all writes
// since. The checkpoint and all later ones become invalid.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit persists all journaled writes into the backing store in one batch,
// then resets the journal.
func (s *State) Commit() error {
	final := make(map[storageKey][]byte)
	s.sm.Journal(func(key storageKey, value []byte) bool {
		final[key] = value
		return true
	})

	batch := s.store.NewBatch()
	for key, value := range final {
		if len(value) == 0 {
			if err := batch.Delete(key.persistent()); err != nil {
				return err
			}
		} else if err := batch.Put(key.persistent(), value); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}

	for key, value := range final {
		s.cache.Add(key, value)
	}
	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
