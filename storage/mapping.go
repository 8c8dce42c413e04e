// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/voltfi/vecore/ve"
)

// Key is anything that can key a Mapping.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction in the manner of a contract
// storage mapping: the cell slot is derived by hashing the key against the
// mapping's base position, values are RLP encoded.
type Mapping[K Key, V any] struct {
	context *Context
	basePos ve.Bytes32
}

// NewMapping declares a mapping rooted at pos within the context's namespace.
func NewMapping[K Key, V any](context *Context, pos ve.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) ve.Bytes32 {
	return ve.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value stored for key. An unset cell yields a zero value;
// pointer-typed values come back allocated, never nil.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value for key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete unsets the cell for key.
func (m *Mapping[K, V]) Delete(key K) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return nil, nil
	})
}
