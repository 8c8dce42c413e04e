// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lock implements the lock ledger: lock records, their conversion to
// decay pairs, and the create/increase/unlock operations.
package lock

import (
	"encoding/binary"
	"math/big"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/ve"
)

// Lock is one locked position. A lock is never deleted; it expires logically
// when its decay pair reaches zero, and Amount is zeroed on withdrawal.
type Lock struct {
	Owner    ve.Address
	Amount   *big.Int
	Expiry   uint64
	Delegate *ve.Address `rlp:"nil"`
}

// Exists reports whether the record is a stored lock rather than the zero
// value of an unset cell.
func (l *Lock) Exists() bool {
	return l.Amount != nil && l.Expiry != 0
}

// IsDelegated reports whether the lock's power is currently assigned to a
// delegate.
func (l *Lock) IsDelegated() bool {
	return l.Delegate != nil
}

// Balance converts the lock to its decay pair. The conversion is
// time-invariant: the pair changes only through an explicit amount or
// duration update.
func (l *Lock) Balance() *decay.VeBalance {
	slope := new(big.Int).Div(l.Amount, new(big.Int).SetUint64(ve.MaxLockDuration))
	return decay.NewVeBalance(slope, l.Expiry)
}

// ID keys a lock in storage.
type ID uint64

// Bytes implements storage.Key.
func (id ID) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}
