// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decay

import (
	"encoding/binary"

	"github.com/voltfi/vecore/ve"
)

// Role tags which side of delegation a ledger accounts for. Both roles run
// the same decay algebra; the tag only namespaces the storage.
type Role uint8

const (
	// RolePersonal is an account's own, undelegated voting power.
	RolePersonal Role = iota
	// RoleDelegate is the power aggregated onto an account by its delegators.
	RoleDelegate
	// rolePair is the per-(delegator,delegate) aggregation stream used for
	// reward attribution. Internal; addressed via PairLedger.
	rolePair
	// roleGlobal is the protocol-wide aggregate.
	roleGlobal
)

// LedgerID identifies one decay ledger: a role-tagged account, a
// delegator/delegate pair, or the global aggregate.
type LedgerID struct {
	key []byte
}

// Bytes implements storage.Key.
func (id LedgerID) Bytes() []byte {
	return id.key
}

// AccountLedger returns the ledger of addr under the given role.
func AccountLedger(role Role, addr ve.Address) LedgerID {
	key := make([]byte, 0, 1+ve.AddressLength)
	key = append(key, byte(role))
	return LedgerID{append(key, addr.Bytes()...)}
}

// PairLedger returns the aggregation ledger of power delegated by delegator
// to delegate.
func PairLedger(delegator, delegate ve.Address) LedgerID {
	key := make([]byte, 0, 1+2*ve.AddressLength)
	key = append(key, byte(rolePair))
	key = append(key, delegator.Bytes()...)
	return LedgerID{append(key, delegate.Bytes()...)}
}

// GlobalLedger returns the protocol-wide aggregate ledger.
func GlobalLedger() LedgerID {
	return LedgerID{[]byte{byte(roleGlobal)}}
}

// boundKey keys a ledger's per-boundary entries (checkpoints, scheduled
// slope changes, pending deltas).
type boundKey struct {
	id LedgerID
	ts uint64
}

// Bytes implements storage.Key.
func (k boundKey) Bytes() []byte {
	b := make([]byte, 0, len(k.id.key)+8)
	b = append(b, k.id.key...)
	return binary.BigEndian.AppendUint64(b, k.ts)
}
