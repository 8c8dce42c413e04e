// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/lock"
	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/lvldb"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var (
	owner = ve.BytesToAddress([]byte("owner"))
	delA  = ve.BytesToAddress([]byte("delegate-a"))
	delB  = ve.BytesToAddress([]byte("delegate-b"))
)

type fixture struct {
	svc   *Service
	locks *lock.Service
	dec   *decay.Service
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	dec := decay.New(storage.NewContext(ve.BytesToAddress([]byte("decay")), st))
	par := params.New(ve.BytesToAddress([]byte("params")), st)
	locks := lock.New(storage.NewContext(ve.BytesToAddress([]byte("lock")), st), dec, par)
	return &fixture{svc: New(locks, dec), locks: locks, dec: dec}
}

func bound(e uint64) uint64 { return ve.EpochStart(e) }

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).SetUint64(ve.MaxLockDuration))
}

func (f *fixture) create(t *testing.T, amount *big.Int, expiry, now uint64) lock.ID {
	id, err := f.locks.Create(owner, amount, expiry, now)
	require.NoError(t, err)
	return id
}

func (f *fixture) endOfEpoch(t *testing.T, id decay.LedgerID, epoch uint64) *big.Int {
	v, err := f.dec.ValueAtEpochEnd(id, epoch)
	require.NoError(t, err)
	return v
}

func TestDelegateGuards(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100

	id := f.create(t, units(4), bound(7), now)
	err := f.svc.Delegate(owner, id, delA, now)
	assert.Equal(t, reverts.CodeInvalidDuration, reverts.CodeOf(err), "fewer than three epochs left")

	id = f.create(t, units(4), bound(10), now)
	require.NoError(t, f.svc.Delegate(owner, id, delA, now))

	err = f.svc.Delegate(owner, id, delB, now)
	assert.Equal(t, reverts.CodeWrongState, reverts.CodeOf(err), "already delegated")

	err = f.svc.Undelegate(ve.BytesToAddress([]byte("x")), id, now)
	assert.Equal(t, reverts.CodeWrongCaller, reverts.CodeOf(err))

	err = f.svc.Delegate(owner, id, ve.Address{}, now)
	assert.Equal(t, reverts.CodeInvalidAmount, reverts.CodeOf(err), "zero delegate")
}

func TestDelegationLandsAtNextBoundary(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	expiry := bound(10)

	id := f.create(t, units(6), expiry, now)
	require.NoError(t, f.svc.Delegate(owner, id, delA, now))

	personal := decay.AccountLedger(decay.RolePersonal, owner)
	delegate := decay.AccountLedger(decay.RoleDelegate, delA)
	pairLedger := decay.PairLedger(owner, delA)

	// epoch 5: power still fully personal
	assert.Positive(t, f.endOfEpoch(t, personal, 5).Sign())
	assert.Zero(t, f.endOfEpoch(t, delegate, 5).Sign())
	assert.Zero(t, f.endOfEpoch(t, pairLedger, 5).Sign())

	// epoch 6: power fully moved, mirrored on the pair stream
	want := new(big.Int).Mul(big.NewInt(6), new(big.Int).SetUint64(expiry-bound(7)))
	assert.Zero(t, f.endOfEpoch(t, personal, 6).Sign())
	assert.Equal(t, want.String(), f.endOfEpoch(t, delegate, 6).String())
	assert.Equal(t, want.String(), f.endOfEpoch(t, pairLedger, 6).String())

	// delegate's power decays to zero at the lock's expiry
	assert.Zero(t, f.endOfEpoch(t, delegate, 10).Sign())

	// the global aggregate never moved
	global := new(big.Int).Mul(big.NewInt(6), new(big.Int).SetUint64(expiry-bound(6)))
	assert.Equal(t, global.String(), f.endOfEpoch(t, decay.GlobalLedger(), 5).String())
}

func TestUndelegateReturnsPower(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	expiry := bound(10)

	id := f.create(t, units(6), expiry, now)
	require.NoError(t, f.svc.Delegate(owner, id, delA, now))

	later := bound(7) + 5
	require.NoError(t, f.svc.Undelegate(owner, id, later))

	personal := decay.AccountLedger(decay.RolePersonal, owner)
	delegate := decay.AccountLedger(decay.RoleDelegate, delA)

	assert.Zero(t, f.endOfEpoch(t, personal, 7).Sign())
	assert.Positive(t, f.endOfEpoch(t, delegate, 7).Sign())

	want := new(big.Int).Mul(big.NewInt(6), new(big.Int).SetUint64(expiry-bound(9)))
	assert.Equal(t, want.String(), f.endOfEpoch(t, personal, 8).String())
	assert.Zero(t, f.endOfEpoch(t, delegate, 8).Sign())

	l, err := f.locks.Get(id)
	require.NoError(t, err)
	assert.False(t, l.IsDelegated())
}

// undelegate immediately followed by delegate to another target within one
// epoch must land exactly like a switch: the personal credit and debit at
// the next boundary cancel.
func TestUndelegateThenDelegateEqualsSwitch(t *testing.T) {
	run := func(t *testing.T, act func(f *fixture, id lock.ID, now uint64)) (personal, a, b *big.Int) {
		f := newFixture(t)
		now := bound(5) + 100
		id := f.create(t, units(6), bound(12), now)
		require.NoError(t, f.svc.Delegate(owner, id, delA, now))

		act(f, id, bound(7)+50)

		return f.endOfEpoch(t, decay.AccountLedger(decay.RolePersonal, owner), 8),
			f.endOfEpoch(t, decay.AccountLedger(decay.RoleDelegate, delA), 8),
			f.endOfEpoch(t, decay.AccountLedger(decay.RoleDelegate, delB), 8)
	}

	p1, a1, b1 := run(t, func(f *fixture, id lock.ID, now uint64) {
		require.NoError(t, f.svc.Undelegate(owner, id, now))
		require.NoError(t, f.svc.Delegate(owner, id, delB, now))
	})
	p2, a2, b2 := run(t, func(f *fixture, id lock.ID, now uint64) {
		require.NoError(t, f.svc.Switch(owner, id, delB, now))
	})

	assert.Equal(t, p2.String(), p1.String())
	assert.Equal(t, a2.String(), a1.String())
	assert.Equal(t, b2.String(), b1.String())
	assert.Zero(t, p1.Sign())
	assert.Zero(t, a1.Sign())
	assert.Positive(t, b1.Sign())
}

func TestDelegatedLockAmountIncreaseForwardBooked(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	expiry := bound(12)

	id := f.create(t, units(4), expiry, now)
	require.NoError(t, f.svc.Delegate(owner, id, delA, now))

	// increase lands in epoch 7, booked to B(8)
	require.NoError(t, f.locks.IncreaseAmount(owner, id, units(2), bound(7)+10))

	delegate := decay.AccountLedger(decay.RoleDelegate, delA)
	at7 := new(big.Int).Mul(big.NewInt(4), new(big.Int).SetUint64(expiry-bound(8)))
	assert.Equal(t, at7.String(), f.endOfEpoch(t, delegate, 7).String())

	at8 := new(big.Int).Mul(big.NewInt(6), new(big.Int).SetUint64(expiry-bound(9)))
	assert.Equal(t, at8.String(), f.endOfEpoch(t, delegate, 8).String())
}

func TestPairPowerAtEpochEnd(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	expiry := bound(10)

	id := f.create(t, units(6), expiry, now)
	require.NoError(t, f.svc.Delegate(owner, id, delA, now))

	v, err := f.svc.PairPowerAtEpochEnd(owner, delA, 6)
	require.NoError(t, err)
	want := new(big.Int).Mul(big.NewInt(6), new(big.Int).SetUint64(expiry-bound(7)))
	assert.Equal(t, want.String(), v.String())

	v, err = f.svc.PairPowerAtEpochEnd(owner, delB, 6)
	require.NoError(t, err)
	assert.Zero(t, v.Sign())
}
