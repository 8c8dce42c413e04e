// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lock

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/lvldb"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var (
	owner    = ve.BytesToAddress([]byte("owner"))
	stranger = ve.BytesToAddress([]byte("stranger"))
)

func newTestService(t *testing.T) (*Service, *decay.Service) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	dec := decay.New(storage.NewContext(ve.BytesToAddress([]byte("decay")), st))
	par := params.New(ve.BytesToAddress([]byte("params")), st)
	return New(storage.NewContext(ve.BytesToAddress([]byte("lock")), st), dec, par), dec
}

func bound(e uint64) uint64 { return ve.EpochStart(e) }

// units returns a principal worth n slope units.
func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).SetUint64(ve.MaxLockDuration))
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestService(t)
	now := bound(5) + 100

	_, err := s.Create(owner, big.NewInt(0), bound(10), now)
	assert.Equal(t, reverts.CodeInvalidAmount, reverts.CodeOf(err))

	_, err = s.Create(owner, units(1), bound(10)+1, now)
	assert.Equal(t, reverts.CodeMisaligned, reverts.CodeOf(err))

	_, err = s.Create(owner, units(1), bound(6), now)
	assert.Equal(t, reverts.CodeInvalidDuration, reverts.CodeOf(err), "less than two whole epochs")

	_, err = s.Create(owner, units(1), bound(5)+ve.MaxLockDuration+ve.EpochDuration, now)
	assert.Equal(t, reverts.CodeInvalidDuration, reverts.CodeOf(err), "beyond max duration")

	_, err = s.Create(owner, big.NewInt(1), bound(10), now)
	assert.Equal(t, reverts.CodeInvalidAmount, reverts.CodeOf(err), "below minimum amount")
}

func TestCreateCreditsLedgers(t *testing.T) {
	s, dec := newTestService(t)
	now := bound(5) + 100
	expiry := bound(10)

	id, err := s.Create(owner, units(7), expiry, now)
	require.NoError(t, err)
	assert.Equal(t, ID(1), id)

	personal := decay.AccountLedger(decay.RolePersonal, owner)
	// slope = 7; end-of-epoch 5 power = 7 * (expiry - B(6))
	want := new(big.Int).Mul(big.NewInt(7), new(big.Int).SetUint64(expiry-bound(6)))
	for _, lid := range []decay.LedgerID{personal, decay.GlobalLedger()} {
		got, err := dec.ValueAtEpochEnd(lid, 5)
		require.NoError(t, err)
		assert.Equal(t, want.String(), got.String())

		sc, err := dec.SlopeChangeAt(lid, expiry)
		require.NoError(t, err)
		assert.Equal(t, "7", sc.String())
	}
}

func TestMinimumDurationBoundary(t *testing.T) {
	s, dec := newTestService(t)
	now := bound(5) + 100

	// exactly current+2: one epoch of non-zero end-of-epoch power
	_, err := s.Create(owner, units(3), bound(7), now)
	require.NoError(t, err)

	personal := decay.AccountLedger(decay.RolePersonal, owner)
	v5, err := dec.ValueAtEpochEnd(personal, 5)
	require.NoError(t, err)
	assert.Positive(t, v5.Sign())

	v6, err := dec.ValueAtEpochEnd(personal, 6)
	require.NoError(t, err)
	assert.Zero(t, v6.Sign())
}

func TestIncreaseAmount(t *testing.T) {
	s, dec := newTestService(t)
	now := bound(5) + 100
	expiry := bound(10)

	id, err := s.Create(owner, units(4), expiry, now)
	require.NoError(t, err)

	require.Equal(t, reverts.CodeWrongCaller,
		reverts.CodeOf(s.IncreaseAmount(stranger, id, units(1), now)))

	require.NoError(t, s.IncreaseAmount(owner, id, units(2), now+50))

	l, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, units(6).String(), l.Amount.String())

	personal := decay.AccountLedger(decay.RolePersonal, owner)
	sc, err := dec.SlopeChangeAt(personal, expiry)
	require.NoError(t, err)
	assert.Equal(t, "6", sc.String(), "old schedule entry replaced, not stacked")

	want := new(big.Int).Mul(big.NewInt(6), new(big.Int).SetUint64(expiry-bound(6)))
	got, err := dec.ValueAtEpochEnd(personal, 5)
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.String())
}

func TestIncreaseDuration(t *testing.T) {
	s, dec := newTestService(t)
	now := bound(5) + 100

	id, err := s.Create(owner, units(4), bound(10), now)
	require.NoError(t, err)

	require.Equal(t, reverts.CodeInvalidDuration,
		reverts.CodeOf(s.IncreaseDuration(owner, id, bound(10), now)), "not extended")

	require.NoError(t, s.IncreaseDuration(owner, id, bound(12), now))

	personal := decay.AccountLedger(decay.RolePersonal, owner)
	sc, err := dec.SlopeChangeAt(personal, bound(10))
	require.NoError(t, err)
	assert.Zero(t, sc.Sign(), "old expiry entry removed")
	sc, err = dec.SlopeChangeAt(personal, bound(12))
	require.NoError(t, err)
	assert.Equal(t, "4", sc.String())

	// power now decays to zero at the new expiry; epoch 11 is evaluated
	// at bound(12) which is exactly the expiry
	v, err := dec.ValueAtEpochEnd(personal, 10)
	require.NoError(t, err)
	assert.Positive(t, v.Sign())
	v, err = dec.ValueAtEpochEnd(personal, 11)
	require.NoError(t, err)
	assert.Zero(t, v.Sign())
}

func TestUnlock(t *testing.T) {
	s, _ := newTestService(t)
	now := bound(5) + 100

	id, err := s.Create(owner, units(4), bound(7), now)
	require.NoError(t, err)

	_, err = s.Unlock(owner, id, bound(7)-1)
	assert.Equal(t, reverts.CodeWrongState, reverts.CodeOf(err), "not expired yet")

	amount, err := s.Unlock(owner, id, bound(7))
	require.NoError(t, err)
	assert.Equal(t, units(4).String(), amount.String())

	_, err = s.Unlock(owner, id, bound(7)+10)
	assert.Equal(t, reverts.CodeAlreadyDone, reverts.CodeOf(err))
}

func TestExpiredLockRejectsUpdates(t *testing.T) {
	s, _ := newTestService(t)
	now := bound(5) + 100

	id, err := s.Create(owner, units(4), bound(7), now)
	require.NoError(t, err)

	later := bound(7) + 10
	assert.Equal(t, reverts.CodeWrongState,
		reverts.CodeOf(s.IncreaseAmount(owner, id, units(1), later)))
	assert.Equal(t, reverts.CodeWrongState,
		reverts.CodeOf(s.IncreaseDuration(owner, id, bound(12), later)))
}
