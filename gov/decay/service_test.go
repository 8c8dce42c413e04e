// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decay

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltfi/vecore/lvldb"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

func newTestService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	return New(storage.NewContext(ve.BytesToAddress([]byte("decay")), st))
}

func bound(e uint64) uint64 { return ve.EpochStart(e) }

func TestVeBalance(t *testing.T) {
	slope := big.NewInt(100)
	expiry := bound(10)
	v := NewVeBalance(slope, expiry)

	assert.Equal(t, big.NewInt(0).String(), v.ValueAt(expiry).String())
	assert.Equal(t, big.NewInt(0).String(), v.ValueAt(expiry+1).String(), "floored past expiry")
	assert.Equal(t,
		new(big.Int).Mul(slope, big.NewInt(int64(ve.EpochDuration))).String(),
		v.ValueAt(bound(9)).String())
}

func TestAdvanceFirstTouch(t *testing.T) {
	s := newTestService(t)
	id := AccountLedger(RolePersonal, ve.BytesToAddress([]byte("a1")))

	bal, err := s.Advance(id, bound(5)+100)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	last, err := s.LastUpdated(id)
	require.NoError(t, err)
	assert.Equal(t, bound(5), last)

	// the first touch writes no history before itself
	prev, err := s.BalanceAt(id, bound(4))
	require.NoError(t, err)
	assert.True(t, prev.IsZero())
}

func TestAdvanceConsumesSlopeChange(t *testing.T) {
	s := newTestService(t)
	id := AccountLedger(RolePersonal, ve.BytesToAddress([]byte("a1")))

	slope := big.NewInt(7)
	expiry := bound(8)

	_, err := s.Advance(id, bound(4))
	require.NoError(t, err)
	require.NoError(t, s.Adjust(id, bound(4), NewVeBalance(slope, expiry), nil))
	require.NoError(t, s.ScheduleSlopeChange(id, expiry, slope))

	// up to expiry the pair is intact and only the evaluation moves
	bal, err := s.Advance(id, bound(7))
	require.NoError(t, err)
	assert.Equal(t, slope.String(), bal.Slope.String())

	// at expiry the scheduled change zeroes the position exactly
	bal, err = s.Advance(id, bound(9))
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestPendingDeltaAppliedOnce(t *testing.T) {
	s := newTestService(t)
	id := AccountLedger(RoleDelegate, ve.BytesToAddress([]byte("d1")))

	slope := big.NewInt(5)
	pair := NewVeBalance(slope, bound(20))

	_, err := s.Advance(id, bound(3))
	require.NoError(t, err)
	require.NoError(t, s.BookPending(id, bound(4), pair, nil))

	// visible to a pure read past the booking boundary before any advance
	peek, err := s.BalanceAt(id, bound(4))
	require.NoError(t, err)
	assert.Equal(t, pair.Bias.String(), peek.Bias.String())

	bal, err := s.Advance(id, bound(4))
	require.NoError(t, err)
	assert.Equal(t, pair.Bias.String(), bal.Bias.String())
	assert.Equal(t, pair.Slope.String(), bal.Slope.String())

	// consumed: advancing further must not apply it again
	bal, err = s.Advance(id, bound(6))
	require.NoError(t, err)
	assert.Equal(t, pair.Slope.String(), bal.Slope.String())

	d, err := s.PendingAt(id, bound(4))
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestPendingDeltasStack(t *testing.T) {
	s := newTestService(t)
	id := AccountLedger(RoleDelegate, ve.BytesToAddress([]byte("d1")))

	a := NewVeBalance(big.NewInt(3), bound(30))
	b := NewVeBalance(big.NewInt(11), bound(40))

	_, err := s.Advance(id, bound(2))
	require.NoError(t, err)
	require.NoError(t, s.BookPending(id, bound(3), a, nil))
	require.NoError(t, s.BookPending(id, bound(3), b, nil))
	require.NoError(t, s.BookPending(id, bound(3), nil, a))

	bal, err := s.Advance(id, bound(3))
	require.NoError(t, err)
	assert.Equal(t, b.Bias.String(), bal.Bias.String())
	assert.Equal(t, b.Slope.String(), bal.Slope.String())
}

func TestBalanceAtPureReconstruction(t *testing.T) {
	s := newTestService(t)
	id := AccountLedger(RolePersonal, ve.BytesToAddress([]byte("a2")))

	slope := big.NewInt(9)
	expiry := bound(12)

	_, err := s.Advance(id, bound(5))
	require.NoError(t, err)
	require.NoError(t, s.Adjust(id, bound(5), NewVeBalance(slope, expiry), nil))
	require.NoError(t, s.ScheduleSlopeChange(id, expiry, slope))

	// beyond the written range: simulate without writing
	for i := 0; i < 2; i++ {
		at, err := s.BalanceAt(id, bound(14))
		require.NoError(t, err)
		assert.True(t, at.IsZero())

		at, err = s.BalanceAt(id, bound(11))
		require.NoError(t, err)
		assert.Equal(t, slope.String(), at.Slope.String())
	}
	last, err := s.LastUpdated(id)
	require.NoError(t, err)
	assert.Equal(t, bound(5), last, "pure read must not move the cursor")

	// the mutating walk then lands on the same values
	bal, err := s.Advance(id, bound(11))
	require.NoError(t, err)
	assert.Equal(t, slope.String(), bal.Slope.String())
	bal, err = s.Advance(id, bound(14))
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestValueAtEpochEnd(t *testing.T) {
	s := newTestService(t)
	id := AccountLedger(RolePersonal, ve.BytesToAddress([]byte("a3")))

	slope := big.NewInt(4)
	expiry := bound(10)

	_, err := s.Advance(id, bound(6))
	require.NoError(t, err)
	require.NoError(t, s.Adjust(id, bound(6), NewVeBalance(slope, expiry), nil))
	require.NoError(t, s.ScheduleSlopeChange(id, expiry, slope))

	// frozen value of epoch 6: pair at B(6) evaluated at B(7)
	want := new(big.Int).Mul(slope, big.NewInt(int64(expiry-bound(7))))
	got, err := s.ValueAtEpochEnd(id, 6)
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.String())

	// mid-epoch adjustments do not retroactively change it
	require.NoError(t, s.Adjust(id, bound(6)+100, NewVeBalance(big.NewInt(50), bound(20)), nil))
	require.NoError(t, s.ScheduleSlopeChange(id, bound(20), big.NewInt(50)))
	got2, err := s.ValueAtEpochEnd(id, 6)
	require.NoError(t, err)
	assert.NotEqual(t, want.String(), got2.String(), "same-epoch updates shift the frozen value")

	// the first position reaches exactly zero at B(10); only the second
	// contributes to epoch 9's frozen value
	want9 := new(big.Int).Mul(big.NewInt(50), big.NewInt(int64(bound(20)-bound(10))))
	got, err = s.ValueAtEpochEnd(id, 9)
	require.NoError(t, err)
	assert.Equal(t, want9.String(), got.String())
}

func TestUnscheduleSlopeChange(t *testing.T) {
	s := newTestService(t)
	id := GlobalLedger()

	slope := big.NewInt(13)
	require.NoError(t, s.ScheduleSlopeChange(id, bound(9), slope))
	require.NoError(t, s.ScheduleSlopeChange(id, bound(9), slope))
	require.NoError(t, s.UnscheduleSlopeChange(id, bound(9), slope))

	sc, err := s.SlopeChangeAt(id, bound(9))
	require.NoError(t, err)
	assert.Equal(t, slope.String(), sc.String())
}
