// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voting

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/delegation"
	"github.com/voltfi/vecore/gov/fees"
	"github.com/voltfi/vecore/gov/lock"
	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/lvldb"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var (
	voter = ve.BytesToAddress([]byte("voter"))
	delA  = ve.BytesToAddress([]byte("delegate-a"))
	poolX = ve.BytesToAddress([]byte("pool-x"))
	poolY = ve.BytesToAddress([]byte("pool-y"))
)

type fixture struct {
	svc        *Service
	locks      *lock.Service
	delegation *delegation.Service
	fees       *fees.Service
	dec        *decay.Service
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	dec := decay.New(storage.NewContext(ve.BytesToAddress([]byte("decay")), st))
	par := params.New(ve.BytesToAddress([]byte("params")), st)
	locks := lock.New(storage.NewContext(ve.BytesToAddress([]byte("lock")), st), dec, par)
	fee := fees.New(storage.NewContext(ve.BytesToAddress([]byte("fees")), st), par)
	f := &fixture{
		svc:        New(storage.NewContext(ve.BytesToAddress([]byte("voting")), st), dec, fee),
		locks:      locks,
		delegation: delegation.New(locks, dec),
		fees:       fee,
		dec:        dec,
	}
	require.NoError(t, f.svc.AddPool(poolX))
	require.NoError(t, f.svc.AddPool(poolY))
	return f
}

func bound(e uint64) uint64 { return ve.EpochStart(e) }

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).SetUint64(ve.MaxLockDuration))
}

func (f *fixture) lockFor(t *testing.T, owner ve.Address, slopeUnits int64, expiry, now uint64) lock.ID {
	id, err := f.locks.Create(owner, units(slopeUnits), expiry, now)
	require.NoError(t, err)
	return id
}

// power reads the exact end-of-epoch voting power of an account.
func (f *fixture) power(t *testing.T, role decay.Role, account ve.Address, epoch uint64) *big.Int {
	v, err := f.dec.ValueAtEpochEnd(decay.AccountLedger(role, account), epoch)
	require.NoError(t, err)
	return v
}

func TestPoolRegistry(t *testing.T) {
	f := newFixture(t)

	count, err := f.svc.ActivePoolCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	assert.Equal(t, reverts.CodeAlreadyDone, reverts.CodeOf(f.svc.AddPool(poolX)))

	require.NoError(t, f.svc.RemovePool(poolX))
	count, err = f.svc.ActivePoolCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	assert.Equal(t, reverts.CodeInactivePool, reverts.CodeOf(f.svc.RemovePool(poolX)))

	require.NoError(t, f.svc.AddPool(poolX))
	active, err := f.svc.IsActive(poolX)
	require.NoError(t, err)
	assert.True(t, active)
}

// closing an epoch snapshots which pools were active at that moment; later
// listing changes leave the snapshot untouched.
func TestCloseSnapshotsActiveSet(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.RemovePool(poolY))

	count, err := f.svc.Close(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	was, err := f.svc.WasActive(5, poolX)
	require.NoError(t, err)
	assert.True(t, was)
	was, err = f.svc.WasActive(5, poolY)
	require.NoError(t, err)
	assert.False(t, was)

	require.NoError(t, f.svc.AddPool(poolY))
	was, err = f.svc.WasActive(5, poolY)
	require.NoError(t, err)
	assert.False(t, was, "relisting does not rewrite a closed epoch")
}

func TestVoteValidation(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	f.lockFor(t, voter, 3, bound(10), now)
	power := f.power(t, decay.RolePersonal, voter, 5)

	err := f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{big.NewInt(1), big.NewInt(2)}, false, now)
	assert.Equal(t, reverts.CodeLengthMismatch, reverts.CodeOf(err))

	dead := ve.BytesToAddress([]byte("unlisted"))
	err = f.svc.Vote(voter, []ve.Address{dead}, []*big.Int{big.NewInt(1)}, false, now)
	assert.Equal(t, reverts.CodeInactivePool, reverts.CodeOf(err))

	wide := make([]ve.Address, maxVotePools.Get()+1)
	wideAmounts := make([]*big.Int, len(wide))
	for i := range wide {
		wide[i] = poolX
		wideAmounts[i] = big.NewInt(1)
	}
	err = f.svc.Vote(voter, wide, wideAmounts, false, now)
	assert.Equal(t, reverts.CodeLengthMismatch, reverts.CodeOf(err))

	over := new(big.Int).Add(power, big.NewInt(1))
	err = f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{over}, false, now)
	assert.Equal(t, reverts.CodeInsufficient, reverts.CodeOf(err))

	_, err = f.svc.Close(5)
	require.NoError(t, err)
	err = f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{big.NewInt(1)}, false, now)
	assert.Equal(t, reverts.CodeWrongState, reverts.CodeOf(err))
}

func TestSpentAccumulatesAcrossCalls(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	f.lockFor(t, voter, 3, bound(10), now)
	power := f.power(t, decay.RolePersonal, voter, 5)

	part := new(big.Int).Div(power, big.NewInt(3))
	rest := new(big.Int).Sub(power, part)
	require.NoError(t, f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{part}, false, now))
	require.NoError(t, f.svc.Vote(voter, []ve.Address{poolY}, []*big.Int{rest}, false, now))

	err := f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{big.NewInt(1)}, false, now)
	assert.Equal(t, reverts.CodeInsufficient, reverts.CodeOf(err), "power exhausted")

	spent, err := f.svc.Spent(5, decay.RolePersonal, voter)
	require.NoError(t, err)
	assert.Equal(t, power.String(), spent.String())
}

// cast 1000 votes, migrate 40% to a second pool within the same epoch:
// source 600, destination 400, epoch total unchanged.
func TestMigrateVotes(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	f.lockFor(t, voter, 3, bound(10), now)

	require.NoError(t, f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{big.NewInt(1000)}, false, now))
	require.NoError(t, f.svc.MigrateVotes(voter,
		[]ve.Address{poolX}, []ve.Address{poolY}, []*big.Int{big.NewInt(400)}, false, now))

	pvX, err := f.svc.PoolVotes(5, poolX)
	require.NoError(t, err)
	assert.Equal(t, "600", pvX.String())
	pvY, err := f.svc.PoolVotes(5, poolY)
	require.NoError(t, err)
	assert.Equal(t, "400", pvY.String())

	total, err := f.svc.TotalVotes(5)
	require.NoError(t, err)
	assert.Equal(t, "1000", total.String())

	// a delisted source still releases votes; an inactive destination does
	// not accept them
	require.NoError(t, f.svc.RemovePool(poolX))
	require.NoError(t, f.svc.MigrateVotes(voter,
		[]ve.Address{poolX}, []ve.Address{poolY}, []*big.Int{big.NewInt(100)}, false, now))
	err = f.svc.MigrateVotes(voter,
		[]ve.Address{poolY}, []ve.Address{poolX}, []*big.Int{big.NewInt(100)}, false, now)
	assert.Equal(t, reverts.CodeInactivePool, reverts.CodeOf(err))

	err = f.svc.MigrateVotes(voter,
		[]ve.Address{poolX}, []ve.Address{poolY}, []*big.Int{big.NewInt(10000)}, false, now)
	assert.Equal(t, reverts.CodeInsufficient, reverts.CodeOf(err))

	// same per-call pool cap as Vote
	wideSrc := make([]ve.Address, maxVotePools.Get()+1)
	wideDst := make([]ve.Address, len(wideSrc))
	wideAmounts := make([]*big.Int, len(wideSrc))
	for i := range wideSrc {
		wideSrc[i] = poolX
		wideDst[i] = poolY
		wideAmounts[i] = big.NewInt(1)
	}
	err = f.svc.MigrateVotes(voter, wideSrc, wideDst, wideAmounts, false, now)
	assert.Equal(t, reverts.CodeLengthMismatch, reverts.CodeOf(err))
}

// personal vote in epoch N then delegation in epoch N: the delegate's
// end-of-epoch power for N stays zero, the delegation lands at N+1.
func TestDoubleVotePrevention(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	id := f.lockFor(t, voter, 3, bound(12), now)

	require.NoError(t, f.svc.Vote(voter, []ve.Address{poolX}, []*big.Int{big.NewInt(1000)}, false, now))
	require.NoError(t, f.delegation.Delegate(voter, id, delA, now))

	require.NoError(t, f.fees.Register(delA, big.NewInt(1e17)))
	err := f.svc.Vote(delA, []ve.Address{poolX}, []*big.Int{big.NewInt(1)}, true, now)
	assert.Equal(t, reverts.CodeInsufficient, reverts.CodeOf(err),
		"delegate has no power in the delegation epoch")

	power, err := f.dec.ValueAtEpochEnd(decay.AccountLedger(decay.RoleDelegate, delA), 6)
	require.NoError(t, err)
	assert.Positive(t, power.Sign(), "effect lands at the next epoch")
}

func TestDelegatedVoteRecordsFee(t *testing.T) {
	f := newFixture(t)
	now := bound(5) + 100
	id := f.lockFor(t, voter, 3, bound(12), now)
	require.NoError(t, f.delegation.Delegate(voter, id, delA, now))

	later := bound(6) + 10

	// an unregistered delegate cannot cast delegated votes
	err := f.svc.Vote(delA, []ve.Address{poolX}, []*big.Int{big.NewInt(10)}, true, later)
	assert.Equal(t, reverts.CodeNotFound, reverts.CodeOf(err))

	fee := big.NewInt(1e17)
	require.NoError(t, f.fees.Register(delA, fee))
	require.NoError(t, f.svc.Vote(delA, []ve.Address{poolX}, []*big.Int{big.NewInt(10)}, true, later))

	recorded, err := f.fees.FeeAt(delA, 6)
	require.NoError(t, err)
	assert.Equal(t, fee.String(), recorded.String())
}
