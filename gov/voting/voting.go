// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voting records per-epoch vote allocations across pools, scoped by
// role: an account votes either with its personal power or, as a delegate,
// with the power aggregated onto it. Votes bind to the epoch they are cast
// in and never carry over.
package voting

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/fees"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var logger = log.WithContext("pkg", "voting")

var (
	slotPools        = ve.BytesToBytes32([]byte("pools"))
	slotPoolIndex    = ve.BytesToBytes32([]byte("pool-index"))
	slotPoolCount    = ve.BytesToBytes32([]byte("pool-count"))
	slotActiveCount  = ve.BytesToBytes32([]byte("active-pool-count"))
	slotEpochActive  = ve.BytesToBytes32([]byte("epoch-active"))
	slotPoolVotes    = ve.BytesToBytes32([]byte("pool-votes"))
	slotTotalVotes   = ve.BytesToBytes32([]byte("total-votes"))
	slotAccountVotes = ve.BytesToBytes32([]byte("account-votes"))
	slotSpent        = ve.BytesToBytes32([]byte("spent"))
	slotClosed       = ve.BytesToBytes32([]byte("closed"))
)

// maxVotePools caps the pools addressed by a single vote call.
var maxVotePools = storage.NewConfigVariable("voting.max-pools", 32)

// Pool is a votable target. A delisted pool keeps its vote history; it only
// stops accepting new votes.
type Pool struct {
	Listed bool
	Active bool
}

type epochKey uint64

func (k epochKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

type indexKey uint64

func (k indexKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

type poolEpochKey struct {
	epoch uint64
	pool  ve.Address
}

func (k poolEpochKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	return append(b, k.pool.Bytes()...)
}

type accountVoteKey struct {
	epoch   uint64
	pool    ve.Address
	role    decay.Role
	account ve.Address
}

func (k accountVoteKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	b = append(b, k.pool.Bytes()...)
	b = append(b, byte(k.role))
	return append(b, k.account.Bytes()...)
}

type spentKey struct {
	epoch   uint64
	role    decay.Role
	account ve.Address
}

func (k spentKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	b = append(b, byte(k.role))
	return append(b, k.account.Bytes()...)
}

// Service is the epoch voting ledger.
type Service struct {
	pools        *storage.Mapping[ve.Address, *Pool]
	poolIndex    *storage.Mapping[indexKey, ve.Address]
	poolCount    *storage.Uint64
	activeCount  *storage.Uint64
	epochActive  *storage.Mapping[poolEpochKey, bool]
	poolVotes    *storage.Mapping[poolEpochKey, *big.Int]
	totalVotes   *storage.Mapping[epochKey, *big.Int]
	accountVotes *storage.Mapping[accountVoteKey, *big.Int]
	spent        *storage.Mapping[spentKey, *big.Int]
	closed       *storage.Mapping[epochKey, bool]
	decay        *decay.Service
	fees         *fees.Service
}

// New creates the voting ledger in the given storage context.
func New(sctx *storage.Context, dec *decay.Service, fee *fees.Service) *Service {
	maxVotePools.Override(sctx)
	return &Service{
		pools:        storage.NewMapping[ve.Address, *Pool](sctx, slotPools),
		poolIndex:    storage.NewMapping[indexKey, ve.Address](sctx, slotPoolIndex),
		poolCount:    storage.NewUint64(sctx, slotPoolCount),
		activeCount:  storage.NewUint64(sctx, slotActiveCount),
		epochActive:  storage.NewMapping[poolEpochKey, bool](sctx, slotEpochActive),
		poolVotes:    storage.NewMapping[poolEpochKey, *big.Int](sctx, slotPoolVotes),
		totalVotes:   storage.NewMapping[epochKey, *big.Int](sctx, slotTotalVotes),
		accountVotes: storage.NewMapping[accountVoteKey, *big.Int](sctx, slotAccountVotes),
		spent:        storage.NewMapping[spentKey, *big.Int](sctx, slotSpent),
		closed:       storage.NewMapping[epochKey, bool](sctx, slotClosed),
		decay:        dec,
		fees:         fee,
	}
}

// AddPool lists a pool, or reactivates a delisted one.
func (s *Service) AddPool(pool ve.Address) error {
	p, err := s.pools.Get(pool)
	if err != nil {
		return errors.Wrap(err, "get pool")
	}
	if p.Active {
		return reverts.Newf(reverts.CodeAlreadyDone, "pool %v already active", pool)
	}
	if !p.Listed {
		n, err := s.poolCount.Get()
		if err != nil {
			return err
		}
		if err := s.poolIndex.Set(indexKey(n), pool); err != nil {
			return err
		}
		s.poolCount.Set(n + 1)
	}
	p.Listed = true
	p.Active = true
	if err := s.pools.Set(pool, p); err != nil {
		return err
	}
	count, err := s.activeCount.Get()
	if err != nil {
		return err
	}
	s.activeCount.Set(count + 1)
	logger.Info("pool listed", "pool", pool)
	return nil
}

// RemovePool deactivates a pool. Votes already cast this epoch stand and
// finalize normally; the pool merely stops accepting new votes.
func (s *Service) RemovePool(pool ve.Address) error {
	p, err := s.pools.Get(pool)
	if err != nil {
		return errors.Wrap(err, "get pool")
	}
	if !p.Active {
		return reverts.Newf(reverts.CodeInactivePool, "pool %v not active", pool)
	}
	p.Active = false
	if err := s.pools.Set(pool, p); err != nil {
		return err
	}
	count, err := s.activeCount.Get()
	if err != nil {
		return err
	}
	s.activeCount.Set(count - 1)
	logger.Info("pool delisted", "pool", pool)
	return nil
}

// ActivePoolCount returns the number of currently active pools.
func (s *Service) ActivePoolCount() (uint64, error) {
	return s.activeCount.Get()
}

// IsListed reports whether the pool was ever listed.
func (s *Service) IsListed(pool ve.Address) (bool, error) {
	p, err := s.pools.Get(pool)
	if err != nil {
		return false, err
	}
	return p.Listed, nil
}

// IsActive reports whether the pool currently accepts votes.
func (s *Service) IsActive(pool ve.Address) (bool, error) {
	p, err := s.pools.Get(pool)
	if err != nil {
		return false, err
	}
	return p.Active, nil
}

// Close ends voting for the epoch and snapshots the set of pools active at
// that moment. The snapshot fixes which pools count toward the epoch's
// finalization coverage; later listing changes do not disturb it. Called by
// the distribution engine's end-of-epoch transition, returns the snapshot
// size.
func (s *Service) Close(epoch uint64) (uint64, error) {
	n, err := s.poolCount.Get()
	if err != nil {
		return 0, err
	}
	var active uint64
	for i := uint64(0); i < n; i++ {
		pool, err := s.poolIndex.Get(indexKey(i))
		if err != nil {
			return 0, err
		}
		p, err := s.pools.Get(pool)
		if err != nil {
			return 0, err
		}
		if !p.Active {
			continue
		}
		if err := s.epochActive.Set(poolEpochKey{epoch, pool}, true); err != nil {
			return 0, err
		}
		active++
	}
	if err := s.closed.Set(epochKey(epoch), true); err != nil {
		return 0, err
	}
	return active, nil
}

// WasActive reports whether the pool is in the epoch's closing snapshot of
// active pools.
func (s *Service) WasActive(epoch uint64, pool ve.Address) (bool, error) {
	return s.epochActive.Get(poolEpochKey{epoch, pool})
}

// IsClosed reports whether the epoch ended voting.
func (s *Service) IsClosed(epoch uint64) (bool, error) {
	return s.closed.Get(epochKey(epoch))
}

func (s *Service) openEpoch(now uint64) (uint64, error) {
	epoch := ve.EpochOf(now)
	closed, err := s.closed.Get(epochKey(epoch))
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, reverts.Newf(reverts.CodeWrongState, "epoch %d ended voting", epoch)
	}
	return epoch, nil
}

// Vote casts votes for the current epoch across pools. Available power is
// the caller's end-of-epoch power under the requested role, less what the
// caller already spent this epoch. A delegated vote records the delegate's
// effective fee for the epoch if not yet recorded.
func (s *Service) Vote(caller ve.Address, pools []ve.Address, amounts []*big.Int, delegated bool, now uint64) error {
	if len(pools) == 0 || len(pools) != len(amounts) {
		return reverts.New(reverts.CodeLengthMismatch, "pools and amounts must pair up")
	}
	if uint64(len(pools)) > maxVotePools.Get() {
		return reverts.Newf(reverts.CodeLengthMismatch, "at most %d pools per vote", maxVotePools.Get())
	}
	epoch, err := s.openEpoch(now)
	if err != nil {
		return err
	}

	role := decay.RolePersonal
	if delegated {
		role = decay.RoleDelegate
	}

	sum := new(big.Int)
	for i, pool := range pools {
		if amounts[i] == nil || amounts[i].Sign() <= 0 {
			return reverts.New(reverts.CodeInvalidAmount, "non-positive vote amount")
		}
		active, err := s.IsActive(pool)
		if err != nil {
			return err
		}
		if !active {
			return reverts.Newf(reverts.CodeInactivePool, "pool %v not active", pool)
		}
		sum.Add(sum, amounts[i])
	}

	power, err := s.decay.ValueAtEpochEnd(decay.AccountLedger(role, caller), epoch)
	if err != nil {
		return err
	}
	spent, err := s.spent.Get(spentKey{epoch, role, caller})
	if err != nil {
		return err
	}
	if new(big.Int).Add(spent, sum).Cmp(power) > 0 {
		return reverts.Newf(reverts.CodeInsufficient,
			"vote total %v exceeds available power %v", new(big.Int).Add(spent, sum), power)
	}

	for i, pool := range pools {
		if err := s.addVotes(epoch, pool, role, caller, amounts[i]); err != nil {
			return err
		}
	}
	if err := s.spent.Set(spentKey{epoch, role, caller}, spent.Add(spent, sum)); err != nil {
		return err
	}
	total, err := s.totalVotes.Get(epochKey(epoch))
	if err != nil {
		return err
	}
	if err := s.totalVotes.Set(epochKey(epoch), total.Add(total, sum)); err != nil {
		return err
	}

	if delegated {
		if err := s.fees.RecordEpochFee(caller, epoch); err != nil {
			return err
		}
	}
	logger.Info("votes cast", "epoch", epoch, "account", caller, "delegated", delegated, "amount", sum)
	return nil
}

// MigrateVotes moves already-cast votes between pools within the same open
// epoch. Destinations must be active; sources need not be. The epoch total
// is unchanged.
func (s *Service) MigrateVotes(caller ve.Address, src, dst []ve.Address, amounts []*big.Int, delegated bool, now uint64) error {
	if len(src) == 0 || len(src) != len(dst) || len(src) != len(amounts) {
		return reverts.New(reverts.CodeLengthMismatch, "source, destination and amounts must pair up")
	}
	if uint64(len(src)) > maxVotePools.Get() {
		return reverts.Newf(reverts.CodeLengthMismatch, "at most %d pools per migration", maxVotePools.Get())
	}
	epoch, err := s.openEpoch(now)
	if err != nil {
		return err
	}

	role := decay.RolePersonal
	if delegated {
		role = decay.RoleDelegate
	}

	for i := range src {
		amount := amounts[i]
		if amount == nil || amount.Sign() <= 0 {
			return reverts.New(reverts.CodeInvalidAmount, "non-positive migration amount")
		}
		active, err := s.IsActive(dst[i])
		if err != nil {
			return err
		}
		if !active {
			return reverts.Newf(reverts.CodeInactivePool, "destination pool %v not active", dst[i])
		}

		cast, err := s.accountVotes.Get(accountVoteKey{epoch, src[i], role, caller})
		if err != nil {
			return err
		}
		if cast.Cmp(amount) < 0 {
			return reverts.Newf(reverts.CodeInsufficient,
				"migrating %v from pool %v, only %v cast", amount, src[i], cast)
		}

		if err := s.subVotes(epoch, src[i], role, caller, amount); err != nil {
			return err
		}
		if err := s.addVotes(epoch, dst[i], role, caller, amount); err != nil {
			return err
		}
	}
	logger.Info("votes migrated", "epoch", epoch, "account", caller, "delegated", delegated)
	return nil
}

func (s *Service) addVotes(epoch uint64, pool ve.Address, role decay.Role, account ve.Address, amount *big.Int) error {
	cast, err := s.accountVotes.Get(accountVoteKey{epoch, pool, role, account})
	if err != nil {
		return err
	}
	if err := s.accountVotes.Set(accountVoteKey{epoch, pool, role, account}, cast.Add(cast, amount)); err != nil {
		return err
	}
	pv, err := s.poolVotes.Get(poolEpochKey{epoch, pool})
	if err != nil {
		return err
	}
	return s.poolVotes.Set(poolEpochKey{epoch, pool}, pv.Add(pv, amount))
}

func (s *Service) subVotes(epoch uint64, pool ve.Address, role decay.Role, account ve.Address, amount *big.Int) error {
	cast, err := s.accountVotes.Get(accountVoteKey{epoch, pool, role, account})
	if err != nil {
		return err
	}
	if err := s.accountVotes.Set(accountVoteKey{epoch, pool, role, account}, cast.Sub(cast, amount)); err != nil {
		return err
	}
	pv, err := s.poolVotes.Get(poolEpochKey{epoch, pool})
	if err != nil {
		return err
	}
	pv.Sub(pv, amount)
	if pv.Sign() < 0 {
		pv.SetInt64(0)
	}
	return s.poolVotes.Set(poolEpochKey{epoch, pool}, pv)
}

// PoolVotes returns the pool's vote total for the epoch.
func (s *Service) PoolVotes(epoch uint64, pool ve.Address) (*big.Int, error) {
	return s.poolVotes.Get(poolEpochKey{epoch, pool})
}

// TotalVotes returns the epoch's vote total across pools.
func (s *Service) TotalVotes(epoch uint64) (*big.Int, error) {
	return s.totalVotes.Get(epochKey(epoch))
}

// AccountVotes returns the votes an account cast on a pool for the epoch
// under the given role.
func (s *Service) AccountVotes(epoch uint64, pool ve.Address, role decay.Role, account ve.Address) (*big.Int, error) {
	return s.accountVotes.Get(accountVoteKey{epoch, pool, role, account})
}

// Spent returns the power an account has spent voting this epoch under the
// given role.
func (s *Service) Spent(epoch uint64, role decay.Role, account ve.Address) (*big.Int, error) {
	return s.spent.Get(spentKey{epoch, role, account})
}
