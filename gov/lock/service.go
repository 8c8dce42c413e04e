// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lock

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var logger = log.WithContext("pkg", "lock")

var (
	slotLocks   = ve.BytesToBytes32([]byte("locks"))
	slotCounter = ve.BytesToBytes32([]byte("lock-counter"))
)

// Service owns lock records and drives the decay accumulator as they change.
type Service struct {
	locks   *storage.Mapping[ID, *Lock]
	counter *storage.Uint64
	decay   *decay.Service
	params  *params.Params
}

// New creates the lock ledger in the given storage context.
func New(sctx *storage.Context, dec *decay.Service, par *params.Params) *Service {
	return &Service{
		locks:   storage.NewMapping[ID, *Lock](sctx, slotLocks),
		counter: storage.NewUint64(sctx, slotCounter),
		decay:   dec,
		params:  par,
	}
}

// Get returns the lock record, reverting NotFound for an unknown id.
func (s *Service) Get(id ID) (*Lock, error) {
	l, err := s.locks.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get lock")
	}
	if !l.Exists() {
		return nil, reverts.Newf(reverts.CodeNotFound, "unknown lock %d", id)
	}
	return l, nil
}

// Set overwrites the lock record. Used by the delegation service to move a
// lock between delegation states.
func (s *Service) Set(id ID, l *Lock) error {
	return s.locks.Set(id, l)
}

// Owned fetches the lock and checks the caller owns it.
func (s *Service) Owned(caller ve.Address, id ID) (*Lock, error) {
	l, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if l.Owner != caller {
		return nil, reverts.Newf(reverts.CodeWrongCaller, "lock %d not owned by %v", id, caller)
	}
	return l, nil
}

// checkExpiry validates an expiry candidate against the protocol rules:
// boundary aligned, at least MinLockEpochs whole epochs ahead, within the
// maximum lock duration.
func checkExpiry(expiry, now uint64) error {
	if !ve.IsEpochBoundary(expiry) {
		return reverts.Newf(reverts.CodeMisaligned, "expiry %d not on an epoch boundary", expiry)
	}
	if expiry < ve.EpochStart(ve.EpochOf(now)+ve.MinLockEpochs) {
		return reverts.New(reverts.CodeInvalidDuration, "lock duration too short")
	}
	if expiry > now+ve.MaxLockDuration {
		return reverts.New(reverts.CodeInvalidDuration, "lock duration exceeds maximum")
	}
	return nil
}

// Create registers a new lock for the caller and credits its decay pair to
// the caller's personal ledger and the global aggregate.
func (s *Service) Create(caller ve.Address, amount *big.Int, expiry, now uint64) (ID, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, reverts.New(reverts.CodeInvalidAmount, "non-positive lock amount")
	}
	if err := checkExpiry(expiry, now); err != nil {
		return 0, err
	}
	min, err := s.params.Get(ve.KeyMinLockAmount)
	if err != nil {
		return 0, err
	}
	if amount.Cmp(min) < 0 {
		return 0, reverts.Newf(reverts.CodeInvalidAmount, "lock amount below minimum %v", min)
	}

	next, err := s.counter.Get()
	if err != nil {
		return 0, err
	}
	id := ID(next + 1)
	s.counter.Set(uint64(id))

	l := &Lock{Owner: caller, Amount: new(big.Int).Set(amount), Expiry: expiry}
	if err := s.locks.Set(id, l); err != nil {
		return 0, err
	}

	pair := l.Balance()
	personal := decay.AccountLedger(decay.RolePersonal, caller)
	for _, lid := range []decay.LedgerID{personal, decay.GlobalLedger()} {
		if err := s.decay.Adjust(lid, now, pair, nil); err != nil {
			return 0, err
		}
		if err := s.decay.ScheduleSlopeChange(lid, expiry, pair.Slope); err != nil {
			return 0, err
		}
	}
	logger.Info("lock created", "id", id, "owner", caller, "amount", amount, "expiry", expiry)
	return id, nil
}

// IncreaseAmount adds principal to an unexpired lock, replacing its decay
// pair on every ledger that carries it.
func (s *Service) IncreaseAmount(caller ve.Address, id ID, delta *big.Int, now uint64) error {
	if delta == nil || delta.Sign() <= 0 {
		return reverts.New(reverts.CodeInvalidAmount, "non-positive amount delta")
	}
	l, err := s.Owned(caller, id)
	if err != nil {
		return err
	}
	if l.Expiry <= now {
		return reverts.Newf(reverts.CodeWrongState, "lock %d expired", id)
	}

	old := l.Balance()
	l.Amount = new(big.Int).Add(l.Amount, delta)
	updated := l.Balance()
	if err := s.locks.Set(id, l); err != nil {
		return err
	}
	if err := s.replacePair(l, old, updated, l.Expiry, l.Expiry, now); err != nil {
		return err
	}
	logger.Info("lock amount increased", "id", id, "amount", l.Amount)
	return nil
}

// IncreaseDuration extends an unexpired lock's expiry to a later boundary,
// moving the slope-change schedule entries along with it.
func (s *Service) IncreaseDuration(caller ve.Address, id ID, expiry, now uint64) error {
	l, err := s.Owned(caller, id)
	if err != nil {
		return err
	}
	if l.Expiry <= now {
		return reverts.Newf(reverts.CodeWrongState, "lock %d expired", id)
	}
	if expiry <= l.Expiry {
		return reverts.New(reverts.CodeInvalidDuration, "expiry not extended")
	}
	if err := checkExpiry(expiry, now); err != nil {
		return err
	}

	old := l.Balance()
	oldExpiry := l.Expiry
	l.Expiry = expiry
	updated := l.Balance()
	if err := s.locks.Set(id, l); err != nil {
		return err
	}
	if err := s.replacePair(l, old, updated, oldExpiry, expiry, now); err != nil {
		return err
	}
	logger.Info("lock duration increased", "id", id, "expiry", expiry)
	return nil
}

// replacePair swaps a lock's decay pair on the ledgers carrying it. For an
// undelegated lock the swap is immediate on the personal ledger; for a
// delegated lock it is forward-booked to the next boundary on the delegate
// and pair ledgers, composing with other pending deltas. The global
// aggregate follows the same timing so the per-role sums stay consistent at
// every boundary.
func (s *Service) replacePair(l *Lock, old, updated *decay.VeBalance, oldExpiry, newExpiry, now uint64) error {
	if !l.IsDelegated() {
		personal := decay.AccountLedger(decay.RolePersonal, l.Owner)
		for _, id := range []decay.LedgerID{personal, decay.GlobalLedger()} {
			if err := s.decay.Adjust(id, now, updated, old); err != nil {
				return err
			}
			if err := s.decay.UnscheduleSlopeChange(id, oldExpiry, old.Slope); err != nil {
				return err
			}
			if err := s.decay.ScheduleSlopeChange(id, newExpiry, updated.Slope); err != nil {
				return err
			}
		}
		return nil
	}

	// a delegated lock expiring right at the next boundary would put the
	// booked delta and the retiring slope on the same step
	nb := ve.EpochStart(ve.EpochOf(now) + 1)
	if oldExpiry <= nb {
		return reverts.New(reverts.CodeInvalidDuration, "delegated lock too close to expiry")
	}
	ledgers := []decay.LedgerID{
		decay.AccountLedger(decay.RoleDelegate, *l.Delegate),
		decay.PairLedger(l.Owner, *l.Delegate),
		decay.GlobalLedger(),
	}
	for _, id := range ledgers {
		if err := s.decay.BookPending(id, nb, updated, old); err != nil {
			return err
		}
		if err := s.decay.UnscheduleSlopeChange(id, oldExpiry, old.Slope); err != nil {
			return err
		}
		if err := s.decay.ScheduleSlopeChange(id, newExpiry, updated.Slope); err != nil {
			return err
		}
	}
	return nil
}

// Unlock withdraws the principal of an expired lock, returning the amount
// for the caller to move out of custody. The ledgers need no touch: the
// slope change scheduled at expiry already decayed the position to zero.
func (s *Service) Unlock(caller ve.Address, id ID, now uint64) (*big.Int, error) {
	l, err := s.Owned(caller, id)
	if err != nil {
		return nil, err
	}
	if l.Expiry > now {
		return nil, reverts.Newf(reverts.CodeWrongState, "lock %d not expired", id)
	}
	if l.Amount.Sign() == 0 {
		return nil, reverts.Newf(reverts.CodeAlreadyDone, "lock %d already withdrawn", id)
	}

	amount := l.Amount
	l.Amount = new(big.Int)
	if err := s.locks.Set(id, l); err != nil {
		return nil, err
	}
	logger.Info("lock withdrawn", "id", id, "owner", caller, "amount", amount)
	return amount, nil
}
