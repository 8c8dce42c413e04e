// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package delegation moves a lock's voting power between the owner's
// personal ledger and a delegate's ledger. Effects are never applied to the
// current epoch: they are forward-booked as pending deltas at the next epoch
// boundary, so power voted personally this epoch cannot be voted again by a
// delegate. Same-epoch actions on one lock compose by delta stacking.
package delegation

import (
	"math/big"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/lock"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/ve"
)

var logger = log.WithContext("pkg", "delegation")

// Service is the delegation forward-booker.
type Service struct {
	locks *lock.Service
	decay *decay.Service
}

// New creates the delegation service over the lock ledger and the decay
// accumulator.
func New(locks *lock.Service, dec *decay.Service) *Service {
	return &Service{locks: locks, decay: dec}
}

// Delegate assigns the lock's power to delegate, effective at the next epoch
// boundary. The lock must have at least MinDelegateEpochs whole epochs left:
// one for the booked effect to land, one more of non-zero end-of-epoch power
// for the delegate to vote with.
func (s *Service) Delegate(caller ve.Address, id lock.ID, delegate ve.Address, now uint64) error {
	if delegate.IsZero() {
		return reverts.New(reverts.CodeInvalidAmount, "zero delegate address")
	}
	l, err := s.locks.Owned(caller, id)
	if err != nil {
		return err
	}
	if l.IsDelegated() {
		return reverts.Newf(reverts.CodeWrongState, "lock %d already delegated", id)
	}
	if l.Expiry < ve.EpochStart(ve.EpochOf(now)+ve.MinDelegateEpochs) {
		return reverts.New(reverts.CodeInvalidDuration, "lock too close to expiry to delegate")
	}

	pair := l.Balance()
	nb := ve.EpochStart(ve.EpochOf(now) + 1)
	if err := s.move(
		decay.AccountLedger(decay.RolePersonal, caller),
		decay.AccountLedger(decay.RoleDelegate, delegate),
		pair, l.Expiry, nb,
	); err != nil {
		return err
	}
	if err := s.credit(decay.PairLedger(caller, delegate), pair, l.Expiry, nb); err != nil {
		return err
	}

	l.Delegate = &delegate
	if err := s.locks.Set(id, l); err != nil {
		return err
	}
	logger.Info("delegated", "lock", id, "owner", caller, "delegate", delegate, "effective", nb)
	return nil
}

// Undelegate returns the lock's power to the owner's personal ledger,
// effective at the next epoch boundary.
func (s *Service) Undelegate(caller ve.Address, id lock.ID, now uint64) error {
	l, err := s.locks.Owned(caller, id)
	if err != nil {
		return err
	}
	if !l.IsDelegated() {
		return reverts.Newf(reverts.CodeWrongState, "lock %d not delegated", id)
	}
	// the retiring slope change and the returning delta must not share a
	// boundary
	if l.Expiry < ve.EpochStart(ve.EpochOf(now)+2) {
		return reverts.New(reverts.CodeInvalidDuration, "lock too close to expiry to undelegate")
	}

	pair := l.Balance()
	nb := ve.EpochStart(ve.EpochOf(now) + 1)
	delegate := *l.Delegate
	if err := s.move(
		decay.AccountLedger(decay.RoleDelegate, delegate),
		decay.AccountLedger(decay.RolePersonal, caller),
		pair, l.Expiry, nb,
	); err != nil {
		return err
	}
	if err := s.debit(decay.PairLedger(caller, delegate), pair, l.Expiry, nb); err != nil {
		return err
	}

	l.Delegate = nil
	if err := s.locks.Set(id, l); err != nil {
		return err
	}
	logger.Info("undelegated", "lock", id, "owner", caller, "delegate", delegate, "effective", nb)
	return nil
}

// Switch reassigns a delegated lock to another delegate, effective at the
// next epoch boundary. The owner's personal ledger is untouched.
func (s *Service) Switch(caller ve.Address, id lock.ID, delegate ve.Address, now uint64) error {
	if delegate.IsZero() {
		return reverts.New(reverts.CodeInvalidAmount, "zero delegate address")
	}
	l, err := s.locks.Owned(caller, id)
	if err != nil {
		return err
	}
	if !l.IsDelegated() {
		return reverts.Newf(reverts.CodeWrongState, "lock %d not delegated", id)
	}
	if *l.Delegate == delegate {
		return reverts.Newf(reverts.CodeAlreadyDone, "lock %d already delegated to %v", id, delegate)
	}
	if l.Expiry < ve.EpochStart(ve.EpochOf(now)+ve.MinDelegateEpochs) {
		return reverts.New(reverts.CodeInvalidDuration, "lock too close to expiry to delegate")
	}

	pair := l.Balance()
	nb := ve.EpochStart(ve.EpochOf(now) + 1)
	prev := *l.Delegate
	if err := s.move(
		decay.AccountLedger(decay.RoleDelegate, prev),
		decay.AccountLedger(decay.RoleDelegate, delegate),
		pair, l.Expiry, nb,
	); err != nil {
		return err
	}
	if err := s.debit(decay.PairLedger(caller, prev), pair, l.Expiry, nb); err != nil {
		return err
	}
	if err := s.credit(decay.PairLedger(caller, delegate), pair, l.Expiry, nb); err != nil {
		return err
	}

	l.Delegate = &delegate
	if err := s.locks.Set(id, l); err != nil {
		return err
	}
	logger.Info("delegate switched", "lock", id, "owner", caller, "from", prev, "to", delegate, "effective", nb)
	return nil
}

// PairPowerAtEpochEnd returns the end-of-epoch power delegator had assigned
// to delegate for the given epoch. This is the reward-attribution numerator.
func (s *Service) PairPowerAtEpochEnd(delegator, delegate ve.Address, epoch uint64) (*big.Int, error) {
	return s.decay.ValueAtEpochEnd(decay.PairLedger(delegator, delegate), epoch)
}

// move books the pair out of from and into to at boundary nb, and moves the
// expiry slope-change entry immediately. The schedule move is safe ahead of
// the balance move because every caller guarantees expiry > nb.
func (s *Service) move(from, to decay.LedgerID, pair *decay.VeBalance, expiry, nb uint64) error {
	if err := s.debit(from, pair, expiry, nb); err != nil {
		return err
	}
	return s.credit(to, pair, expiry, nb)
}

func (s *Service) credit(id decay.LedgerID, pair *decay.VeBalance, expiry, nb uint64) error {
	if err := s.decay.BookPending(id, nb, pair, nil); err != nil {
		return err
	}
	return s.decay.ScheduleSlopeChange(id, expiry, pair.Slope)
}

func (s *Service) debit(id decay.LedgerID, pair *decay.VeBalance, expiry, nb uint64) error {
	if err := s.decay.BookPending(id, nb, nil, pair); err != nil {
		return err
	}
	return s.decay.UnscheduleSlopeChange(id, expiry, pair.Slope)
}
