// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package decay maintains the time-decayed voting-power ledgers: sparse,
// epoch-boundary-aligned checkpoint histories per account and role, a
// slope-change schedule driven by lock expiries, and pending forward-booked
// deltas consumed exactly once as the walk reaches their boundary.
package decay

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var (
	slotCursors      = ve.BytesToBytes32([]byte("cursors"))
	slotCheckpoints  = ve.BytesToBytes32([]byte("checkpoints"))
	slotSlopeChanges = ve.BytesToBytes32([]byte("slope-changes"))
	slotPending      = ve.BytesToBytes32([]byte("pending-deltas"))
)

// cursor tracks the first and last boundary a ledger has a checkpoint at.
// Checkpoints are dense within [First, Last], so any historical base lookup
// inside the range is a direct read. A zero Last means the ledger was never
// touched; protocol time starts past epoch zero so the sentinel is
// unambiguous.
type cursor struct {
	First uint64
	Last  uint64
}

// Service is the decay accumulator over all ledgers.
type Service struct {
	cursors      *storage.Mapping[LedgerID, *cursor]
	checkpoints  *storage.Mapping[boundKey, *VeBalance]
	slopeChanges *storage.Mapping[boundKey, *big.Int]
	pending      *storage.Mapping[boundKey, *Delta]
}

// New creates the accumulator in the given storage context.
func New(sctx *storage.Context) *Service {
	return &Service{
		cursors:      storage.NewMapping[LedgerID, *cursor](sctx, slotCursors),
		checkpoints:  storage.NewMapping[boundKey, *VeBalance](sctx, slotCheckpoints),
		slopeChanges: storage.NewMapping[boundKey, *big.Int](sctx, slotSlopeChanges),
		pending:      storage.NewMapping[boundKey, *Delta](sctx, slotPending),
	}
}

// step folds the boundary t into bal: first the slope change scheduled at t,
// then the pending delta booked for t. When consume is set the pending entry
// is deleted after application, so a mutating walk applies it exactly once.
func (s *Service) step(id LedgerID, t uint64, bal *VeBalance, consume bool) error {
	sc, err := s.slopeChanges.Get(boundKey{id, t})
	if err != nil {
		return err
	}
	if sc.Sign() > 0 {
		retired := new(big.Int).Mul(sc, new(big.Int).SetUint64(t))
		bal.SubClamped(&VeBalance{Bias: retired, Slope: sc})
	}

	d, err := s.pending.Get(boundKey{id, t})
	if err != nil {
		return err
	}
	if !d.IsZero() {
		d.applyTo(bal)
		if consume {
			return s.pending.Delete(boundKey{id, t})
		}
	}
	return nil
}

// Advance steps the ledger forward boundary-by-boundary from its last
// written checkpoint to the boundary of now, writing a checkpoint at each
// step. The first-ever call records a zero balance at the current boundary;
// zero is correct for an untouched account, no backfill happens.
func (s *Service) Advance(id LedgerID, now uint64) (*VeBalance, error) {
	cb := ve.EpochStart(ve.EpochOf(now))

	cur, err := s.cursors.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get cursor")
	}
	if cur.Last == 0 {
		bal := ZeroVeBalance()
		if err := s.checkpoints.Set(boundKey{id, cb}, bal); err != nil {
			return nil, err
		}
		if err := s.cursors.Set(id, &cursor{First: cb, Last: cb}); err != nil {
			return nil, err
		}
		return bal, nil
	}

	bal, err := s.checkpoints.Get(boundKey{id, cur.Last})
	if err != nil {
		return nil, errors.Wrap(err, "get checkpoint")
	}
	bal.norm()

	for t := cur.Last + ve.EpochDuration; t <= cb; t += ve.EpochDuration {
		if err := s.step(id, t, bal, true); err != nil {
			return nil, err
		}
		if err := s.checkpoints.Set(boundKey{id, t}, bal); err != nil {
			return nil, err
		}
	}

	if cb > cur.Last {
		if err := s.cursors.Set(id, &cursor{First: cur.First, Last: cb}); err != nil {
			return nil, err
		}
	}
	return bal, nil
}

// BalanceAt reconstructs the ledger's pair in force at the given boundary
// without mutating storage. Inside the written range the checkpoint is read
// directly; past the range the walk simulates scheduled slope changes and
// still-pending deltas forward from the last checkpoint.
func (s *Service) BalanceAt(id LedgerID, boundary uint64) (*VeBalance, error) {
	cur, err := s.cursors.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "get cursor")
	}
	if cur.Last == 0 || boundary < cur.First {
		return ZeroVeBalance(), nil
	}
	if boundary <= cur.Last {
		bal, err := s.checkpoints.Get(boundKey{id, boundary})
		if err != nil {
			return nil, err
		}
		return bal.norm(), nil
	}

	bal, err := s.checkpoints.Get(boundKey{id, cur.Last})
	if err != nil {
		return nil, err
	}
	bal.norm()
	for t := cur.Last + ve.EpochDuration; t <= boundary; t += ve.EpochDuration {
		if err := s.step(id, t, bal, false); err != nil {
			return nil, err
		}
	}
	return bal, nil
}

// ValueAtEpochEnd returns the ledger's voting power frozen to the end of the
// given epoch: the pair in force during the epoch, evaluated at the end
// boundary. Pure; repeated calls with no intervening mutation are identical.
func (s *Service) ValueAtEpochEnd(id LedgerID, epoch uint64) (*big.Int, error) {
	bal, err := s.BalanceAt(id, ve.EpochStart(epoch))
	if err != nil {
		return nil, err
	}
	return bal.ValueAt(ve.EpochEnd(epoch)), nil
}

// ValueAt returns the ledger's decayed power at an arbitrary timestamp.
func (s *Service) ValueAt(id LedgerID, now uint64) (*big.Int, error) {
	bal, err := s.BalanceAt(id, ve.EpochStart(ve.EpochOf(now)))
	if err != nil {
		return nil, err
	}
	return bal.ValueAt(now), nil
}

// Adjust advances the ledger to now and folds an immediate change into the
// current boundary's checkpoint. Used by lock operations whose effect is not
// forward-booked.
func (s *Service) Adjust(id LedgerID, now uint64, credit, debit *VeBalance) error {
	bal, err := s.Advance(id, now)
	if err != nil {
		return err
	}
	if credit != nil {
		bal.Add(credit)
	}
	if debit != nil {
		bal.SubClamped(debit)
	}
	return s.checkpoints.Set(boundKey{id, ve.EpochStart(ve.EpochOf(now))}, bal)
}

// BookPending stacks a forward-booked change onto the ledger's pending delta
// at the target boundary. Deltas for the same boundary compose by
// accumulation; the mutating walk consumes the composed entry exactly once.
// A never-touched ledger gets its cursor initialized one boundary before the
// target, so any later walk is guaranteed to step over the booking.
func (s *Service) BookPending(id LedgerID, boundary uint64, credit, debit *VeBalance) error {
	cur, err := s.cursors.Get(id)
	if err != nil {
		return err
	}
	if cur.Last == 0 {
		prev := boundary - ve.EpochDuration
		if err := s.checkpoints.Set(boundKey{id, prev}, ZeroVeBalance()); err != nil {
			return err
		}
		if err := s.cursors.Set(id, &cursor{First: prev, Last: prev}); err != nil {
			return err
		}
	}

	d, err := s.pending.Get(boundKey{id, boundary})
	if err != nil {
		return err
	}
	if credit != nil {
		d.Credit(credit)
	}
	if debit != nil {
		d.Debit(debit)
	}
	return s.pending.Set(boundKey{id, boundary}, d)
}

// PendingAt returns the composed pending delta booked for a boundary.
func (s *Service) PendingAt(id LedgerID, boundary uint64) (*Delta, error) {
	d, err := s.pending.Get(boundKey{id, boundary})
	if err != nil {
		return nil, err
	}
	return d.norm(), nil
}

// ScheduleSlopeChange registers slope to retire at ts on the ledger.
func (s *Service) ScheduleSlopeChange(id LedgerID, ts uint64, slope *big.Int) error {
	sc, err := s.slopeChanges.Get(boundKey{id, ts})
	if err != nil {
		return err
	}
	return s.slopeChanges.Set(boundKey{id, ts}, new(big.Int).Add(sc, slope))
}

// UnscheduleSlopeChange removes slope from the retirement scheduled at ts,
// clamped at zero.
func (s *Service) UnscheduleSlopeChange(id LedgerID, ts uint64, slope *big.Int) error {
	sc, err := s.slopeChanges.Get(boundKey{id, ts})
	if err != nil {
		return err
	}
	sc.Sub(sc, slope)
	if sc.Sign() < 0 {
		sc.SetInt64(0)
	}
	return s.slopeChanges.Set(boundKey{id, ts}, sc)
}

// SlopeChangeAt returns the aggregate slope scheduled to retire at ts.
func (s *Service) SlopeChangeAt(id LedgerID, ts uint64) (*big.Int, error) {
	return s.slopeChanges.Get(boundKey{id, ts})
}

// LastUpdated returns the last boundary the ledger has a written checkpoint
// at, zero if never touched.
func (s *Service) LastUpdated(id LedgerID) (uint64, error) {
	cur, err := s.cursors.Get(id)
	if err != nil {
		return 0, err
	}
	return cur.Last, nil
}
