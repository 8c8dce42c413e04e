// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fees keeps the epoch-indexed history of delegate fee rates. Rates
// are fixed point over ve.FeePrecision. Decreases take effect immediately,
// increases only after a configured delay of epochs. The per-epoch history
// is populated opportunistically when a delegate votes; an epoch without a
// vote keeps a zero (unset) fee slot, and a zero slot resolves no delegated
// reward for that epoch.
package fees

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var logger = log.WithContext("pkg", "fees")

var (
	slotRecords   = ve.BytesToBytes32([]byte("delegate-records"))
	slotEpochFees = ve.BytesToBytes32([]byte("epoch-fees"))
)

// Delegate is one registered delegate's fee state and running capture
// totals.
type Delegate struct {
	Registered       bool
	Fee              *big.Int
	PendingFee       *big.Int
	PendingEffective uint64
	TotalGross       *big.Int
	TotalFees        *big.Int
}

func (d *Delegate) norm() *Delegate {
	for _, p := range []**big.Int{&d.Fee, &d.PendingFee, &d.TotalGross, &d.TotalFees} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
	return d
}

// resolvePending folds a due pending increase into the current fee.
func (d *Delegate) resolvePending(epoch uint64) {
	if d.PendingFee.Sign() != 0 && epoch >= d.PendingEffective {
		d.Fee.Set(d.PendingFee)
		d.clearPending()
	}
}

func (d *Delegate) clearPending() {
	d.PendingFee.SetInt64(0)
	d.PendingEffective = 0
}

type epochFeeKey struct {
	epoch    uint64
	delegate ve.Address
}

func (k epochFeeKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	return append(b, k.delegate.Bytes()...)
}

// Service is the delegate fee ledger.
type Service struct {
	records   *storage.Mapping[ve.Address, *Delegate]
	epochFees *storage.Mapping[epochFeeKey, *big.Int]
	params    *params.Params
}

// New creates the fee ledger in the given storage context.
func New(sctx *storage.Context, par *params.Params) *Service {
	return &Service{
		records:   storage.NewMapping[ve.Address, *Delegate](sctx, slotRecords),
		epochFees: storage.NewMapping[epochFeeKey, *big.Int](sctx, slotEpochFees),
		params:    par,
	}
}

func (s *Service) checkRate(fee *big.Int) error {
	if fee == nil || fee.Sign() <= 0 {
		return reverts.New(reverts.CodeFeeOutOfRange, "fee rate must be positive")
	}
	max, err := s.params.Get(ve.KeyMaxDelegateFee)
	if err != nil {
		return err
	}
	if fee.Cmp(max) > 0 {
		return reverts.Newf(reverts.CodeFeeOutOfRange, "fee rate above maximum %v", max)
	}
	return nil
}

// Register enrolls the caller as a delegate with an immediately effective
// fee. A registered delegate's fee is never zero; zero is the sentinel of an
// unset per-epoch slot.
func (s *Service) Register(caller ve.Address, fee *big.Int) error {
	rec, err := s.records.Get(caller)
	if err != nil {
		return errors.Wrap(err, "get delegate record")
	}
	if rec.norm().Registered {
		return reverts.Newf(reverts.CodeAlreadyDone, "delegate %v already registered", caller)
	}
	if err := s.checkRate(fee); err != nil {
		return err
	}
	rec.Registered = true
	rec.Fee.Set(fee)
	if err := s.records.Set(caller, rec); err != nil {
		return err
	}
	logger.Info("delegate registered", "delegate", caller, "fee", fee)
	return nil
}

// SetFee changes the caller's fee rate. A due pending increase is resolved
// first. A decrease applies immediately, rewrites the current epoch's
// recorded slot if one exists, and clears any still-pending increase; an
// increase is deferred by the configured delay.
func (s *Service) SetFee(caller ve.Address, fee *big.Int, now uint64) error {
	rec, err := s.registered(caller)
	if err != nil {
		return err
	}
	if err := s.checkRate(fee); err != nil {
		return err
	}

	epoch := ve.EpochOf(now)
	rec.resolvePending(epoch)

	if fee.Cmp(rec.Fee) > 0 {
		delay, err := s.params.Get(ve.KeyFeeIncreaseDelay)
		if err != nil {
			return err
		}
		rec.PendingFee.Set(fee)
		rec.PendingEffective = epoch + delay.Uint64()
		logger.Info("delegate fee increase queued", "delegate", caller, "fee", fee, "effective", rec.PendingEffective)
	} else {
		rec.Fee.Set(fee)
		rec.clearPending()
		recorded, err := s.epochFees.Get(epochFeeKey{epoch, caller})
		if err != nil {
			return err
		}
		if recorded.Sign() != 0 {
			if err := s.epochFees.Set(epochFeeKey{epoch, caller}, fee); err != nil {
				return err
			}
		}
		logger.Info("delegate fee decreased", "delegate", caller, "fee", fee)
	}
	return s.records.Set(caller, rec)
}

// RecordEpochFee writes the caller's effective fee into the epoch's slot if
// it is still unset. Called on each delegated vote; a delegate who never
// votes in an epoch leaves that slot at zero.
func (s *Service) RecordEpochFee(delegate ve.Address, epoch uint64) error {
	rec, err := s.registered(delegate)
	if err != nil {
		return err
	}
	recorded, err := s.epochFees.Get(epochFeeKey{epoch, delegate})
	if err != nil {
		return err
	}
	if recorded.Sign() != 0 {
		return nil
	}
	rec.resolvePending(epoch)
	if err := s.records.Set(delegate, rec); err != nil {
		return err
	}
	return s.epochFees.Set(epochFeeKey{epoch, delegate}, rec.Fee)
}

// FeeAt returns the fee recorded for the epoch, zero when unset.
func (s *Service) FeeAt(delegate ve.Address, epoch uint64) (*big.Int, error) {
	return s.epochFees.Get(epochFeeKey{epoch, delegate})
}

// AddCaptured accumulates a delegate's lifetime gross reward and fee
// capture. Called by the distribution engine on delegated claims.
func (s *Service) AddCaptured(delegate ve.Address, gross, fee *big.Int) error {
	rec, err := s.registered(delegate)
	if err != nil {
		return err
	}
	rec.TotalGross.Add(rec.TotalGross, gross)
	rec.TotalFees.Add(rec.TotalFees, fee)
	return s.records.Set(delegate, rec)
}

// Get returns the delegate's record for reporting.
func (s *Service) Get(delegate ve.Address) (*Delegate, error) {
	rec, err := s.records.Get(delegate)
	if err != nil {
		return nil, errors.Wrap(err, "get delegate record")
	}
	return rec.norm(), nil
}

// IsRegistered reports whether the address enrolled as delegate.
func (s *Service) IsRegistered(delegate ve.Address) (bool, error) {
	rec, err := s.records.Get(delegate)
	if err != nil {
		return false, err
	}
	return rec.Registered, nil
}

func (s *Service) registered(delegate ve.Address) (*Delegate, error) {
	rec, err := s.records.Get(delegate)
	if err != nil {
		return nil, errors.Wrap(err, "get delegate record")
	}
	if !rec.norm().Registered {
		return nil, reverts.Newf(reverts.CodeNotFound, "delegate %v not registered", delegate)
	}
	return rec, nil
}
