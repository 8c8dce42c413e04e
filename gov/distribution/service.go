// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/delegation"
	"github.com/voltfi/vecore/gov/fees"
	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/gov/voting"
	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var logger = log.WithContext("pkg", "distribution")

var (
	slotEpochs          = ve.BytesToBytes32([]byte("epochs"))
	slotPoolEpochs      = ve.BytesToBytes32([]byte("pool-epochs"))
	slotPoolClaimed     = ve.BytesToBytes32([]byte("pool-total-claimed"))
	slotRewardClaims    = ve.BytesToBytes32([]byte("reward-claims"))
	slotDelegatedClaims = ve.BytesToBytes32([]byte("delegated-claims"))
	slotSubsidyClaims   = ve.BytesToBytes32([]byte("subsidy-claims"))
	slotPairNetClaimed  = ve.BytesToBytes32([]byte("pair-net-claimed"))
)

// Custody moves the reward-denominated asset in and out of the protocol pot.
type Custody interface {
	Deposit(from ve.Address, amount *big.Int) error
	Payout(to ve.Address, amount *big.Int) error
}

// FundingSource reports the externally computed verifier accrual figures
// used as subsidy-share numerators. It is an oracle the engine never calls
// to move funds.
type FundingSource interface {
	AccruedOf(epoch uint64, pool, verifier ve.Address) (*big.Int, error)
}

// Service is the epoch finalization and distribution engine.
type Service struct {
	epochs          *storage.Mapping[epochKey, *Epoch]
	poolEpochs      *storage.Mapping[poolEpochKey, *PoolEpoch]
	poolClaimed     *storage.Mapping[ve.Address, *big.Int]
	rewardClaims    *storage.Mapping[claimKey, bool]
	delegatedClaims *storage.Mapping[delegatedClaimKey, bool]
	subsidyClaims   *storage.Mapping[claimKey, bool]
	pairNetClaimed  *storage.Mapping[pairKey, *big.Int]

	voting     *voting.Service
	delegation *delegation.Service
	decay      *decay.Service
	fees       *fees.Service
	params     *params.Params
	custody    Custody
	funding    FundingSource
}

// New creates the distribution engine in the given storage context.
func New(
	sctx *storage.Context,
	vot *voting.Service,
	del *delegation.Service,
	dec *decay.Service,
	fee *fees.Service,
	par *params.Params,
	custody Custody,
	funding FundingSource,
) *Service {
	return &Service{
		epochs:          storage.NewMapping[epochKey, *Epoch](sctx, slotEpochs),
		poolEpochs:      storage.NewMapping[poolEpochKey, *PoolEpoch](sctx, slotPoolEpochs),
		poolClaimed:     storage.NewMapping[ve.Address, *big.Int](sctx, slotPoolClaimed),
		rewardClaims:    storage.NewMapping[claimKey, bool](sctx, slotRewardClaims),
		delegatedClaims: storage.NewMapping[delegatedClaimKey, bool](sctx, slotDelegatedClaims),
		subsidyClaims:   storage.NewMapping[claimKey, bool](sctx, slotSubsidyClaims),
		pairNetClaimed:  storage.NewMapping[pairKey, *big.Int](sctx, slotPairNetClaimed),
		voting:          vot,
		delegation:      del,
		decay:           dec,
		fees:            fee,
		params:          par,
		custody:         custody,
		funding:         funding,
	}
}

// GetEpoch returns the epoch's settlement aggregate.
func (s *Service) GetEpoch(epoch uint64) (*Epoch, error) {
	e, err := s.epochs.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "get epoch")
	}
	return e.norm(), nil
}

// GetPoolEpoch returns one pool's settlement record for the epoch.
func (s *Service) GetPoolEpoch(epoch uint64, pool ve.Address) (*PoolEpoch, error) {
	p, err := s.poolEpochs.Get(poolEpochKey{epoch, pool})
	if err != nil {
		return nil, errors.Wrap(err, "get pool epoch")
	}
	return p.norm(), nil
}

// PoolTotalClaimed returns the pool's lifetime claimed total across epochs.
func (s *Service) PoolTotalClaimed(pool ve.Address) (*big.Int, error) {
	return s.poolClaimed.Get(pool)
}

// PairNetClaimed returns the net amount the user claimed through the
// delegate for the epoch.
func (s *Service) PairNetClaimed(epoch uint64, user, delegate ve.Address) (*big.Int, error) {
	return s.pairNetClaimed.Get(pairKey{epoch, user, delegate})
}

func (s *Service) atStage(epoch uint64, want Stage) (*Epoch, error) {
	e, err := s.GetEpoch(epoch)
	if err != nil {
		return nil, err
	}
	if e.Stage != want {
		return nil, reverts.Newf(reverts.CodeWrongState,
			"epoch %d is %v, not %v", epoch, e.Stage, want)
	}
	return e, nil
}

// EndEpoch closes voting once the epoch's window has elapsed, snapshotting
// the vote total and the set of active pools.
func (s *Service) EndEpoch(epoch, now uint64) error {
	if now < ve.EpochEnd(epoch) {
		return reverts.Newf(reverts.CodeWrongState, "epoch %d still running", epoch)
	}
	e, err := s.atStage(epoch, StageVoting)
	if err != nil {
		return err
	}

	total, err := s.voting.TotalVotes(epoch)
	if err != nil {
		return err
	}
	count, err := s.voting.Close(epoch)
	if err != nil {
		return err
	}

	e.Stage = StageEnded
	e.TotalVotes.Set(total)
	e.ActivePools = count
	if err := s.epochs.Set(epochKey(epoch), e); err != nil {
		return err
	}
	logger.Info("epoch ended", "epoch", epoch, "totalVotes", total, "activePools", count)
	return nil
}

// PreviewSubsidyDeposit reports whether a deposit of amount would be
// accepted for the epoch, without changing state.
func (s *Service) PreviewSubsidyDeposit(epoch uint64, amount *big.Int) error {
	e, err := s.GetEpoch(epoch)
	if err != nil {
		return err
	}
	if e.SubsidyDeposited {
		return reverts.Newf(reverts.CodeAlreadyDone, "epoch %d subsidies already deposited", epoch)
	}
	return checkSubsidyAmount(e, amount)
}

// checkSubsidyAmount rejects deposits so small that the implied per-vote
// value floors to zero, which would strand the whole amount.
func checkSubsidyAmount(e *Epoch, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.CodeInvalidAmount, "negative subsidy amount")
	}
	if e.TotalVotes.Sign() > 0 && amount.Sign() > 0 && amount.Cmp(e.TotalVotes) < 0 {
		return reverts.Newf(reverts.CodeInvalidAmount,
			"subsidy %v under one per vote (%v votes)", amount, e.TotalVotes)
	}
	return nil
}

// DepositSubsidies records the epoch's one-shot subsidy deposit and pulls it
// into custody. With zero total votes the deposit is skipped but the stage
// still advances. Non-repeatable, non-modifiable.
func (s *Service) DepositSubsidies(caller ve.Address, epoch uint64, amount *big.Int) error {
	e, err := s.atStage(epoch, StageEnded)
	if err != nil {
		return err
	}
	if e.SubsidyDeposited {
		return reverts.Newf(reverts.CodeAlreadyDone, "epoch %d subsidies already deposited", epoch)
	}

	if e.TotalVotes.Sign() == 0 {
		e.SubsidyDeposited = true
		e.Stage = StageVerified
		if e.ActivePools == 0 {
			e.Stage = StageProcessed
		}
		if err := s.epochs.Set(epochKey(epoch), e); err != nil {
			return err
		}
		logger.Info("subsidy deposit skipped, no votes", "epoch", epoch)
		return nil
	}

	if err := checkSubsidyAmount(e, amount); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		if err := s.custody.Deposit(caller, amount); err != nil {
			return err
		}
	}

	e.SubsidyDeposited = true
	e.TotalSubsidies.Set(amount)
	e.Stage = StageVerified
	if err := s.epochs.Set(epochKey(epoch), e); err != nil {
		return err
	}
	logger.Info("subsidies deposited", "epoch", epoch, "amount", amount)
	return nil
}

// FinalizePools records reward and subsidy allocations for a subset of the
// epoch's pools. Callable incrementally until every pool counted at
// end-of-epoch is covered, which advances the stage to Processed. A pool
// with zero votes is covered without any allocation, so no funds can get
// stuck on it.
func (s *Service) FinalizePools(epoch uint64, pools []ve.Address, rewards, accruedTotals []*big.Int) error {
	if len(pools) == 0 || len(pools) != len(rewards) || len(pools) != len(accruedTotals) {
		return reverts.New(reverts.CodeLengthMismatch, "pools, rewards and accruals must pair up")
	}
	e, err := s.atStage(epoch, StageVerified)
	if err != nil {
		return err
	}

	for i, pool := range pools {
		listed, err := s.voting.IsListed(pool)
		if err != nil {
			return err
		}
		if !listed {
			return reverts.Newf(reverts.CodeNotFound, "pool %v not listed", pool)
		}
		pe, err := s.GetPoolEpoch(epoch, pool)
		if err != nil {
			return err
		}
		if pe.Finalized {
			return reverts.Newf(reverts.CodeAlreadyDone, "pool %v already finalized for epoch %d", pool, epoch)
		}

		votes, err := s.voting.PoolVotes(epoch, pool)
		if err != nil {
			return err
		}
		pe.Finalized = true
		pe.Votes.Set(votes)
		if votes.Sign() > 0 {
			reward := rewards[i]
			if reward == nil || reward.Sign() < 0 {
				return reverts.New(reverts.CodeInvalidAmount, "negative pool reward")
			}
			accrued := accruedTotals[i]
			if accrued == nil || accrued.Sign() < 0 {
				return reverts.New(reverts.CodeInvalidAmount, "negative pool accrual total")
			}
			pe.Reward.Set(reward)
			pe.AccruedTotal.Set(accrued)
			pe.Subsidy.Set(mulDiv(votes, e.TotalSubsidies, e.TotalVotes))
			e.RewardsDeposited.Add(e.RewardsDeposited, reward)
			e.SubsidiesAllocated.Add(e.SubsidiesAllocated, pe.Subsidy)
		}
		if err := s.poolEpochs.Set(poolEpochKey{epoch, pool}, pe); err != nil {
			return err
		}
		// Only pools in the closing snapshot count toward coverage. A pool
		// delisted mid-epoch still finalizes so its votes pay out, but it
		// must not stand in for an uncovered active pool.
		counted, err := s.voting.WasActive(epoch, pool)
		if err != nil {
			return err
		}
		if counted {
			e.FinalizedPools++
		}
	}

	if e.FinalizedPools >= e.ActivePools {
		e.Stage = StageProcessed
	}
	if err := s.epochs.Set(epochKey(epoch), e); err != nil {
		return err
	}
	logger.Info("pools finalized", "epoch", epoch, "count", len(pools),
		"covered", e.FinalizedPools, "of", e.ActivePools)
	return nil
}

// Finalize pulls the recorded reward total into custody and opens claims.
func (s *Service) Finalize(caller ve.Address, epoch uint64) error {
	e, err := s.atStage(epoch, StageProcessed)
	if err != nil {
		return err
	}
	if e.RewardsDeposited.Sign() > 0 {
		if err := s.custody.Deposit(caller, e.RewardsDeposited); err != nil {
			return err
		}
	}
	e.Stage = StageFinalized
	if err := s.epochs.Set(epochKey(epoch), e); err != nil {
		return err
	}
	logger.Info("epoch finalized", "epoch", epoch, "rewards", e.RewardsDeposited,
		"subsidies", e.TotalSubsidies)
	return nil
}

// Sweep recovers each pool's residual-plus-unclaimed balance, and once per
// epoch the never-allocated subsidy remainder, to the treasury. Available
// after the configured delay of epochs past the swept epoch.
func (s *Service) Sweep(epoch uint64, pools []ve.Address, now uint64) (*big.Int, error) {
	e, err := s.atStage(epoch, StageFinalized)
	if err != nil {
		return nil, err
	}
	delay, err := s.params.Get(ve.KeySweepDelay)
	if err != nil {
		return nil, err
	}
	if ve.EpochOf(now) < epoch+delay.Uint64() {
		return nil, reverts.Newf(reverts.CodeWrongState,
			"epoch %d sweepable from epoch %d", epoch, epoch+delay.Uint64())
	}
	treasury, err := s.params.GetAddress(ve.KeyTreasury)
	if err != nil {
		return nil, err
	}
	if treasury.IsZero() {
		return nil, reverts.New(reverts.CodeNotFound, "treasury address not set")
	}

	total := new(big.Int)
	for _, pool := range pools {
		pe, err := s.GetPoolEpoch(epoch, pool)
		if err != nil {
			return nil, err
		}
		if !pe.Finalized {
			return nil, reverts.Newf(reverts.CodeWrongState, "pool %v not finalized for epoch %d", pool, epoch)
		}
		if pe.Swept {
			return nil, reverts.Newf(reverts.CodeAlreadyDone, "pool %v already swept for epoch %d", pool, epoch)
		}
		residual := new(big.Int).Sub(pe.Reward, pe.RewardClaimed)
		residual.Add(residual, new(big.Int).Sub(pe.Subsidy, pe.SubsidyClaimed))
		pe.Swept = true
		if err := s.poolEpochs.Set(poolEpochKey{epoch, pool}, pe); err != nil {
			return nil, err
		}
		total.Add(total, residual)
	}

	if !e.ResidualSwept {
		e.ResidualSwept = true
		total.Add(total, new(big.Int).Sub(e.TotalSubsidies, e.SubsidiesAllocated))
		if err := s.epochs.Set(epochKey(epoch), e); err != nil {
			return nil, err
		}
	}

	if total.Sign() > 0 {
		if err := s.custody.Payout(treasury, total); err != nil {
			return nil, err
		}
	}
	logger.Info("residuals swept", "epoch", epoch, "amount", total, "treasury", treasury)
	return total, nil
}
