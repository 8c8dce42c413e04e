// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"math/big"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/ve"
)

// ClaimRewards pays out the caller's personal reward share for the given
// pools of a finalized epoch. Each (epoch, pool) share is claimable once;
// the paid amount is the exact floor of votes·reward/poolVotes.
func (s *Service) ClaimRewards(caller ve.Address, epoch uint64, pools []ve.Address) (*big.Int, error) {
	if len(pools) == 0 {
		return nil, reverts.New(reverts.CodeLengthMismatch, "no pools given")
	}
	e, err := s.atStage(epoch, StageFinalized)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, pool := range pools {
		claimed, err := s.rewardClaims.Get(claimKey{epoch, pool, caller})
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, reverts.Newf(reverts.CodeAlreadyDone,
				"reward for epoch %d pool %v already claimed", epoch, pool)
		}
		if err := s.rewardClaims.Set(claimKey{epoch, pool, caller}, true); err != nil {
			return nil, err
		}

		pe, err := s.GetPoolEpoch(epoch, pool)
		if err != nil {
			return nil, err
		}
		votes, err := s.voting.AccountVotes(epoch, pool, decay.RolePersonal, caller)
		if err != nil {
			return nil, err
		}
		amount := mulDiv(votes, pe.Reward, pe.Votes)
		if amount.Sign() == 0 {
			continue
		}
		if err := s.bookRewardClaim(e, pe, epoch, pool, amount); err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}

	if err := s.epochs.Set(epochKey(epoch), e); err != nil {
		return nil, err
	}
	if total.Sign() > 0 {
		if err := s.custody.Payout(caller, total); err != nil {
			return nil, err
		}
	}
	logger.Info("rewards claimed", "epoch", epoch, "account", caller, "amount", total)
	return total, nil
}

// ClaimDelegatedRewards pays out the caller's share of what a delegate
// earned across the given pools. Per pool, the delegate's reward is its
// votes' proportion of the pool reward, and the caller's gross share is
// their pairwise end-of-epoch power over the delegate's total. The
// delegate's recorded fee for the epoch is deducted once from the aggregate
// gross, so its floor loss inures to the caller.
func (s *Service) ClaimDelegatedRewards(caller, delegate ve.Address, epoch uint64, pools []ve.Address) (*big.Int, error) {
	if len(pools) == 0 {
		return nil, reverts.New(reverts.CodeLengthMismatch, "no pools given")
	}
	e, err := s.atStage(epoch, StageFinalized)
	if err != nil {
		return nil, err
	}
	fee, err := s.fees.FeeAt(delegate, epoch)
	if err != nil {
		return nil, err
	}
	if fee.Sign() == 0 {
		return nil, reverts.Newf(reverts.CodeNotFound,
			"delegate %v has no recorded fee for epoch %d", delegate, epoch)
	}

	userPower, err := s.delegation.PairPowerAtEpochEnd(caller, delegate, epoch)
	if err != nil {
		return nil, err
	}
	delegatePower, err := s.decay.ValueAtEpochEnd(decay.AccountLedger(decay.RoleDelegate, delegate), epoch)
	if err != nil {
		return nil, err
	}

	gross := new(big.Int)
	for _, pool := range pools {
		claimed, err := s.delegatedClaims.Get(delegatedClaimKey{epoch, caller, delegate, pool})
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, reverts.Newf(reverts.CodeAlreadyDone,
				"delegated reward for epoch %d pool %v already claimed", epoch, pool)
		}
		if err := s.delegatedClaims.Set(delegatedClaimKey{epoch, caller, delegate, pool}, true); err != nil {
			return nil, err
		}

		pe, err := s.GetPoolEpoch(epoch, pool)
		if err != nil {
			return nil, err
		}
		delegateVotes, err := s.voting.AccountVotes(epoch, pool, decay.RoleDelegate, delegate)
		if err != nil {
			return nil, err
		}
		delegateReward := mulDiv(delegateVotes, pe.Reward, pe.Votes)
		share := mulDiv(userPower, delegateReward, delegatePower)
		if share.Sign() == 0 {
			continue
		}
		if err := s.bookRewardClaim(e, pe, epoch, pool, share); err != nil {
			return nil, err
		}
		gross.Add(gross, share)
	}
	if err := s.epochs.Set(epochKey(epoch), e); err != nil {
		return nil, err
	}

	feeAmount := mulDiv(gross, fee, ve.FeeDenominator())
	net := new(big.Int).Sub(gross, feeAmount)

	if net.Sign() > 0 {
		if err := s.custody.Payout(caller, net); err != nil {
			return nil, err
		}
	}
	if feeAmount.Sign() > 0 {
		if err := s.custody.Payout(delegate, feeAmount); err != nil {
			return nil, err
		}
	}
	if gross.Sign() > 0 {
		if err := s.fees.AddCaptured(delegate, gross, feeAmount); err != nil {
			return nil, err
		}
		pair, err := s.pairNetClaimed.Get(pairKey{epoch, caller, delegate})
		if err != nil {
			return nil, err
		}
		if err := s.pairNetClaimed.Set(pairKey{epoch, caller, delegate}, pair.Add(pair, net)); err != nil {
			return nil, err
		}
	}
	logger.Info("delegated rewards claimed", "epoch", epoch, "account", caller,
		"delegate", delegate, "gross", gross, "fee", feeAmount)
	return net, nil
}

// ClaimSubsidy pays out a verifier's subsidy share for one pool of a
// finalized epoch: accrued·poolSubsidy/poolAccruedTotal, floored, claimable
// once.
func (s *Service) ClaimSubsidy(verifier ve.Address, epoch uint64, pool ve.Address) (*big.Int, error) {
	e, err := s.atStage(epoch, StageFinalized)
	if err != nil {
		return nil, err
	}
	claimed, err := s.subsidyClaims.Get(claimKey{epoch, pool, verifier})
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, reverts.Newf(reverts.CodeAlreadyDone,
			"subsidy for epoch %d pool %v already claimed", epoch, pool)
	}

	pe, err := s.GetPoolEpoch(epoch, pool)
	if err != nil {
		return nil, err
	}
	if !pe.Finalized {
		return nil, reverts.Newf(reverts.CodeWrongState, "pool %v not finalized for epoch %d", pool, epoch)
	}
	accrued, err := s.funding.AccruedOf(epoch, pool, verifier)
	if err != nil {
		return nil, err
	}
	if accrued == nil || accrued.Sign() <= 0 {
		return nil, reverts.Newf(reverts.CodeInsufficient,
			"verifier %v has no accrual for epoch %d pool %v", verifier, epoch, pool)
	}

	amount := mulDiv(accrued, pe.Subsidy, pe.AccruedTotal)
	if err := s.subsidyClaims.Set(claimKey{epoch, pool, verifier}, true); err != nil {
		return nil, err
	}
	if amount.Sign() > 0 {
		pe.SubsidyClaimed.Add(pe.SubsidyClaimed, amount)
		if err := s.poolEpochs.Set(poolEpochKey{epoch, pool}, pe); err != nil {
			return nil, err
		}
		e.SubsidiesClaimed.Add(e.SubsidiesClaimed, amount)
		if err := s.epochs.Set(epochKey(epoch), e); err != nil {
			return nil, err
		}
		if err := s.addPoolClaimed(pool, amount); err != nil {
			return nil, err
		}
		if err := s.custody.Payout(verifier, amount); err != nil {
			return nil, err
		}
	}
	logger.Info("subsidy claimed", "epoch", epoch, "pool", pool, "verifier", verifier, "amount", amount)
	return amount, nil
}

// bookRewardClaim increments the claim counters by the exact amount about to
// be transferred.
func (s *Service) bookRewardClaim(e *Epoch, pe *PoolEpoch, epoch uint64, pool ve.Address, amount *big.Int) error {
	pe.RewardClaimed.Add(pe.RewardClaimed, amount)
	if err := s.poolEpochs.Set(poolEpochKey{epoch, pool}, pe); err != nil {
		return err
	}
	e.RewardsClaimed.Add(e.RewardsClaimed, amount)
	return s.addPoolClaimed(pool, amount)
}

func (s *Service) addPoolClaimed(pool ve.Address, amount *big.Int) error {
	claimed, err := s.poolClaimed.Get(pool)
	if err != nil {
		return err
	}
	return s.poolClaimed.Set(pool, claimed.Add(claimed, amount))
}
