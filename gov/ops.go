// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"math/big"

	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/distribution"
	"github.com/voltfi/vecore/gov/fees"
	"github.com/voltfi/vecore/gov/lock"
	"github.com/voltfi/vecore/gov/reverts"
	"github.com/voltfi/vecore/ve"
)

// run executes a mutating operation inside a state checkpoint. Any error
// reverts every write the operation made.
func (p *Protocol) run(op string, fn func() error) error {
	cp := p.state.NewCheckpoint()
	if err := fn(); err != nil {
		p.state.RevertTo(cp)
		metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "reverted"})
		return err
	}
	metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "ok"})
	return nil
}

func (p *Protocol) authorize(caller ve.Address, capability string) error {
	if p.authz != nil && !p.authz.Authorize(caller, capability) {
		return reverts.Newf(reverts.CodeWrongCaller, "%v lacks capability %s", caller, capability)
	}
	return nil
}

// CreateLock opens a locked position for the caller.
func (p *Protocol) CreateLock(caller ve.Address, amount *big.Int, expiry, now uint64) (id lock.ID, err error) {
	err = p.run("create_lock", func() error {
		id, err = p.Locks.Create(caller, amount, expiry, now)
		return err
	})
	return
}

// IncreaseLockAmount adds principal to the caller's lock.
func (p *Protocol) IncreaseLockAmount(caller ve.Address, id lock.ID, delta *big.Int, now uint64) error {
	return p.run("increase_amount", func() error {
		return p.Locks.IncreaseAmount(caller, id, delta, now)
	})
}

// IncreaseLockDuration extends the caller's lock.
func (p *Protocol) IncreaseLockDuration(caller ve.Address, id lock.ID, expiry, now uint64) error {
	return p.run("increase_duration", func() error {
		return p.Locks.IncreaseDuration(caller, id, expiry, now)
	})
}

// Unlock withdraws an expired lock's principal.
func (p *Protocol) Unlock(caller ve.Address, id lock.ID, now uint64) (amount *big.Int, err error) {
	err = p.run("unlock", func() error {
		amount, err = p.Locks.Unlock(caller, id, now)
		return err
	})
	return
}

// Delegate assigns the caller's lock power to a delegate.
func (p *Protocol) Delegate(caller ve.Address, id lock.ID, delegate ve.Address, now uint64) error {
	return p.run("delegate", func() error {
		return p.Delegation.Delegate(caller, id, delegate, now)
	})
}

// Undelegate returns the caller's lock power to the personal ledger.
func (p *Protocol) Undelegate(caller ve.Address, id lock.ID, now uint64) error {
	return p.run("undelegate", func() error {
		return p.Delegation.Undelegate(caller, id, now)
	})
}

// SwitchDelegate reassigns the caller's lock to another delegate.
func (p *Protocol) SwitchDelegate(caller ve.Address, id lock.ID, delegate ve.Address, now uint64) error {
	return p.run("switch_delegate", func() error {
		return p.Delegation.Switch(caller, id, delegate, now)
	})
}

// RegisterDelegate enrolls the caller as a delegate.
func (p *Protocol) RegisterDelegate(caller ve.Address, fee *big.Int) error {
	return p.run("register_delegate", func() error {
		return p.Fees.Register(caller, fee)
	})
}

// SetDelegateFee changes the caller's delegate fee rate.
func (p *Protocol) SetDelegateFee(caller ve.Address, fee *big.Int, now uint64) error {
	return p.run("set_delegate_fee", func() error {
		return p.Fees.SetFee(caller, fee, now)
	})
}

// Vote casts votes in the current epoch.
func (p *Protocol) Vote(caller ve.Address, pools []ve.Address, amounts []*big.Int, delegated bool, now uint64) error {
	return p.run("vote", func() error {
		return p.Voting.Vote(caller, pools, amounts, delegated, now)
	})
}

// MigrateVotes moves cast votes between pools within the current epoch.
func (p *Protocol) MigrateVotes(caller ve.Address, src, dst []ve.Address, amounts []*big.Int, delegated bool, now uint64) error {
	return p.run("migrate_votes", func() error {
		return p.Voting.MigrateVotes(caller, src, dst, amounts, delegated, now)
	})
}

// AddPool lists a votable pool.
func (p *Protocol) AddPool(caller, pool ve.Address) error {
	return p.run("add_pool", func() error {
		if err := p.authorize(caller, CapPoolAdmin); err != nil {
			return err
		}
		return p.Voting.AddPool(pool)
	})
}

// RemovePool deactivates a pool.
func (p *Protocol) RemovePool(caller, pool ve.Address) error {
	return p.run("remove_pool", func() error {
		if err := p.authorize(caller, CapPoolAdmin); err != nil {
			return err
		}
		return p.Voting.RemovePool(pool)
	})
}

// EndEpoch closes the epoch's voting window.
func (p *Protocol) EndEpoch(caller ve.Address, epoch, now uint64) error {
	return p.run("end_epoch", func() error {
		if err := p.authorize(caller, CapEndEpoch); err != nil {
			return err
		}
		return p.Distribution.EndEpoch(epoch, now)
	})
}

// DepositSubsidies records the epoch's one-shot subsidy deposit.
func (p *Protocol) DepositSubsidies(caller ve.Address, epoch uint64, amount *big.Int) error {
	return p.run("deposit_subsidies", func() error {
		if err := p.authorize(caller, CapDeposit); err != nil {
			return err
		}
		return p.Distribution.DepositSubsidies(caller, epoch, amount)
	})
}

// PreviewSubsidyDeposit checks a deposit without changing state.
func (p *Protocol) PreviewSubsidyDeposit(epoch uint64, amount *big.Int) error {
	return p.Distribution.PreviewSubsidyDeposit(epoch, amount)
}

// FinalizePools records allocations for a subset of the epoch's pools.
func (p *Protocol) FinalizePools(caller ve.Address, epoch uint64, pools []ve.Address, rewards, accruedTotals []*big.Int) error {
	return p.run("finalize_pools", func() error {
		if err := p.authorize(caller, CapFinalize); err != nil {
			return err
		}
		return p.Distribution.FinalizePools(epoch, pools, rewards, accruedTotals)
	})
}

// FinalizeEpoch pulls the reward funding into custody and opens claims.
func (p *Protocol) FinalizeEpoch(caller ve.Address, epoch uint64) error {
	return p.run("finalize_epoch", func() error {
		if err := p.authorize(caller, CapFinalize); err != nil {
			return err
		}
		return p.Distribution.Finalize(caller, epoch)
	})
}

// Sweep recovers an epoch's residual and unclaimed funds to the treasury.
func (p *Protocol) Sweep(caller ve.Address, epoch uint64, pools []ve.Address, now uint64) (swept *big.Int, err error) {
	err = p.run("sweep", func() error {
		if err := p.authorize(caller, CapSweep); err != nil {
			return err
		}
		swept, err = p.Distribution.Sweep(epoch, pools, now)
		return err
	})
	return
}

// ClaimRewards pays out the caller's personal reward shares.
func (p *Protocol) ClaimRewards(caller ve.Address, epoch uint64, pools []ve.Address) (amount *big.Int, err error) {
	err = p.run("claim_rewards", func() error {
		amount, err = p.Distribution.ClaimRewards(caller, epoch, pools)
		if err == nil {
			metricClaimed().AddWithLabel(amount.Int64(), map[string]string{"kind": "reward"})
		}
		return err
	})
	return
}

// ClaimDelegatedRewards pays out the caller's share of a delegate's rewards.
func (p *Protocol) ClaimDelegatedRewards(caller, delegate ve.Address, epoch uint64, pools []ve.Address) (net *big.Int, err error) {
	err = p.run("claim_delegated", func() error {
		net, err = p.Distribution.ClaimDelegatedRewards(caller, delegate, epoch, pools)
		if err == nil {
			metricClaimed().AddWithLabel(net.Int64(), map[string]string{"kind": "delegated"})
		}
		return err
	})
	return
}

// ClaimSubsidy pays out a verifier's subsidy share for one pool.
func (p *Protocol) ClaimSubsidy(verifier ve.Address, epoch uint64, pool ve.Address) (amount *big.Int, err error) {
	err = p.run("claim_subsidy", func() error {
		amount, err = p.Distribution.ClaimSubsidy(verifier, epoch, pool)
		if err == nil {
			metricClaimed().AddWithLabel(amount.Int64(), map[string]string{"kind": "subsidy"})
		}
		return err
	})
	return
}

// Housekeep advances the given account ledgers and the global aggregate to
// the current boundary. A catch-up valve for long-dormant accounts, so no
// single operation has to absorb an unbounded walk.
func (p *Protocol) Housekeep(accounts []ve.Address, role decay.Role, now uint64) error {
	return p.run("housekeep", func() error {
		for _, addr := range accounts {
			if _, err := p.Decay.Advance(decay.AccountLedger(role, addr), now); err != nil {
				return err
			}
		}
		_, err := p.Decay.Advance(decay.GlobalLedger(), now)
		return err
	})
}

// SetParam sets a governance parameter.
func (p *Protocol) SetParam(caller ve.Address, key ve.Bytes32, value *big.Int) error {
	return p.run("set_param", func() error {
		if err := p.authorize(caller, CapParamAdmin); err != nil {
			return err
		}
		p.Params.Set(key, value)
		return nil
	})
}

// SetParamAddress sets an address-valued governance parameter.
func (p *Protocol) SetParamAddress(caller ve.Address, key ve.Bytes32, addr ve.Address) error {
	return p.run("set_param_address", func() error {
		if err := p.authorize(caller, CapParamAdmin); err != nil {
			return err
		}
		p.Params.SetAddress(key, addr)
		return nil
	})
}

// Commit flushes the journaled state to the backing store.
func (p *Protocol) Commit() error {
	return p.state.Commit()
}

// CurrentPower returns an account's decayed power at now under the role.
func (p *Protocol) CurrentPower(account ve.Address, role decay.Role, now uint64) (*big.Int, error) {
	return p.Decay.ValueAt(decay.AccountLedger(role, account), now)
}

// PowerAtEpochEnd returns an account's frozen end-of-epoch power under the
// role.
func (p *Protocol) PowerAtEpochEnd(account ve.Address, role decay.Role, epoch uint64) (*big.Int, error) {
	return p.Decay.ValueAtEpochEnd(decay.AccountLedger(role, account), epoch)
}

// TotalPowerAtEpochEnd returns the protocol-wide end-of-epoch power.
func (p *Protocol) TotalPowerAtEpochEnd(epoch uint64) (*big.Int, error) {
	return p.Decay.ValueAtEpochEnd(decay.GlobalLedger(), epoch)
}

// PairPowerAtEpochEnd returns the power delegator had assigned to delegate
// at the epoch's end.
func (p *Protocol) PairPowerAtEpochEnd(delegator, delegate ve.Address, epoch uint64) (*big.Int, error) {
	return p.Delegation.PairPowerAtEpochEnd(delegator, delegate, epoch)
}

// GetLock returns a lock record.
func (p *Protocol) GetLock(id lock.ID) (*lock.Lock, error) {
	return p.Locks.Get(id)
}

// GetDelegate returns a delegate's fee record.
func (p *Protocol) GetDelegate(delegate ve.Address) (*fees.Delegate, error) {
	return p.Fees.Get(delegate)
}

// GetEpoch returns an epoch's settlement aggregate.
func (p *Protocol) GetEpoch(epoch uint64) (*distribution.Epoch, error) {
	return p.Distribution.GetEpoch(epoch)
}

// GetPoolEpoch returns a pool's settlement record for an epoch.
func (p *Protocol) GetPoolEpoch(epoch uint64, pool ve.Address) (*distribution.PoolEpoch, error) {
	return p.Distribution.GetPoolEpoch(epoch, pool)
}
