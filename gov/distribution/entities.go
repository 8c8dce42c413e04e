// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distribution drives epoch settlement: the finalization stage
// machine, the one-shot subsidy deposit, per-pool reward/subsidy allocation,
// and claim-time proportional payout. No per-vote rate is ever stored; every
// share is computed at claim time by multiplying before dividing, so the one
// unavoidable floor is never compounded.
package distribution

import (
	"encoding/binary"
	"math/big"

	"github.com/voltfi/vecore/ve"
)

// Stage is the finalization state of an epoch. Transitions are strictly
// sequential.
type Stage uint8

const (
	StageVoting Stage = iota
	StageEnded
	StageVerified
	StageProcessed
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageVoting:
		return "voting"
	case StageEnded:
		return "ended"
	case StageVerified:
		return "verified"
	case StageProcessed:
		return "processed"
	case StageFinalized:
		return "finalized"
	}
	return "unknown"
}

// Epoch is the settlement aggregate of one epoch.
type Epoch struct {
	Stage              Stage
	TotalVotes         *big.Int
	ActivePools        uint64
	FinalizedPools     uint64
	SubsidyDeposited   bool
	TotalSubsidies     *big.Int
	SubsidiesAllocated *big.Int
	RewardsDeposited   *big.Int
	RewardsClaimed     *big.Int
	SubsidiesClaimed   *big.Int
	ResidualSwept      bool
}

func (e *Epoch) norm() *Epoch {
	for _, p := range []**big.Int{
		&e.TotalVotes, &e.TotalSubsidies, &e.SubsidiesAllocated,
		&e.RewardsDeposited, &e.RewardsClaimed, &e.SubsidiesClaimed,
	} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
	return e
}

// PoolEpoch is one pool's settlement record for one epoch.
type PoolEpoch struct {
	Finalized      bool
	Votes          *big.Int
	Reward         *big.Int
	Subsidy        *big.Int
	AccruedTotal   *big.Int
	RewardClaimed  *big.Int
	SubsidyClaimed *big.Int
	Swept          bool
}

func (p *PoolEpoch) norm() *PoolEpoch {
	for _, q := range []**big.Int{
		&p.Votes, &p.Reward, &p.Subsidy, &p.AccruedTotal,
		&p.RewardClaimed, &p.SubsidyClaimed,
	} {
		if *q == nil {
			*q = new(big.Int)
		}
	}
	return p
}

type epochKey uint64

func (k epochKey) Bytes() []byte {
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

// claimKey marks a personal reward or verifier subsidy claim.
type claimKey struct {
	epoch   uint64
	pool    ve.Address
	account ve.Address
}

func (k claimKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	b = append(b, k.pool.Bytes()...)
	return append(b, k.account.Bytes()...)
}

// delegatedClaimKey marks a delegated reward claim. The pool belongs in the
// key: a user may delegate to several delegates voting in overlapping pools,
// so a coarser (epoch, user, delegate) flag would block legitimate claims.
type delegatedClaimKey struct {
	epoch    uint64
	user     ve.Address
	delegate ve.Address
	pool     ve.Address
}

func (k delegatedClaimKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	b = append(b, k.user.Bytes()...)
	b = append(b, k.delegate.Bytes()...)
	return append(b, k.pool.Bytes()...)
}

// pairKey keys a (epoch, user, delegate) aggregate.
type pairKey struct {
	epoch    uint64
	user     ve.Address
	delegate ve.Address
}

func (k pairKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint64(nil, k.epoch)
	b = append(b, k.user.Bytes()...)
	return append(b, k.delegate.Bytes()...)
}

// mulDiv returns a*b/den floored, zero when the denominator is zero.
func mulDiv(a, b, den *big.Int) *big.Int {
	if den.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(a, b)
	return out.Div(out, den)
}
