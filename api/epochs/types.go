// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/voltfi/vecore/gov/distribution"
	"github.com/voltfi/vecore/ve"
)

// Epoch is the settlement summary of one epoch.
type Epoch struct {
	Number             uint64               `json:"number"`
	Start              uint64               `json:"start"`
	End                uint64               `json:"end"`
	Stage              string               `json:"stage"`
	TotalVotes         math.HexOrDecimal256 `json:"totalVotes,string"`
	ActivePools        uint64               `json:"activePools"`
	FinalizedPools     uint64               `json:"finalizedPools"`
	SubsidyDeposited   bool                 `json:"subsidyDeposited"`
	TotalSubsidies     math.HexOrDecimal256 `json:"totalSubsidies,string"`
	SubsidiesAllocated math.HexOrDecimal256 `json:"subsidiesAllocated,string"`
	RewardsDeposited   math.HexOrDecimal256 `json:"rewardsDeposited,string"`
	RewardsClaimed     math.HexOrDecimal256 `json:"rewardsClaimed,string"`
	SubsidiesClaimed   math.HexOrDecimal256 `json:"subsidiesClaimed,string"`
}

func convertEpoch(number uint64, e *distribution.Epoch) *Epoch {
	return &Epoch{
		Number:             number,
		Start:              ve.EpochStart(number),
		End:                ve.EpochEnd(number),
		Stage:              e.Stage.String(),
		TotalVotes:         math.HexOrDecimal256(*e.TotalVotes),
		ActivePools:        e.ActivePools,
		FinalizedPools:     e.FinalizedPools,
		SubsidyDeposited:   e.SubsidyDeposited,
		TotalSubsidies:     math.HexOrDecimal256(*e.TotalSubsidies),
		SubsidiesAllocated: math.HexOrDecimal256(*e.SubsidiesAllocated),
		RewardsDeposited:   math.HexOrDecimal256(*e.RewardsDeposited),
		RewardsClaimed:     math.HexOrDecimal256(*e.RewardsClaimed),
		SubsidiesClaimed:   math.HexOrDecimal256(*e.SubsidiesClaimed),
	}
}

// TotalPower is the aggregate end-of-epoch voting power.
type TotalPower struct {
	Epoch uint64               `json:"epoch"`
	Power math.HexOrDecimal256 `json:"power,string"`
}

func convertTotalPower(epoch uint64, power *big.Int) *TotalPower {
	return &TotalPower{Epoch: epoch, Power: math.HexOrDecimal256(*power)}
}

// PoolEpoch is one pool's record for one epoch. CastVotes tracks the live
// voting tally; Votes is the snapshot taken at finalization.
type PoolEpoch struct {
	Epoch          uint64               `json:"epoch"`
	Pool           ve.Address           `json:"pool"`
	Finalized      bool                 `json:"finalized"`
	CastVotes      math.HexOrDecimal256 `json:"castVotes,string"`
	Votes          math.HexOrDecimal256 `json:"votes,string"`
	Reward         math.HexOrDecimal256 `json:"reward,string"`
	Subsidy        math.HexOrDecimal256 `json:"subsidy,string"`
	AccruedTotal   math.HexOrDecimal256 `json:"accruedTotal,string"`
	RewardClaimed  math.HexOrDecimal256 `json:"rewardClaimed,string"`
	SubsidyClaimed math.HexOrDecimal256 `json:"subsidyClaimed,string"`
	Swept          bool                 `json:"swept"`
}

func convertPoolEpoch(epoch uint64, pool ve.Address, p *distribution.PoolEpoch, castVotes *big.Int) *PoolEpoch {
	return &PoolEpoch{
		Epoch:          epoch,
		Pool:           pool,
		Finalized:      p.Finalized,
		CastVotes:      math.HexOrDecimal256(*castVotes),
		Votes:          math.HexOrDecimal256(*p.Votes),
		Reward:         math.HexOrDecimal256(*p.Reward),
		Subsidy:        math.HexOrDecimal256(*p.Subsidy),
		AccruedTotal:   math.HexOrDecimal256(*p.AccruedTotal),
		RewardClaimed:  math.HexOrDecimal256(*p.RewardClaimed),
		SubsidyClaimed: math.HexOrDecimal256(*p.SubsidyClaimed),
		Swept:          p.Swept,
	}
}
