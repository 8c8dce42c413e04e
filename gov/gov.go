// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gov assembles the protocol: it wires the per-concern services over
// one journaled state, gates administrative operations through an
// authorizer, and wraps every mutating operation in a state checkpoint so a
// failure leaves no partial change behind.
package gov

import (
	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/gov/delegation"
	"github.com/voltfi/vecore/gov/distribution"
	"github.com/voltfi/vecore/gov/fees"
	"github.com/voltfi/vecore/gov/lock"
	"github.com/voltfi/vecore/gov/params"
	"github.com/voltfi/vecore/gov/voting"
	"github.com/voltfi/vecore/metrics"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

// Component addresses namespace each service's storage.
var (
	AddrDecay        = ve.BytesToAddress([]byte("vecore.decay"))
	AddrParams       = ve.BytesToAddress([]byte("vecore.params"))
	AddrLocks        = ve.BytesToAddress([]byte("vecore.locks"))
	AddrFees         = ve.BytesToAddress([]byte("vecore.fees"))
	AddrVoting       = ve.BytesToAddress([]byte("vecore.voting"))
	AddrDistribution = ve.BytesToAddress([]byte("vecore.distribution"))
)

// Capabilities gate administrative operations.
const (
	CapEndEpoch   = "end-epoch"
	CapDeposit    = "deposit"
	CapFinalize   = "finalize"
	CapPoolAdmin  = "pool-admin"
	CapSweep      = "sweep"
	CapParamAdmin = "param-admin"
)

// Custody moves the reward-denominated asset; see distribution.Custody.
type Custody = distribution.Custody

// FundingSource reports verifier accrual figures; see
// distribution.FundingSource.
type FundingSource = distribution.FundingSource

// Authorizer decides whether a caller may exercise a capability.
type Authorizer interface {
	Authorize(caller ve.Address, capability string) bool
}

var (
	metricOps = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("gov_ops_total", []string{"op", "status"})
	})
	metricClaimed = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("gov_claimed_amount_total", []string{"kind"})
	})
)

// Protocol is the assembled governance core.
type Protocol struct {
	state *state.State
	authz Authorizer

	Params       *params.Params
	Decay        *decay.Service
	Locks        *lock.Service
	Delegation   *delegation.Service
	Fees         *fees.Service
	Voting       *voting.Service
	Distribution *distribution.Service
}

// New assembles the protocol over st with the given collaborators.
func New(st *state.State, custody Custody, funding FundingSource, authz Authorizer) *Protocol {
	par := params.New(AddrParams, st)
	dec := decay.New(storage.NewContext(AddrDecay, st))
	locks := lock.New(storage.NewContext(AddrLocks, st), dec, par)
	fee := fees.New(storage.NewContext(AddrFees, st), par)
	vot := voting.New(storage.NewContext(AddrVoting, st), dec, fee)
	del := delegation.New(locks, dec)
	dist := distribution.New(storage.NewContext(AddrDistribution, st),
		vot, del, dec, fee, par, custody, funding)
	return &Protocol{
		state:        st,
		authz:        authz,
		Params:       par,
		Decay:        dec,
		Locks:        locks,
		Delegation:   del,
		Fees:         fee,
		Voting:       vot,
		Distribution: dist,
	}
}
