// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gov

import (
	"math/big"

	"github.com/voltfi/vecore/token"
	"github.com/voltfi/vecore/ve"
)

// AddrPot holds deposited rewards and subsidies until they are claimed or
// swept.
var AddrPot = ve.BytesToAddress([]byte("vecore.pot"))

// tokenCustody backs the distribution engine's custody seam with the
// state-backed token ledger.
type tokenCustody struct {
	ledger *token.Ledger
	pot    ve.Address
}

// NewTokenCustody wraps a token ledger as the protocol's custody, pooling
// funds at the pot address.
func NewTokenCustody(ledger *token.Ledger) Custody {
	return &tokenCustody{ledger: ledger, pot: AddrPot}
}

func (c *tokenCustody) Deposit(from ve.Address, amount *big.Int) error {
	return c.ledger.Transfer(from, c.pot, amount)
}

func (c *tokenCustody) Payout(to ve.Address, amount *big.Int) error {
	return c.ledger.Transfer(c.pot, to, amount)
}
