// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the state-backed balance ledger of the
// reward-denominated asset. It is the default custody collaborator of the
// distribution engine; redemption and penalty mechanics live outside the
// core.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

var (
	slotBalances    = ve.BytesToBytes32([]byte("balances"))
	slotTotalSupply = ve.BytesToBytes32([]byte("total-supply"))
)

// Ledger tracks balances of the reward asset per account.
type Ledger struct {
	balances    *storage.Mapping[ve.Address, *big.Int]
	totalSupply *storage.Uint256
}

// New creates a ledger living at the given component address.
func New(addr ve.Address, st *state.State) *Ledger {
	sctx := storage.NewContext(addr, st)
	return &Ledger{
		balances:    storage.NewMapping[ve.Address, *big.Int](sctx, slotBalances),
		totalSupply: storage.NewUint256(sctx, slotTotalSupply),
	}
}

// BalanceOf returns the balance of an account.
func (l *Ledger) BalanceOf(addr ve.Address) (*big.Int, error) {
	bal, err := l.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "get balance")
	}
	return bal, nil
}

// TotalSupply returns the total minted minus burned amount.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.totalSupply.Get()
}

// Mint credits an account, growing total supply.
func (l *Ledger) Mint(addr ve.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	bal, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := l.balances.Set(addr, bal.Add(bal, amount)); err != nil {
		return err
	}
	return l.totalSupply.Add(amount)
}

// Burn debits an account, shrinking total supply.
func (l *Ledger) Burn(addr ve.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	bal, err := l.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	if err := l.balances.Set(addr, bal.Sub(bal, amount)); err != nil {
		return err
	}
	return l.totalSupply.Sub(amount)
}

// Transfer moves amount between accounts.
func (l *Ledger) Transfer(from, to ve.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	toBal, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.balances.Set(to, toBal.Add(toBal, amount))
}
