// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package params holds the storage-backed governance parameters of the
// protocol, keyed by well-known slots declared in package ve.
package params

import (
	"math/big"

	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/storage"
	"github.com/voltfi/vecore/ve"
)

// Params is the governance parameter registry.
type Params struct {
	sctx *storage.Context
}

// New creates the registry at the given component address.
func New(addr ve.Address, st *state.State) *Params {
	return &Params{sctx: storage.NewContext(addr, st)}
}

// Get returns the value set for key, falling back to the initial value for
// the well-known keys when unset.
func (p *Params) Get(key ve.Bytes32) (*big.Int, error) {
	v, err := storage.NewUint256(p.sctx, key).Get()
	if err != nil {
		return nil, err
	}
	if v.Sign() != 0 {
		return v, nil
	}
	switch key {
	case ve.KeyMaxDelegateFee:
		return new(big.Int).Set(ve.InitialMaxDelegateFee), nil
	case ve.KeyFeeIncreaseDelay:
		return new(big.Int).Set(ve.InitialFeeIncreaseDelay), nil
	case ve.KeySweepDelay:
		return new(big.Int).Set(ve.InitialSweepDelay), nil
	case ve.KeyMinLockAmount:
		return new(big.Int).Set(ve.InitialMinLockAmount), nil
	}
	return v, nil
}

// Set sets the value for key.
func (p *Params) Set(key ve.Bytes32, value *big.Int) {
	storage.NewUint256(p.sctx, key).Set(value)
}

// GetAddress returns an address-valued param.
func (p *Params) GetAddress(key ve.Bytes32) (ve.Address, error) {
	v, err := storage.NewUint256(p.sctx, key).Get()
	if err != nil {
		return ve.Address{}, err
	}
	return ve.BytesToAddress(v.Bytes()), nil
}

// SetAddress sets an address-valued param.
func (p *Params) SetAddress(key ve.Bytes32, addr ve.Address) {
	storage.NewUint256(p.sctx, key).Set(new(big.Int).SetBytes(addr.Bytes()))
}
