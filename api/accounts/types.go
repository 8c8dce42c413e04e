// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/voltfi/vecore/ve"
)

// Power is the voting power of one account at one epoch's end.
type Power struct {
	Address ve.Address           `json:"address"`
	Epoch   uint64               `json:"epoch"`
	Power   math.HexOrDecimal256 `json:"power,string"`
}

func convertPower(addr ve.Address, epoch uint64, power *big.Int) *Power {
	return &Power{
		Address: addr,
		Epoch:   epoch,
		Power:   math.HexOrDecimal256(*power),
	}
}
