// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegates

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/voltfi/vecore/api/utils"
	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/gov/fees"
	"github.com/voltfi/vecore/ve"
)

type Delegates struct {
	protocol *gov.Protocol
}

func New(protocol *gov.Protocol) *Delegates {
	return &Delegates{protocol}
}

// Delegate is the public fee record of a registered delegate.
type Delegate struct {
	Address          ve.Address           `json:"address"`
	Registered       bool                 `json:"registered"`
	Fee              math.HexOrDecimal256 `json:"fee,string"`
	PendingFee       math.HexOrDecimal256 `json:"pendingFee,string"`
	PendingEffective uint64               `json:"pendingEffective"`
	TotalGross       math.HexOrDecimal256 `json:"totalGross,string"`
	TotalFees        math.HexOrDecimal256 `json:"totalFees,string"`
}

func convertDelegate(addr ve.Address, d *fees.Delegate) *Delegate {
	return &Delegate{
		Address:          addr,
		Registered:       d.Registered,
		Fee:              math.HexOrDecimal256(*d.Fee),
		PendingFee:       math.HexOrDecimal256(*d.PendingFee),
		PendingEffective: d.PendingEffective,
		TotalGross:       math.HexOrDecimal256(*d.TotalGross),
		TotalFees:        math.HexOrDecimal256(*d.TotalFees),
	}
}

func (d *Delegates) handleGetDelegate(w http.ResponseWriter, req *http.Request) error {
	addr, err := ve.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	record, err := d.protocol.GetDelegate(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertDelegate(*addr, record))
}

func (d *Delegates) handleGetEpochFee(w http.ResponseWriter, req *http.Request) error {
	addr, err := ve.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	epoch, err := strconv.ParseUint(mux.Vars(req)["epoch"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	fee, err := d.protocol.Fees.FeeAt(*addr, epoch)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, map[string]interface{}{
		"address": addr,
		"epoch":   epoch,
		"fee":     math.HexOrDecimal256(*fee),
	})
}

func (d *Delegates) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetDelegate))
	sub.Path("/{address}/fee/{epoch}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetEpochFee))
}
