// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/voltfi/vecore/api/utils"
	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/gov/decay"
	"github.com/voltfi/vecore/ve"
)

type Accounts struct {
	protocol *gov.Protocol
}

func New(protocol *gov.Protocol) *Accounts {
	return &Accounts{protocol}
}

func parseRole(s string) (decay.Role, error) {
	switch s {
	case "", "personal":
		return decay.RolePersonal, nil
	case "delegate":
		return decay.RoleDelegate, nil
	default:
		return 0, errors.Errorf("unknown role %q", s)
	}
}

func (a *Accounts) handleGetPower(w http.ResponseWriter, req *http.Request) error {
	addr, err := ve.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	role, err := parseRole(req.URL.Query().Get("role"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "role"))
	}

	if raw := req.URL.Query().Get("epoch"); raw != "" {
		epoch, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "epoch"))
		}
		power, err := a.protocol.PowerAtEpochEnd(*addr, role, epoch)
		if err != nil {
			return err
		}
		return utils.WriteJSON(w, convertPower(*addr, epoch, power))
	}

	now := uint64(time.Now().Unix())
	power, err := a.protocol.CurrentPower(*addr, role, now)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPower(*addr, ve.EpochOf(now), power))
}

func (a *Accounts) handleGetPairPower(w http.ResponseWriter, req *http.Request) error {
	addr, err := ve.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	delegate, err := ve.ParseAddress(mux.Vars(req)["delegate"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "delegate"))
	}
	epoch, err := strconv.ParseUint(req.URL.Query().Get("epoch"), 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	power, err := a.protocol.PairPowerAtEpochEnd(*addr, *delegate, epoch)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPower(*addr, epoch, power))
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/power").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetPower))
	sub.Path("/{address}/power/{delegate}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetPairPower))
}
