// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/voltfi/vecore/api/utils"
	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/ve"
)

type Epochs struct {
	protocol *gov.Protocol
}

func New(protocol *gov.Protocol) *Epochs {
	return &Epochs{protocol}
}

func parseEpoch(req *http.Request) (uint64, error) {
	epoch, err := strconv.ParseUint(mux.Vars(req)["epoch"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	return epoch, nil
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	epoch, err := parseEpoch(req)
	if err != nil {
		return err
	}
	record, err := e.protocol.GetEpoch(epoch)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertEpoch(epoch, record))
}

func (e *Epochs) handleGetTotalPower(w http.ResponseWriter, req *http.Request) error {
	epoch, err := parseEpoch(req)
	if err != nil {
		return err
	}
	power, err := e.protocol.TotalPowerAtEpochEnd(epoch)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertTotalPower(epoch, power))
}

func (e *Epochs) handleGetPoolEpoch(w http.ResponseWriter, req *http.Request) error {
	epoch, err := parseEpoch(req)
	if err != nil {
		return err
	}
	pool, err := ve.ParseAddress(mux.Vars(req)["pool"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "pool"))
	}
	record, err := e.protocol.GetPoolEpoch(epoch, *pool)
	if err != nil {
		return err
	}
	votes, err := e.protocol.Voting.PoolVotes(epoch, *pool)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPoolEpoch(epoch, *pool, record, votes))
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{epoch}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
	sub.Path("/{epoch}/power").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetTotalPower))
	sub.Path("/{epoch}/pools/{pool}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleGetPoolEpoch))
}
