// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package locks

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/voltfi/vecore/api/utils"
	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/gov/lock"
	"github.com/voltfi/vecore/ve"
)

type Locks struct {
	protocol *gov.Protocol
}

func New(protocol *gov.Protocol) *Locks {
	return &Locks{protocol}
}

// Lock is the public view of one locked position.
type Lock struct {
	ID       uint64               `json:"id"`
	Owner    ve.Address           `json:"owner"`
	Amount   math.HexOrDecimal256 `json:"amount,string"`
	Expiry   uint64               `json:"expiry"`
	Delegate *ve.Address          `json:"delegate"`
}

func convertLock(id lock.ID, l *lock.Lock) *Lock {
	return &Lock{
		ID:       uint64(id),
		Owner:    l.Owner,
		Amount:   math.HexOrDecimal256(*l.Amount),
		Expiry:   l.Expiry,
		Delegate: l.Delegate,
	}
}

func (s *Locks) handleGetLock(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	record, err := s.protocol.GetLock(lock.ID(id))
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertLock(lock.ID(id), record))
}

func (s *Locks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(s.handleGetLock))
}
