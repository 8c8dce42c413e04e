// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltfi/vecore/gov"
	"github.com/voltfi/vecore/lvldb"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/token"
	"github.com/voltfi/vecore/ve"
)

var (
	operator = ve.BytesToAddress([]byte("operator"))
	voter    = ve.BytesToAddress([]byte("voter"))
	poolX    = ve.BytesToAddress([]byte("pool-x"))
)

type openAuth struct{}

func (openAuth) Authorize(ve.Address, string) bool { return true }

type noFunding struct{}

func (noFunding) AccruedOf(uint64, ve.Address, ve.Address) (*big.Int, error) {
	return new(big.Int), nil
}

// settledServer runs one epoch to finalization and serves the api over it.
func settledServer(t *testing.T) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	ledger := token.New(ve.BytesToAddress([]byte("vecore.token")), st)
	require.NoError(t, ledger.Mint(operator, big.NewInt(1_000_000)))

	p := gov.New(st, gov.NewTokenCustody(ledger), noFunding{}, openAuth{})
	require.NoError(t, p.AddPool(operator, poolX))

	now := ve.EpochStart(5) + 100
	amount := new(big.Int).Mul(big.NewInt(3), new(big.Int).SetUint64(ve.MaxLockDuration))
	_, err = p.CreateLock(voter, amount, ve.EpochStart(10), now)
	require.NoError(t, err)
	require.NoError(t, p.Vote(voter, []ve.Address{poolX}, []*big.Int{big.NewInt(10)}, false, now))
	require.NoError(t, p.EndEpoch(operator, 5, ve.EpochStart(6)))
	require.NoError(t, p.DepositSubsidies(operator, 5, big.NewInt(0)))
	require.NoError(t, p.FinalizePools(operator, 5,
		[]ve.Address{poolX}, []*big.Int{big.NewInt(500)}, []*big.Int{big.NewInt(0)}))
	require.NoError(t, p.FinalizeEpoch(operator, 5))

	ts := httptest.NewServer(New(p, Options{AllowedOrigins: "*"}))
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out interface{}) int {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestGetEpoch(t *testing.T) {
	ts := settledServer(t)

	var epoch map[string]interface{}
	code := getJSON(t, ts.URL+"/epochs/5", &epoch)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "finalized", epoch["stage"])
	assert.Equal(t, "0xa", epoch["totalVotes"])
	assert.Equal(t, "0x1f4", epoch["rewardsDeposited"])
}

func TestGetPoolEpoch(t *testing.T) {
	ts := settledServer(t)

	var pe map[string]interface{}
	code := getJSON(t, ts.URL+"/epochs/5/pools/"+poolX.String(), &pe)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, pe["finalized"])
	assert.Equal(t, "0xa", pe["votes"])
	assert.Equal(t, "0x1f4", pe["reward"])
}

func TestGetAccountPower(t *testing.T) {
	ts := settledServer(t)

	var power map[string]interface{}
	code := getJSON(t, ts.URL+"/accounts/"+voter.String()+"/power?epoch=5", &power)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(5), power["epoch"])
	assert.NotEqual(t, "0x0", power["power"])
}

func TestGetLock(t *testing.T) {
	ts := settledServer(t)

	var l map[string]interface{}
	code := getJSON(t, ts.URL+"/locks/1", &l)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, voter.String(), l["owner"])
	assert.Nil(t, l["delegate"])
}

func TestBadRequests(t *testing.T) {
	ts := settledServer(t)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/accounts/not-an-address/power", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/accounts/"+voter.String()+"/power?role=bogus", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/locks/99", nil))
}
