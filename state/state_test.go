// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltfi/vecore/lvldb"
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/ve"
)

func newState(t *testing.T) (*state.State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db), db
}

func TestStorage(t *testing.T) {
	st, _ := newState(t)
	addr := ve.BytesToAddress([]byte("component"))
	key := ve.BytesToBytes32([]byte("slot"))

	v, err := st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())

	value := ve.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, value, v)

	// unset
	st.SetStorage(addr, key, ve.Bytes32{})
	v, err = st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newState(t)
	addr := ve.BytesToAddress([]byte("component"))
	key := ve.BytesToBytes32([]byte("slot"))
	before := ve.BytesToBytes32([]byte("before"))
	after := ve.BytesToBytes32([]byte("after"))

	st.SetStorage(addr, key, before)
	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, after)

	v, _ := st.GetStorage(addr, key)
	assert.Equal(t, after, v)

	st.RevertTo(cp)
	v, _ = st.GetStorage(addr, key)
	assert.Equal(t, before, v)
}

func TestCommitPersists(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	addr := ve.BytesToAddress([]byte("component"))
	key := ve.BytesToBytes32([]byte("slot"))
	value := ve.BytesToBytes32([]byte("value"))

	st := state.New(db)
	st.SetStorage(addr, key, value)
	require.NoError(t, st.Commit())

	// a fresh state over the same store sees the committed value
	st2 := state.New(db)
	v, err := st2.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, value, v)
}

func TestRevertedWritesNotCommitted(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	addr := ve.BytesToAddress([]byte("component"))
	key := ve.BytesToBytes32([]byte("slot"))

	st := state.New(db)
	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, ve.BytesToBytes32([]byte("discarded")))
	st.RevertTo(cp)
	require.NoError(t, st.Commit())

	st2 := state.New(db)
	v, err := st2.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.True(t, v.IsZero())
}
