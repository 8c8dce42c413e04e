// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPut(t *testing.T) {
	db, err := NewMem()
	assert.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, db.Delete([]byte("k")))
	has, err = db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestBatch(t *testing.T) {
	db, err := NewMem()
	assert.NoError(t, err)
	defer db.Close()

	batch := db.NewBatch()
	assert.NoError(t, batch.Put([]byte("a1"), []byte("1")))
	assert.NoError(t, batch.Put([]byte("a2"), []byte("2")))
	assert.NoError(t, batch.Put([]byte("b1"), []byte("3")))
	assert.Equal(t, 3, batch.Len())
	assert.NoError(t, batch.Write())

	v, err := db.Get([]byte("a2"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}
