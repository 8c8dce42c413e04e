// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voltfi/vecore/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["base"] = "from src"

	sm := stackedmap.New[string, string](func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() {}, 0, "", "", "base", []any{"from src", true}},
		{func() { sm.Push() }, 1, "a", "1", "a", []any{"1", true}},
		{func() { sm.Push() }, 2, "a", "2", "a", []any{"2", true}},
		{func() { sm.Push() }, 3, "a", "3", "a", []any{"3", true}},
		{func() { sm.Pop() }, 2, "", "", "a", []any{"2", true}},
		{func() { sm.Pop() }, 1, "", "", "a", []any{"1", true}},
		{func() { sm.Push() }, 2, "b", "1", "b", []any{"1", true}},
		{func() { sm.Push() }, 3, "c", "1", "c", []any{"1", true}},
		{func() { sm.PopTo(1) }, 1, "", "", "b", []any{"", false}},
		{func() { sm.Pop() }, 0, "", "", "base", []any{"from src", true}},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			v, ok, err := sm.Get(test.getKey)
			assert.NoError(err)
			assert.Equal(test.getReturn, []any{v, ok})
		}
	}
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New[string, string](func(_ string) (string, bool, error) {
		return "", false, nil
	})

	kvs := []struct{ k, v string }{
		{"a", "1"},
		{"b", "2"},
		{"a", "3"},
		{"c", "4"},
	}

	sm.Push()
	for _, kv := range kvs {
		sm.Put(kv.k, kv.v)
	}

	i := 0
	sm.Journal(func(key, value string) bool {
		assert.Equal(kvs[i].k, key)
		assert.Equal(kvs[i].v, value)
		i++
		return true
	})
	assert.Equal(len(kvs), i)

	// value of a key written twice in one level resolves to the latest
	v, ok, err := sm.Get("a")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal("3", v)

	sm.Pop()
	_, ok, err = sm.Get("a")
	assert.NoError(err)
	assert.False(ok)
}
