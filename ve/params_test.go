// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpochMath(t *testing.T) {
	assert.Equal(t, uint64(0), EpochOf(0))
	assert.Equal(t, uint64(0), EpochOf(EpochDuration-1))
	assert.Equal(t, uint64(1), EpochOf(EpochDuration))
	assert.Equal(t, uint64(5)*EpochDuration, EpochStart(5))
	assert.Equal(t, uint64(6)*EpochDuration, EpochEnd(5))
	assert.True(t, IsEpochBoundary(0))
	assert.True(t, IsEpochBoundary(3*EpochDuration))
	assert.False(t, IsEpochBoundary(3*EpochDuration+1))
}

func TestEpochEndIsNextStart(t *testing.T) {
	for e := uint64(0); e < 10; e++ {
		assert.Equal(t, EpochStart(e+1), EpochEnd(e))
	}
}
