// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/voltfi/vecore/log"
	"github.com/voltfi/vecore/ve"
)

// ConfigVariable is a protocol knob with a compiled-in default that a
// non-empty storage slot may override, read once per process.
type ConfigVariable struct {
	slot        ve.Bytes32
	name        string
	value       uint64
	initialised bool
}

// NewConfigVariable declares a config variable named name with the given
// default.
func NewConfigVariable(name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		slot:  ve.BytesToBytes32([]byte(name)),
		name:  name,
		value: defaultValue,
	}
}

// Get returns the effective value.
func (c *ConfigVariable) Get() uint64 {
	return c.value
}

// Name returns the variable name.
func (c *ConfigVariable) Name() string {
	return c.name
}

// Slot returns the storage slot holding the override.
func (c *ConfigVariable) Slot() ve.Bytes32 {
	return c.slot
}

// Override replaces the default with a non-zero stored value, if any.
func (c *ConfigVariable) Override(ctx *Context) {
	if c.initialised { // early return to prevent subsequent reads
		return
	}
	stored, err := ctx.state.GetStorage(ctx.address, c.slot)
	if err != nil {
		log.Warn("failed to read config value", "slot", c.Name(), "error", err)
		return
	}
	num := new(big.Int).SetBytes(stored.Bytes())

	c.initialised = true

	if num.Uint64() != 0 {
		c.value = num.Uint64()
		log.Debug("override found new config value", "slot", c.Name(), "value", c.Get())
	} else {
		log.Debug("using default config value", "slot", c.Name(), "value", c.Get())
	}
}
