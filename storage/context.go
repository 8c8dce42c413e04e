// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed storage cells for protocol components, in
// the manner of contract storage slots: each component owns an address
// namespace in the state, and cells derive their slots from declared base
// positions.
package storage

import (
	"github.com/voltfi/vecore/state"
	"github.com/voltfi/vecore/ve"
)

// Context binds a component address to the state its cells live in.
type Context struct {
	address ve.Address
	state   *state.State
}

// NewContext creates a storage context for a component.
func NewContext(address ve.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

// State returns the underlying state.
func (c *Context) State() *state.State {
	return c.state
}

// Address returns the component address owning this context's cells.
func (c *Context) Address() ve.Address {
	return c.address
}
