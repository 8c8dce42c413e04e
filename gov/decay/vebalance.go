// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decay

import "math/big"

// VeBalance is an absolute-time-anchored linear decay function:
// value(t) = max(0, Bias - Slope*t). For a fixed lock the pair never changes
// except through an explicit amount/duration update.
type VeBalance struct {
	Bias  *big.Int
	Slope *big.Int
}

// NewVeBalance builds the decay pair of a position with the given slope
// expiring at expiry: the value reaches exactly zero at expiry.
func NewVeBalance(slope *big.Int, expiry uint64) *VeBalance {
	return &VeBalance{
		Bias:  new(big.Int).Mul(slope, new(big.Int).SetUint64(expiry)),
		Slope: new(big.Int).Set(slope),
	}
}

// ZeroVeBalance returns a zero-valued pair.
func ZeroVeBalance() *VeBalance {
	return &VeBalance{Bias: new(big.Int), Slope: new(big.Int)}
}

// norm allocates any nil field, so pairs decoded from unset storage are safe
// to operate on.
func (v *VeBalance) norm() *VeBalance {
	if v.Bias == nil {
		v.Bias = new(big.Int)
	}
	if v.Slope == nil {
		v.Slope = new(big.Int)
	}
	return v
}

// ValueAt evaluates the pair at ts, floored at zero.
func (v *VeBalance) ValueAt(ts uint64) *big.Int {
	v.norm()
	value := new(big.Int).Mul(v.Slope, new(big.Int).SetUint64(ts))
	value.Sub(v.Bias, value)
	if value.Sign() < 0 {
		return new(big.Int)
	}
	return value
}

// IsZero reports whether both components are zero.
func (v *VeBalance) IsZero() bool {
	v.norm()
	return v.Bias.Sign() == 0 && v.Slope.Sign() == 0
}

// Clone returns a deep copy.
func (v *VeBalance) Clone() *VeBalance {
	v.norm()
	return &VeBalance{
		Bias:  new(big.Int).Set(v.Bias),
		Slope: new(big.Int).Set(v.Slope),
	}
}

// Add sets v to the sum of itself and other.
func (v *VeBalance) Add(other *VeBalance) *VeBalance {
	v.norm()
	other.norm()
	v.Bias.Add(v.Bias, other.Bias)
	v.Slope.Add(v.Slope, other.Slope)
	return v
}

// SubClamped subtracts other from v, clamping each component at zero.
func (v *VeBalance) SubClamped(other *VeBalance) *VeBalance {
	v.norm()
	other.norm()
	v.Bias.Sub(v.Bias, other.Bias)
	if v.Bias.Sign() < 0 {
		v.Bias.SetInt64(0)
	}
	v.Slope.Sub(v.Slope, other.Slope)
	if v.Slope.Sign() < 0 {
		v.Slope.SetInt64(0)
	}
	return v
}

// Delta is a forward-booked change to a pair, kept as separate unsigned add
// and sub components so same-boundary actions stack by accumulation.
type Delta struct {
	AddBias  *big.Int
	AddSlope *big.Int
	SubBias  *big.Int
	SubSlope *big.Int
}

func newDelta() *Delta {
	return &Delta{
		AddBias:  new(big.Int),
		AddSlope: new(big.Int),
		SubBias:  new(big.Int),
		SubSlope: new(big.Int),
	}
}

func (d *Delta) norm() *Delta {
	if d.AddBias == nil {
		d.AddBias = new(big.Int)
	}
	if d.AddSlope == nil {
		d.AddSlope = new(big.Int)
	}
	if d.SubBias == nil {
		d.SubBias = new(big.Int)
	}
	if d.SubSlope == nil {
		d.SubSlope = new(big.Int)
	}
	return d
}

// IsZero reports whether the delta carries no change.
func (d *Delta) IsZero() bool {
	d.norm()
	return d.AddBias.Sign() == 0 && d.AddSlope.Sign() == 0 &&
		d.SubBias.Sign() == 0 && d.SubSlope.Sign() == 0
}

// Credit stacks an addition of pair onto the delta.
func (d *Delta) Credit(pair *VeBalance) *Delta {
	d.norm()
	pair.norm()
	d.AddBias.Add(d.AddBias, pair.Bias)
	d.AddSlope.Add(d.AddSlope, pair.Slope)
	return d
}

// Debit stacks a removal of pair onto the delta.
func (d *Delta) Debit(pair *VeBalance) *Delta {
	d.norm()
	pair.norm()
	d.SubBias.Add(d.SubBias, pair.Bias)
	d.SubSlope.Add(d.SubSlope, pair.Slope)
	return d
}

// applyTo folds the delta into bal, clamping each component at zero.
func (d *Delta) applyTo(bal *VeBalance) {
	d.norm()
	bal.norm()
	bal.Bias.Add(bal.Bias, d.AddBias)
	bal.Bias.Sub(bal.Bias, d.SubBias)
	if bal.Bias.Sign() < 0 {
		bal.Bias.SetInt64(0)
	}
	bal.Slope.Add(bal.Slope, d.AddSlope)
	bal.Slope.Sub(bal.Slope, d.SubSlope)
	if bal.Slope.Sign() < 0 {
		bal.Slope.SetInt64(0)
	}
}
