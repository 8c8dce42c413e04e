// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ve

import "math/big"

// Constants of the protocol clock and escrow rules.
const (
	// EpochDuration is the length of one epoch in seconds. Epoch e spans
	// [e*EpochDuration, (e+1)*EpochDuration).
	EpochDuration uint64 = 7 * 24 * 3600

	// MaxLockDuration is the longest allowed lock period. A lock of amount P
	// decays with slope P/MaxLockDuration, so a max-duration lock starts at
	// full voting power.
	MaxLockDuration uint64 = 104 * EpochDuration

	// MinLockEpochs is the minimum count of whole epochs between the lock
	// creation epoch and its expiry boundary. Exactly MinLockEpochs gives one
	// non-zero end-of-epoch vote before the power decays to zero.
	MinLockEpochs uint64 = 2

	// MinDelegateEpochs is the minimum remaining epochs required to delegate:
	// one for the forward-booked effect to land, one further epoch of
	// non-zero end-of-epoch power for the delegate.
	MinDelegateEpochs uint64 = 3

	// FeePrecision is the fixed-point scale of delegate fee rates.
	// A rate of 1e17 is 10%.
	FeePrecision = 1e18
)

// EpochOf returns the epoch containing the given timestamp.
func EpochOf(ts uint64) uint64 {
	return ts / EpochDuration
}

// EpochStart returns the start boundary of an epoch.
func EpochStart(epoch uint64) uint64 {
	return epoch * EpochDuration
}

// EpochEnd returns the end boundary of an epoch, which equals the start of
// the next one. End-of-epoch voting power is evaluated here.
func EpochEnd(epoch uint64) uint64 {
	return (epoch + 1) * EpochDuration
}

// IsEpochBoundary reports whether ts lands exactly on an epoch boundary.
func IsEpochBoundary(ts uint64) bool {
	return ts%EpochDuration == 0
}

// Keys of governance params.
var (
	KeyMaxDelegateFee   = BytesToBytes32([]byte("max-delegate-fee"))
	KeyFeeIncreaseDelay = BytesToBytes32([]byte("fee-increase-delay"))
	KeySweepDelay       = BytesToBytes32([]byte("sweep-delay"))
	KeyMinLockAmount    = BytesToBytes32([]byte("min-lock-amount"))
	KeyTreasury         = BytesToBytes32([]byte("treasury"))

	InitialMaxDelegateFee   = big.NewInt(2e17) // 20%
	InitialFeeIncreaseDelay = big.NewInt(2)    // epochs
	InitialSweepDelay       = big.NewInt(6)    // epochs
	// InitialMinLockAmount floors the decay slope above zero for any allowed
	// duration: principal/MaxLockDuration must not truncate to nothing.
	InitialMinLockAmount = new(big.Int).SetUint64(MaxLockDuration)
)

// FeeDenominator returns the fee fixed-point denominator as a big.Int.
func FeeDenominator() *big.Int {
	return big.NewInt(FeePrecision)
}
