// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the typed validation-failure errors of the
// protocol. A revert means the caller's input was rejected and the whole
// operation rolled back; the caller can correct the input and retry. Any
// other error is an infrastructure fault.
package reverts

import (
	"errors"
	"fmt"
)

// Code classifies a revert for callers that dispatch on failure kind.
type Code uint8

const (
	CodeUnknown Code = iota
	CodeInvalidAmount
	CodeInvalidDuration
	CodeMisaligned
	CodeWrongCaller
	CodeWrongState
	CodeLengthMismatch
	CodeInactivePool
	CodeAlreadyDone
	CodeInsufficient
	CodeNotFound
	CodeFeeOutOfRange
)

// ErrRevert is a rejected operation.
type ErrRevert struct {
	code    Code
	message string
}

// New creates a revert with the given code and message.
func New(code Code, message string) *ErrRevert {
	return &ErrRevert{code: code, message: message}
}

// Newf creates a revert with a formatted message.
func Newf(code Code, format string, args ...any) *ErrRevert {
	return &ErrRevert{code: code, message: fmt.Sprintf(format, args...)}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Code returns the revert's classification.
func (e *ErrRevert) Code() Code {
	return e.code
}

// IsRevert reports whether err is (or wraps) a revert.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var ve *ErrRevert
	return errors.As(err, &ve)
}

// CodeOf returns the code of a revert error, CodeUnknown for anything else.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return CodeUnknown
}
