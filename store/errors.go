// Copyright (C) 2025 hubert contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"

	"github.com/hubert-project/hubert/envelope"
)

// Sentinel errors shared by every backend (spec §7). Backends translate
// protocol-specific failures into these at their boundary; callers match
// with errors.Is/errors.As.
var (
	// ErrAlreadyExists is returned by Put when the ARID already has a
	// published value. Never retried automatically.
	ErrAlreadyExists = errors.New("store: arid already exists")

	// ErrValueTooLarge is returned by Put when the serialized envelope
	// exceeds a backend's size bound.
	ErrValueTooLarge = errors.New("store: value too large")

	// ErrTimeout is returned by operations (other than Get, which maps
	// timeout to a nil envelope) whose deadline elapsed before the
	// network confirmed an outcome.
	ErrTimeout = errors.New("store: timed out")

	// ErrDecode is returned when a wire payload fails to parse as an
	// envelope.
	ErrDecode = errors.New("store: decode error")
)

// AlreadyExistsError carries the offending ARID alongside ErrAlreadyExists.
type AlreadyExistsError struct {
	ARID envelope.ARID
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("store: arid %s already exists", e.ARID)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// NewAlreadyExists builds an AlreadyExistsError for arid.
func NewAlreadyExists(arid envelope.ARID) error {
	return &AlreadyExistsError{ARID: arid}
}

// ValueTooLargeError carries the offending size alongside ErrValueTooLarge.
type ValueTooLargeError struct {
	Size  int
	Limit int
}

func (e *ValueTooLargeError) Error() string {
	return fmt.Sprintf("store: value of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *ValueTooLargeError) Unwrap() error { return ErrValueTooLarge }

// NewValueTooLarge builds a ValueTooLargeError.
func NewValueTooLarge(size, limit int) error {
	return &ValueTooLargeError{Size: size, Limit: limit}
}

// TimeoutError carries the backend and operation alongside ErrTimeout.
// Unlike Get (which maps a poll deadline to a nil envelope, never an
// error), a publish-time resolve that exceeds its deadline is fatal and
// surfaced as a TimeoutError (spec §7, §4.D).
type TimeoutError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("store: %s %s timed out: %v", e.Backend, e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// NewTimeout builds a TimeoutError attributed to backend/operation.
func NewTimeout(backend, operation string, err error) error {
	return &TimeoutError{Backend: backend, Operation: operation, Err: err}
}

// NetworkError wraps a transport-layer failure surfaced by a backend.
type NetworkError struct {
	Backend string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("store: %s network error: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewNetworkError wraps err as a NetworkError attributed to backend.
func NewNetworkError(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Backend: backend, Err: err}
}
