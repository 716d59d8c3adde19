// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package unit defines the error type which aborts the lowering of one
// compilation unit.
package unit

import (
	"fmt"
)

type unitError string

// Error describes an invariant violation: a malformed instruction or an
// impossible type combination.
func Error(text string) error {
	return unitError(text)
}

func Errorf(format string, args ...interface{}) error {
	return unitError(fmt.Sprintf(format, args...))
}

func (s unitError) Error() string     { return string(s) }
func (s unitError) UnitError() string { return string(s) }

type wrappedError struct {
	text  string
	cause error
}

func WrapError(cause error, text string) error {
	return &wrappedError{text, cause}
}

func (e *wrappedError) Error() string     { return e.text + ": " + e.cause.Error() }
func (e *wrappedError) UnitError() string { return e.text }
func (e *wrappedError) Unwrap() error     { return e.cause }
