// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors exports common error types without unnecessary dependencies.
package errors

import (
	"golang.org/x/xerrors"
)

// UnitError indicates that a compilation unit was malformed or violated a
// lowering invariant.  It may wrap an underlying error.
type UnitError interface {
	error
	UnitError() string
}

// AsUnitError finds a UnitError in the chain.
func AsUnitError(err error) (UnitError, bool) {
	var ue UnitError
	if xerrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
