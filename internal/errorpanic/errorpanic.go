// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errorpanic converts error panics raised by layout and allocation
// code into unit errors.
package errorpanic

import (
	"runtime"

	"gate.computer/irlower/internal/unit"
	"golang.org/x/xerrors"
)

// Handle a recovered value.  Runtime errors and non-error values are
// re-panicked.
func Handle(x interface{}, context string) (err error) {
	if x != nil {
		err, _ = x.(error)
		if err == nil {
			panic(x)
		}

		var rtErr runtime.Error
		if xerrors.As(err, &rtErr) {
			panic(x)
		}

		err = unit.WrapError(err, context)
	}

	return
}
