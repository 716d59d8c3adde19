// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"golang.org/x/xerrors"
)

// Fault is an execution error: the code did something which the runtime
// would not survive.
type Fault struct {
	err error
}

func (f Fault) Error() string { return f.err.Error() }
func (f Fault) Unwrap() error { return f.err }

func errorf(format string, args ...any) Fault {
	return Fault{xerrors.Errorf(format, args...)}
}
