// Copyright (c) 2021 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"os"
	"sync"
)

// Panic makes Lower let unit errors propagate as panics, with the stack trace
// of the lowering code which raised them.  Set during linking:
//
//	go build -ldflags="-X gate.computer/irlower/internal.Panic=1"
//
// or at run time with IRLOWER_PANIC=1 in the environment.  Not a stable
// feature.
var Panic string

var panicFromEnv = sync.OnceValue(func() bool {
	return os.Getenv("IRLOWER_PANIC") != ""
})

// DontPanic reports whether unit errors should be recovered.
func DontPanic() bool {
	return Panic == "" && !panicFromEnv()
}
