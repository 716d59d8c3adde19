// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pan carries unit errors from deep inside lowering to the unit
// boundary.
package pan

import (
	"import.name/pan"
)

var Panic = pan.Panic

// Error returns the error carried by a recovered value, or nil if x is nil.
// Other panics are resumed.
func Error(x any) error {
	return pan.Error(x)
}
