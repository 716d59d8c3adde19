// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vasm

import (
	"fmt"

	"gate.computer/irlower/internal/gen/reg"
)

// Vptr is a memory operand: base register plus displacement.
type Vptr struct {
	Base reg.R
	Disp int32
}

// Ptr makes a memory operand.
func Ptr(base reg.R, disp int32) Vptr {
	return Vptr{base, disp}
}

// Add returns a memory operand displaced by n bytes.
func (p Vptr) Add(n int32) Vptr {
	return Vptr{p.Base, p.Disp + n}
}

func (p Vptr) String() string {
	if p.Disp == 0 {
		return fmt.Sprintf("[%s]", p.Base)
	}
	return fmt.Sprintf("[%s%+#x]", p.Base, p.Disp)
}
