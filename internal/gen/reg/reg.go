// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reg

import (
	"fmt"
)

// R is a physical register (below FirstVirtual) or a virtual register
// allocated by the lowering environment.
type R uint32

const (
	Invalid = ^R(0)

	// Physical registers reserved by the runtime ABI.
	VMTL = R(0) // Thread-local base: fast-access region.
	VMFP = R(1) // Frame pointer.
	VMSP = R(2) // Evaluation stack pointer.
	SP   = R(3) // Native stack pointer.

	Ret0 = R(4) // Data word of the return value.
	Ret1 = R(5) // Type byte of the return value.

	firstArg = R(6)
	NumArgs  = 6

	FirstVirtual = R(32)
)

// Arg returns the i'th argument register of the native calling convention.
func Arg(i int) R {
	if i < 0 || i >= NumArgs {
		panic(fmt.Errorf("argument register index out of bounds: %d", i))
	}
	return firstArg + R(i)
}

func (r R) IsPhysical() bool {
	return r < FirstVirtual
}

func (r R) IsValid() bool {
	return r != Invalid
}

var physNames = [...]string{
	VMTL: "rvmtl",
	VMFP: "rvmfp",
	VMSP: "rvmsp",
	SP:   "rsp",
	Ret0: "rret0",
	Ret1: "rret1",
}

func (r R) String() string {
	switch {
	case r == Invalid:
		return "%invalid"

	case int(r) < len(physNames) && physNames[r] != "":
		return physNames[r]

	case r >= firstArg && r < firstArg+NumArgs:
		return fmt.Sprintf("rarg%d", r-firstArg)

	case r.IsPhysical():
		return fmt.Sprintf("r%d", r)

	default:
		return fmt.Sprintf("%%%d", r-FirstVirtual)
	}
}

// Set is a small set of physical registers, used for the registers live into
// calls and jumps.
type Set uint32

func MakeSet(regs ...R) (s Set) {
	for _, r := range regs {
		s = s.Add(r)
	}
	return
}

func (s Set) Add(r R) Set {
	if !r.IsPhysical() {
		panic(fmt.Errorf("virtual register in physical register set: %s", r))
	}
	return s | Set(1)<<r
}

func (s Set) Contains(r R) bool {
	return r.IsPhysical() && s&(Set(1)<<r) != 0
}

func (s Set) String() string {
	str := "{"
	for r := R(0); r < FirstVirtual; r++ {
		if s.Contains(r) {
			if len(str) > 1 {
				str += ", "
			}
			str += r.String()
		}
	}
	return str + "}"
}
