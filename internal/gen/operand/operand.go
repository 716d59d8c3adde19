// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package operand describes the physical storage assigned to IR values.
package operand

import (
	"fmt"

	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/gen/storage"
)

// Loc is the location of a value: no storage, a register, a register pair
// (data, type), or a native stack slot holding a whole TypedValue.
type Loc struct {
	Storage storage.Storage

	regs   [2]reg.R
	offset int32
}

var NoLoc = Loc{Storage: storage.None, regs: [2]reg.R{reg.Invalid, reg.Invalid}}

func Reg(r reg.R) Loc {
	return Loc{
		Storage: storage.Reg,
		regs:    [2]reg.R{r, reg.Invalid},
	}
}

func RegPair(data, typ reg.R) Loc {
	return Loc{
		Storage: storage.RegPair,
		regs:    [2]reg.R{data, typ},
	}
}

func Stack(offset int32) Loc {
	return Loc{
		Storage: storage.Stack,
		regs:    [2]reg.R{reg.Invalid, reg.Invalid},
		offset:  offset,
	}
}

// Reg returns the data register.
func (l Loc) Reg() reg.R {
	l.check(storage.Reg, storage.RegPair)
	return l.regs[0]
}

// TypeReg returns the type register of a register pair.
func (l Loc) TypeReg() reg.R {
	l.check(storage.RegPair)
	return l.regs[1]
}

// HasTypeReg is true for register pairs.
func (l Loc) HasTypeReg() bool {
	return l.Storage == storage.RegPair
}

// HasReg is true for registers and register pairs.
func (l Loc) HasReg() bool {
	return l.Storage == storage.Reg || l.Storage == storage.RegPair
}

// Offset of a stack slot.
func (l Loc) Offset() int32 {
	l.check(storage.Stack)
	return l.offset
}

// NumAllocated is the number of registers occupied.
func (l Loc) NumAllocated() int {
	switch l.Storage {
	case storage.Reg:
		return 1

	case storage.RegPair:
		return 2

	default:
		return 0
	}
}

func (l Loc) check(kinds ...storage.Storage) {
	for _, k := range kinds {
		if l.Storage == k {
			return
		}
	}
	panic(fmt.Errorf("operand storage is %s", l.Storage))
}

func (l Loc) String() string {
	switch l.Storage {
	case storage.None:
		return "none"

	case storage.Reg:
		return l.regs[0].String()

	case storage.RegPair:
		return fmt.Sprintf("(%s, %s)", l.regs[0], l.regs[1])

	case storage.Stack:
		return fmt.Sprintf("[rsp%+d]", l.offset)

	default:
		return "<invalid operand>"
	}
}
