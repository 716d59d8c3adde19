// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bc enumerates the interpreter's bytecode instructions.
package bc

import (
	"fmt"
)

type Op uint16

const (
	Nop = Op(iota)
	PopC
	Dup
	Int
	String
	Concat
	Add
	Sub
	Mul
	Div
	Eq
	Lt
	CGetL
	SetL
	NewVec
	AddElemC
	Print
	Jmp
	JmpZ
	JmpNZ
	Switch
	SSwitch
	RetC
	Throw
	FCallFunc
	IterInit
	IterNext
	Await

	NumOps
)

var names = [NumOps]string{
	Nop:       "Nop",
	PopC:      "PopC",
	Dup:       "Dup",
	Int:       "Int",
	String:    "String",
	Concat:    "Concat",
	Add:       "Add",
	Sub:       "Sub",
	Mul:       "Mul",
	Div:       "Div",
	Eq:        "Eq",
	Lt:        "Lt",
	CGetL:     "CGetL",
	SetL:      "SetL",
	NewVec:    "NewVec",
	AddElemC:  "AddElemC",
	Print:     "Print",
	Jmp:       "Jmp",
	JmpZ:      "JmpZ",
	JmpNZ:     "JmpNZ",
	Switch:    "Switch",
	SSwitch:   "SSwitch",
	RetC:      "RetC",
	Throw:     "Throw",
	FCallFunc: "FCallFunc",
	IterInit:  "IterInit",
	IterNext:  "IterNext",
	Await:     "Await",
}

func (op Op) String() string {
	if op < NumOps {
		return names[op]
	}
	return fmt.Sprintf("<invalid bytecode 0x%04x>", uint16(op))
}

// Parse a bytecode name.
func Parse(s string) (Op, bool) {
	for op, name := range names {
		if name == s {
			return Op(op), true
		}
	}
	return 0, false
}

// IsControlFlow indicates if the instruction may transfer control somewhere
// else than to the following instruction (excluding exceptions raised by
// callees).
func (op Op) IsControlFlow() bool {
	switch op {
	case Jmp, JmpZ, JmpNZ, Switch, SSwitch, RetC, Throw, FCallFunc, IterInit, IterNext, Await:
		return true
	}
	return false
}
