// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vasm implements the virtual assembly which IR instructions are
// lowered to: architecture-near operations on an unbounded set of virtual
// registers, organized into blocks placed in hot and cold code areas.
package vasm

import (
	"fmt"

	"gate.computer/irlower/internal/gen/reg"
)

type Label int32

func (l Label) String() string {
	return fmt.Sprintf("B%d", int32(l))
}

// Area is a code area.  Cold code is placed out of line.
type Area uint8

const (
	Main = Area(iota)
	Cold

	NumAreas
)

func (a Area) String() string {
	switch a {
	case Main:
		return "main"

	case Cold:
		return "cold"

	default:
		return "<invalid area>"
	}
}

type Block struct {
	Label Label
	Area  Area
	Code  []Instr
}

// Closed indicates if the block ends with a terminal instruction.
func (b *Block) Closed() bool {
	return len(b.Code) > 0 && Terminal(b.Code[len(b.Code)-1])
}

// Unit is the lowering result of one compilation unit.
type Unit struct {
	Blocks []*Block
	Entry  Label

	nextReg reg.R
}

func NewUnit() *Unit {
	return &Unit{
		nextReg: reg.FirstVirtual,
	}
}

func (u *Unit) MakeBlock(area Area) Label {
	l := Label(len(u.Blocks))
	u.Blocks = append(u.Blocks, &Block{Label: l, Area: area})
	return l
}

func (u *Unit) MakeReg() reg.R {
	r := u.nextReg
	u.nextReg++
	return r
}

// NumRegs is the number of virtual registers allocated so far.
func (u *Unit) NumRegs() int {
	return int(u.nextReg - reg.FirstVirtual)
}

func (u *Unit) Block(l Label) *Block {
	if l < 0 || int(l) >= len(u.Blocks) {
		panic(fmt.Errorf("block label out of bounds: %s", l))
	}
	return u.Blocks[l]
}

// Instrs returns all instructions of the unit in block order.
func (u *Unit) Instrs() (list []Instr) {
	for _, b := range u.Blocks {
		list = append(list, b.Code...)
	}
	return
}
