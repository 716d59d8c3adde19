// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vasm

import (
	"fmt"

	"gate.computer/irlower/internal/gen/debug"
	"gate.computer/irlower/internal/gen/reg"
)

// Out is an instruction stream positioned at a block.  Main and cold code is
// emitted through separate streams.
type Out struct {
	unit  *Unit
	area  Area
	block Label
}

func (u *Unit) Out(area Area, block Label) *Out {
	if b := u.Block(block); b.Area != area {
		panic(fmt.Errorf("block %s is in %s area, not %s", block, b.Area, area))
	}
	return &Out{u, area, block}
}

func (v *Out) Unit() *Unit    { return v.unit }
func (v *Out) Area() Area     { return v.area }
func (v *Out) Current() Label { return v.block }

// Closed indicates if the current block has been terminated.
func (v *Out) Closed() bool {
	return v.unit.Block(v.block).Closed()
}

// Emit appends instructions to the current block.
func (v *Out) Emit(instrs ...Instr) {
	b := v.unit.Block(v.block)
	for _, i := range instrs {
		if b.Closed() {
			panic(fmt.Errorf("emitting %s into terminated block %s", i.Op(), b.Label))
		}
		if debug.Enabled {
			debug.Printf("%s: %s", b.Label, i)
		}
		b.Code = append(b.Code, i)
	}
}

// MakeBlock creates a block in the stream's area.
func (v *Out) MakeBlock() Label {
	return v.unit.MakeBlock(v.area)
}

// Use switches to another block of the same area.
func (v *Out) Use(l Label) {
	if b := v.unit.Block(l); b.Area != v.area {
		panic(fmt.Errorf("block %s is in %s area, not %s", l, b.Area, v.area))
	}
	v.block = l
}

func (v *Out) MakeReg() reg.R {
	return v.unit.MakeReg()
}

// Cns materializes a constant in a fresh register.
func (v *Out) Cns(x uint64) reg.R {
	r := v.MakeReg()
	v.Emit(LdImm{S: x, D: r})
	return r
}
