// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gen holds the state shared by the lowering functions of one
// compilation unit.
package gen

import (
	"gate.computer/irlower/config"
	"gate.computer/irlower/internal/gen/debug"
	"gate.computer/irlower/internal/gen/link"
	"gate.computer/irlower/internal/gen/operand"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/gen/regalloc"
	"gate.computer/irlower/internal/gen/rodata"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/prof"
	"gate.computer/irlower/internal/rds"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
)

// Runtime is the process state which lowering binds to.  It may be shared by
// concurrent compilations.
type Runtime struct {
	Config   config.Config
	RDS      *rds.Region
	Counters *prof.Counters
	Strings  *rodata.Pool
}

// Env is the lowering environment of one unit.
type Env struct {
	*Runtime

	Unit *ir.Unit
	Locs regalloc.Locs
	Code *vasm.Unit

	// Main is positioned in the block being lowered.
	Main *vasm.Out

	Labels link.Table
	Debug  debug.Log
	blocks map[*ir.Block]vasm.Label
}

func NewEnv(rt *Runtime, u *ir.Unit, locs regalloc.Locs, code *vasm.Unit) *Env {
	return &Env{
		Runtime: rt,
		Unit:    u,
		Locs:    locs,
		Code:    code,
		blocks:  make(map[*ir.Block]vasm.Label),
	}
}

func (e *Env) blockLabel(b *ir.Block) vasm.Label {
	l, found := e.blocks[b]
	if !found {
		area := vasm.Main
		if b.Cold {
			area = vasm.Cold
		}
		l = e.Code.MakeBlock(area)
		e.blocks[b] = l
	}
	return l
}

// Label of an IR block referenced by a branch emitted through v.
func (e *Env) Label(v *vasm.Out, b *ir.Block) vasm.Label {
	if b == nil {
		pan.Panic(unit.Error("branch to missing successor"))
	}

	l := e.blockLabel(b)
	e.Labels.Get(b.ID).AddSite(int32(v.Current()))
	return l
}

// Begin lowering of an IR block.
func (e *Env) Begin(b *ir.Block) vasm.Label {
	if e.Labels.Get(b.ID).Block >= 0 {
		pan.Panic(unit.Errorf("block B%d appears twice", b.ID))
	}

	l := e.blockLabel(b)
	e.Labels.Get(b.ID).Bind(int32(l))
	e.Main = e.Code.Out(e.Code.Block(l).Area, l)
	return l
}

// Cold returns a stream positioned at a new block in the cold area.
func (e *Env) Cold() *vasm.Out {
	return e.Code.Out(vasm.Cold, e.Code.MakeBlock(vasm.Cold))
}

// SrcLoc is the storage of an instruction's source.
func (e *Env) SrcLoc(i *ir.Instr, n int) operand.Loc {
	return e.Locs.Loc(i.Src(n))
}

// DstLoc is the storage of an instruction's destination.
func (e *Env) DstLoc(i *ir.Instr, n int) operand.Loc {
	if n != 0 || i.Dst == nil {
		pan.Panic(unit.Errorf("%s: no destination %d", i.Op, n))
	}
	return e.Locs.Loc(i.Dst)
}

// SrcReg is the register of a source which must be in one.
func (e *Env) SrcReg(i *ir.Instr, n int) reg.R {
	l := e.SrcLoc(i, n)
	if !l.HasReg() {
		pan.Panic(unit.Errorf("%s: source %d is not in a register: %s", i.Op, n, l))
	}
	return l.Reg()
}

// DstReg is the register of a destination which must be in one.
func (e *Env) DstReg(i *ir.Instr) reg.R {
	l := e.DstLoc(i, 0)
	if !l.HasReg() {
		pan.Panic(unit.Errorf("%s: destination is not in a register: %s", i.Op, l))
	}
	return l.Reg()
}
