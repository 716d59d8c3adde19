// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/debug"
	"gate.computer/irlower/internal/gen/operand"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/gen/storage"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
)

var errTooManyArgs = unit.Error("support routine call has too many arguments")

type argKind uint8

const (
	argReg = argKind(iota)
	argImm
	argAddr
	argSSA
	argTypedValue
)

type arg struct {
	kind argKind
	reg  reg.R
	imm  uint64
	addr vasm.Vptr
	src  int
}

// argGroup lists the arguments of a support routine call in calling
// convention order.  Typed values occupy two argument registers: data and
// type.
type argGroup struct {
	e    *gen.Env
	i    *ir.Instr
	args []arg
}

func args(e *gen.Env, i *ir.Instr) *argGroup {
	return &argGroup{e: e, i: i}
}

func (g *argGroup) Reg(r reg.R) *argGroup {
	g.args = append(g.args, arg{kind: argReg, reg: r})
	return g
}

func (g *argGroup) Imm(x uint64) *argGroup {
	g.args = append(g.args, arg{kind: argImm, imm: x})
	return g
}

// Addr passes base+disp.
func (g *argGroup) Addr(base reg.R, disp int32) *argGroup {
	g.args = append(g.args, arg{kind: argAddr, addr: vasm.Ptr(base, disp)})
	return g
}

// SSA passes the data word of a source.
func (g *argGroup) SSA(n int) *argGroup {
	g.args = append(g.args, arg{kind: argSSA, src: n})
	return g
}

// TypedValue passes a source as a data and type pair.
func (g *argGroup) TypedValue(n int) *argGroup {
	g.args = append(g.args, arg{kind: argTypedValue, src: n})
	return g
}

// materialize puts every argument into a register of its own.
func (g *argGroup) materialize(v *vasm.Out) (srcs []reg.R) {
	for _, a := range g.args {
		switch a.kind {
		case argReg:
			srcs = append(srcs, a.reg)

		case argImm:
			srcs = append(srcs, v.Cns(a.imm))

		case argAddr:
			r := v.MakeReg()
			v.Emit(vasm.Lea{S: a.addr, D: r})
			srcs = append(srcs, r)

		case argSSA:
			data, _ := loadOperand(v, g.e.SrcLoc(g.i, a.src), g.i.Src(a.src), false)
			srcs = append(srcs, data)

		case argTypedValue:
			data, typ := loadOperand(v, g.e.SrcLoc(g.i, a.src), g.i.Src(a.src), true)
			srcs = append(srcs, data, typ)
		}
	}

	if len(srcs) > reg.NumArgs {
		pan.Panic(errTooManyArgs)
	}
	return
}

// loadOperand returns registers holding the data word and optionally the
// type of a value, loading or materializing them as needed.
func loadOperand(v *vasm.Out, l operand.Loc, val *ir.Value, wantType bool) (data, typ reg.R) {
	typ = reg.Invalid

	switch l.Storage {
	case storage.None:
		data = v.Cns(0)
		if wantType {
			typ = v.Cns(uint64(uint8(knownDataType(val))))
		}

	case storage.Reg:
		data = l.Reg()
		if wantType {
			typ = v.Cns(uint64(uint8(knownDataType(val))))
		}

	case storage.RegPair:
		data = l.Reg()
		typ = l.TypeReg()

	case storage.Stack:
		data = v.MakeReg()
		v.Emit(vasm.Load{S: vasm.Ptr(reg.SP, l.Offset()+rt.TVData), D: data})
		if wantType {
			typ = v.MakeReg()
			v.Emit(vasm.Loadb{S: vasm.Ptr(reg.SP, l.Offset()+rt.TVType), D: typ})
		}
	}

	return
}

// callDest describes where the return value of a call goes.
type callDest struct {
	loc   operand.Loc
	typed bool // Ret1 holds a type.
}

var voidDest = callDest{loc: operand.NoLoc}

func regDest(r reg.R) callDest {
	return callDest{loc: operand.Reg(r)}
}

// tvDest receives a typed value in the instruction's destination.
func tvDest(e *gen.Env, i *ir.Instr) callDest {
	return callDest{loc: e.DstLoc(i, 0), typed: true}
}

func (d callDest) regs() reg.Set {
	switch {
	case d.loc.Storage == storage.None:
		return 0

	case d.typed:
		return reg.MakeSet(reg.Ret0, reg.Ret1)

	default:
		return reg.MakeSet(reg.Ret0)
	}
}

// callHelper emits a call to a support routine.  With sync, the bytecode
// position is published first so that the routine may allocate or unwind.
// The destination is written only after the call.
func callHelper(v *vasm.Out, e *gen.Env, target *stubs.Routine, dest callDest, sync bool, g *argGroup) {
	if debug.Enabled {
		e.Debug.Printf("call %s", target)
		e.Debug.Depth++
	}

	srcs := g.materialize(v)

	var (
		dsts    = make([]reg.R, len(srcs))
		argRegs reg.Set
	)
	for n := range srcs {
		dsts[n] = reg.Arg(n)
		argRegs = argRegs.Add(dsts[n])
	}
	if len(srcs) > 0 {
		v.Emit(vasm.CopyArgs{S: srcs, D: dsts})
	}

	if sync {
		v.Emit(vasm.SyncVMPC{PC: g.i.Marker.PC})
	}

	v.Emit(vasm.Call{
		Target: target,
		Args:   argRegs,
		Dests:  dest.regs(),
		Sync:   sync,
	})

	switch l := dest.loc; l.Storage {
	case storage.None:

	case storage.Reg:
		v.Emit(vasm.Copy{S: reg.Ret0, D: l.Reg()})

	case storage.RegPair:
		v.Emit(
			vasm.Copy{S: reg.Ret0, D: l.Reg()},
			vasm.Copy{S: reg.Ret1, D: l.TypeReg()},
		)

	case storage.Stack:
		v.Emit(
			vasm.Store{S: reg.Ret0, D: vasm.Ptr(reg.SP, l.Offset()+rt.TVData)},
			vasm.Storeb{S: reg.Ret1, D: vasm.Ptr(reg.SP, l.Offset()+rt.TVType)},
		)
	}

	if debug.Enabled {
		e.Debug.Depth--
	}
}
