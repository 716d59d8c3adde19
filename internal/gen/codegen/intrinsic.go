// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/trap"
	"gate.computer/irlower/types"
)

func genNop(e *gen.Env, i *ir.Instr) {}

func genFuncGuard(e *gen.Env, i *ir.Instr) {
	extra := i.Extra.(*ir.FuncGuardData)
	e.Main.Emit(vasm.FuncGuard{Func: extra.Func.ID, Prologue: extra.PrologueAddr})
}

func genDefSP(e *gen.Env, i *ir.Instr) {
	v := e.Main
	sp := e.DstReg(i)

	if i.Marker.Resumed {
		v.Emit(vasm.DefVMSP{D: sp})
		return
	}

	fp := e.SrcReg(i, 0)
	v.Emit(vasm.Lea{S: vasm.Ptr(fp, -rt.CellsToBytes(i.Extra.(*ir.DefSPData).Offset)), D: sp})
}

func genEagerSyncVMRegs(e *gen.Env, i *ir.Instr) {
	v := e.Main
	extra := i.Extra.(*ir.EagerSyncData)
	fp := e.SrcReg(i, 0)
	sp := e.SrcReg(i, 1)

	syncSP := v.MakeReg()
	v.Emit(
		vasm.Lea{S: vasm.Ptr(sp, rt.CellsToBytes(extra.Offset)), D: syncSP},
		vasm.SyncVMRegs{PC: i.Marker.PC, FP: fp, SP: syncSP},
	)
}

func genMov(e *gen.Env, i *ir.Instr) {
	src := i.Src(0)
	if src.NumWords() != i.Dst.NumWords() {
		pan.Panic(unit.Errorf("%s: word count mismatch: %s => %s", i.Op, src, i.Dst))
	}
	copyTV(e.Main, e.SrcLoc(i, 0), e.DstLoc(i, 0), src)
}

func genUnreachable(e *gen.Env, i *ir.Instr) {
	e.Main.Emit(vasm.Trap{Reason: trap.Reason{ID: trap.Unreachable, Where: i.Extra.(*ir.AssertReason).Reason}})
}

func genEndBlock(e *gen.Env, i *ir.Instr) {
	e.Main.Emit(vasm.Trap{Reason: trap.Reason{ID: trap.EndOfBlock, Where: i.Extra.(*ir.AssertReason).Reason}})
}

func genJmp(e *gen.Env, i *ir.Instr) {
	branch(e.Main, e, i.Taken)
}

func genRetCtrl(e *gen.Env, i *ir.Instr) {
	e.Main.Emit(vasm.Ret{})
}

func genInterpOne(e *gen.Env, i *ir.Instr) {
	extra := i.Extra.(*ir.InterpOneData)
	sp := e.SrcReg(i, 0)

	if extra.Opcode.IsControlFlow() {
		pan.Panic(unit.Errorf("%s: control flow bytecode %s", i.Op, extra.Opcode))
	}

	// The routine syncs the VM registers itself.
	callHelper(e.Main, e, stubs.InterpOne(extra.Opcode), voidDest, false,
		args(e, i).SSA(1).Addr(sp, rt.CellsToBytes(extra.SpOffset)).Imm(uint64(extra.BcOff)))
}

func genInterpOneCF(e *gen.Env, i *ir.Instr) {
	v := e.Main
	extra := i.Extra.(*ir.InterpOneData)
	sp := e.SrcReg(i, 0)

	stub, found := stubs.InterpOneCF(extra.Opcode)
	if !found {
		pan.Panic(unit.Errorf("%s: no stub for bytecode %s", i.Op, extra.Opcode))
	}

	syncSP := v.MakeReg()
	v.Emit(
		vasm.Lea{S: vasm.Ptr(sp, rt.CellsToBytes(extra.SpOffset)), D: syncSP},
		vasm.SyncVMSP{S: syncSP},
		vasm.LdImm{S: uint64(uint32(extra.BcOff)), D: reg.Arg(2)},
		vasm.Jmpi{Target: stub, Args: reg.MakeSet(reg.VMTL, reg.VMFP, reg.VMSP, reg.Arg(2))},
	)
}

// genCallOpcode lowers an opcode which is a plain call to its routine.
func genCallOpcode(e *gen.Env, i *ir.Instr, target *stubs.Routine) {
	g := args(e, i)
	for n := range i.Srcs {
		g.SSA(n)
	}

	dest := voidDest
	if i.Dst != nil {
		dest = regDest(e.DstReg(i))
	}

	callHelper(e.Main, e, target, dest, false, g)
}

func genGetMemoKey(e *gen.Env, i *ir.Instr) {
	genGetMemoKeyImpl(e, i, true)
}

func genGetMemoKeyScalar(e *gen.Env, i *ir.Instr) {
	genGetMemoKeyImpl(e, i, false)
}

func genGetMemoKeyImpl(e *gen.Env, i *ir.Instr, sync bool) {
	s := i.Src(0)

	g := args(e, i)
	if s.IsA(types.ArrLike) || s.IsA(types.Obj) || s.IsA(types.Str) || s.IsA(types.Dbl) {
		g.SSA(0)
	} else {
		g.TypedValue(0)
	}

	var target *stubs.Routine
	switch {
	case s.IsA(types.ArrLike):
		target = stubs.SerializeMemoParamArr
	case s.IsA(types.Str):
		target = stubs.SerializeMemoParamStr
	case s.IsA(types.Dbl):
		target = stubs.SerializeMemoParamDbl
	case s.IsA(types.Obj):
		if s.Class != nil && s.Class.Collection {
			target = stubs.SerializeMemoParamCol
		} else {
			target = stubs.SerializeMemoParamObj
		}
	default:
		target = stubs.SerializeMemoParam
	}

	callHelper(e.Main, e, target, tvDest(e, i), sync, g)
}

func genRBTraceEntry(e *gen.Env, i *ir.Instr) {
	extra := i.Extra.(*ir.RBTraceEntryData)
	callHelper(e.Main, e, stubs.RingbufferEntry, voidDest, false,
		args(e, i).Imm(uint64(extra.Type)).Imm(extra.SrcKey))
}

func genRBTraceMsg(e *gen.Env, i *ir.Instr) {
	extra := i.Extra.(*ir.RBTraceMsgData)
	callHelper(e.Main, e, stubs.RingbufferMsg, voidDest, false,
		args(e, i).Imm(e.Strings.Intern(extra.Msg)).Imm(uint64(len(extra.Msg))).Imm(uint64(extra.Type)))
}

func genIncStat(e *gen.Env, i *ir.Instr) {
	counter := i.Src(0)
	if !counter.HasConstVal() {
		pan.Panic(unit.Errorf("%s: counter is not a constant: %s", i.Op, counter))
	}
	emitIncStat(e.Main, e, counter.IntVal())
}
