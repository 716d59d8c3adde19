// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/debug"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/ir"
)

func genOp(e *gen.Env, i *ir.Instr) {
	if debug.Enabled {
		e.Debug.Printf("%s", i)
		e.Debug.Depth++
	}

	switch i.Op {
	case ir.Nop, ir.DefConst, ir.EndGuards, ir.ExitPlaceholder, ir.DefFP:
		genNop(e, i)
	case ir.DefSP:
		genDefSP(e, i)
	case ir.FuncGuard:
		genFuncGuard(e, i)
	case ir.EagerSyncVMRegs:
		genEagerSyncVMRegs(e, i)
	case ir.Mov:
		genMov(e, i)
	case ir.Unreachable:
		genUnreachable(e, i)
	case ir.EndBlock:
		genEndBlock(e, i)
	case ir.Jmp:
		genJmp(e, i)
	case ir.RetCtrl:
		genRetCtrl(e, i)
	case ir.InterpOne:
		genInterpOne(e, i)
	case ir.InterpOneCF:
		genInterpOneCF(e, i)
	case ir.GetTime:
		genCallOpcode(e, i, stubs.GetTime)
	case ir.GetTimeNs:
		genCallOpcode(e, i, stubs.GetTimeNs)
	case ir.PrintBool:
		genCallOpcode(e, i, stubs.PrintBool)
	case ir.PrintInt:
		genCallOpcode(e, i, stubs.PrintInt)
	case ir.PrintStr:
		genCallOpcode(e, i, stubs.PrintStr)
	case ir.GetMemoKey:
		genGetMemoKey(e, i)
	case ir.GetMemoKeyScalar:
		genGetMemoKeyScalar(e, i)
	case ir.MemoGetStaticValue:
		genMemoGetStaticValue(e, i)
	case ir.MemoSetStaticValue:
		genMemoSetStaticValue(e, i)
	case ir.MemoGetStaticCache:
		genMemoGetStaticCache(e, i)
	case ir.MemoSetStaticCache:
		genMemoSetStaticCache(e, i)
	case ir.MemoGetInstanceValue:
		genMemoGetInstanceValue(e, i)
	case ir.MemoSetInstanceValue:
		genMemoSetInstanceValue(e, i)
	case ir.MemoGetInstanceCache:
		genMemoGetInstanceCache(e, i)
	case ir.MemoSetInstanceCache:
		genMemoSetInstanceCache(e, i)
	case ir.RBTraceEntry:
		genRBTraceEntry(e, i)
	case ir.RBTraceMsg:
		genRBTraceMsg(e, i)
	case ir.IncStat:
		genIncStat(e, i)
	case ir.IncProfCounter:
		genIncProfCounter(e, i)
	case ir.CheckCold:
		genCheckCold(e, i)
	default:
		pan.Panic(unit.Errorf("unexpected opcode: %s", i.Op))
	}

	if debug.Enabled {
		e.Debug.Depth--
	}
}
