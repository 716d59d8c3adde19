// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/errorpanic"
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/condition"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
)

func counterAddr(e *gen.Env, i *ir.Instr) uint64 {
	if e.Counters == nil {
		pan.Panic(unit.Errorf("%s: no profiling counters", i.Op))
	}

	transID := i.Extra.(*ir.TransIDData).TransID
	return bindCounter(func() uint64 { return e.Counters.CounterAddr(transID) })
}

func bindCounter(f func() uint64) (addr uint64) {
	defer func() {
		if x := recover(); x != nil {
			pan.Panic(errorpanic.Handle(x, "profiling counter"))
		}
	}()

	return f()
}

// emitDecLocked decrements a counter atomically.  The flags reflect the new
// value.
func emitDecLocked(v *vasm.Out, e *gen.Env, i *ir.Instr, addr uint64) (sf reg.R) {
	sf = v.MakeReg()

	if e.Config.Target.AtomicRMW {
		v.Emit(vasm.DecQMLock{M: vasm.Ptr(v.Cns(addr), 0), SF: sf})
		return
	}

	result := v.MakeReg()
	callHelper(v, e, stubs.ProfCounterDecLocked, regDest(result), false, args(e, i).Imm(addr))
	v.Emit(vasm.TestQ{S0: result, S1: result, SF: sf})
	return
}

func genIncProfCounter(e *gen.Env, i *ir.Instr) {
	v := e.Main
	addr := counterAddr(e, i)

	if e.Config.RacyProfiling {
		v.Emit(vasm.DecQM{M: vasm.Ptr(v.Cns(addr), 0), SF: v.MakeReg()})
	} else {
		emitDecLocked(v, e, i, addr)
	}
}

// genCheckCold counts down and takes the retranslation path when the counter
// reaches zero.  With lease filtering, only a thread which could acquire the
// optimization lease takes it.
func genCheckCold(e *gen.Env, i *ir.Instr) {
	v := e.Main
	sf := emitDecLocked(v, e, i, counterAddr(e, i))

	if !e.Config.FilterLease {
		branchIfElse(v, e, condition.LeS, sf, i.Taken, i.Next)
		return
	}

	filter := v.MakeBlock()
	v.Emit(vasm.Jcc{CC: condition.LeS, SF: sf, Targets: [2]vasm.Label{e.Label(v, i.Next), filter}})
	v.Use(filter)

	res := v.MakeReg()
	callHelper(v, e, stubs.CouldAcquireOptimizeLease, regDest(res), false,
		args(e, i).Imm(uint64(i.Func().ID)))

	sf2 := v.MakeReg()
	v.Emit(vasm.TestB{S0: res, S1: res, SF: sf2})
	branchIfElse(v, e, condition.NonZero, sf2, i.Taken, i.Next)
}
