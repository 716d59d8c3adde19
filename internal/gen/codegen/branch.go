// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/condition"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
)

// fwdJcc branches to an IR successor if the condition holds, and continues in
// a new block otherwise.
func fwdJcc(v *vasm.Out, e *gen.Env, cc condition.C, sf reg.R, target *ir.Block) {
	next := v.MakeBlock()
	v.Emit(vasm.Jcc{CC: cc, SF: sf, Targets: [2]vasm.Label{next, e.Label(v, target)}})
	v.Use(next)
}

// branchIfElse ends the current block with a two-way branch between IR
// successors.
func branchIfElse(v *vasm.Out, e *gen.Env, cc condition.C, sf reg.R, onTrue, onFalse *ir.Block) {
	taken := e.Label(v, onTrue)
	v.Emit(vasm.Jcc{CC: cc, SF: sf, Targets: [2]vasm.Label{e.Label(v, onFalse), taken}})
}

// branch ends the current block with a jump to an IR successor.
func branch(v *vasm.Out, e *gen.Env, target *ir.Block) {
	v.Emit(vasm.Jmp{Target: e.Label(v, target)})
}

// ifThen emits code which is executed only if the condition holds.
func ifThen(v *vasm.Out, cc condition.C, sf reg.R, then func(*vasm.Out)) {
	thenBlock := v.MakeBlock()
	done := v.MakeBlock()

	v.Emit(vasm.Jcc{CC: cc, SF: sf, Targets: [2]vasm.Label{done, thenBlock}})

	v.Use(thenBlock)
	then(v)
	if !v.Closed() {
		v.Emit(vasm.Jmp{Target: done})
	}

	v.Use(done)
}

// unlikelyIfThenElse places the then-branch in the cold area.
func unlikelyIfThenElse(v *vasm.Out, e *gen.Env, cc condition.C, sf reg.R, then, els func(*vasm.Out)) {
	cold := e.Cold()
	elseBlock := v.MakeBlock()
	done := v.MakeBlock()

	v.Emit(vasm.Jcc{CC: cc, SF: sf, Targets: [2]vasm.Label{elseBlock, cold.Current()}})

	then(cold)
	if !cold.Closed() {
		cold.Emit(vasm.Jmp{Target: done})
	}

	v.Use(elseBlock)
	els(v)
	if !v.Closed() {
		v.Emit(vasm.Jmp{Target: done})
	}

	v.Use(done)
}
