// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen lowers IR instructions to virtual assembly, one function
// per opcode.
package codegen

import (
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/debug"
	"gate.computer/irlower/internal/gen/storage"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/rt"
)

var (
	errNoBlocks = unit.Error("unit has no blocks")
	errNotLast  = unit.Error("block-ending instruction is not last in its block")
	errFallsOff = unit.Error("block ends without control transfer")
)

const errUnresolved = "unit refers to a block outside of it"

// GenUnit lowers all blocks of the environment's unit in order.  Invariant
// violations panic with a unit error.
func GenUnit(e *gen.Env) {
	if len(e.Unit.Blocks) == 0 {
		pan.Panic(errNoBlocks)
	}

	for n, b := range e.Unit.Blocks {
		l := e.Begin(b)

		if debug.Enabled {
			e.Debug.Printf("B%d => %s {", b.ID, l)
			e.Debug.Depth++
		}

		if n == 0 {
			e.Code.Entry = l
			genConstants(e)
		}

		for k, i := range b.Instrs {
			if err := i.Validate(); err != nil {
				pan.Panic(unit.WrapError(err, "malformed instruction"))
			}
			if i.Op.EndsBlock() && k != len(b.Instrs)-1 {
				pan.Panic(errNotLast)
			}

			genOp(e, i)
		}

		if !e.Main.Closed() {
			if len(b.Instrs) == 0 || b.Instrs[len(b.Instrs)-1].Next == nil {
				pan.Panic(errFallsOff)
			}
			branch(e.Main, e, b.Instrs[len(b.Instrs)-1].Next)
		}

		if debug.Enabled {
			e.Debug.Depth--
			e.Debug.Printf("}")
		}
	}

	if err := e.Labels.Check(); err != nil {
		pan.Panic(unit.WrapError(err, errUnresolved))
	}
}

// genConstants materializes the integer constants.  Spilled constants are
// written to their stack slots as whole typed values.
func genConstants(e *gen.Env) {
	v := e.Main

	for _, val := range e.Unit.Values() {
		if !val.HasConstVal() {
			continue
		}

		switch l := e.Locs.Loc(val); l.Storage {
		case storage.Reg:
			v.Emit(vasm.LdImm{S: uint64(val.IntVal()), D: l.Reg()})

		case storage.Stack:
			v.Emit(
				vasm.Store{S: v.Cns(uint64(val.IntVal())), D: stackPtr(l, rt.TVData)},
				vasm.StoreBI{S: int8(rt.KindOfInt64), D: stackPtr(l, rt.TVType)},
			)
		}
	}
}
