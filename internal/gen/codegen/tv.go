// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/gen/condition"
	"gate.computer/irlower/internal/gen/operand"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/gen/storage"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/types"
)

// knownDataType of a value whose type tag is not materialized.
func knownDataType(val *ir.Value) rt.DataType {
	dt, ok := val.Type.DataType()
	if !ok {
		pan.Panic(unit.Errorf("type of %s is not known statically", val))
	}
	return dt
}

func stackPtr(l operand.Loc, field int32) vasm.Vptr {
	return vasm.Ptr(reg.SP, l.Offset()+field)
}

// loadTV loads a typed value from memory into a destination.
func loadTV(v *vasm.Out, t types.T, dst operand.Loc, src vasm.Vptr) {
	switch dst.Storage {
	case storage.None:

	case storage.Reg:
		v.Emit(vasm.Load{S: src.Add(rt.TVData), D: dst.Reg()})

	case storage.RegPair:
		v.Emit(
			vasm.Load{S: src.Add(rt.TVData), D: dst.Reg()},
			vasm.Loadb{S: src.Add(rt.TVType), D: dst.TypeReg()},
		)

	case storage.Stack:
		data := v.MakeReg()
		typ := v.MakeReg()
		v.Emit(
			vasm.Load{S: src.Add(rt.TVData), D: data},
			vasm.Loadb{S: src.Add(rt.TVType), D: typ},
			vasm.Store{S: data, D: stackPtr(dst, rt.TVData)},
			vasm.Storeb{S: typ, D: stackPtr(dst, rt.TVType)},
		)
	}
}

// storeTV stores a source value into memory, materializing a static type.
func storeTV(v *vasm.Out, dst vasm.Vptr, src operand.Loc, val *ir.Value) {
	switch src.Storage {
	case storage.None:
		v.Emit(vasm.StoreBI{S: int8(knownDataType(val)), D: dst.Add(rt.TVType)})

	case storage.Reg:
		v.Emit(
			vasm.Store{S: src.Reg(), D: dst.Add(rt.TVData)},
			vasm.StoreBI{S: int8(knownDataType(val)), D: dst.Add(rt.TVType)},
		)

	case storage.RegPair:
		v.Emit(
			vasm.Store{S: src.Reg(), D: dst.Add(rt.TVData)},
			vasm.Storeb{S: src.TypeReg(), D: dst.Add(rt.TVType)},
		)

	case storage.Stack:
		data := v.MakeReg()
		typ := v.MakeReg()
		v.Emit(
			vasm.Load{S: stackPtr(src, rt.TVData), D: data},
			vasm.Loadb{S: stackPtr(src, rt.TVType), D: typ},
			vasm.Store{S: data, D: dst.Add(rt.TVData)},
			vasm.Storeb{S: typ, D: dst.Add(rt.TVType)},
		)
	}
}

// copyTV moves a value between locations with equal word counts.
func copyTV(v *vasm.Out, src, dst operand.Loc, val *ir.Value) {
	switch {
	case dst.Storage == storage.None:

	case dst.Storage == storage.Stack:
		storeTV(v, vasm.Ptr(reg.SP, dst.Offset()), src, val)

	case src.Storage == storage.Stack:
		loadTV(v, val.Type, dst, vasm.Ptr(reg.SP, src.Offset()))

	case src.Storage == storage.Reg && dst.Storage == storage.Reg:
		v.Emit(vasm.Copy{S: src.Reg(), D: dst.Reg()})

	case src.Storage == storage.RegPair && dst.Storage == storage.RegPair:
		v.Emit(vasm.CopyArgs{
			S: []reg.R{src.Reg(), src.TypeReg()},
			D: []reg.R{dst.Reg(), dst.TypeReg()},
		})

	default:
		pan.Panic(unit.Errorf("cannot copy %s to %s", src, dst))
	}
}

// emitIncRefWork increments the reference count of a value if it is
// reference counted.
func emitIncRefWork(v *vasm.Out, src operand.Loc, val *ir.Value) {
	t := val.Type
	if !t.Maybe(types.Counted) {
		return
	}

	if src.Storage == storage.None {
		pan.Panic(unit.Errorf("reference counted value %s has no storage", val))
	}

	data, typ := loadOperand(v, src, val, !t.IsA(types.Counted))

	incRef := func(v *vasm.Out) {
		v.Emit(vasm.IncLM{M: vasm.Ptr(data, rt.RefCountOffset), SF: v.MakeReg()})
	}

	if t.IsA(types.Counted) {
		incRef(v)
		return
	}

	// Reference counted kinds have odd tags.
	sf := v.MakeReg()
	v.Emit(vasm.TestBI{S0: 1, S1: typ, SF: sf})
	ifThen(v, condition.NonZero, sf, incRef)
}

// emitCmpTVType compares the type byte in memory with a kind.
func emitCmpTVType(v *vasm.Out, sf reg.R, dt rt.DataType, typ vasm.Vptr) {
	v.Emit(vasm.CmpBIM{S0: int8(dt), S1: typ, SF: sf})
}
