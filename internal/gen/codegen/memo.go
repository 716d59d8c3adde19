// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/errorpanic"
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/condition"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/rds"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/unit"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/types"
)

var (
	errNoKeys         = unit.Error("keyed memo cache has no keys")
	errKeyTypeCount   = unit.Error("memo key type count does not match key count")
	errNoClass        = unit.Error("instance memo slot of function without class")
	errCountedMemoVal = unit.Error("reference counted value stored in uncounted memo slot")
)

// keysAddr is the address of the last key local, which is the lowest.
func keysAddr(fp reg.R, keys ir.KeyRange) vasm.Vptr {
	return vasm.Ptr(fp, rt.LocalOffset(keys.Last()))
}

func checkKeys(keys ir.KeyRange, types []memo.KeyType, allowEmpty bool) {
	if keys.Count == 0 && !allowEmpty {
		pan.Panic(errNoKeys)
	}
	if uint32(len(types)) != keys.Count {
		pan.Panic(errKeyTypeCount)
	}
	if keys.Count > memo.MaxGenericKeyCount {
		pan.Panic(unit.Errorf("too many memo keys: %d", keys.Count))
	}
	if keys.Count > 0 && uint64(keys.First)+uint64(keys.Count)-1 > rt.MaxLocalIndex {
		pan.Panic(unit.Errorf("memo key locals out of range: %s", keys))
	}
	for i, t := range types {
		if !t.Valid() {
			pan.Panic(unit.Errorf("memo key %d has invalid type %d", i, uint8(t)))
		}
	}
}

func genericParam(f *repo.Func, keys ir.KeyRange) uint64 {
	return memo.GenericID{Func: f.ID, KeyCount: keys.Count}.Param()
}

// memoSlotOffset is the object pointer relative offset of a memo slot.
func memoSlotOffset(f *repo.Func, slot int) int32 {
	cls := f.Class
	if cls == nil {
		pan.Panic(errNoClass)
	}
	if slot < 0 || (cls.NumMemoSlots > 0 && slot >= cls.NumMemoSlots) {
		pan.Panic(unit.Errorf("%s: memo slot %d out of range", f, slot))
	}
	return classMemoSlotOffset(cls, slot)
}

func classMemoSlotOffset(cls *repo.Class, slot int) int32 {
	defer func() {
		if x := recover(); x != nil {
			pan.Panic(errorpanic.Handle(x, "memo slot"))
		}
	}()

	return cls.MemoSlotOffset(slot)
}

// memoMaybeCounted indicates if the values cached for a function may be
// reference counted.  If not, the value being stored must not be either.
func memoMaybeCounted(f *repo.Func, val *ir.Value) bool {
	if f.MemoType().Maybe(types.Counted) {
		return true
	}
	if val.Type.Maybe(types.Counted) {
		pan.Panic(errCountedMemoVal)
	}
	return false
}

// markUsedMemoCache sets the object attribute which makes destruction visit
// the memo slots.  The bit is never cleared while the object lives.
func markUsedMemoCache(v *vasm.Out, obj reg.R) {
	v.Emit(vasm.OrWIM{
		S0: int16(rt.AttrUsedMemoCache),
		M:  vasm.Ptr(obj, rt.ObjAttrsOffset),
		SF: v.MakeReg(),
	})
}

func genMemoGetStaticValue(e *gen.Env, i *ir.Instr) {
	v := e.Main
	f := i.Extra.(*ir.FuncData).Func
	h := bindRDS(func() rds.Handle { return e.RDS.BindStaticMemoValue(f.ID) })

	sf := checkRDSHandleInitialized(v, e, h)
	fwdJcc(v, e, condition.Ne, sf, i.Taken)
	loadTV(v, i.Dst.Type, e.DstLoc(i, 0), rdsPtr(h))
}

func genMemoSetStaticValue(e *gen.Env, i *ir.Instr) {
	v := e.Main
	f := i.Extra.(*ir.FuncData).Func
	val := i.Src(0)
	valLoc := e.SrcLoc(i, 0)
	h := bindRDS(func() rds.Handle { return e.RDS.BindStaticMemoValue(f.ID) })

	if !memoMaybeCounted(f, val) {
		storeTV(v, rdsPtr(h), valLoc, val)
		markRDSHandleInitialized(v, e, h)
		return
	}

	sf := checkRDSHandleInitialized(v, e, h)
	unlikelyIfThenElse(v, e, condition.Eq, sf,
		func(v *vasm.Out) {
			callHelper(v, e, stubs.MemoSetDecRef, voidDest, true,
				args(e, i).TypedValue(0).Addr(reg.VMTL, h.Offset()))
		},
		func(v *vasm.Out) {
			emitIncRefWork(v, valLoc, val)
			storeTV(v, rdsPtr(h), valLoc, val)
			markRDSHandleInitialized(v, e, h)
		},
	)
}

func genMemoGetStaticCache(e *gen.Env, i *ir.Instr) {
	v := e.Main
	fp := e.SrcReg(i, 0)
	extra := i.Extra.(*ir.MemoCacheStaticData)
	checkKeys(extra.Keys, extra.Types, false)

	h := bindRDS(func() rds.Handle { return e.RDS.BindStaticMemoCache(extra.Func.ID) })
	sf := checkRDSHandleInitialized(v, e, h)
	fwdJcc(v, e, condition.Ne, sf, i.Taken)

	// The pointer may be null; getters handle that.
	cachePtr := v.MakeReg()
	v.Emit(vasm.Load{S: rdsPtr(h), D: cachePtr})

	valPtr := v.MakeReg()
	keys := keysAddr(fp, extra.Keys)

	if getter := memo.GetForKeyTypes(extra.Types, extra.Keys.Count); getter != nil {
		callHelper(v, e, getter, regDest(valPtr), false,
			args(e, i).Reg(cachePtr).Addr(keys.Base, keys.Disp))
	} else {
		callHelper(v, e, memo.GetGeneric, regDest(valPtr), false,
			args(e, i).Reg(cachePtr).Imm(genericParam(extra.Func, extra.Keys)).Addr(keys.Base, keys.Disp))
	}

	emitLoadFound(v, e, i, valPtr)
}

func genMemoSetStaticCache(e *gen.Env, i *ir.Instr) {
	v := e.Main
	fp := e.SrcReg(i, 0)
	extra := i.Extra.(*ir.MemoCacheStaticData)
	checkKeys(extra.Keys, extra.Types, false)

	// The setter allocates the cache when it finds a null pointer.
	h := bindRDS(func() rds.Handle { return e.RDS.BindStaticMemoCache(extra.Func.ID) })
	sf := checkRDSHandleInitialized(v, e, h)
	ifThen(v, condition.Ne, sf, func(v *vasm.Out) {
		v.Emit(vasm.StoreQI{S: 0, D: rdsPtr(h)})
		markRDSHandleInitialized(v, e, h)
	})

	keys := keysAddr(fp, extra.Keys)

	if setter := memo.SetForKeyTypes(extra.Types, extra.Keys.Count); setter != nil {
		callHelper(v, e, setter, voidDest, true,
			args(e, i).Addr(reg.VMTL, h.Offset()).Addr(keys.Base, keys.Disp).TypedValue(1))
	} else {
		callHelper(v, e, memo.SetGeneric, voidDest, true,
			args(e, i).Addr(reg.VMTL, h.Offset()).Imm(genericParam(extra.Func, extra.Keys)).Addr(keys.Base, keys.Disp).TypedValue(1))
	}
}

func genMemoGetInstanceValue(e *gen.Env, i *ir.Instr) {
	v := e.Main
	extra := i.Extra.(*ir.MemoValueInstanceData)
	obj := e.SrcReg(i, 0)
	slot := vasm.Ptr(obj, memoSlotOffset(extra.Func, extra.Slot))

	// A slot holding a keyed cache pointer is a miss, not a value.
	for _, dt := range []rt.DataType{rt.KindOfUninit, rt.InvalidDataType} {
		sf := v.MakeReg()
		emitCmpTVType(v, sf, dt, slot.Add(rt.TVType))
		fwdJcc(v, e, condition.Eq, sf, i.Taken)
	}
	loadTV(v, i.Dst.Type, e.DstLoc(i, 0), slot)
}

func genMemoSetInstanceValue(e *gen.Env, i *ir.Instr) {
	v := e.Main
	extra := i.Extra.(*ir.MemoValueInstanceData)
	obj := e.SrcReg(i, 0)
	val := i.Src(1)
	valLoc := e.SrcLoc(i, 1)
	slot := vasm.Ptr(obj, memoSlotOffset(extra.Func, extra.Slot))

	markUsedMemoCache(v, obj)

	if !memoMaybeCounted(extra.Func, val) {
		storeTV(v, slot, valLoc, val)
		return
	}

	sf := v.MakeReg()
	emitCmpTVType(v, sf, rt.KindOfUninit, slot.Add(rt.TVType))
	unlikelyIfThenElse(v, e, condition.Ne, sf,
		func(v *vasm.Out) {
			callHelper(v, e, stubs.MemoSetDecRef, voidDest, true,
				args(e, i).TypedValue(1).Addr(slot.Base, slot.Disp))
		},
		func(v *vasm.Out) {
			emitIncRefWork(v, valLoc, val)
			storeTV(v, slot, valLoc, val)
		},
	)
}

func genMemoGetInstanceCache(e *gen.Env, i *ir.Instr) {
	v := e.Main
	fp := e.SrcReg(i, 0)
	obj := e.SrcReg(i, 1)
	extra := i.Extra.(*ir.MemoCacheInstanceData)
	checkKeys(extra.Keys, extra.Types, extra.Shared)

	slot := vasm.Ptr(obj, memoSlotOffset(extra.Func, extra.Slot))

	cache := v.MakeReg()
	v.Emit(vasm.Load{S: slot.Add(rt.TVData), D: cache})

	sf := v.MakeReg()
	v.Emit(vasm.TestQ{S0: cache, S1: cache, SF: sf})
	fwdJcc(v, e, condition.Zero, sf, i.Taken)

	valPtr := v.MakeReg()
	target, g := instanceCacheAccessor(e, i, extra, fp, false)
	g.args = append([]arg{{kind: argReg, reg: cache}}, g.args...)
	callHelper(v, e, target, regDest(valPtr), false, g)

	emitLoadFound(v, e, i, valPtr)
}

func genMemoSetInstanceCache(e *gen.Env, i *ir.Instr) {
	v := e.Main
	fp := e.SrcReg(i, 0)
	obj := e.SrcReg(i, 1)
	extra := i.Extra.(*ir.MemoCacheInstanceData)
	checkKeys(extra.Keys, extra.Types, extra.Shared)

	slot := vasm.Ptr(obj, memoSlotOffset(extra.Func, extra.Slot))

	markUsedMemoCache(v, obj)

	// The slot is a cache, never a value.
	v.Emit(vasm.StoreBI{S: int8(rt.InvalidDataType), D: slot.Add(rt.TVType)})

	target, g := instanceCacheAccessor(e, i, extra, fp, true)
	cacheAddr := slot.Add(rt.TVData)
	g.args = append([]arg{{kind: argAddr, addr: cacheAddr}}, g.args...)
	g.TypedValue(2)
	callHelper(v, e, target, voidDest, true, g)
}

// instanceCacheAccessor selects the routine and the arguments which follow
// the cache operand.
func instanceCacheAccessor(e *gen.Env, i *ir.Instr, extra *ir.MemoCacheInstanceData, fp reg.R, set bool) (*stubs.Routine, *argGroup) {
	g := args(e, i)
	f := extra.Func

	if extra.Shared {
		if extra.Keys.Count == 0 {
			g.Imm(memo.SharedOnlyKey(f.ID))
			if set {
				return memo.SetSharedOnly, g
			}
			return memo.GetSharedOnly, g
		}

		var r *stubs.Routine
		if set {
			r = memo.SharedSetForKeyTypes(extra.Types, extra.Keys.Count)
		} else {
			r = memo.SharedGetForKeyTypes(extra.Types, extra.Keys.Count)
		}

		keys := keysAddr(fp, extra.Keys)
		if r != nil {
			g.Imm(uint64(f.ID)).Addr(keys.Base, keys.Disp)
			return r, g
		}

		g.Imm(genericParam(f, extra.Keys)).Addr(keys.Base, keys.Disp)
		if set {
			return memo.SetGeneric, g
		}
		return memo.GetGeneric, g
	}

	var r *stubs.Routine
	if set {
		r = memo.SetForKeyTypes(extra.Types, extra.Keys.Count)
	} else {
		r = memo.GetForKeyTypes(extra.Types, extra.Keys.Count)
	}

	if r == nil {
		g.Imm(genericParam(f, extra.Keys))
		if set {
			r = memo.SetGeneric
		} else {
			r = memo.GetGeneric
		}
	}

	keys := keysAddr(fp, extra.Keys)
	g.Addr(keys.Base, keys.Disp)
	return r, g
}

// emitLoadFound branches to the taken successor if the getter found nothing,
// and loads the cached value otherwise.
func emitLoadFound(v *vasm.Out, e *gen.Env, i *ir.Instr, valPtr reg.R) {
	sf := v.MakeReg()
	v.Emit(vasm.TestQ{S0: valPtr, S1: valPtr, SF: sf})
	fwdJcc(v, e, condition.Zero, sf, i.Taken)
	loadTV(v, i.Dst.Type, e.DstLoc(i, 0), vasm.Ptr(valPtr, 0))
}
