// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import (
	"testing"

	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/gen/storage"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/types"
)

func counter() func() reg.R {
	r := reg.FirstVirtual
	return func() reg.R {
		r++
		return r - 1
	}
}

func TestAlloc(t *testing.T) {
	a := MakeAllocator(3, counter())

	if l := a.Alloc(0); l.Storage != storage.None {
		t.Error(l)
	}
	if l := a.Alloc(1); l.Storage != storage.Reg || l.Reg() != reg.FirstVirtual {
		t.Error(l)
	}
	if l := a.Alloc(2); l.Storage != storage.RegPair || l.TypeReg() != reg.FirstVirtual+2 {
		t.Error(l)
	}
	if l := a.Alloc(1); l.Storage != storage.Stack || l.Offset() != 0 {
		t.Error(l)
	}
	if l := a.Alloc(2); l.Storage != storage.Stack || l.Offset() != 16 {
		t.Error(l)
	}
	if a.NumAllocated() != 3 || a.StackSize() != 32 {
		t.Error(a.NumAllocated(), a.StackSize())
	}
}

func TestAssign(t *testing.T) {
	f := &repo.Func{ID: 1, Name: "f", ReturnType: types.Int}

	fp := ir.NewValue(0, types.Bottom)
	obj := ir.NewValue(1, types.Obj)
	val := ir.NewValue(2, types.InitCell)
	null := ir.NewValue(3, types.InitNull)

	entry := &ir.Block{ID: 0}
	exit := &ir.Block{ID: 1}
	entry.Instrs = []*ir.Instr{
		{Op: ir.DefFP, Dst: fp},
		{Op: ir.MemoGetInstanceValue, Srcs: []*ir.Value{obj}, Dst: val, Taken: exit,
			Extra: &ir.MemoValueInstanceData{Func: f, Slot: 0}},
		{Op: ir.Mov, Srcs: []*ir.Value{null}, Dst: ir.NewValue(4, types.InitNull)},
	}

	// A budget of one register: the object pointer must still get one.
	a := MakeAllocator(1, counter())
	locs := a.Assign(&ir.Unit{Func: f, Blocks: []*ir.Block{entry, exit}})

	if l := locs.Loc(fp); l.Storage != storage.Reg || l.Reg() != reg.VMFP {
		t.Error("fp:", l)
	}
	if l := locs.Loc(obj); l.Storage != storage.Reg {
		t.Error("obj:", l)
	}
	if l := locs.Loc(val); l.Storage != storage.Stack {
		t.Error("val:", l)
	}
	if l := locs.Loc(null); l.Storage != storage.None {
		t.Error("null:", l)
	}
	if l := locs.Loc(ir.NewValue(99, types.Int)); l.Storage != storage.None {
		t.Error("unknown:", l)
	}
}
