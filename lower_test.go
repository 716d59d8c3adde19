// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package irlower_test

import (
	"context"
	"strings"
	"testing"

	"gate.computer/irlower"
	"gate.computer/irlower/errors"
	"gate.computer/irlower/internal/bc"
	"gate.computer/irlower/internal/gen/storage"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/internal/prof"
	"gate.computer/irlower/internal/rds"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/types"
)

var (
	classless = &repo.Func{ID: 20, Name: "classless", ReturnType: types.Cell}

	// A class whose memo slot count is unknown.
	unboundedClass = &repo.Class{Name: "Unbounded", NativeDataSize: 8}
	unboundedFunc  = &repo.Func{ID: 21, Name: "unbounded", Class: unboundedClass, ReturnType: types.Cell}
)

func TestLowerErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		unit func() *ir.Unit
		msg  string
	}{
		{"NoBlocks", func() *ir.Unit {
			return &ir.Unit{Func: cellFunc}
		}, "no blocks"},
		{"FallsOff", func() *ir.Unit {
			b := newUnit(cellFunc)
			return b.done()
		}, "without control transfer"},
		{"NotLast", func() *ir.Unit {
			b := newUnit(cellFunc)
			b.add(ir.RetCtrl, nil)
			return b.finish()
		}, "not last"},
		{"MissingTaken", func() *ir.Unit {
			b := newUnit(cellFunc)
			b.addExtra(ir.MemoGetStaticValue, b.value(types.InitCell), &ir.FuncData{Func: cellFunc})
			return b.finish()
		}, "malformed instruction"},
		{"InterpOneControlFlow", func() *ir.Unit {
			b := newUnit(cellFunc)
			sp := b.value(types.Bottom)
			b.addExtra(ir.DefSP, sp, &ir.DefSPData{}, b.fp)
			b.addExtra(ir.InterpOne, nil, &ir.InterpOneData{Opcode: bc.JmpNZ}, sp, b.fp)
			return b.finish()
		}, "control flow bytecode"},
		{"InterpOneCFNoStub", func() *ir.Unit {
			b := newUnit(cellFunc)
			sp := b.value(types.Bottom)
			b.addExtra(ir.DefSP, sp, &ir.DefSPData{}, b.fp)
			b.addExtra(ir.InterpOneCF, nil, &ir.InterpOneData{Opcode: bc.Add}, sp)
			return b.done()
		}, "no stub"},
		{"NoKeys", func() *ir.Unit {
			u, _ := staticCacheGet(cellFunc, ir.KeyRange{}, nil)
			return u
		}, "no keys"},
		{"KeyTypeCount", func() *ir.Unit {
			u, _ := staticCacheSet(cellFunc, ir.KeyRange{Count: 2}, []memo.KeyType{memo.Int})
			return u
		}, "key type count"},
		{"KeyCountLimit", func() *ir.Unit {
			u, _ := staticCacheGet(cellFunc, ir.KeyRange{Count: 70000}, make([]memo.KeyType, 70000))
			return u
		}, "too many memo keys"},
		{"KeyType", func() *ir.Unit {
			u, _ := staticCacheGet(cellFunc, ir.KeyRange{Count: 1}, []memo.KeyType{7})
			return u
		}, "invalid type"},
		{"InstanceKeyType", func() *ir.Unit {
			u, _, _ := instanceCacheSet(instanceCache{methodFunc, 0, ir.KeyRange{Count: 2}, []memo.KeyType{memo.Int, 3}, false})
			return u
		}, "invalid type"},
		{"KeyLocalRange", func() *ir.Unit {
			u, _ := staticCacheSet(cellFunc, ir.KeyRange{First: 0x10000000, Count: 1}, []memo.KeyType{memo.Int})
			return u
		}, "key locals out of range"},
		{"KeyLocalWrap", func() *ir.Unit {
			u, _ := staticCacheGet(cellFunc, ir.KeyRange{First: 0xffffffff, Count: 2}, []memo.KeyType{memo.Int, memo.Int})
			return u
		}, "key locals out of range"},
		{"SlotOffsetOverflow", func() *ir.Unit {
			u, _, _ := instanceValueGet(unboundedFunc, 1<<28)
			return u
		}, "overflow"},
		{"NoClass", func() *ir.Unit {
			u, _, _ := instanceValueGet(classless, 0)
			return u
		}, "without class"},
		{"SlotRange", func() *ir.Unit {
			u, _, _ := instanceValueGet(methodFunc, memoClass.NumMemoSlots)
			return u
		}, "out of range"},
		{"CountedIntoUncounted", func() *ir.Unit {
			b := newUnit(intFunc)
			b.addExtra(ir.MemoSetStaticValue, nil, &ir.FuncData{Func: intFunc}, b.value(types.CountedStr))
			return b.finish()
		}, "uncounted memo slot"},
		{"CounterRange", func() *ir.Unit {
			b := newUnit(cellFunc)
			b.addExtra(ir.IncProfCounter, nil, &ir.TransIDData{TransID: irlower.DefaultNumCounters})
			return b.finish()
		}, "profiling counter"},
		{"NonConstantStat", func() *ir.Unit {
			b := newUnit(cellFunc)
			b.add(ir.IncStat, nil, b.value(types.Int))
			return b.finish()
		}, "not a constant"},
		{"MovWords", func() *ir.Unit {
			b := newUnit(cellFunc)
			b.add(ir.Mov, b.value(types.Int), b.value(types.InitCell))
			return b.finish()
		}, "word count"},
	} {
		t.Run(test.name, func(t *testing.T) {
			conf := testConfig()
			conf.EnableStats = true

			u := test.unit()
			_, err := irlower.Lower(u, irlower.NewRuntime(conf), 0)
			if err == nil {
				t.Fatal("no error")
			}
			if _, ok := errors.AsUnitError(err); !ok {
				t.Errorf("not a unit error: %v", err)
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("error: %v", err)
			}
			if !strings.HasPrefix(err.Error(), u.Func.String()+": ") {
				t.Errorf("error lacks function name: %v", err)
			}
		})
	}
}

func TestRDSExhaustion(t *testing.T) {
	r := irlower.NewRuntime(testConfig())
	r.RDS = rds.NewRegion(96)

	var err error
	for id := repo.FuncID(100); id < 110 && err == nil; id++ {
		f := &repo.Func{ID: id, Name: "f", ReturnType: types.Int}
		u, _ := staticValueGet(f)
		_, err = irlower.Lower(u, r, 0)
	}

	if err == nil {
		t.Fatal("region was not exhausted")
	}
	if _, ok := errors.AsUnitError(err); !ok {
		t.Errorf("not a unit error: %v", err)
	}
}

func TestSpilledValues(t *testing.T) {
	h := newHarness(t, testConfig())
	h.budget = 1
	th := h.m.NewThread()

	getUnit, dst := staticValueGet(cellFunc)
	setUnit, val := staticValueSet(cellFunc, types.InitCell)
	get := h.lower(getUnit)
	set := h.lower(setUnit)

	if get.StackSize == 0 || set.StackSize == 0 {
		t.Fatal("nothing was spilled")
	}

	v := h.m.NewString("spilled", true)
	checkReturned(t, h.run(th, set, in(val, v)))
	checkRefCount(t, h.m, v, 2)

	checkReturned(t, h.run(th, get, nil))
	if got := th.Value(get.Locs.Loc(dst), rt.KindOfUninit); got != v {
		t.Errorf("got %v", got)
	}

	c := instanceCache{methodFunc, 3, ir.KeyRange{First: 0, Count: 1}, []memo.KeyType{memo.Any}, false}
	cacheGetUnit, getObj, cacheDst := instanceCacheGet(c)
	cacheSetUnit, setObj, cacheVal := instanceCacheSet(c)
	cacheGet := h.lower(cacheGetUnit)
	cacheSet := h.lower(cacheSetUnit)

	obj := h.m.NewObject(memoClass)
	th.SetLocal(0, rt.Int(1))

	checkReturned(t, h.run(th, cacheSet, map[*ir.Value]rt.TypedValue{setObj: obj, cacheVal: v}))
	checkReturned(t, h.run(th, cacheGet, in(getObj, obj)))
	if got := th.Value(cacheGet.Locs.Loc(cacheDst), rt.KindOfUninit); got != v {
		t.Errorf("got %v", got)
	}
	checkRefCount(t, h.m, v, 3)

	h.m.DecRef(obj)
	checkRefCount(t, h.m, v, 2)
}

func TestSpilledConstant(t *testing.T) {
	h := newHarness(t, testConfig())
	h.budget = 1
	th := h.m.NewThread()

	b := newUnit(intFunc)
	x := b.value(types.Int)
	c := b.constant(77)
	b.add(ir.PrintInt, nil, x)
	b.addExtra(ir.MemoSetStaticValue, nil, &ir.FuncData{Func: intFunc}, c)
	set := h.lower(b.finish())

	if l := set.Locs.Loc(c); l.Storage != storage.Stack {
		t.Fatalf("constant storage: %v", l.Storage)
	}

	checkReturned(t, h.run(th, set, in(x, rt.Int(5))))

	if tv, init := h.m.StaticMemoValue(intFunc.ID); !init || tv != rt.Int(77) {
		t.Errorf("memo value: %v init=%v", tv, init)
	}

	getUnit, dst := staticValueGet(intFunc)
	get := h.lower(getUnit)
	checkReturned(t, h.run(th, get, nil))
	if got := th.Value(get.Locs.Loc(dst), rt.KindOfInt64); got != rt.Int(77) {
		t.Errorf("got %v", got)
	}
}

func TestLowerUnits(t *testing.T) {
	h := newHarness(t, testConfig())

	bad := newUnit(cellFunc)
	bad.add(ir.RetCtrl, nil)
	badUnit := bad.finish()

	setUnit, val := staticValueSet(intFunc, types.Int)
	getUnit, dst := staticValueGet(intFunc)

	results, err := irlower.LowerUnits(context.Background(), []*ir.Unit{setUnit, badUnit, getUnit}, h.rt, 0, 2)
	if err != nil {
		t.Fatal(err)
	}

	if results[1].Err == nil {
		t.Error("malformed unit was lowered")
	}
	for _, n := range []int{0, 2} {
		if results[n].Err != nil {
			t.Fatalf("unit %d: %v", n, results[n].Err)
		}
	}

	th := h.m.NewThread()
	set := results[0].Result
	get := results[2].Result

	checkReturned(t, h.run(th, set, in(val, rt.Int(5))))
	checkReturned(t, h.run(th, get, nil))
	if got := th.Value(get.Locs.Loc(dst), rt.KindOfInt64); got != rt.Int(5) {
		t.Errorf("got %v", got)
	}
}

func TestLowerUnitsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u, _ := staticValueGet(intFunc)
	_, err := irlower.LowerUnits(ctx, []*ir.Unit{u, u, u}, irlower.NewRuntime(testConfig()), 0, 1)
	if err == nil {
		t.Error("canceled context did not fail")
	}
}

func TestCustomCounters(t *testing.T) {
	r := irlower.NewRuntime(testConfig())
	r.Counters = &prof.Counters{Base: 0x5000, Limit: 8}

	b := newUnit(cellFunc)
	b.addExtra(ir.IncProfCounter, nil, &ir.TransIDData{TransID: 7})
	if _, err := irlower.Lower(b.finish(), r, 0); err != nil {
		t.Fatal(err)
	}

	r.Counters = nil
	b = newUnit(cellFunc)
	b.addExtra(ir.IncProfCounter, nil, &ir.TransIDData{TransID: 0})
	if _, err := irlower.Lower(b.finish(), r, 0); err == nil {
		t.Error("lowering without counters succeeded")
	}
}
