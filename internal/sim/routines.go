// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"math"

	"gate.computer/irlower/internal/bc"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/rt"
)

var interpOneOps = func() map[*stubs.Routine]bc.Op {
	m := make(map[*stubs.Routine]bc.Op)
	for op := bc.Op(0); op < bc.NumOps; op++ {
		m[stubs.InterpOne(op)] = op
	}
	return m
}()

// Interp records an interpOne invocation.
type Interp struct {
	Op    bc.Op
	FP    uint64
	SP    uint64
	BcOff int32
}

func (t *Thread) arg(n int) uint64 {
	return t.reg(reg.Arg(n))
}

func (t *Thread) argTV(n int) rt.TypedValue {
	return rt.TypedValue{Data: t.arg(n), Type: rt.DataType(int8(t.arg(n + 1)))}
}

func (t *Thread) ret(x uint64) {
	t.regs[reg.Ret0] = x
}

func (t *Thread) retTV(tv rt.TypedValue) {
	t.regs[reg.Ret0] = tv.Data
	t.regs[reg.Ret1] = uint64(uint8(tv.Type))
}

// Interps lists the interpOne invocations of the thread.
func (t *Thread) Interps() (list []Interp) {
	for _, c := range t.Calls {
		if op, found := interpOneOps[c.Routine]; found {
			list = append(list, Interp{op, c.Args[0], c.Args[1], int32(uint32(c.Args[2]))})
		}
	}
	return
}

func (t *Thread) call(i vasm.Call) {
	t.Calls = append(t.Calls, Call{
		Routine: i.Target,
		Args:    t.argRegs(i.Args),
		PC:      t.VM.PC,
		Sync:    i.Sync,
	})

	if a, found := memo.Describe(i.Target); found {
		if a.Kind == memo.Get {
			t.memoGet(a)
		} else {
			t.memoSet(a)
		}
		return
	}

	if _, found := interpOneOps[i.Target]; found {
		return
	}

	m := t.m

	switch i.Target {
	case stubs.MemoSetDecRef:
		val := t.argTV(0)
		addr := t.arg(2)
		m.setMu.Lock()
		defer m.setMu.Unlock()
		m.IncRef(val)
		old := m.LoadTV(addr)
		m.StoreTV(addr, val)
		m.DecRef(old)

	case stubs.CouldAcquireOptimizeLease:
		if m.Leases.CouldAcquire(repo.FuncID(t.arg(0)), t.Owner) {
			t.ret(1)
		} else {
			t.ret(0)
		}

	case stubs.ProfCounterDecLocked:
		t.ret(m.Mem.Modify(t.arg(0), 8, func(x uint64) uint64 { return x - 1 }))

	case stubs.SerializeMemoParam:
		tv := t.argTV(0)
		switch tv.Type {
		case rt.KindOfInt64, rt.KindOfPersistentString:
			t.retTV(tv)
		case rt.KindOfString:
			m.IncRef(tv)
			t.retTV(tv)
		case rt.KindOfNull:
			t.retTV(m.NewString("n", false))
		case rt.KindOfBoolean:
			t.retTV(rt.Int(int64(tv.Data)))
		default:
			t.retTV(m.NewString(fmt.Sprintf("%s:%#x", tv.Type, tv.Data), false))
		}

	case stubs.SerializeMemoParamStr:
		t.retTV(m.NewString(m.object(t.arg(0)).str, false))

	case stubs.SerializeMemoParamDbl:
		t.retTV(m.NewString(fmt.Sprintf("d:%v", math.Float64frombits(t.arg(0))), false))

	case stubs.SerializeMemoParamArr:
		t.retTV(m.NewString(fmt.Sprintf("a:%#x", t.arg(0)), false))

	case stubs.SerializeMemoParamCol:
		t.retTV(m.NewString(fmt.Sprintf("c:%#x", t.arg(0)), false))

	case stubs.SerializeMemoParamObj:
		t.retTV(m.NewString(fmt.Sprintf("o:%#x", t.arg(0)), false))

	case stubs.RingbufferEntry:
		t.Trace = append(t.Trace, fmt.Sprintf("entry %d %#x", t.arg(0), t.arg(1)))

	case stubs.RingbufferMsg:
		msg := m.Mem.ReadBytes(t.arg(0), int(t.arg(1)))
		t.Trace = append(t.Trace, fmt.Sprintf("msg %d %s", t.arg(2), msg))

	case stubs.GetTime, stubs.GetTimeNs:
		t.ret(uint64(m.clock.Add(1)))

	case stubs.PrintBool:
		fmt.Fprint(&t.Output, t.arg(0) != 0)

	case stubs.PrintInt:
		fmt.Fprint(&t.Output, int64(t.arg(0)))

	case stubs.PrintStr:
		t.Output.WriteString(m.object(t.arg(0)).str)

	default:
		panic(errorf("call to unsupported routine %s", i.Target))
	}
}

// memoKey decodes the key locals and the callee tag of an accessor.  Args
// are the operands which follow the cache operand.
func (t *Thread) memoKey(a memo.Accessor, argIndex int) (key memo.Key, next int) {
	var b memo.KeyBuilder

	if a.SharedOnly {
		b.AddInt(int64(t.arg(argIndex)))
		return b.Key(), argIndex + 1
	}

	var (
		types []memo.KeyType
		count int
	)

	switch {
	case a.Generic:
		id := memo.GenericIDFromParam(t.arg(argIndex))
		argIndex++
		b.AddFunc(id.Func)
		count = int(id.KeyCount)
		types = make([]memo.KeyType, count)

	case a.Shared:
		b.AddFunc(repo.FuncID(t.arg(argIndex)))
		argIndex++
		types = a.Types
		count = len(types)

	default:
		types = a.Types
		count = len(types)
	}

	keys := t.arg(argIndex)
	argIndex++

	for j := 0; j < count; j++ {
		tv := t.m.LoadTV(keys + uint64((count-1-j)*rt.TVSize))

		switch types[j] {
		case memo.Int:
			b.AddInt(int64(tv.Data))

		case memo.Str:
			b.AddStr(t.m.object(tv.Data).str)

		default:
			switch tv.Type {
			case rt.KindOfInt64:
				b.AddInt(int64(tv.Data))
			case rt.KindOfString, rt.KindOfPersistentString:
				b.AddStr(t.m.object(tv.Data).str)
			default:
				panic(errorf("memo key %d has type %s", j, tv.Type))
			}
		}
	}

	return b.Key(), argIndex
}

// memoGet returns a pointer to the cached value, or null.
func (t *Thread) memoGet(a memo.Accessor) {
	cache := t.m.Cache(t.arg(0))
	key, _ := t.memoKey(a, 1)

	if cache == nil {
		if t.arg(0) != 0 {
			panic(errorf("no memo cache at %#x", t.arg(0)))
		}
		t.ret(0)
		return
	}

	slot, found := cache.Get(key)
	if !found {
		t.ret(0)
		return
	}
	t.ret(slot)
}

// memoSet stores a value, allocating the cache if the pointer is null.  The
// cache owns a reference to the value.
func (t *Thread) memoSet(a memo.Accessor) {
	m := t.m
	cacheAddr := t.arg(0)
	key, next := t.memoKey(a, 1)
	val := t.argTV(next)

	m.setMu.Lock()
	defer m.setMu.Unlock()

	ptr := m.Mem.Load(cacheAddr, 8)
	if ptr == 0 {
		ptr = m.newCache()
		m.Mem.Store(cacheAddr, 8, ptr)
	}
	cache := m.Cache(ptr)
	if cache == nil {
		panic(errorf("no memo cache at %#x", ptr))
	}

	m.IncRef(val)

	if slot, found := cache.Get(key); found {
		old := m.LoadTV(slot)
		m.StoreTV(slot, val)
		m.DecRef(old)
		return
	}

	slot := m.alloc(rt.TVSize)
	m.StoreTV(slot, val)
	cache.Set(key, slot)
}
