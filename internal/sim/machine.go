// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim executes virtual assembly against a model of the runtime: a
// fast-access region, profiling counters, reference counted heap objects,
// keyed memoization caches, optimization leases and the support routines.
//
// Memory accesses are individually atomic, so concurrently running threads
// interleave at instruction granularity.  Racy read-modify-write
// instructions yield between their load and store.
package sim

import (
	"sync"
	"sync/atomic"

	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/lease"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/rt"
)

// Address space layout.
const (
	RDSBase   = uint64(0x00100000)
	HeapBase  = uint64(0x40000000)
	StackBase = uint64(0x70000000)

	stackSize   = 0x10000
	frameOffset = 0x8000 // Locals are below the frame pointer.
	spillOffset = 0xc000 // Native stack slots are above the native stack pointer.
)

type object struct {
	class     *repo.Class // Nil for strings.
	str       string
	kind      rt.DataType
	destroyed bool
}

// Machine is the state shared by threads.
type Machine struct {
	Runtime *gen.Runtime
	Mem     *Memory
	Leases  lease.Table

	setMu sync.Mutex // Serializes support routines which replace values.

	mu      sync.Mutex
	heapTop uint64
	objects map[uint64]*object
	caches  map[uint64]*memo.MapCache[uint64]
	threads int

	clock atomic.Int64
}

func New(r *gen.Runtime) *Machine {
	m := &Machine{
		Runtime: r,
		Mem:     newMemory(),
		heapTop: HeapBase,
		objects: make(map[uint64]*object),
		caches:  make(map[uint64]*memo.MapCache[uint64]),
	}
	m.storeGen()
	return m
}

func (m *Machine) storeGen() {
	addr := RDSBase + uint64(m.Runtime.RDS.GenNumberHandle().Offset())
	m.Mem.Store(addr, 1, uint64(m.Runtime.RDS.CurrentGen()))
}

// NextGen invalidates all normal fast-access handles.
func (m *Machine) NextGen() {
	m.Runtime.RDS.NextGen()
	m.storeGen()
}

func (m *Machine) syncStrings() {
	if p := m.Runtime.Strings; p != nil {
		if b := p.Bytes(); len(b) > 0 {
			m.Mem.WriteBytes(p.Base, b)
		}
	}
}

func (m *Machine) alloc(size int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := m.heapTop
	m.heapTop += uint64(rt.AlignTypedValue(size))
	return addr
}

func (m *Machine) register(addr uint64, o *object) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[addr] = o
}

func (m *Machine) object(addr uint64) *object {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.objects[addr]
	if o == nil {
		panic(errorf("no heap object at %#x", addr))
	}
	return o
}

// NewString allocates a string.  A counted string starts with one reference
// owned by the caller.
func (m *Machine) NewString(s string, counted bool) rt.TypedValue {
	addr := m.alloc(rt.ObjHeaderSize)
	kind := rt.KindOfPersistentString
	if counted {
		kind = rt.KindOfString
		m.Mem.Store(addr+rt.RefCountOffset, rt.RefCountSize, 1)
	}
	m.register(addr, &object{str: s, kind: kind})
	return rt.Ptr(kind, addr)
}

// NewObject allocates an instance with one reference owned by the caller.
// Memo slots start out uninitialized.
func (m *Machine) NewObject(c *repo.Class) rt.TypedValue {
	prefix := c.PrefixSize()
	addr := m.alloc(prefix+rt.ObjHeaderSize) + uint64(prefix)
	m.Mem.Store(addr+rt.RefCountOffset, rt.RefCountSize, 1)
	if c.Collection {
		m.Mem.Store(addr+rt.ObjAttrsOffset, rt.ObjAttrsSize, uint64(rt.AttrIsCollection))
	}
	m.register(addr, &object{class: c, kind: rt.KindOfObject})
	return rt.Ptr(rt.KindOfObject, addr)
}

// Str returns the contents of a string value.
func (m *Machine) Str(tv rt.TypedValue) string {
	if tv.Type != rt.KindOfString && tv.Type != rt.KindOfPersistentString {
		panic(errorf("not a string: %s", tv.Type))
	}
	return m.object(tv.Data).str
}

// RefCount of a heap value.
func (m *Machine) RefCount(tv rt.TypedValue) int32 {
	return int32(m.Mem.Load(tv.Data+rt.RefCountOffset, rt.RefCountSize))
}

// Destroyed indicates if a heap value's last reference has been dropped.
func (m *Machine) Destroyed(tv rt.TypedValue) bool {
	o := m.object(tv.Data)

	m.mu.Lock()
	defer m.mu.Unlock()

	return o.destroyed
}

// ObjAttrs of an instance.
func (m *Machine) ObjAttrs(obj rt.TypedValue) uint16 {
	return uint16(m.Mem.Load(obj.Data+rt.ObjAttrsOffset, rt.ObjAttrsSize))
}

func (m *Machine) IncRef(tv rt.TypedValue) {
	if tv.Type.IsRefCounted() {
		m.Mem.Modify(tv.Data+rt.RefCountOffset, rt.RefCountSize, func(x uint64) uint64 {
			return uint64(uint32(int32(x) + 1))
		})
	}
}

// DecRef destroys a value when its last reference is dropped.
func (m *Machine) DecRef(tv rt.TypedValue) {
	if !tv.Type.IsRefCounted() {
		return
	}

	n := int32(m.Mem.Modify(tv.Data+rt.RefCountOffset, rt.RefCountSize, func(x uint64) uint64 {
		return uint64(uint32(int32(x) - 1))
	}))
	if n < 0 {
		panic(errorf("reference count of %s at %#x underflows", tv.Type, tv.Data))
	}
	if n == 0 {
		m.destroy(tv)
	}
}

func (m *Machine) destroy(tv rt.TypedValue) {
	o := m.object(tv.Data)

	m.mu.Lock()
	o.destroyed = true
	m.mu.Unlock()

	if o.class == nil || m.ObjAttrs(tv)&rt.AttrUsedMemoCache == 0 {
		return
	}

	for slot := 0; slot < o.class.NumMemoSlots; slot++ {
		addr := uint64(int64(tv.Data) + int64(o.class.MemoSlotOffset(slot)))
		v := m.LoadTV(addr)
		if v.Type == rt.InvalidDataType {
			m.releaseCache(v.Data)
		} else {
			m.DecRef(v)
		}
		m.StoreTV(addr, rt.Uninit())
	}
}

func (m *Machine) LoadTV(addr uint64) rt.TypedValue {
	return rt.TypedValue{
		Data: m.Mem.Load(addr+rt.TVData, 8),
		Type: rt.DataType(int8(m.Mem.Load(addr+rt.TVType, 1))),
	}
}

func (m *Machine) StoreTV(addr uint64, tv rt.TypedValue) {
	m.Mem.Store(addr+rt.TVData, 8, tv.Data)
	m.Mem.Store(addr+rt.TVType, 1, uint64(uint8(tv.Type)))
}

func (m *Machine) newCache() uint64 {
	addr := m.alloc(rt.ObjHeaderSize)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.caches[addr] = memo.NewMapCache[uint64]()
	return addr
}

// Cache returns the keyed cache at an address, or nil.
func (m *Machine) Cache(addr uint64) *memo.MapCache[uint64] {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.caches[addr]
}

// CacheEntries lists a cache's values.
func (m *Machine) CacheEntries(addr uint64) (values []rt.TypedValue) {
	if c := m.Cache(addr); c != nil {
		c.Range(func(_ memo.Key, slot uint64) bool {
			values = append(values, m.LoadTV(slot))
			return true
		})
	}
	return
}

func (m *Machine) releaseCache(addr uint64) {
	if addr == 0 {
		return
	}

	m.mu.Lock()
	c := m.caches[addr]
	delete(m.caches, addr)
	m.mu.Unlock()

	if c == nil {
		panic(errorf("no memo cache at %#x", addr))
	}

	c.Range(func(_ memo.Key, slot uint64) bool {
		m.DecRef(m.LoadTV(slot))
		return true
	})
}

// RDSAddr is the address of a fast-access handle's payload.
func (m *Machine) RDSAddr(offset int32) uint64 {
	return uint64(int64(RDSBase) + int64(offset))
}

// StaticMemoValue reads a function's static memo value and whether its
// handle is initialized.
func (m *Machine) StaticMemoValue(f repo.FuncID) (tv rt.TypedValue, init bool) {
	h := m.Runtime.RDS.BindStaticMemoValue(f)
	return m.LoadTV(m.RDSAddr(h.Offset())), m.handleInit(h.GenNumberOffset())
}

// StaticMemoCache reads the cache pointer of a function's static keyed
// cache and whether its handle is initialized.
func (m *Machine) StaticMemoCache(f repo.FuncID) (addr uint64, init bool) {
	h := m.Runtime.RDS.BindStaticMemoCache(f)
	return m.Mem.Load(m.RDSAddr(h.Offset()), 8), m.handleInit(h.GenNumberOffset())
}

func (m *Machine) handleInit(genOffset int32) bool {
	cur := m.Mem.Load(m.RDSAddr(m.Runtime.RDS.GenNumberHandle().Offset()), 1)
	return m.Mem.Load(m.RDSAddr(genOffset), 1) == cur
}

// Stat reads a stat counter.
func (m *Machine) Stat(counter int64) uint64 {
	h := m.Runtime.RDS.BindStat(counter)
	return m.Mem.Load(m.RDSAddr(h.Offset()), 8)
}

func (m *Machine) SetCounter(transID uint32, n int64) {
	m.Mem.Store(m.Runtime.Counters.CounterAddr(transID), 8, uint64(n))
}

func (m *Machine) Counter(transID uint32) int64 {
	return int64(m.Mem.Load(m.Runtime.Counters.CounterAddr(transID), 8))
}

// MemoSlot reads an instance's memo slot.
func (m *Machine) MemoSlot(obj rt.TypedValue, f *repo.Func, slot int) rt.TypedValue {
	return m.LoadTV(uint64(int64(obj.Data) + int64(f.Class.MemoSlotOffset(slot))))
}
