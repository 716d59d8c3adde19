// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rds allocates the fast-access per-thread data region.  Compiled code
// addresses the region relative to the VM thread-local base register.
//
// Normal handles are preceded by a generation byte: the payload is valid only
// while the byte equals the region's current generation.  Generation zero is
// never current, so zero-filled memory reads as uninitialized.
package rds

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/rt"
)

// Handle is the byte offset of a payload within the region.
type Handle uint32

// GenOffset is the position of a normal handle's generation byte relative to
// the payload.
const GenOffset = -8

const (
	headerSize  = 16
	payloadSize = rt.TVSize
)

// Offset for addressing relative to the region base.
func (h Handle) Offset() int32 {
	off, err := safecast.Conv[int32](h)
	if err != nil {
		panic(fmt.Errorf("rds handle out of range: %w", err))
	}
	return off
}

// GenNumberOffset is the region-relative offset of the generation byte.
func (h Handle) GenNumberOffset() int32 {
	return h.Offset() + GenOffset
}

// GenNumber is the value of a generation byte.
type GenNumber uint8

// Kind of binding.
type Kind uint8

const (
	Normal     = Kind(iota) // Guarded by a generation byte.
	Persistent              // Valid from process start.
)

type bindingKey struct {
	mode string
	id   uint64
}

// Binding describes an allocated handle.
type Binding struct {
	Name   string
	Kind   Kind
	Handle Handle
	Size   int
}

// Region is the allocator.  It is safe for concurrent use; binding the same
// symbol twice yields the same handle.
type Region struct {
	genNum   Handle
	mu       sync.Mutex
	limit    uint32
	size     uint32
	gen      GenNumber
	bindings map[bindingKey]*Binding
	order    []*Binding
}

// DefaultLimit is the default region size.
const DefaultLimit = 1 << 20

func NewRegion(limit int) *Region {
	n, err := safecast.Conv[uint32](limit)
	if err != nil {
		panic(fmt.Errorf("rds region limit: %w", err))
	}

	r := &Region{
		limit:    n,
		size:     headerSize, // Handle zero is never allocated.
		gen:      1,
		bindings: make(map[bindingKey]*Binding),
	}
	r.genNum = r.bind(bindingKey{"CurrentGenNumber", 0}, "CurrentGenNumber", Persistent)
	return r
}

// GenNumberHandle locates the byte which holds the current generation at
// run time.
func (r *Region) GenNumberHandle() Handle {
	return r.genNum
}

// CurrentGen returns the generation which marks handles as initialized.
func (r *Region) CurrentGen() GenNumber {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.gen
}

// NextGen starts a new generation, invalidating all normal handles.  The
// caller must store the result at GenNumberHandle.
func (r *Region) NextGen() GenNumber {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	if r.gen == 0 {
		r.gen = 1
	}
	return r.gen
}

// Size is the extent of the allocated part of the region.
func (r *Region) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int(r.size)
}

// Bindings in allocation order.
func (r *Region) Bindings() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	bs := make([]Binding, len(r.order))
	for i, b := range r.order {
		bs[i] = *b
	}
	return bs
}

func (r *Region) bind(key bindingKey, name string, kind Kind) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b := r.bindings[key]; b != nil {
		return b.Handle
	}

	if r.size+headerSize+payloadSize > r.limit {
		panic(fmt.Errorf("rds region exhausted while binding %s", name))
	}

	h := Handle(r.size + headerSize)
	r.size += headerSize + payloadSize

	b := &Binding{
		Name:   name,
		Kind:   kind,
		Handle: h,
		Size:   payloadSize,
	}
	r.bindings[key] = b
	r.order = append(r.order, b)
	return h
}

// BindStaticMemoValue binds the process-wide memo value of a keyless
// function.  The payload is a TypedValue.
func (r *Region) BindStaticMemoValue(f repo.FuncID) Handle {
	return r.bind(bindingKey{"StaticMemoValue", uint64(f)}, fmt.Sprintf("StaticMemoValue<%d>", f), Normal)
}

// BindStaticMemoCache binds the process-wide memo cache of a keyed function.
// The payload is a cache pointer.
func (r *Region) BindStaticMemoCache(f repo.FuncID) Handle {
	return r.bind(bindingKey{"StaticMemoCache", uint64(f)}, fmt.Sprintf("StaticMemoCache<%d>", f), Normal)
}

// BindStat binds a 64-bit event counter.
func (r *Region) BindStat(counter int64) Handle {
	return r.bind(bindingKey{"Stat", uint64(counter)}, fmt.Sprintf("Stat<%d>", counter), Persistent)
}
