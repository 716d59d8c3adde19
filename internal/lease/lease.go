// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lease arbitrates which thread may produce the optimized
// translation of a function.
package lease

import (
	"sync"
	"sync/atomic"

	"gate.computer/irlower/internal/repo"
)

// Owner identifies a thread.  Zero is nobody.
type Owner uint64

// Table of per-function leases.  The zero value is ready to use.
type Table struct {
	leases sync.Map // repo.FuncID -> *atomic.Uint64
}

func (t *Table) lease(f repo.FuncID) *atomic.Uint64 {
	if x, found := t.leases.Load(f); found {
		return x.(*atomic.Uint64)
	}
	x, _ := t.leases.LoadOrStore(f, new(atomic.Uint64))
	return x.(*atomic.Uint64)
}

// Acquire the function's lease.  Acquiring an already held lease succeeds.
func (t *Table) Acquire(f repo.FuncID, o Owner) bool {
	l := t.lease(f)
	return l.CompareAndSwap(0, uint64(o)) || l.Load() == uint64(o)
}

// Release the function's lease if o holds it.
func (t *Table) Release(f repo.FuncID, o Owner) {
	t.lease(f).CompareAndSwap(uint64(o), 0)
}

// CouldAcquire reports without side-effects whether o could acquire the
// lease right now.
func (t *Table) CouldAcquire(f repo.FuncID, o Owner) bool {
	holder := t.lease(f).Load()
	return holder == 0 || holder == uint64(o)
}

// Holder of the lease, or zero.
func (t *Table) Holder(f repo.FuncID) Owner {
	return Owner(t.lease(f).Load())
}
