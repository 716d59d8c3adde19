// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lease

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestLease(t *testing.T) {
	var tab Table

	if !tab.CouldAcquire(1, 10) {
		t.Error("free lease not acquirable")
	}
	if !tab.Acquire(1, 10) {
		t.Fatal("acquire failed")
	}
	if tab.CouldAcquire(1, 20) {
		t.Error("held lease acquirable by another owner")
	}
	if !tab.CouldAcquire(1, 10) {
		t.Error("held lease not acquirable by holder")
	}
	if !tab.CouldAcquire(2, 20) {
		t.Error("leases of different functions interfere")
	}

	tab.Release(1, 20)
	if tab.Holder(1) != 10 {
		t.Error("released by non-holder")
	}

	tab.Release(1, 10)
	if tab.Holder(1) != 0 {
		t.Error("not released")
	}
}

func TestAcquireExclusive(t *testing.T) {
	var (
		tab  Table
		wg   sync.WaitGroup
		wins atomic.Int32
	)

	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(o Owner) {
			defer wg.Done()
			if tab.Acquire(5, o) {
				wins.Add(1)
			}
		}(Owner(i))
	}
	wg.Wait()

	if n := wins.Load(); n != 1 {
		t.Errorf("%d owners acquired the lease", n)
	}
}
