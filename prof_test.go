// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package irlower_test

import (
	"sync"
	"testing"

	"gate.computer/irlower/internal/sim"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
)

const transID = 5

func incProfCounterUnit() *ir.Unit {
	b := newUnit(cellFunc)
	b.addExtra(ir.IncProfCounter, nil, &ir.TransIDData{TransID: transID})
	return b.finish()
}

// checkColdUnit returns on the next path and traps with "miss" on the taken
// path.
func checkColdUnit() *ir.Unit {
	b := newUnit(cellFunc)
	i := b.addTaken(ir.CheckCold, nil, &ir.TransIDData{TransID: transID})
	i.Next = b.exit()
	return b.done()
}

func hasInstr(code *vasm.Unit, op string) bool {
	for _, i := range code.Instrs() {
		if i.Op() == op {
			return true
		}
	}
	return false
}

func countCalls(th *sim.Thread, r *stubs.Routine) (n int) {
	for _, c := range th.Calls {
		if c.Routine == r {
			n++
		}
	}
	return
}

func TestIncProfCounter(t *testing.T) {
	for _, test := range []struct {
		name   string
		racy   bool
		atomic bool
		insn   string
	}{
		{"Racy", true, true, "decqm"},
		{"Locked", false, true, "decqmlock"},
		{"LockedCall", false, false, ""},
	} {
		t.Run(test.name, func(t *testing.T) {
			conf := testConfig()
			conf.RacyProfiling = test.racy
			conf.Target.AtomicRMW = test.atomic

			h := newHarness(t, conf)
			th := h.m.NewThread()
			res := h.lower(incProfCounterUnit())

			if test.insn != "" && !hasInstr(res.Code, test.insn) {
				t.Errorf("no %s instruction", test.insn)
			}

			h.m.SetCounter(transID, 10)
			for i := 0; i < 3; i++ {
				checkReturned(t, h.run(th, res, nil))
			}

			if n := h.m.Counter(transID); n != 7 {
				t.Errorf("counter: %d", n)
			}

			calls := countCalls(th, stubs.ProfCounterDecLocked)
			if test.insn == "" && calls != 3 {
				t.Errorf("%d locked decrement calls", calls)
			}
			if test.insn != "" && calls != 0 {
				t.Errorf("%d unexpected locked decrement calls", calls)
			}

			if !h.rt.Counters.Used(transID) {
				t.Error("counter not marked as used")
			}
		})
	}
}

func TestIncProfCounterConcurrent(t *testing.T) {
	const (
		threads = 8
		rounds  = 100
		initial = 10000
	)

	for _, racy := range []bool{false, true} {
		conf := testConfig()
		conf.RacyProfiling = racy

		h := newHarness(t, conf)
		res := h.lower(incProfCounterUnit())
		h.m.SetCounter(transID, initial)

		var wg sync.WaitGroup
		for n := 0; n < threads; n++ {
			th := h.m.NewThread()
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					if _, err := runUnit(th, res, nil); err != nil {
						t.Error(err)
						return
					}
				}
			}()
		}
		wg.Wait()

		n := h.m.Counter(transID)
		if racy {
			if n < initial-threads*rounds || n > initial {
				t.Errorf("racy counter: %d", n)
			}
		} else if n != initial-threads*rounds {
			t.Errorf("locked counter: %d", n)
		}
	}
}

func TestCheckCold(t *testing.T) {
	conf := testConfig()
	conf.FilterLease = false

	h := newHarness(t, conf)
	th := h.m.NewThread()
	res := h.lower(checkColdUnit())

	h.m.SetCounter(transID, 2)

	checkReturned(t, h.run(th, res, nil))
	for i := 0; i < 2; i++ {
		if exit := h.run(th, res, nil); !missed(exit) {
			t.Errorf("run %d: %s", i, exit.Kind)
		}
	}

	if n := h.m.Counter(transID); n != -1 {
		t.Errorf("counter: %d", n)
	}
	if n := countCalls(th, stubs.CouldAcquireOptimizeLease); n != 0 {
		t.Errorf("%d lease probes without filtering", n)
	}
}

func TestCheckColdLeaseFilter(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		conf := testConfig()
		conf.Target.AtomicRMW = atomic

		h := newHarness(t, conf)
		res := h.lower(checkColdUnit())
		th := h.m.NewThread()
		holder := h.m.NewThread()

		h.m.SetCounter(transID, 2)
		checkReturned(t, h.run(th, res, nil))
		if n := countCalls(th, stubs.CouldAcquireOptimizeLease); n != 0 {
			t.Errorf("lease probed while counter positive: %d", n)
		}

		if !h.m.Leases.Acquire(cellFunc.ID, holder.Owner) {
			t.Fatal("lease acquisition failed")
		}

		checkReturned(t, h.run(th, res, nil))
		c := lastCall(t, th)
		if c.Routine != stubs.CouldAcquireOptimizeLease || c.Args[0] != uint64(cellFunc.ID) {
			t.Errorf("probe: %s %d", c.Routine, c.Args[0])
		}

		if exit := h.run(holder, res, nil); !missed(exit) {
			t.Error("lease holder did not take the retranslation path")
		}

		h.m.Leases.Release(cellFunc.ID, holder.Owner)
		if exit := h.run(th, res, nil); !missed(exit) {
			t.Error("free lease did not allow the retranslation path")
		}
	}
}

// With the lease held, only the holder takes the retranslation path no
// matter how threads interleave.
func TestCheckColdConcurrent(t *testing.T) {
	const (
		threads = 6
		rounds  = 40
	)

	h := newHarness(t, testConfig())
	res := h.lower(checkColdUnit())
	h.m.SetCounter(transID, 0)

	ths := make([]*sim.Thread, threads)
	for n := range ths {
		ths[n] = h.m.NewThread()
	}
	if !h.m.Leases.Acquire(cellFunc.ID, ths[0].Owner) {
		t.Fatal("lease acquisition failed")
	}

	taken := make([]int, threads)

	var wg sync.WaitGroup
	for n, th := range ths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				exit, err := runUnit(th, res, nil)
				if err != nil {
					t.Error(err)
					return
				}
				if missed(exit) {
					taken[n]++
				}
			}
		}()
	}
	wg.Wait()

	if taken[0] != rounds {
		t.Errorf("holder took the path %d times", taken[0])
	}
	for n := 1; n < threads; n++ {
		if taken[n] != 0 {
			t.Errorf("thread %d took the path %d times", n, taken[n])
		}
	}
	if c := h.m.Counter(transID); c != -threads*rounds {
		t.Errorf("counter: %d", c)
	}
}

func TestIncStat(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		conf := testConfig()
		conf.EnableStats = enabled

		h := newHarness(t, conf)
		th := h.m.NewThread()

		b := newUnit(cellFunc)
		b.add(ir.IncStat, nil, b.constant(3))
		res := h.lower(b.finish())

		for i := 0; i < 2; i++ {
			checkReturned(t, h.run(th, res, nil))
		}

		expect := uint64(0)
		if enabled {
			expect = 2
		}
		if n := h.m.Stat(3); n != expect {
			t.Errorf("enabled=%v: stat %d", enabled, n)
		}
	}
}
