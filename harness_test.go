// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package irlower_test

import (
	"testing"

	"gate.computer/irlower"
	"gate.computer/irlower/config"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/internal/sim"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/types"
)

var (
	memoClass = &repo.Class{Name: "Memo", NativeDataSize: 24, NumMemoSlots: 4}

	cellFunc   = &repo.Func{ID: 7, Name: "compute", ReturnType: types.Cell}
	intFunc    = &repo.Func{ID: 9, Name: "count", ReturnType: types.Int}
	methodFunc = &repo.Func{ID: 11, Name: "method", Class: memoClass, ReturnType: types.Cell}
	otherFunc  = &repo.Func{ID: 12, Name: "other", Class: memoClass, ReturnType: types.Cell}
)

func testConfig() config.Config {
	c := config.Default()
	c.Target.AtomicRMW = true
	return c
}

type harness struct {
	t      *testing.T
	rt     *irlower.Runtime
	m      *sim.Machine
	budget int
}

func newHarness(t *testing.T, conf config.Config) *harness {
	t.Helper()

	r := irlower.NewRuntime(conf)
	return &harness{t: t, rt: r, m: sim.New(r)}
}

func (h *harness) lower(u *ir.Unit) *irlower.Result {
	h.t.Helper()

	res, err := irlower.Lower(u, h.rt, h.budget)
	if err != nil {
		h.t.Fatal(err)
	}
	return res
}

// run a lowered unit with inputs.
func (h *harness) run(th *sim.Thread, res *irlower.Result, inputs map[*ir.Value]rt.TypedValue) sim.Exit {
	h.t.Helper()

	exit, err := runUnit(th, res, inputs)
	if err != nil {
		h.t.Fatal(err)
	}
	return exit
}

// runUnit may be called by any goroutine.
func runUnit(th *sim.Thread, res *irlower.Result, inputs map[*ir.Value]rt.TypedValue) (sim.Exit, error) {
	th.Prepare()
	for v, tv := range inputs {
		th.SetValue(res.Locs.Loc(v), tv)
	}
	return th.Run(res.Code)
}

// unitBuilder makes units which consist of an entry block ending in a return,
// and a cold miss block which traps with reason "miss".
type unitBuilder struct {
	f      *repo.Func
	nextID int
	fp     *ir.Value
	entry  *ir.Block
	miss   *ir.Block
	blocks []*ir.Block
}

func newUnit(f *repo.Func) *unitBuilder {
	b := &unitBuilder{f: f}
	b.entry = b.block(false)
	b.miss = b.block(true)
	b.fp = b.value(types.Bottom)
	b.add(ir.DefFP, b.fp)
	return b
}

func (b *unitBuilder) block(cold bool) *ir.Block {
	blk := &ir.Block{ID: len(b.blocks), Cold: cold}
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *unitBuilder) value(t types.T) *ir.Value {
	v := ir.NewValue(b.nextID, t)
	b.nextID++
	return v
}

func (b *unitBuilder) constant(x int64) *ir.Value {
	v := ir.NewIntConst(b.nextID, x)
	b.nextID++
	return v
}

func (b *unitBuilder) marker() ir.Marker {
	return ir.Marker{Func: b.f, PC: 42}
}

// exit makes a block which returns.
func (b *unitBuilder) exit() *ir.Block {
	blk := b.block(false)
	blk.Instrs = []*ir.Instr{{Op: ir.RetCtrl, Marker: b.marker()}}
	return blk
}

// add an instruction to the entry block.
func (b *unitBuilder) add(op ir.Opcode, dst *ir.Value, srcs ...*ir.Value) *ir.Instr {
	i := &ir.Instr{Op: op, Dst: dst, Srcs: srcs, Marker: b.marker()}
	b.entry.Instrs = append(b.entry.Instrs, i)
	return i
}

// addTaken adds an instruction whose taken successor is the miss block.
func (b *unitBuilder) addTaken(op ir.Opcode, dst *ir.Value, extra any, srcs ...*ir.Value) *ir.Instr {
	i := b.add(op, dst, srcs...)
	i.Extra = extra
	i.Taken = b.miss
	return i
}

func (b *unitBuilder) addExtra(op ir.Opcode, dst *ir.Value, extra any, srcs ...*ir.Value) *ir.Instr {
	i := b.add(op, dst, srcs...)
	i.Extra = extra
	return i
}

// finish terminates the entry block with a return.
func (b *unitBuilder) finish() *ir.Unit {
	b.add(ir.RetCtrl, nil)
	return b.done()
}

// done completes a unit whose entry block has been terminated.
func (b *unitBuilder) done() *ir.Unit {
	b.miss.Instrs = []*ir.Instr{{
		Op:     ir.EndBlock,
		Extra:  &ir.AssertReason{Reason: "miss"},
		Marker: b.marker(),
	}}
	return &ir.Unit{Func: b.f, Blocks: b.blocks}
}

func missed(exit sim.Exit) bool {
	return exit.Kind == sim.Trapped && exit.Trap.Where == "miss"
}

func checkReturned(t *testing.T, exit sim.Exit) {
	t.Helper()

	if exit.Kind != sim.Returned {
		t.Fatalf("exit: %s %s", exit.Kind, exit.Trap)
	}
}
