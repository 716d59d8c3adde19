// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regalloc assigns storage to the values of an IR unit before
// lowering.  Frame pointers live in the physical frame pointer register;
// other values get virtual registers while the budget lasts, and native stack
// slots after that.
package regalloc

import (
	"fmt"

	"gate.computer/irlower/internal/gen/operand"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/rt"
)

// Locs maps values to their storage.
type Locs map[*ir.Value]operand.Loc

// Loc of a value.  Unknown values have no storage.
func (m Locs) Loc(v *ir.Value) operand.Loc {
	if l, found := m[v]; found {
		return l
	}
	return operand.NoLoc
}

// Allocator hands out storage.
type Allocator struct {
	// Budget is the number of registers which may be allocated; zero means
	// unlimited.
	Budget int

	makeReg   func() reg.R
	allocated int
	stackSize int32
}

func MakeAllocator(budget int, makeReg func() reg.R) Allocator {
	return Allocator{Budget: budget, makeReg: makeReg}
}

func (a *Allocator) fits(n int) bool {
	return a.Budget == 0 || a.allocated+n <= a.Budget
}

// Alloc storage for a value of the given word count.
func (a *Allocator) Alloc(words int) operand.Loc {
	switch words {
	case 0:
		return operand.NoLoc

	case 1, 2:
		if a.fits(words) {
			a.allocated += words
			if words == 1 {
				return operand.Reg(a.makeReg())
			}
			data := a.makeReg()
			return operand.RegPair(data, a.makeReg())
		}

		off := a.stackSize
		a.stackSize += rt.TVSize
		return operand.Stack(off)

	default:
		panic(fmt.Sprintf("value has %d words", words))
	}
}

// StackSize is the amount of native stack used for spilled values.
func (a *Allocator) StackSize() int32 {
	return a.stackSize
}

// NumAllocated is the number of registers handed out.
func (a *Allocator) NumAllocated() int {
	return a.allocated
}

// Assign storage to every value of the unit.  Values which hold a VM register
// (frame pointer definitions) and pointer-like sources which are used as
// addresses always get registers.
func (a *Allocator) Assign(u *ir.Unit) Locs {
	locs := make(Locs)
	pinned := make(map[*ir.Value]bool)

	for _, b := range u.Blocks {
		for _, i := range b.Instrs {
			if i.Op == ir.DefFP {
				locs[i.Dst] = operand.Reg(reg.VMFP)
			}
			for _, n := range addressSrcs(i.Op) {
				if n < len(i.Srcs) {
					pinned[i.Srcs[n]] = true
				}
			}
		}
	}

	values := u.Values()

	for _, v := range values {
		if _, done := locs[v]; !done && pinned[v] {
			a.allocated++
			locs[v] = operand.Reg(a.makeReg())
		}
	}

	for _, v := range values {
		if _, done := locs[v]; !done {
			locs[v] = a.Alloc(v.NumWords())
		}
	}

	return locs
}

// addressSrcs lists the sources of an opcode which are dereferenced.
func addressSrcs(op ir.Opcode) []int {
	switch op {
	case ir.DefSP, ir.InterpOneCF, ir.MemoGetStaticCache, ir.MemoSetStaticCache,
		ir.MemoGetInstanceValue, ir.MemoSetInstanceValue:
		return []int{0}

	case ir.InterpOne, ir.EagerSyncVMRegs, ir.MemoGetInstanceCache, ir.MemoSetInstanceCache:
		return []int{0, 1}

	default:
		return nil
	}
}
