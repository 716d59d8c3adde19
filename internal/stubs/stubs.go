// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stubs declares the fixed support routines which compiled code
// calls or jumps to.
package stubs

import (
	"fmt"
	"sync"

	"gate.computer/irlower/internal/bc"
)

// Routine is the address of a support routine.  Addresses are fixed for the
// lifetime of the process.
type Routine struct {
	Name string
	Addr uint64
}

func (r *Routine) String() string {
	return r.Name
}

const (
	textBase  = uint64(0x7f0000000000)
	textAlign = 16
)

var (
	mu       sync.RWMutex
	routines []*Routine
	byAddr   = make(map[uint64]*Routine)
)

// Register a routine.  Names must be unique.
func Register(name string) *Routine {
	mu.Lock()
	defer mu.Unlock()

	for _, r := range routines {
		if r.Name == name {
			panic(fmt.Errorf("support routine registered twice: %s", name))
		}
	}

	r := &Routine{
		Name: name,
		Addr: textBase + uint64(len(routines))*textAlign,
	}
	routines = append(routines, r)
	byAddr[r.Addr] = r
	return r
}

// ByAddr looks up a registered routine.
func ByAddr(addr uint64) (r *Routine, found bool) {
	mu.RLock()
	defer mu.RUnlock()

	r, found = byAddr[addr]
	return
}

// All registered routines in registration order.
func All() []*Routine {
	mu.RLock()
	defer mu.RUnlock()

	return append([]*Routine(nil), routines...)
}

var (
	MemoSetDecRef = Register("memoSetDecRef")

	SerializeMemoParam    = Register("serialize_memoize_param")
	SerializeMemoParamArr = Register("serialize_memoize_param_arr")
	SerializeMemoParamStr = Register("serialize_memoize_param_str")
	SerializeMemoParamDbl = Register("serialize_memoize_param_dbl")
	SerializeMemoParamCol = Register("serialize_memoize_param_col")
	SerializeMemoParamObj = Register("serialize_memoize_param_obj")

	CouldAcquireOptimizeLease = Register("couldAcquireOptimizeLease")
	ProfCounterDecLocked      = Register("profCounterDecLocked")

	RingbufferEntry = Register("ringbufferEntry")
	RingbufferMsg   = Register("ringbufferMsg")

	GetTime   = Register("getTime")
	GetTimeNs = Register("getTimeNs")
	PrintBool = Register("printBool")
	PrintInt  = Register("printInt")
	PrintStr  = Register("printStr")
)

var (
	interpOne   [bc.NumOps]*Routine
	interpOneCF = make(map[bc.Op]*Routine)
)

func init() {
	for op := bc.Op(0); op < bc.NumOps; op++ {
		interpOne[op] = Register("interpOne" + op.String())
		if op.IsControlFlow() {
			interpOneCF[op] = Register("interpOneCF" + op.String())
		}
	}
}

// InterpOne returns the entry point which interprets one instruction and
// returns.  The routine syncs the VM registers itself.
func InterpOne(op bc.Op) *Routine {
	if op >= bc.NumOps {
		panic(fmt.Errorf("no interpOne entry point for %s", op))
	}
	return interpOne[op]
}

// InterpOneCF returns the stub which interprets one control flow instruction
// and resumes execution wherever the instruction leads.  It is jumped to, not
// called.
func InterpOneCF(op bc.Op) (r *Routine, found bool) {
	r, found = interpOneCF[op]
	return
}
