// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vasm

import (
	"fmt"
	"strings"

	"gate.computer/irlower/internal/gen/condition"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/trap"
)

// Instr is a virtual assembly instruction.  Register operands named SF
// receive or supply status flags.
type Instr interface {
	fmt.Stringer

	Op() string
}

// Terminal instructions end a block.
func Terminal(i Instr) bool {
	switch i.(type) {
	case Jcc, Jmp, Jmpi, Ret, Trap:
		return true
	}

	return false
}

// Memory and register moves.
type (
	// 64-bit load.
	Load struct {
		S Vptr
		D reg.R
	}

	// Zero-extending byte load.
	Loadb struct {
		S Vptr
		D reg.R
	}

	// 64-bit store.
	Store struct {
		S reg.R
		D Vptr
	}

	// Byte store.
	Storeb struct {
		S reg.R
		D Vptr
	}

	// Byte immediate store.
	StoreBI struct {
		S int8
		D Vptr
	}

	// Sign-extended 64-bit immediate store.
	StoreQI struct {
		S int32
		D Vptr
	}

	// Address computation.
	Lea struct {
		S Vptr
		D reg.R
	}

	// 64-bit immediate.
	LdImm struct {
		S uint64
		D reg.R
	}

	// Register move.
	Copy struct {
		S, D reg.R
	}

	// Parallel register move.
	CopyArgs struct {
		S, D []reg.R
	}
)

// Comparisons.
type (
	// Compare byte register with immediate.
	CmpBI struct {
		S0     int8
		S1, SF reg.R
	}

	// Compare byte in memory with immediate.
	CmpBIM struct {
		S0 int8
		S1 Vptr
		SF reg.R
	}

	// Compare byte in memory with register.
	CmpBM struct {
		S0 reg.R
		S1 Vptr
		SF reg.R
	}

	// AND of two 64-bit registers.
	TestQ struct {
		S0, S1, SF reg.R
	}

	// AND of two byte registers.
	TestB struct {
		S0, S1, SF reg.R
	}

	// AND of byte register and immediate.
	TestBI struct {
		S0     int8
		S1, SF reg.R
	}
)

// Read-modify-write memory operations.
type (
	// 16-bit OR with immediate.
	OrWIM struct {
		S0 int16
		M  Vptr
		SF reg.R
	}

	// 32-bit increment.
	IncLM struct {
		M  Vptr
		SF reg.R
	}

	// 64-bit increment.
	IncQM struct {
		M  Vptr
		SF reg.R
	}

	// 64-bit decrement.
	DecQM struct {
		M  Vptr
		SF reg.R
	}

	// Atomic 64-bit decrement.
	DecQMLock struct {
		M  Vptr
		SF reg.R
	}
)

// Control flow.
type (
	// Jcc branches to Targets[1] if the condition holds, otherwise to
	// Targets[0].
	Jcc struct {
		CC      condition.C
		SF      reg.R
		Targets [2]Label
	}

	Jmp struct {
		Target Label
	}

	// Jmpi is a tail jump into a routine which never returns.
	Jmpi struct {
		Target *stubs.Routine
		Args   reg.Set
	}

	// Call a support routine.  Arguments have been placed in Args; the
	// return value is in Dests.  Sync indicates that the VM registers were
	// synced before the call.
	Call struct {
		Target *stubs.Routine
		Args   reg.Set
		Dests  reg.Set
		Sync   bool
	}

	Ret struct{}

	Trap struct {
		Reason trap.Reason
	}
)

// VM register bookkeeping.
type (
	// Publish the stack pointer.
	SyncVMSP struct {
		S reg.R
	}

	// Define sp from the published one.
	DefVMSP struct {
		D reg.R
	}

	// Publish the bytecode position.
	SyncVMPC struct {
		PC int32
	}

	// Publish pc, fp and sp.
	SyncVMRegs struct {
		PC     int32
		FP, SP reg.R
	}

	FuncGuard struct {
		Func     repo.FuncID
		Prologue uint64
	}
)

func (Load) Op() string       { return "load" }
func (Loadb) Op() string      { return "loadb" }
func (Store) Op() string      { return "store" }
func (Storeb) Op() string     { return "storeb" }
func (StoreBI) Op() string    { return "storebi" }
func (StoreQI) Op() string    { return "storeqi" }
func (Lea) Op() string        { return "lea" }
func (LdImm) Op() string      { return "ldimmq" }
func (Copy) Op() string       { return "copy" }
func (CopyArgs) Op() string   { return "copyargs" }
func (CmpBI) Op() string      { return "cmpbi" }
func (CmpBIM) Op() string     { return "cmpbim" }
func (CmpBM) Op() string      { return "cmpbm" }
func (TestQ) Op() string      { return "testq" }
func (TestB) Op() string      { return "testb" }
func (TestBI) Op() string     { return "testbi" }
func (OrWIM) Op() string      { return "orwim" }
func (IncLM) Op() string      { return "inclm" }
func (IncQM) Op() string      { return "incqm" }
func (DecQM) Op() string      { return "decqm" }
func (DecQMLock) Op() string  { return "decqmlock" }
func (Jcc) Op() string        { return "jcc" }
func (Jmp) Op() string        { return "jmp" }
func (Jmpi) Op() string       { return "jmpi" }
func (Call) Op() string       { return "call" }
func (Ret) Op() string        { return "ret" }
func (Trap) Op() string       { return "trap" }
func (SyncVMSP) Op() string   { return "syncvmsp" }
func (DefVMSP) Op() string    { return "defvmsp" }
func (SyncVMPC) Op() string   { return "syncvmpc" }
func (SyncVMRegs) Op() string { return "syncvmregs" }
func (FuncGuard) Op() string  { return "funcguard" }

func (i Load) String() string      { return fmt.Sprintf("load %s => %s", i.S, i.D) }
func (i Loadb) String() string     { return fmt.Sprintf("loadb %s => %s", i.S, i.D) }
func (i Store) String() string     { return fmt.Sprintf("store %s => %s", i.S, i.D) }
func (i Storeb) String() string    { return fmt.Sprintf("storeb %s => %s", i.S, i.D) }
func (i StoreBI) String() string   { return fmt.Sprintf("storebi %d => %s", i.S, i.D) }
func (i StoreQI) String() string   { return fmt.Sprintf("storeqi %d => %s", i.S, i.D) }
func (i Lea) String() string       { return fmt.Sprintf("lea %s => %s", i.S, i.D) }
func (i LdImm) String() string     { return fmt.Sprintf("ldimmq %#x => %s", i.S, i.D) }
func (i Copy) String() string      { return fmt.Sprintf("copy %s => %s", i.S, i.D) }
func (i CmpBI) String() string     { return fmt.Sprintf("cmpbi %d, %s => %s", i.S0, i.S1, i.SF) }
func (i CmpBIM) String() string    { return fmt.Sprintf("cmpbim %d, %s => %s", i.S0, i.S1, i.SF) }
func (i CmpBM) String() string     { return fmt.Sprintf("cmpbm %s, %s => %s", i.S0, i.S1, i.SF) }
func (i TestQ) String() string     { return fmt.Sprintf("testq %s, %s => %s", i.S0, i.S1, i.SF) }
func (i TestB) String() string     { return fmt.Sprintf("testb %s, %s => %s", i.S0, i.S1, i.SF) }
func (i TestBI) String() string    { return fmt.Sprintf("testbi %d, %s => %s", i.S0, i.S1, i.SF) }
func (i OrWIM) String() string     { return fmt.Sprintf("orwim %#x, %s => %s", i.S0, i.M, i.SF) }
func (i IncLM) String() string     { return fmt.Sprintf("inclm %s => %s", i.M, i.SF) }
func (i IncQM) String() string     { return fmt.Sprintf("incqm %s => %s", i.M, i.SF) }
func (i DecQM) String() string     { return fmt.Sprintf("decqm %s => %s", i.M, i.SF) }
func (i DecQMLock) String() string { return fmt.Sprintf("decqmlock %s => %s", i.M, i.SF) }
func (i Jmp) String() string       { return fmt.Sprintf("jmp %s", i.Target) }
func (i Jmpi) String() string      { return fmt.Sprintf("jmpi %s, %s", i.Target, i.Args) }
func (Ret) String() string         { return "ret" }
func (i Trap) String() string      { return fmt.Sprintf("trap {%s}", i.Reason) }
func (i SyncVMSP) String() string  { return fmt.Sprintf("syncvmsp %s", i.S) }
func (i DefVMSP) String() string   { return fmt.Sprintf("defvmsp => %s", i.D) }
func (i SyncVMPC) String() string  { return fmt.Sprintf("syncvmpc %d", i.PC) }

func (i CopyArgs) String() string {
	return fmt.Sprintf("copyargs (%s) => (%s)", joinRegs(i.S), joinRegs(i.D))
}

func (i Jcc) String() string {
	return fmt.Sprintf("jcc%s %s => %s, %s", i.CC.Mnemonic(), i.SF, i.Targets[0], i.Targets[1])
}

func (i Call) String() string {
	s := fmt.Sprintf("call %s, %s", i.Target, i.Args)
	if i.Dests != 0 {
		s += fmt.Sprintf(" => %s", i.Dests)
	}

	if i.Sync {
		s += " sync"
	}

	return s
}

func (i SyncVMRegs) String() string {
	return fmt.Sprintf("syncvmregs pc=%d, %s, %s", i.PC, i.FP, i.SP)
}

func (i FuncGuard) String() string {
	return fmt.Sprintf("funcguard f%d, %#x", i.Func, i.Prologue)
}

func joinRegs(rs []reg.R) string {
	ss := make([]string, len(rs))
	for i, r := range rs {
		ss[i] = r.String()
	}

	return strings.Join(ss, ", ")
}
