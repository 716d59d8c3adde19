// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"runtime"
	"strings"

	"gate.computer/irlower/internal/gen/operand"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/gen/storage"
	"gate.computer/irlower/internal/lease"
	"gate.computer/irlower/internal/stubs"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/trap"
)

// MaxSteps bounds the number of instructions executed by one run.
const MaxSteps = 1 << 20

type ExitKind uint8

const (
	Returned = ExitKind(iota)
	Trapped
	Jumped
)

func (k ExitKind) String() string {
	switch k {
	case Returned:
		return "returned"
	case Trapped:
		return "trapped"
	case Jumped:
		return "jumped"
	default:
		return "<invalid exit>"
	}
}

// Exit describes how a run ended.
type Exit struct {
	Kind   ExitKind
	Block  vasm.Label
	Trap   trap.Reason    // For Trapped.
	Target *stubs.Routine // For Jumped.
	Args   [reg.NumArgs]uint64
}

// VMRegs are the published VM registers.
type VMRegs struct {
	PC     int32
	FP, SP uint64
}

// Call records a support routine invocation.
type Call struct {
	Routine *stubs.Routine
	Args    [reg.NumArgs]uint64
	PC      int32 // Published bytecode position at the time of the call.
	Sync    bool
}

type flags struct {
	cmp, ucmp int
}

// Thread executes code.  A thread must not be used concurrently.
type Thread struct {
	m     *Machine
	Owner lease.Owner

	FP, SP uint64 // Initial frame and native stack pointers.

	regs     map[reg.R]uint64
	flags    map[reg.R]flags
	prepared bool

	VM     VMRegs
	Calls  []Call
	Trace  []string
	Output strings.Builder

	// Step is called after each executed instruction, if set.  It may run
	// other threads of the machine.
	Step func(vasm.Instr)
}

// NewThread allocates a stack and a frame.
func (m *Machine) NewThread() *Thread {
	m.mu.Lock()
	n := m.threads
	m.threads++
	m.mu.Unlock()

	base := StackBase + uint64(n)*stackSize
	return &Thread{
		m:     m,
		Owner: lease.Owner(n + 1),
		FP:    base + frameOffset,
		SP:    base + spillOffset,
	}
}

func (t *Thread) Machine() *Machine { return t.m }

// LocalAddr is the address of a frame local.
func (t *Thread) LocalAddr(index uint32) uint64 {
	return uint64(int64(t.FP) + int64(rt.LocalOffset(index)))
}

func (t *Thread) SetLocal(index uint32, tv rt.TypedValue) {
	t.m.StoreTV(t.LocalAddr(index), tv)
}

func (t *Thread) Local(index uint32) rt.TypedValue {
	return t.m.LoadTV(t.LocalAddr(index))
}

func (t *Thread) reset() {
	t.regs = map[reg.R]uint64{
		reg.VMTL: RDSBase,
		reg.VMFP: t.FP,
		reg.SP:   t.SP,
	}
	t.flags = make(map[reg.R]flags)
}

// SetValue places an input value in its assigned storage for the next run.
func (t *Thread) SetValue(l operand.Loc, tv rt.TypedValue) {
	if !t.prepared {
		t.Prepare()
	}

	switch l.Storage {
	case storage.Reg:
		t.regs[l.Reg()] = tv.Data

	case storage.RegPair:
		t.regs[l.Reg()] = tv.Data
		t.regs[l.TypeReg()] = uint64(uint8(tv.Type))

	case storage.Stack:
		t.m.StoreTV(t.SP+uint64(l.Offset()), tv)
	}
}

// Value reads a value from its assigned storage after a run.  Storage
// without a type tag yields the known type.
func (t *Thread) Value(l operand.Loc, known rt.DataType) rt.TypedValue {
	switch l.Storage {
	case storage.Reg:
		return rt.TypedValue{Data: t.reg(l.Reg()), Type: known}

	case storage.RegPair:
		return rt.TypedValue{Data: t.reg(l.Reg()), Type: rt.DataType(int8(t.reg(l.TypeReg())))}

	case storage.Stack:
		return t.m.LoadTV(t.SP + uint64(l.Offset()))

	default:
		return rt.TypedValue{Type: known}
	}
}

// Prepare resets the registers.  Run prepares implicitly unless it has been
// done explicitly since the last run.
func (t *Thread) Prepare() {
	t.reset()
	t.prepared = true
}

func (t *Thread) reg(r reg.R) uint64 {
	x, found := t.regs[r]
	if !found {
		panic(errorf("read of undefined register %s", r))
	}
	return x
}

func (t *Thread) addr(p vasm.Vptr) uint64 {
	return uint64(int64(t.reg(p.Base)) + int64(p.Disp))
}

func (t *Thread) flagsOf(r reg.R) flags {
	f, found := t.flags[r]
	if !found {
		panic(errorf("read of undefined flags %s", r))
	}
	return f
}

func sign(x int64) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	default:
		return 0
	}
}

func usign(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFlags results from a - b.
func compareFlags(a, b int64, ua, ub uint64) flags {
	return flags{sign(a - b), usign(ua, ub)}
}

// resultFlags results from an arithmetic or logical result.
func resultFlags(x int64) flags {
	return flags{sign(x), usign(uint64(x), 0)}
}

// Run executes a unit from its entry block.
func (t *Thread) Run(code *vasm.Unit) (exit Exit, err error) {
	if !t.prepared {
		t.reset()
	}
	t.prepared = false

	defer func() {
		if x := recover(); x != nil {
			f, ok := x.(Fault)
			if !ok {
				panic(x)
			}
			err = f
		}
	}()

	t.m.syncStrings()

	label := code.Entry
	for steps := 0; ; {
		b := code.Block(label)
		if len(b.Code) == 0 || !b.Closed() {
			panic(errorf("block %s is not terminated", b.Label))
		}

		for _, i := range b.Code {
			if steps++; steps > MaxSteps {
				panic(errorf("step limit exceeded in block %s", b.Label))
			}

			next, done, x := t.exec(i)
			if t.Step != nil {
				t.Step(i)
			}
			if done {
				x.Block = b.Label
				return x, nil
			}
			if next >= 0 {
				label = next
				break
			}
		}
	}
}

// exec runs an instruction.  Terminal instructions return the next block or
// an exit.
func (t *Thread) exec(i vasm.Instr) (next vasm.Label, done bool, exit Exit) {
	next = -1
	mem := t.m.Mem

	switch i := i.(type) {
	case vasm.Load:
		t.regs[i.D] = mem.Load(t.addr(i.S), 8)

	case vasm.Loadb:
		t.regs[i.D] = mem.Load(t.addr(i.S), 1)

	case vasm.Store:
		mem.Store(t.addr(i.D), 8, t.reg(i.S))

	case vasm.Storeb:
		mem.Store(t.addr(i.D), 1, t.reg(i.S))

	case vasm.StoreBI:
		mem.Store(t.addr(i.D), 1, uint64(uint8(i.S)))

	case vasm.StoreQI:
		mem.Store(t.addr(i.D), 8, uint64(int64(i.S)))

	case vasm.Lea:
		t.regs[i.D] = t.addr(i.S)

	case vasm.LdImm:
		t.regs[i.D] = i.S

	case vasm.Copy:
		t.regs[i.D] = t.reg(i.S)

	case vasm.CopyArgs:
		if len(i.S) != len(i.D) {
			panic(errorf("copyargs operand count mismatch"))
		}
		vals := make([]uint64, len(i.S))
		for n, r := range i.S {
			vals[n] = t.reg(r)
		}
		for n, r := range i.D {
			t.regs[r] = vals[n]
		}

	case vasm.CmpBI:
		a := uint8(t.reg(i.S1))
		t.flags[i.SF] = compareFlags(int64(int8(a)), int64(i.S0), uint64(a), uint64(uint8(i.S0)))

	case vasm.CmpBIM:
		a := uint8(mem.Load(t.addr(i.S1), 1))
		t.flags[i.SF] = compareFlags(int64(int8(a)), int64(i.S0), uint64(a), uint64(uint8(i.S0)))

	case vasm.CmpBM:
		a := uint8(mem.Load(t.addr(i.S1), 1))
		b := uint8(t.reg(i.S0))
		t.flags[i.SF] = compareFlags(int64(int8(a)), int64(int8(b)), uint64(a), uint64(b))

	case vasm.TestQ:
		t.flags[i.SF] = resultFlags(int64(t.reg(i.S0) & t.reg(i.S1)))

	case vasm.TestB:
		t.flags[i.SF] = resultFlags(int64(int8(uint8(t.reg(i.S0)) & uint8(t.reg(i.S1)))))

	case vasm.TestBI:
		t.flags[i.SF] = resultFlags(int64(int8(uint8(i.S0) & uint8(t.reg(i.S1)))))

	case vasm.OrWIM:
		x := mem.Modify(t.addr(i.M), 2, func(x uint64) uint64 { return x | uint64(uint16(i.S0)) })
		t.flags[i.SF] = resultFlags(int64(int16(x)))

	case vasm.IncLM:
		x := mem.Modify(t.addr(i.M), 4, func(x uint64) uint64 { return uint64(uint32(x) + 1) })
		t.flags[i.SF] = resultFlags(int64(int32(x)))

	case vasm.IncQM:
		x := mem.Modify(t.addr(i.M), 8, func(x uint64) uint64 { return x + 1 })
		t.flags[i.SF] = resultFlags(int64(x))

	case vasm.DecQM:
		addr := t.addr(i.M)
		x := mem.Load(addr, 8) - 1
		runtime.Gosched()
		mem.Store(addr, 8, x)
		t.flags[i.SF] = resultFlags(int64(x))

	case vasm.DecQMLock:
		x := mem.Modify(t.addr(i.M), 8, func(x uint64) uint64 { return x - 1 })
		t.flags[i.SF] = resultFlags(int64(x))

	case vasm.Jcc:
		f := t.flagsOf(i.SF)
		if i.CC.Eval(f.cmp, f.ucmp) {
			next = i.Targets[1]
		} else {
			next = i.Targets[0]
		}

	case vasm.Jmp:
		next = i.Target

	case vasm.Jmpi:
		done = true
		exit = Exit{Kind: Jumped, Target: i.Target, Args: t.argRegs(i.Args)}

	case vasm.Call:
		t.call(i)

	case vasm.Ret:
		done = true
		exit = Exit{Kind: Returned}

	case vasm.Trap:
		done = true
		exit = Exit{Kind: Trapped, Trap: i.Reason}

	case vasm.SyncVMSP:
		t.VM.SP = t.reg(i.S)

	case vasm.DefVMSP:
		t.regs[i.D] = t.VM.SP

	case vasm.SyncVMPC:
		t.VM.PC = i.PC

	case vasm.SyncVMRegs:
		t.VM = VMRegs{PC: i.PC, FP: t.reg(i.FP), SP: t.reg(i.SP)}

	case vasm.FuncGuard:

	default:
		panic(errorf("unsupported instruction: %s", i))
	}

	return
}

func (t *Thread) argRegs(set reg.Set) (args [reg.NumArgs]uint64) {
	for n := range args {
		if r := reg.Arg(n); set.Contains(r) {
			args[n] = t.reg(r)
		}
	}
	return
}
