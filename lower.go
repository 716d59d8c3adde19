// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package irlower

import (
	"gate.computer/irlower/config"
	"gate.computer/irlower/internal"
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/codegen"
	"gate.computer/irlower/internal/gen/regalloc"
	"gate.computer/irlower/internal/gen/rodata"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/prof"
	"gate.computer/irlower/internal/rds"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
	"golang.org/x/xerrors"
)

// Default addresses of runtime tables.
const (
	DefaultCounterBase = 0x10000000
	DefaultStringBase  = 0x20000000
	DefaultNumCounters = 1 << 16
)

// Runtime is the process state which compiled code is bound to.
type Runtime = gen.Runtime

// NewRuntime with default table placement.
func NewRuntime(conf config.Config) *Runtime {
	return &Runtime{
		Config:   conf,
		RDS:      rds.NewRegion(rds.DefaultLimit),
		Counters: &prof.Counters{Base: DefaultCounterBase, Limit: DefaultNumCounters},
		Strings:  rodata.NewPool(DefaultStringBase),
	}
}

// Result of lowering.
type Result struct {
	Code      *vasm.Unit
	Locs      regalloc.Locs
	StackSize int32 // Native stack used by values without registers.
}

// Lower assigns storage to the unit's values and lowers it.  A register
// budget of zero means unlimited.
func Lower(u *ir.Unit, r *Runtime, regBudget int) (*Result, error) {
	code := vasm.NewUnit()
	a := regalloc.MakeAllocator(regBudget, code.MakeReg)
	locs := a.Assign(u)

	if err := LowerWithLocs(u, locs, code, r); err != nil {
		return nil, err
	}

	return &Result{
		Code:      code,
		Locs:      locs,
		StackSize: a.StackSize(),
	}, nil
}

// LowerWithLocs lowers a unit whose values have been assigned storage by
// another pass.  Virtual registers in locs must have been allocated from
// code.
func LowerWithLocs(u *ir.Unit, locs regalloc.Locs, code *vasm.Unit, r *Runtime) (err error) {
	if internal.DontPanic() {
		defer func() {
			if x := recover(); x != nil {
				err = pan.Error(x)
				if u.Func != nil {
					err = xerrors.Errorf("%s: %w", u.Func, err)
				}
			}
		}()
	}

	codegen.GenUnit(gen.NewEnv(r, u, locs, code))
	return
}
