// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"gate.computer/irlower/internal/errorpanic"
	"gate.computer/irlower/internal/gen"
	"gate.computer/irlower/internal/gen/reg"
	"gate.computer/irlower/internal/pan"
	"gate.computer/irlower/internal/rds"
	"gate.computer/irlower/internal/vasm"
)

func rdsPtr(h rds.Handle) vasm.Vptr {
	return vasm.Ptr(reg.VMTL, h.Offset())
}

func bindRDS(bind func() rds.Handle) (h rds.Handle) {
	defer func() {
		if x := recover(); x != nil {
			pan.Panic(errorpanic.Handle(x, "fast-access region"))
		}
	}()

	return bind()
}

// checkRDSHandleInitialized compares the handle's generation with the
// current one.  The flags indicate not-equal if the handle is uninitialized.
func checkRDSHandleInitialized(v *vasm.Out, e *gen.Env, h rds.Handle) (sf reg.R) {
	genNum := v.MakeReg()
	sf = v.MakeReg()
	v.Emit(
		vasm.Loadb{S: vasm.Ptr(reg.VMTL, h.GenNumberOffset()), D: genNum},
		vasm.CmpBM{S0: genNum, S1: rdsPtr(e.RDS.GenNumberHandle()), SF: sf},
	)
	return
}

// markRDSHandleInitialized must be emitted after the payload stores.
func markRDSHandleInitialized(v *vasm.Out, e *gen.Env, h rds.Handle) {
	genNum := v.MakeReg()
	v.Emit(
		vasm.Loadb{S: rdsPtr(e.RDS.GenNumberHandle()), D: genNum},
		vasm.Storeb{S: genNum, D: vasm.Ptr(reg.VMTL, h.GenNumberOffset())},
	)
}

func emitIncStat(v *vasm.Out, e *gen.Env, counter int64) {
	if !e.Config.EnableStats {
		return
	}

	h := bindRDS(func() rds.Handle { return e.RDS.BindStat(counter) })
	v.Emit(vasm.IncQM{M: rdsPtr(h), SF: v.MakeReg()})
}
