// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strings"

	"gate.computer/irlower/internal/bc"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/internal/repo"
)

// KeyRange is a contiguous run of frame locals holding memo cache keys.
type KeyRange struct {
	First uint32
	Count uint32
}

func (r KeyRange) String() string {
	if r.Count == 0 {
		return "L[]"
	}
	return fmt.Sprintf("L[%d:%d]", r.First, r.First+r.Count)
}

// Last is the index of the last key local.  Count must be nonzero.
func (r KeyRange) Last() uint32 {
	return r.First + r.Count - 1
}

// FuncData names the callee of a process-wide memo value.
type FuncData struct {
	Func *repo.Func
}

func (d *FuncData) String() string { return d.Func.String() }

type MemoCacheStaticData struct {
	Func  *repo.Func
	Keys  KeyRange
	Types []memo.KeyType // One per key.
}

func (d *MemoCacheStaticData) String() string {
	return fmt.Sprintf("%s, %s, %s", d.Func, d.Keys, keyTypesString(d.Types))
}

type MemoValueInstanceData struct {
	Func *repo.Func
	Slot int
}

func (d *MemoValueInstanceData) String() string {
	return fmt.Sprintf("%s, slot %d", d.Func, d.Slot)
}

type MemoCacheInstanceData struct {
	Func   *repo.Func
	Slot   int
	Keys   KeyRange
	Types  []memo.KeyType
	Shared bool // The cache is shared by several methods of the class.
}

func (d *MemoCacheInstanceData) String() string {
	s := fmt.Sprintf("%s, slot %d, %s, %s", d.Func, d.Slot, d.Keys, keyTypesString(d.Types))
	if d.Shared {
		s += ", shared"
	}
	return s
}

type InterpOneData struct {
	Opcode   bc.Op
	BcOff    int32 // Bytecode offset of the instruction.
	SpOffset int32 // Stack pointer offset in cells.
}

func (d *InterpOneData) String() string {
	return fmt.Sprintf("%s @%d, sp%+d", d.Opcode, d.BcOff, d.SpOffset)
}

// TransIDData identifies a profiling translation.
type TransIDData struct {
	TransID uint32
}

func (d *TransIDData) String() string { return fmt.Sprintf("t%d", d.TransID) }

type AssertReason struct {
	Reason string
}

func (d *AssertReason) String() string { return d.Reason }

type FuncGuardData struct {
	Func         *repo.Func
	PrologueAddr uint64
}

func (d *FuncGuardData) String() string {
	return fmt.Sprintf("%s, %#x", d.Func, d.PrologueAddr)
}

type DefSPData struct {
	Offset int32 // In cells, relative to the frame pointer.
}

func (d *DefSPData) String() string { return fmt.Sprintf("fp%+d", -d.Offset) }

type EagerSyncData struct {
	Offset int32 // In cells, relative to the stack pointer.
}

func (d *EagerSyncData) String() string { return fmt.Sprintf("sp%+d", d.Offset) }

type RBTraceEntryData struct {
	Type   uint32
	SrcKey uint64
}

func (d *RBTraceEntryData) String() string {
	return fmt.Sprintf("type %d, sk %#x", d.Type, d.SrcKey)
}

type RBTraceMsgData struct {
	Type uint32
	Msg  string
}

func (d *RBTraceMsgData) String() string {
	return fmt.Sprintf("type %d, %q", d.Type, d.Msg)
}

func keyTypesString(ts []memo.KeyType) string {
	ss := make([]string, len(ts))
	for i, t := range ts {
		ss[i] = t.String()
	}
	return "<" + strings.Join(ss, ",") + ">"
}
