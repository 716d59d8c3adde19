// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"reflect"
)

type Opcode uint16

const (
	Nop = Opcode(iota)
	DefConst
	EndGuards
	ExitPlaceholder
	DefFP
	DefSP
	FuncGuard
	EagerSyncVMRegs
	Mov
	Unreachable
	EndBlock
	Jmp
	RetCtrl

	InterpOne
	InterpOneCF

	GetTime
	GetTimeNs
	PrintBool
	PrintInt
	PrintStr

	GetMemoKey
	GetMemoKeyScalar
	MemoGetStaticValue
	MemoSetStaticValue
	MemoGetStaticCache
	MemoSetStaticCache
	MemoGetInstanceValue
	MemoSetInstanceValue
	MemoGetInstanceCache
	MemoSetInstanceCache

	RBTraceEntry
	RBTraceMsg
	IncStat
	IncProfCounter
	CheckCold

	NumOpcodes
)

// Successor requirements.
const (
	succNone  = 0
	succTaken = 1 << iota
	succNext
)

type opInfo struct {
	name    string
	srcs    int
	dst     bool
	succ    int
	extra   reflect.Type // Nil if the opcode has no extra data.
	control bool         // Ends a block.
}

func extraType(x interface{}) reflect.Type {
	return reflect.TypeOf(x)
}

var opInfos = [NumOpcodes]opInfo{
	Nop:             {name: "Nop"},
	DefConst:        {name: "DefConst", dst: true},
	EndGuards:       {name: "EndGuards"},
	ExitPlaceholder: {name: "ExitPlaceholder", succ: succTaken},
	DefFP:           {name: "DefFP", dst: true},
	DefSP:           {name: "DefSP", srcs: 1, dst: true, extra: extraType(&DefSPData{})},
	FuncGuard:       {name: "FuncGuard", extra: extraType(&FuncGuardData{})},
	EagerSyncVMRegs: {name: "EagerSyncVMRegs", srcs: 2, extra: extraType(&EagerSyncData{})},
	Mov:             {name: "Mov", srcs: 1, dst: true},
	Unreachable:     {name: "Unreachable", extra: extraType(&AssertReason{}), control: true},
	EndBlock:        {name: "EndBlock", extra: extraType(&AssertReason{}), control: true},
	Jmp:             {name: "Jmp", succ: succTaken, control: true},
	RetCtrl:         {name: "RetCtrl", control: true},

	InterpOne:   {name: "InterpOne", srcs: 2, extra: extraType(&InterpOneData{})},
	InterpOneCF: {name: "InterpOneCF", srcs: 1, extra: extraType(&InterpOneData{}), control: true},

	GetTime:   {name: "GetTime", dst: true},
	GetTimeNs: {name: "GetTimeNs", dst: true},
	PrintBool: {name: "PrintBool", srcs: 1},
	PrintInt:  {name: "PrintInt", srcs: 1},
	PrintStr:  {name: "PrintStr", srcs: 1},

	GetMemoKey:           {name: "GetMemoKey", srcs: 1, dst: true},
	GetMemoKeyScalar:     {name: "GetMemoKeyScalar", srcs: 1, dst: true},
	MemoGetStaticValue:   {name: "MemoGetStaticValue", dst: true, succ: succTaken, extra: extraType(&FuncData{})},
	MemoSetStaticValue:   {name: "MemoSetStaticValue", srcs: 1, extra: extraType(&FuncData{})},
	MemoGetStaticCache:   {name: "MemoGetStaticCache", srcs: 1, dst: true, succ: succTaken, extra: extraType(&MemoCacheStaticData{})},
	MemoSetStaticCache:   {name: "MemoSetStaticCache", srcs: 2, extra: extraType(&MemoCacheStaticData{})},
	MemoGetInstanceValue: {name: "MemoGetInstanceValue", srcs: 1, dst: true, succ: succTaken, extra: extraType(&MemoValueInstanceData{})},
	MemoSetInstanceValue: {name: "MemoSetInstanceValue", srcs: 2, extra: extraType(&MemoValueInstanceData{})},
	MemoGetInstanceCache: {name: "MemoGetInstanceCache", srcs: 2, dst: true, succ: succTaken, extra: extraType(&MemoCacheInstanceData{})},
	MemoSetInstanceCache: {name: "MemoSetInstanceCache", srcs: 3, extra: extraType(&MemoCacheInstanceData{})},

	RBTraceEntry:   {name: "RBTraceEntry", extra: extraType(&RBTraceEntryData{})},
	RBTraceMsg:     {name: "RBTraceMsg", extra: extraType(&RBTraceMsgData{})},
	IncStat:        {name: "IncStat", srcs: 1},
	IncProfCounter: {name: "IncProfCounter", extra: extraType(&TransIDData{})},
	CheckCold:      {name: "CheckCold", succ: succTaken | succNext, extra: extraType(&TransIDData{}), control: true},
}

func (op Opcode) String() string {
	if op < NumOpcodes {
		return opInfos[op].name
	}
	return fmt.Sprintf("<invalid opcode %d>", uint16(op))
}

// ParseOpcode looks up an opcode by name.
func ParseOpcode(s string) (Opcode, bool) {
	for op, info := range opInfos {
		if info.name == s {
			return Opcode(op), true
		}
	}
	return 0, false
}

// EndsBlock indicates if the instruction must be the last one in its block.
func (op Opcode) EndsBlock() bool {
	return op < NumOpcodes && opInfos[op].control
}

// NumSrcs is the fixed source arity.
func (op Opcode) NumSrcs() int {
	return opInfos[op].srcs
}

func (op Opcode) HasDst() bool {
	return opInfos[op].dst
}
