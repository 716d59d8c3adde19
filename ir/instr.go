// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir is the mid-level intermediate representation consumed by the
// lowering stage.  Instructions are immutable once built.
package ir

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/types"
)

// Value is an SSA temporary.
type Value struct {
	ID    int
	Type  types.T
	Class *repo.Class // Exact or base class of an object value, if known.

	hasConst bool
	constVal int64
}

// NewValue makes an SSA temporary.
func NewValue(id int, t types.T) *Value {
	return &Value{ID: id, Type: t}
}

// NewIntConst makes a constant integer temporary.
func NewIntConst(id int, x int64) *Value {
	return &Value{ID: id, Type: types.Int, hasConst: true, constVal: x}
}

func (v *Value) IsA(t types.T) bool {
	return v.Type != types.Bottom && v.Type.IsA(t)
}

func (v *Value) NumWords() int {
	return v.Type.NumWords()
}

func (v *Value) HasConstVal() bool {
	return v.hasConst
}

func (v *Value) IntVal() int64 {
	if !v.hasConst {
		panic(fmt.Errorf("t%d is not a constant", v.ID))
	}
	return v.constVal
}

func (v *Value) String() string {
	if v.hasConst {
		return fmt.Sprintf("t%d:%s<%d>", v.ID, v.Type, v.constVal)
	}
	return fmt.Sprintf("t%d:%s", v.ID, v.Type)
}

// Marker ties an instruction to its bytecode origin.
type Marker struct {
	Func    *repo.Func
	PC      int32 // Bytecode offset used for syncing.
	Resumed bool  // The frame belongs to a resumed async function.
}

type Instr struct {
	Op     Opcode
	Srcs   []*Value
	Dst    *Value
	Extra  interface{}
	Taken  *Block
	Next   *Block
	Marker Marker
}

func (i *Instr) Src(n int) *Value {
	if n >= len(i.Srcs) {
		panic(fmt.Errorf("%s: source index out of bounds: %d", i.Op, n))
	}
	return i.Srcs[n]
}

func (i *Instr) Func() *repo.Func {
	return i.Marker.Func
}

// Validate checks the instruction's shape against its opcode.
func (i *Instr) Validate() error {
	if i.Op >= NumOpcodes {
		return fmt.Errorf("invalid opcode: %d", i.Op)
	}
	info := &opInfos[i.Op]

	if len(i.Srcs) != info.srcs {
		return fmt.Errorf("%s: %d sources, expected %d", i.Op, len(i.Srcs), info.srcs)
	}
	for n, v := range i.Srcs {
		if v == nil {
			return fmt.Errorf("%s: source %d is nil", i.Op, n)
		}
	}
	if (i.Dst != nil) != info.dst {
		return fmt.Errorf("%s: destination presence mismatch", i.Op)
	}
	if (i.Taken != nil) != (info.succ&succTaken != 0) {
		return fmt.Errorf("%s: taken successor presence mismatch", i.Op)
	}
	if (i.Next != nil) != (info.succ&succNext != 0) {
		return fmt.Errorf("%s: next successor presence mismatch", i.Op)
	}
	if info.extra != nil {
		if i.Extra == nil || reflect.TypeOf(i.Extra) != info.extra {
			return fmt.Errorf("%s: extra data has type %T, expected %s", i.Op, i.Extra, info.extra)
		}
	} else if i.Extra != nil {
		return fmt.Errorf("%s: unexpected extra data: %T", i.Op, i.Extra)
	}
	return nil
}

func (i *Instr) String() string {
	var b strings.Builder

	if i.Dst != nil {
		fmt.Fprintf(&b, "%s = ", i.Dst)
	}
	b.WriteString(i.Op.String())
	if i.Extra != nil {
		fmt.Fprintf(&b, "<%v>", i.Extra)
	}
	for n, v := range i.Srcs {
		if n == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	if i.Next != nil {
		fmt.Fprintf(&b, " -> B%d", i.Next.ID)
	}
	if i.Taken != nil {
		fmt.Fprintf(&b, " -> B%d", i.Taken.ID)
	}
	return b.String()
}

type Block struct {
	ID     int
	Instrs []*Instr
	Cold   bool // Unlikely to be executed.
}

// Unit is a compilation unit: a region of one function.
type Unit struct {
	Func   *repo.Func
	Blocks []*Block // Entry block first.
}

// Values returns all values defined or used in the unit, ordered by id.
func (u *Unit) Values() []*Value {
	seen := make(map[*Value]bool)
	var list []*Value

	add := func(v *Value) {
		if v != nil && !seen[v] {
			seen[v] = true
			list = append(list, v)
		}
	}

	for _, b := range u.Blocks {
		for _, i := range b.Instrs {
			for _, v := range i.Srcs {
				add(v)
			}
			add(i.Dst)
		}
	}

	sort.Slice(list, func(a, b int) bool {
		return list[a].ID < list[b].ID
	})
	return list
}
