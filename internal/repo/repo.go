// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repo holds the callee and class metadata which compiled code is
// specialized on.
package repo

import (
	"fmt"

	"fortio.org/safecast"
	"gate.computer/irlower/rt"
	"gate.computer/irlower/types"
)

type FuncID uint32

type Class struct {
	Name           string
	NativeDataSize int // Zero if the class has no native data.
	Collection     bool
	NumMemoSlots   int
}

// MemoSlotOffset is the object pointer relative byte offset of a memo slot.
// Memo slots are located below the object, past the native data.
func (c *Class) MemoSlotOffset(slot int) int32 {
	if slot < 0 || (c.NumMemoSlots > 0 && slot >= c.NumMemoSlots) {
		panic(fmt.Errorf("%s: memo slot index out of bounds: %d", c.Name, slot))
	}

	n := rt.MemoSlotSize * (slot + 1)
	if c.NativeDataSize > 0 {
		n += rt.AlignTypedValue(c.NativeDataSize)
	}

	off, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Errorf("%s: memo slot offset overflow: %w", c.Name, err))
	}
	return -off
}

// PrefixSize is the amount of memory which precedes an instance.
func (c *Class) PrefixSize() int {
	n := rt.MemoSlotSize * c.NumMemoSlots
	if c.NativeDataSize > 0 {
		n += rt.AlignTypedValue(c.NativeDataSize)
	}
	return n
}

func (c *Class) String() string {
	return c.Name
}

type Func struct {
	ID         FuncID
	Name       string
	Class      *Class // Nil for free functions.
	ReturnType types.T
}

// MemoType is the type of values which may be stored in the function's memo
// cache.
func (f *Func) MemoType() types.T {
	t := f.ReturnType
	if t == types.Bottom {
		t = types.Cell
	}
	return t & types.InitCell
}

func (f *Func) String() string {
	if f.Class != nil {
		return f.Class.Name + "::" + f.Name
	}
	return f.Name
}
