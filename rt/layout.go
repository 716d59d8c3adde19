// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rt

import (
	"fmt"
)

// TypedValue layout.
const (
	TVData = 0 // 64-bit payload
	TVType = 8 // DataType byte
	TVSize = 16
)

// Heap object header.  The reference count is a 32-bit signed integer.
const (
	RefCountOffset = 0
	RefCountSize   = 4
)

// Object header.
const (
	ObjAttrsOffset = 4
	ObjAttrsSize   = 2
	ObjHeaderSize  = 16
)

// Object attribute bits.  They are only ever set while the object is alive.
const (
	AttrNoDestructor  = uint16(1 << 0)
	AttrIsCollection  = uint16(1 << 1)
	AttrUsedMemoCache = uint16(1 << 2)
)

// MemoSlotSize is the size of a per-object memo slot: a TypedValue, or a
// cache pointer in the data word with InvalidDataType in the type byte.
const MemoSlotSize = TVSize

// AlignTypedValue rounds n up to TypedValue alignment.
func AlignTypedValue(n int) int {
	return (n + TVSize - 1) &^ (TVSize - 1)
}

// CellsToBytes converts an evaluation stack cell count to a byte offset.
func CellsToBytes(n int32) int32 {
	return n * TVSize
}

// MaxLocalIndex is the highest local variable index whose offset is
// representable.
const MaxLocalIndex = 1<<27 - 2

// LocalOffset is the frame pointer relative offset of a local variable.
// Locals are laid out downwards from the frame pointer.  The index must not
// exceed MaxLocalIndex.
func LocalOffset(index uint32) int32 {
	if index > MaxLocalIndex {
		panic(fmt.Errorf("local variable index out of range: %d", index))
	}
	return -int32(index+1) * TVSize
}

// TypedValue is a materialized value: payload and tag.
type TypedValue struct {
	Data uint64
	Type DataType
}

func Uninit() TypedValue                     { return TypedValue{Type: KindOfUninit} }
func Int(x int64) TypedValue                 { return TypedValue{Data: uint64(x), Type: KindOfInt64} }
func Bool(x bool) TypedValue                 { return TypedValue{Data: b2u(x), Type: KindOfBoolean} }
func Ptr(t DataType, addr uint64) TypedValue { return TypedValue{Data: addr, Type: t} }

func b2u(x bool) uint64 {
	if x {
		return 1
	}
	return 0
}
