// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rt describes the runtime's value and object layout as seen by
// compiled code.
package rt

import (
	"fmt"
)

// DataType is the type tag of a TypedValue.  Odd kinds are reference counted.
type DataType int8

const (
	KindOfUninit = DataType(iota * 2)
	KindOfNull
	KindOfBoolean
	KindOfInt64
	KindOfDouble
	KindOfPersistentString
	KindOfPersistentVec
	KindOfPersistentDict

	KindOfString   = KindOfPersistentString | refCountedBit
	KindOfVec      = KindOfPersistentVec | refCountedBit
	KindOfDict     = KindOfPersistentDict | refCountedBit
	KindOfObject   = DataType(17)
	KindOfResource = DataType(19)
)

const refCountedBit = DataType(1)

// InvalidDataType never tags a valid value.  Memo slots holding a pointer to
// a keyed cache carry it.
const InvalidDataType = DataType(-128)

// NumDataTypes bounds the valid non-negative tags.
const NumDataTypes = 20

func (t DataType) IsRefCounted() bool {
	return t >= 0 && t&refCountedBit != 0
}

func (t DataType) IsValid() bool {
	switch t {
	case KindOfUninit, KindOfNull, KindOfBoolean, KindOfInt64, KindOfDouble,
		KindOfPersistentString, KindOfString,
		KindOfPersistentVec, KindOfVec,
		KindOfPersistentDict, KindOfDict,
		KindOfObject, KindOfResource:
		return true
	}
	return false
}

// HasData indicates if the data word is meaningful.
func (t DataType) HasData() bool {
	return t != KindOfUninit && t != KindOfNull
}

var dataTypeStrings = map[DataType]string{
	KindOfUninit:           "Uninit",
	KindOfNull:             "Null",
	KindOfBoolean:          "Boolean",
	KindOfInt64:            "Int64",
	KindOfDouble:           "Double",
	KindOfPersistentString: "PersistentString",
	KindOfString:           "String",
	KindOfPersistentVec:    "PersistentVec",
	KindOfVec:              "Vec",
	KindOfPersistentDict:   "PersistentDict",
	KindOfDict:             "Dict",
	KindOfObject:           "Object",
	KindOfResource:         "Resource",
	InvalidDataType:        "Invalid",
}

func (t DataType) String() string {
	if s, ok := dataTypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("<invalid data type %d>", int8(t))
}
