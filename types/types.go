// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types implements the compiler's view of runtime value types as a
// lattice of DataType sets.
package types

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"gate.computer/irlower/rt"
)

// T is a set of possible runtime DataTypes.  Bottom is the empty set.
type T uint32

func bit(dt rt.DataType) T {
	return T(1) << uint(dt)
}

const (
	Bottom = T(0)

	Uninit         = T(1) << uint(rt.KindOfUninit)
	InitNull       = T(1) << uint(rt.KindOfNull)
	Bool           = T(1) << uint(rt.KindOfBoolean)
	Int            = T(1) << uint(rt.KindOfInt64)
	Dbl            = T(1) << uint(rt.KindOfDouble)
	PersistentStr  = T(1) << uint(rt.KindOfPersistentString)
	CountedStr     = T(1) << uint(rt.KindOfString)
	PersistentVec  = T(1) << uint(rt.KindOfPersistentVec)
	CountedVec     = T(1) << uint(rt.KindOfVec)
	PersistentDict = T(1) << uint(rt.KindOfPersistentDict)
	CountedDict    = T(1) << uint(rt.KindOfDict)
	Obj            = T(1) << uint(rt.KindOfObject)
	Res            = T(1) << uint(rt.KindOfResource)

	Null      = Uninit | InitNull
	Str       = PersistentStr | CountedStr
	Vec       = PersistentVec | CountedVec
	Dict      = PersistentDict | CountedDict
	ArrLike   = Vec | Dict
	Counted   = CountedStr | CountedVec | CountedDict | Obj | Res
	Uncounted = Cell &^ Counted
	InitCell  = Cell &^ Uninit
	Cell      = Null | Bool | Int | Dbl | Str | ArrLike | Obj | Res
)

// Maybe indicates if the sets intersect.
func (t T) Maybe(u T) bool {
	return t&u != 0
}

// IsA indicates if t is a subset of u.  Bottom is a subset of everything.
func (t T) IsA(u T) bool {
	return t&^u == 0
}

func (t T) And(u T) T { return t & u }
func (t T) Or(u T) T  { return t | u }

// DataType returns the single runtime type which t represents, if any.
func (t T) DataType() (dt rt.DataType, ok bool) {
	if bits.OnesCount32(uint32(t)) != 1 {
		return
	}
	dt = rt.DataType(bits.TrailingZeros32(uint32(t)))
	ok = true
	return
}

// NeedsType indicates if a materialized value of type t carries its tag in a
// separate register.
func (t T) NeedsType() bool {
	_, known := t.DataType()
	return !known
}

// NumWords is the number of registers a value of type t occupies.
func (t T) NumWords() int {
	if t.NeedsType() {
		return 2
	}
	if t.IsA(Null) {
		return 0
	}
	return 1
}

var names = []struct {
	name string
	t    T
}{
	{"Cell", Cell},
	{"InitCell", InitCell},
	{"Uncounted", Uncounted},
	{"Counted", Counted},
	{"ArrLike", ArrLike},
	{"Null", Null},
	{"Str", Str},
	{"Vec", Vec},
	{"Dict", Dict},
	{"Uninit", Uninit},
	{"InitNull", InitNull},
	{"Bool", Bool},
	{"Int", Int},
	{"Dbl", Dbl},
	{"PersistentStr", PersistentStr},
	{"CountedStr", CountedStr},
	{"PersistentVec", PersistentVec},
	{"CountedVec", CountedVec},
	{"PersistentDict", PersistentDict},
	{"CountedDict", CountedDict},
	{"Obj", Obj},
	{"Res", Res},
}

// String returns the shortest union of known type names which covers t
// exactly.
func (t T) String() string {
	if t == Bottom {
		return "Bottom"
	}

	var parts []string
	rest := t
	for _, n := range names {
		if rest == 0 {
			break
		}
		if n.t.IsA(t) && n.t.Maybe(rest) {
			parts = append(parts, n.name)
			rest &^= n.t
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Parse a type expression such as "Int" or "Str|InitNull".
func Parse(s string) (t T, err error) {
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "Bottom" {
			continue
		}

		found := false
		for _, n := range names {
			if n.name == part {
				t |= n.t
				found = true
				break
			}
		}
		if !found {
			err = fmt.Errorf("unknown type: %q", part)
			return
		}
	}
	return
}

// FromDataType returns the singleton type of dt.
func FromDataType(dt rt.DataType) T {
	if !dt.IsValid() {
		panic(fmt.Errorf("invalid data type: %d", int8(dt)))
	}
	return bit(dt)
}
