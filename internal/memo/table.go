// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memo

import (
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/internal/stubs"
)

const (
	// MaxSpecializedKeys bounds the key count of the all-Any accessors.
	MaxSpecializedKeys = 4

	// MaxSpecializedKeyTypes bounds the key count of accessors specialized
	// on every combination of Int and Str keys.
	MaxSpecializedKeyTypes = 2
)

// Kind of an accessor.
type Kind uint8

const (
	Get = Kind(iota)
	Set
)

func (k Kind) String() string {
	if k == Get {
		return "get"
	}
	return "set"
}

// Accessor describes what a cache access routine does.
type Accessor struct {
	Kind       Kind
	Shared     bool      // Keys are tagged with the callee id.
	Types      []KeyType // Nil for generic and shared-only accessors.
	Generic    bool      // Takes a GenericID parameter.
	SharedOnly bool      // Key is just the callee id.
}

type table struct {
	get map[string]*stubs.Routine
	set map[string]*stubs.Routine
}

var (
	accessors = make(map[*stubs.Routine]Accessor)

	plain  = makeTable(false)
	shared = makeTable(true)
)

// Fallback routines.
var (
	GetGeneric    = register("memoCacheGetGeneric", Accessor{Kind: Get, Generic: true})
	SetGeneric    = register("memoCacheSetGeneric", Accessor{Kind: Set, Generic: true})
	GetSharedOnly = register("memoCacheGetSharedOnly", Accessor{Kind: Get, Shared: true, SharedOnly: true})
	SetSharedOnly = register("memoCacheSetSharedOnly", Accessor{Kind: Set, Shared: true, SharedOnly: true})
)

func register(name string, a Accessor) *stubs.Routine {
	r := stubs.Register(name)
	accessors[r] = a
	return r
}

func makeTable(isShared bool) (t table) {
	t.get = make(map[string]*stubs.Routine)
	t.set = make(map[string]*stubs.Routine)

	prefix := "memoCache"
	if isShared {
		prefix = "sharedMemoCache"
	}

	add := func(types []KeyType) {
		sig := Signature(types)
		if _, dup := t.get[sig]; dup {
			return
		}

		types = append([]KeyType(nil), types...)
		t.get[sig] = register(prefix+"Get<"+sig+">", Accessor{Kind: Get, Shared: isShared, Types: types})
		t.set[sig] = register(prefix+"Set<"+sig+">", Accessor{Kind: Set, Shared: isShared, Types: types})
	}

	for n := 1; n <= MaxSpecializedKeys; n++ {
		types := make([]KeyType, n)
		add(types)
	}

	for n := 1; n <= MaxSpecializedKeyTypes; n++ {
		types := make([]KeyType, n)
		for bits := 0; bits < 1<<n; bits++ {
			for i := range types {
				if bits&(1<<i) != 0 {
					types[i] = Str
				} else {
					types[i] = Int
				}
			}
			add(types)
		}
	}

	return
}

func (t *table) lookup(m map[string]*stubs.Routine, types []KeyType, count uint32) *stubs.Routine {
	if count == 0 || uint32(len(types)) != count {
		return nil
	}
	return m[Signature(types)]
}

// GetForKeyTypes returns the specialized getter for the key types, or nil if
// the generic getter must be used.
func GetForKeyTypes(types []KeyType, count uint32) *stubs.Routine {
	return plain.lookup(plain.get, types, count)
}

// SetForKeyTypes returns the specialized setter for the key types, or nil if
// the generic setter must be used.
func SetForKeyTypes(types []KeyType, count uint32) *stubs.Routine {
	return plain.lookup(plain.set, types, count)
}

// SharedGetForKeyTypes is like GetForKeyTypes for caches shared by several
// methods.  Specialized shared accessors take the callee id as a parameter.
func SharedGetForKeyTypes(types []KeyType, count uint32) *stubs.Routine {
	return shared.lookup(shared.get, types, count)
}

func SharedSetForKeyTypes(types []KeyType, count uint32) *stubs.Routine {
	return shared.lookup(shared.set, types, count)
}

// Describe an accessor routine.
func Describe(r *stubs.Routine) (a Accessor, found bool) {
	a, found = accessors[r]
	return
}

// GenericID is the descriptor passed to generic accessors.
type GenericID struct {
	Func     repo.FuncID
	KeyCount uint32
}

const genericKeyCountBits = 16

// MaxGenericKeyCount is the largest key count a descriptor can carry.
const MaxGenericKeyCount = 1<<genericKeyCountBits - 1

// Param packs the descriptor into an immediate.
func (id GenericID) Param() uint64 {
	if id.KeyCount > MaxGenericKeyCount {
		panic("memo key count too large for generic descriptor")
	}
	return uint64(id.Func)<<genericKeyCountBits | uint64(id.KeyCount)
}

func GenericIDFromParam(x uint64) GenericID {
	return GenericID{
		Func:     repo.FuncID(x >> genericKeyCountBits),
		KeyCount: uint32(x & (1<<genericKeyCountBits - 1)),
	}
}

// SharedOnlyKey is the key under which a keyless method stores its value in
// a shared cache.  Its low bit distinguishes it from a pointer.
func SharedOnlyKey(f repo.FuncID) uint64 {
	return uint64(f)<<1 | 1
}
