// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memo

import (
	"testing"

	"gate.computer/irlower/internal/stubs"
)

func TestDispatch(t *testing.T) {
	for _, c := range []struct {
		sig         string
		count       uint32
		specialized bool
	}{
		{"A", 1, true},
		{"AA", 2, true},
		{"AAA", 3, true},
		{"AAAA", 4, true},
		{"AAAAA", 5, false},
		{"I", 1, true},
		{"S", 1, true},
		{"IS", 2, true},
		{"SI", 2, true},
		{"SS", 2, true},
		{"ISI", 3, false},
		{"AI", 2, false},
		{"II", 3, false},
		{"", 0, false},
	} {
		t.Run(c.sig, func(t *testing.T) {
			types, err := ParseSignature(c.sig)
			if err != nil {
				t.Fatal(err)
			}

			for _, lookup := range []struct {
				name string
				f    func([]KeyType, uint32) *stubs.Routine
			}{
				{"get", GetForKeyTypes},
				{"set", SetForKeyTypes},
				{"shared-get", SharedGetForKeyTypes},
				{"shared-set", SharedSetForKeyTypes},
			} {
				r := lookup.f(types, c.count)
				if (r != nil) != c.specialized {
					t.Errorf("%s: %v", lookup.name, r)
				}
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	types := []KeyType{Int, Str}

	r := SharedSetForKeyTypes(types, 2)
	a, found := Describe(r)
	if !found {
		t.Fatal(r)
	}
	if a.Kind != Set || !a.Shared || Signature(a.Types) != "IS" || a.Generic || a.SharedOnly {
		t.Errorf("%#v", a)
	}

	if GetForKeyTypes(types, 2) == SharedGetForKeyTypes(types, 2) {
		t.Error("shared and plain getters are the same routine")
	}

	a, _ = Describe(GetGeneric)
	if !a.Generic || a.Kind != Get {
		t.Errorf("%#v", a)
	}

	a, _ = Describe(SetSharedOnly)
	if !a.SharedOnly || !a.Shared || a.Kind != Set {
		t.Errorf("%#v", a)
	}
}

func TestGenericID(t *testing.T) {
	id := GenericID{Func: 1234, KeyCount: 7}
	if x := id.Param(); GenericIDFromParam(x) != id {
		t.Errorf("%#x", x)
	}

	if (GenericID{Func: 1, KeyCount: 2}).Param() == (GenericID{Func: 2, KeyCount: 1}).Param() {
		t.Error("parameters collide")
	}

	max := GenericID{Func: 3, KeyCount: MaxGenericKeyCount}
	if x := max.Param(); GenericIDFromParam(x) != max {
		t.Errorf("%#x", x)
	}
}

func TestKeyTypeValid(t *testing.T) {
	for _, kt := range []KeyType{Any, Int, Str} {
		if !kt.Valid() {
			t.Errorf("%s is not valid", kt)
		}
	}
	if KeyType(3).Valid() {
		t.Error("out of range key type is valid")
	}
}

func TestSharedOnlyKey(t *testing.T) {
	if SharedOnlyKey(5) == SharedOnlyKey(6) {
		t.Error("keys collide")
	}
	if SharedOnlyKey(5)&1 == 0 {
		t.Error("key looks like a pointer")
	}
}

func TestKeyBuilder(t *testing.T) {
	build := func(f func(*KeyBuilder)) Key {
		var b KeyBuilder
		f(&b)
		return b.Key()
	}

	a := build(func(b *KeyBuilder) { b.AddInt(1); b.AddStr("x") })
	b := build(func(b *KeyBuilder) { b.AddInt(1); b.AddStr("x") })
	c := build(func(b *KeyBuilder) { b.AddStr("x"); b.AddInt(1) })
	d := build(func(b *KeyBuilder) { b.AddFunc(3); b.AddInt(1); b.AddStr("x") })

	if a != b {
		t.Error("equal parts built different keys")
	}
	if a == c || a == d {
		t.Error("different parts built equal keys")
	}

	cache := NewMapCache[int]()
	cache.Set(a, 10)
	if v, found := cache.Get(b); !found || v != 10 {
		t.Error(v, found)
	}
	if _, found := cache.Get(c); found {
		t.Error("found")
	}
}
