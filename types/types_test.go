// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"testing"

	"gate.computer/irlower/rt"
)

func TestString(t *testing.T) {
	for _, c := range []struct {
		t T
		s string
	}{
		{Bottom, "Bottom"},
		{Int, "Int"},
		{Cell, "Cell"},
		{InitCell, "InitCell"},
		{Counted, "Counted"},
		{Int | Str, "Int|Str"},
		{Str | InitNull, "InitNull|Str"},
		{Null, "Null"},
		{CountedStr | Obj, "CountedStr|Obj"},
	} {
		if s := c.t.String(); s != c.s {
			t.Errorf("%#x: %q != %q", uint32(c.t), s, c.s)
		}

		p, err := Parse(c.s)
		if err != nil {
			t.Errorf("%q: %v", c.s, err)
		} else if p != c.t {
			t.Errorf("%q parsed as %s", c.s, p)
		}
	}
}

func TestParseError(t *testing.T) {
	if _, err := Parse("Int|Float"); err == nil {
		t.Error("no error")
	}
}

func TestLattice(t *testing.T) {
	if !Int.IsA(InitCell) || !Bottom.IsA(Int) || Cell.IsA(InitCell) {
		t.Error("IsA")
	}
	if !Str.Maybe(Counted) || Int.Maybe(Counted) || Bottom.Maybe(Cell) {
		t.Error("Maybe")
	}
	if Uncounted.Maybe(Counted) || Uncounted|Counted != Cell {
		t.Error("Counted and Uncounted do not partition Cell")
	}
	if Str.And(Counted) != CountedStr || Int.Or(Dbl).And(Int) != Int {
		t.Error("And/Or")
	}
}

func TestRepresentation(t *testing.T) {
	for _, c := range []struct {
		t     T
		dt    rt.DataType
		known bool
		words int
	}{
		{Int, rt.KindOfInt64, true, 1},
		{Obj, rt.KindOfObject, true, 1},
		{CountedStr, rt.KindOfString, true, 1},
		{InitNull, rt.KindOfNull, true, 0},
		{Uninit, rt.KindOfUninit, true, 0},
		{Str, 0, false, 2},
		{Cell, 0, false, 2},
	} {
		dt, known := c.t.DataType()
		if known != c.known || (known && dt != c.dt) {
			t.Errorf("%s: data type %s %v", c.t, dt, known)
		}
		if n := c.t.NumWords(); n != c.words {
			t.Errorf("%s: %d words", c.t, n)
		}
		if known && FromDataType(dt) != c.t {
			t.Errorf("%s: round trip through %s", c.t, dt)
		}
	}
}
