// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package unitfile

import (
	"strings"
	"testing"

	"gate.computer/irlower/internal/bc"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/types"
)

func validate(t *testing.T, u *ir.Unit) {
	t.Helper()

	for _, b := range u.Blocks {
		for _, i := range b.Instrs {
			if err := i.Validate(); err != nil {
				t.Errorf("block %d: %v", b.ID, err)
			}
		}
	}
}

func TestLoadStaticCache(t *testing.T) {
	u, err := Load("../../testdata/static_cache.toml")
	if err != nil {
		t.Fatal(err)
	}
	validate(t, u)

	if u.Func.Name != "lookup" || u.Func.ID != 7 {
		t.Errorf("func: %s %d", u.Func.Name, u.Func.ID)
	}
	if len(u.Blocks) != 3 || !u.Blocks[2].Cold || u.Blocks[0].Cold {
		t.Fatalf("blocks: %v", u.Blocks)
	}

	get := u.Blocks[0].Instrs[2]
	if get.Op != ir.MemoGetStaticCache {
		t.Fatal(get.Op)
	}
	if get.Taken != u.Blocks[2] {
		t.Error("taken block mismatch")
	}
	if get.Srcs[0] != u.Blocks[0].Instrs[0].Dst {
		t.Error("frame pointer value not shared")
	}
	if get.Dst.Type != types.Int|types.Str {
		t.Errorf("dst type: %s", get.Dst.Type)
	}
	if get.Marker.PC != 12 || get.Marker.Func != u.Func {
		t.Errorf("marker: %+v", get.Marker)
	}

	x := get.Extra.(*ir.MemoCacheStaticData)
	if x.Keys != (ir.KeyRange{First: 0, Count: 2}) {
		t.Errorf("keys: %s", x.Keys)
	}
	if memo.Signature(x.Types) != "IS" {
		t.Errorf("key types: %s", memo.Signature(x.Types))
	}

	cf := u.Blocks[2].Instrs[1].Extra.(*ir.InterpOneData)
	if cf.Opcode != bc.FCallFunc || cf.BcOff != 12 || cf.SpOffset != -2 {
		t.Errorf("interp-one: %s", cf)
	}
	if u.Blocks[2].Instrs[1].Srcs[0] != u.Blocks[0].Instrs[1].Dst {
		t.Error("stack pointer value not shared")
	}
}

func TestLoadInstanceValue(t *testing.T) {
	u, err := Load("../../testdata/instance_value.toml")
	if err != nil {
		t.Fatal(err)
	}
	validate(t, u)

	c := u.Func.Class
	if c == nil || c.Name != "Widget" || c.NativeDataSize != 24 || c.NumMemoSlots != 2 {
		t.Fatalf("class: %+v", c)
	}

	get := u.Blocks[0].Instrs[3]
	if x := get.Extra.(*ir.MemoValueInstanceData); x.Slot != 1 || x.Func != u.Func {
		t.Errorf("extra: %s", x)
	}

	cold := u.Blocks[0].Instrs[4]
	if cold.Taken != u.Blocks[2] || cold.Next != u.Blocks[1] {
		t.Error("check-cold successors")
	}
	if cold.Extra.(*ir.TransIDData).TransID != 1 {
		t.Error(cold.Extra)
	}
}

func TestConstant(t *testing.T) {
	u, err := Parse(`
func = 1

[[funcs]]
id = 1
name = "f"

[[blocks]]
id = 0

  [[blocks.instrs]]
  op = "IncStat"
  srcs = ["t5:Int=0x10"]

  [[blocks.instrs]]
  op = "PrintInt"
  srcs = ["t5"]

  [[blocks.instrs]]
  op = "RetCtrl"
`)
	if err != nil {
		t.Fatal(err)
	}
	validate(t, u)

	v := u.Blocks[0].Instrs[0].Srcs[0]
	if !v.HasConstVal() || v.IntVal() != 16 || v.ID != 5 {
		t.Errorf("constant: %s", v)
	}
	if u.Blocks[0].Instrs[1].Srcs[0] != v {
		t.Error("constant not shared")
	}
	if u.Func.ReturnType != types.Cell {
		t.Errorf("default return type: %s", u.Func.ReturnType)
	}
}

func TestErrors(t *testing.T) {
	const header = "func = 1\n[[funcs]]\nid = 1\nname = \"f\"\n[[blocks]]\nid = 0\n"

	for _, c := range []struct {
		name string
		text string
		msg  string
	}{
		{"UnknownKey", header + "color = \"red\"\n", "unknown keys: blocks.color"},
		{"NoFunc", "func = 2\n[[funcs]]\nid = 1\nname = \"f\"\n", "unit function 2 is not defined"},
		{"DuplicateBlock", header + "[[blocks]]\nid = 0\n", "block 0 defined twice"},
		{"UnknownOpcode", header + "[[blocks.instrs]]\nop = \"Frob\"\n", `unknown opcode: "Frob"`},
		{"UntypedValue", header + "[[blocks.instrs]]\nop = \"PrintInt\"\nsrcs = [\"t1\"]\n", "value t1 used without type"},
		{"TypedTwice", header + "[[blocks.instrs]]\nop = \"Mov\"\ndst = \"t1:Int\"\nsrcs = [\"t1:Int\"]\n", "value t1 typed twice"},
		{"BadValue", header + "[[blocks.instrs]]\nop = \"PrintInt\"\nsrcs = [\"x1:Int\"]\n", `invalid value: "x1:Int"`},
		{"BadType", header + "[[blocks.instrs]]\nop = \"PrintInt\"\nsrcs = [\"t1:Integer\"]\n", `unknown type: "Integer"`},
		{"DblConstant", header + "[[blocks.instrs]]\nop = \"PrintInt\"\nsrcs = [\"t1:Dbl=1\"]\n", "constant of type Dbl"},
		{"UnknownBlock", header + "[[blocks.instrs]]\nop = \"Jmp\"\ntaken = 9\n", "unknown block: 9"},
		{"UnknownFunc", header + "[[blocks.instrs]]\nop = \"MemoSetStaticValue\"\nsrcs = [\"t1:Int\"]\nextra = { func = 3 }\n", "unknown function: 3"},
		{"Keys", header + "[[blocks.instrs]]\nop = \"MemoSetStaticCache\"\nextra = { func = 1, keys = [1] }\n", "keys must be [first, count]"},
		{"KeyTypes", header + "[[blocks.instrs]]\nop = \"MemoSetStaticCache\"\nextra = { func = 1, keys = [0, 1], key_types = \"X\" }\n", "invalid memo key signature"},
		{"Bytecode", header + "[[blocks.instrs]]\nop = \"InterpOne\"\nextra = { bytecode = \"Frob\" }\n", `unknown bytecode: "Frob"`},
		{"UnknownClass", "func = 1\n[[funcs]]\nid = 1\nname = \"f\"\nclass = \"C\"\n", `unknown class "C"`},
	} {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.text)
			if err == nil {
				t.Fatal("no error")
			}
			if !strings.Contains(err.Error(), c.msg) {
				t.Errorf("error %q does not contain %q", err, c.msg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/nonexistent.toml")
	if err == nil || !strings.Contains(err.Error(), "testdata/nonexistent.toml") {
		t.Errorf("error: %v", err)
	}
}
