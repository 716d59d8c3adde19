// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"strings"
	"testing"

	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/types"
)

func TestOpcodeNames(t *testing.T) {
	for op := Opcode(0); op < NumOpcodes; op++ {
		name := op.String()
		if name == "" || strings.HasPrefix(name, "<") {
			t.Errorf("opcode %d has no name", op)
			continue
		}
		if parsed, ok := ParseOpcode(name); !ok || parsed != op {
			t.Errorf("%s parsed as %d", name, parsed)
		}
	}

	if _, ok := ParseOpcode("NumOpcodes"); ok {
		t.Error("parsed NumOpcodes")
	}
	if s := NumOpcodes.String(); !strings.HasPrefix(s, "<invalid") {
		t.Error(s)
	}
}

func TestEndsBlock(t *testing.T) {
	for op, ends := range map[Opcode]bool{
		Jmp:                true,
		RetCtrl:            true,
		EndBlock:           true,
		InterpOneCF:        true,
		CheckCold:          true,
		InterpOne:          false,
		IncStat:            false,
		MemoGetStaticValue: false,
		NumOpcodes:         false,
	} {
		if op.EndsBlock() != ends {
			t.Errorf("%s", op)
		}
	}
}

func TestValidate(t *testing.T) {
	f := &repo.Func{ID: 1, Name: "f", ReturnType: types.Int}
	v := NewValue(1, types.Int)
	b := &Block{ID: 1}

	for _, c := range []struct {
		name string
		i    *Instr
		msg  string
	}{
		{"OK", &Instr{Op: MemoGetStaticValue, Dst: v, Taken: b, Extra: &FuncData{Func: f}}, ""},
		{"InvalidOpcode", &Instr{Op: NumOpcodes}, "invalid opcode"},
		{"Srcs", &Instr{Op: PrintInt}, "0 sources, expected 1"},
		{"NilSrc", &Instr{Op: PrintInt, Srcs: []*Value{nil}}, "source 0 is nil"},
		{"Dst", &Instr{Op: GetTime}, "destination presence"},
		{"Taken", &Instr{Op: Jmp}, "taken successor"},
		{"Next", &Instr{Op: CheckCold, Taken: b, Extra: &TransIDData{}}, "next successor"},
		{"NoExtra", &Instr{Op: IncProfCounter}, "extra data has type <nil>"},
		{"ExtraType", &Instr{Op: IncProfCounter, Extra: &FuncData{Func: f}}, "extra data has type *ir.FuncData"},
		{"UnexpectedExtra", &Instr{Op: Nop, Extra: &TransIDData{}}, "unexpected extra data"},
	} {
		t.Run(c.name, func(t *testing.T) {
			err := c.i.Validate()
			if c.msg == "" {
				if err != nil {
					t.Error(err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), c.msg) {
				t.Errorf("error %v does not contain %q", err, c.msg)
			}
		})
	}
}

func TestValues(t *testing.T) {
	v1 := NewValue(1, types.Bottom)
	v2 := NewIntConst(2, 7)
	v3 := NewValue(3, types.Int)

	u := &Unit{Blocks: []*Block{
		{Instrs: []*Instr{
			{Op: Mov, Srcs: []*Value{v2}, Dst: v3},
			{Op: DefFP, Dst: v1},
		}},
		{Instrs: []*Instr{
			{Op: PrintInt, Srcs: []*Value{v3}},
		}},
	}}

	vs := u.Values()
	if len(vs) != 3 || vs[0] != v1 || vs[1] != v2 || vs[2] != v3 {
		t.Errorf("values: %v", vs)
	}

	if !v2.HasConstVal() || v2.IntVal() != 7 || v3.HasConstVal() {
		t.Error("constants")
	}
}
