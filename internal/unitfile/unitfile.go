// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package unitfile reads IR units described in TOML.
//
// Values are written as "tN" and typed where they are first mentioned:
// "t3:InitCell", or "t4:Int=5" for an integer constant.
//
//	func = 7
//
//	[[funcs]]
//	id = 7
//	name = "compute"
//	return = "Cell"
//
//	[[blocks]]
//	id = 0
//
//	  [[blocks.instrs]]
//	  op = "DefFP"
//	  dst = "t0:Bottom"
//
//	  [[blocks.instrs]]
//	  op = "MemoGetStaticValue"
//	  dst = "t1:InitCell"
//	  taken = 1
//	  extra = { func = 7 }
package unitfile

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"

	"gate.computer/irlower/internal/bc"
	"gate.computer/irlower/internal/memo"
	"gate.computer/irlower/internal/repo"
	"gate.computer/irlower/ir"
	"gate.computer/irlower/types"
)

type File struct {
	Func    uint32  `toml:"func"`
	Funcs   []Func  `toml:"funcs"`
	Classes []Class `toml:"classes"`
	Blocks  []Block `toml:"blocks"`
}

type Func struct {
	ID     uint32 `toml:"id"`
	Name   string `toml:"name"`
	Return string `toml:"return"`
	Class  string `toml:"class"`
}

type Class struct {
	Name           string `toml:"name"`
	NativeDataSize int    `toml:"native_data_size"`
	Collection     bool   `toml:"collection"`
	MemoSlots      int    `toml:"memo_slots"`
}

type Block struct {
	ID     int     `toml:"id"`
	Cold   bool    `toml:"cold"`
	Instrs []Instr `toml:"instrs"`
}

type Instr struct {
	Op      string   `toml:"op"`
	Dst     string   `toml:"dst"`
	Srcs    []string `toml:"srcs"`
	Taken   *int     `toml:"taken"`
	Next    *int     `toml:"next"`
	PC      int32    `toml:"pc"`
	Resumed bool     `toml:"resumed"`
	Extra   Extra    `toml:"extra"`
}

// Extra holds the fields of every extra data kind.  Each opcode uses the
// ones which apply to it.
type Extra struct {
	Func     uint32   `toml:"func"`
	Keys     []uint32 `toml:"keys"` // First and count.
	KeyTypes string   `toml:"key_types"`
	Slot     int      `toml:"slot"`
	Shared   bool     `toml:"shared"`
	Bytecode string   `toml:"bytecode"`
	BcOff    int32    `toml:"bc_off"`
	SpOffset int32    `toml:"sp_offset"`
	TransID  uint32   `toml:"trans_id"`
	Reason   string   `toml:"reason"`
	Offset   int32    `toml:"offset"`
	Prologue uint64   `toml:"prologue"`
	Type     uint32   `toml:"type"`
	SrcKey   uint64   `toml:"src_key"`
	Msg      string   `toml:"msg"`
}

// Load a unit description file.
func Load(path string) (*ir.Unit, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}

	u, err := f.Unit()
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Parse is like Load for in-memory text.
func Parse(text string) (*ir.Unit, error) {
	var f File
	meta, err := toml.Decode(text, &f)
	if err != nil {
		return nil, err
	}
	if err := checkUndecoded(meta); err != nil {
		return nil, err
	}
	return f.Unit()
}

func checkUndecoded(meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return xerrors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

type builder struct {
	classes map[string]*repo.Class
	funcs   map[uint32]*repo.Func
	values  map[int]*ir.Value
	blocks  map[int]*ir.Block
}

// Unit builds the described unit.
func (f *File) Unit() (*ir.Unit, error) {
	b := builder{
		classes: make(map[string]*repo.Class),
		funcs:   make(map[uint32]*repo.Func),
		values:  make(map[int]*ir.Value),
		blocks:  make(map[int]*ir.Block),
	}

	for _, c := range f.Classes {
		if _, dup := b.classes[c.Name]; dup {
			return nil, xerrors.Errorf("class %q defined twice", c.Name)
		}
		b.classes[c.Name] = &repo.Class{
			Name:           c.Name,
			NativeDataSize: c.NativeDataSize,
			Collection:     c.Collection,
			NumMemoSlots:   c.MemoSlots,
		}
	}

	for _, fd := range f.Funcs {
		if _, dup := b.funcs[fd.ID]; dup {
			return nil, xerrors.Errorf("function %d defined twice", fd.ID)
		}

		fn := &repo.Func{ID: repo.FuncID(fd.ID), Name: fd.Name, ReturnType: types.Cell}
		if fd.Return != "" {
			t, err := types.Parse(fd.Return)
			if err != nil {
				return nil, xerrors.Errorf("function %s: %w", fd.Name, err)
			}
			fn.ReturnType = t
		}
		if fd.Class != "" {
			c := b.classes[fd.Class]
			if c == nil {
				return nil, xerrors.Errorf("function %s: unknown class %q", fd.Name, fd.Class)
			}
			fn.Class = c
		}
		b.funcs[fd.ID] = fn
	}

	u := &ir.Unit{Func: b.funcs[f.Func]}
	if u.Func == nil {
		return nil, xerrors.Errorf("unit function %d is not defined", f.Func)
	}

	for _, bd := range f.Blocks {
		if _, dup := b.blocks[bd.ID]; dup {
			return nil, xerrors.Errorf("block %d defined twice", bd.ID)
		}
		blk := &ir.Block{ID: bd.ID, Cold: bd.Cold}
		b.blocks[bd.ID] = blk
		u.Blocks = append(u.Blocks, blk)
	}

	for n, bd := range f.Blocks {
		blk := u.Blocks[n]
		for k, id := range bd.Instrs {
			i, err := b.instr(u.Func, id)
			if err != nil {
				return nil, xerrors.Errorf("block %d instruction %d: %w", bd.ID, k, err)
			}
			blk.Instrs = append(blk.Instrs, i)
		}
	}

	return u, nil
}

func (b *builder) instr(fn *repo.Func, d Instr) (i *ir.Instr, err error) {
	op, ok := ir.ParseOpcode(d.Op)
	if !ok {
		err = xerrors.Errorf("unknown opcode: %q", d.Op)
		return
	}

	i = &ir.Instr{
		Op:     op,
		Marker: ir.Marker{Func: fn, PC: d.PC, Resumed: d.Resumed},
	}

	for _, s := range d.Srcs {
		v, err := b.value(s)
		if err != nil {
			return nil, err
		}
		i.Srcs = append(i.Srcs, v)
	}

	if d.Dst != "" {
		if i.Dst, err = b.value(d.Dst); err != nil {
			return
		}
	}

	if i.Taken, err = b.block(d.Taken); err != nil {
		return
	}
	if i.Next, err = b.block(d.Next); err != nil {
		return
	}

	i.Extra, err = b.extra(op, &d.Extra)
	return
}

func (b *builder) block(id *int) (*ir.Block, error) {
	if id == nil {
		return nil, nil
	}
	blk := b.blocks[*id]
	if blk == nil {
		return nil, xerrors.Errorf("unknown block: %d", *id)
	}
	return blk, nil
}

// value parses "tN", "tN:Type" or "tN:Int=x".
func (b *builder) value(s string) (*ir.Value, error) {
	name, typ, typed := strings.Cut(s, ":")
	if !strings.HasPrefix(name, "t") {
		return nil, xerrors.Errorf("invalid value: %q", s)
	}
	id, err := strconv.Atoi(name[1:])
	if err != nil {
		return nil, xerrors.Errorf("invalid value: %q", s)
	}

	v := b.values[id]

	if !typed {
		if v == nil {
			return nil, xerrors.Errorf("value %s used without type", name)
		}
		return v, nil
	}

	if v != nil {
		return nil, xerrors.Errorf("value %s typed twice", name)
	}

	typ, cns, isConst := strings.Cut(typ, "=")
	t, err := types.Parse(typ)
	if err != nil {
		return nil, xerrors.Errorf("value %s: %w", name, err)
	}

	if isConst {
		if t != types.Int {
			return nil, xerrors.Errorf("value %s: constant of type %s", name, t)
		}
		x, err := strconv.ParseInt(cns, 0, 64)
		if err != nil {
			return nil, xerrors.Errorf("value %s: %w", name, err)
		}
		v = ir.NewIntConst(id, x)
	} else {
		v = ir.NewValue(id, t)
	}

	b.values[id] = v
	return v, nil
}

func (b *builder) function(id uint32) (*repo.Func, error) {
	fn := b.funcs[id]
	if fn == nil {
		return nil, xerrors.Errorf("unknown function: %d", id)
	}
	return fn, nil
}

func keyRange(keys []uint32) (r ir.KeyRange, err error) {
	switch len(keys) {
	case 0:
	case 2:
		r = ir.KeyRange{First: keys[0], Count: keys[1]}
	default:
		err = xerrors.Errorf("keys must be [first, count]: %v", keys)
	}
	return
}

func (b *builder) extra(op ir.Opcode, d *Extra) (x any, err error) {
	switch op {
	case ir.MemoGetStaticValue, ir.MemoSetStaticValue:
		fn, err := b.function(d.Func)
		if err != nil {
			return nil, err
		}
		return &ir.FuncData{Func: fn}, nil

	case ir.MemoGetStaticCache, ir.MemoSetStaticCache:
		fn, err := b.function(d.Func)
		if err != nil {
			return nil, err
		}
		keys, err := keyRange(d.Keys)
		if err != nil {
			return nil, err
		}
		kts, err := memo.ParseSignature(d.KeyTypes)
		if err != nil {
			return nil, err
		}
		return &ir.MemoCacheStaticData{Func: fn, Keys: keys, Types: kts}, nil

	case ir.MemoGetInstanceValue, ir.MemoSetInstanceValue:
		fn, err := b.function(d.Func)
		if err != nil {
			return nil, err
		}
		return &ir.MemoValueInstanceData{Func: fn, Slot: d.Slot}, nil

	case ir.MemoGetInstanceCache, ir.MemoSetInstanceCache:
		fn, err := b.function(d.Func)
		if err != nil {
			return nil, err
		}
		keys, err := keyRange(d.Keys)
		if err != nil {
			return nil, err
		}
		kts, err := memo.ParseSignature(d.KeyTypes)
		if err != nil {
			return nil, err
		}
		return &ir.MemoCacheInstanceData{Func: fn, Slot: d.Slot, Keys: keys, Types: kts, Shared: d.Shared}, nil

	case ir.InterpOne, ir.InterpOneCF:
		bcop, ok := bc.Parse(d.Bytecode)
		if !ok {
			return nil, xerrors.Errorf("unknown bytecode: %q", d.Bytecode)
		}
		return &ir.InterpOneData{Opcode: bcop, BcOff: d.BcOff, SpOffset: d.SpOffset}, nil

	case ir.IncProfCounter, ir.CheckCold:
		return &ir.TransIDData{TransID: d.TransID}, nil

	case ir.Unreachable, ir.EndBlock:
		return &ir.AssertReason{Reason: d.Reason}, nil

	case ir.FuncGuard:
		fn, err := b.function(d.Func)
		if err != nil {
			return nil, err
		}
		return &ir.FuncGuardData{Func: fn, PrologueAddr: d.Prologue}, nil

	case ir.DefSP:
		return &ir.DefSPData{Offset: d.Offset}, nil

	case ir.EagerSyncVMRegs:
		return &ir.EagerSyncData{Offset: d.Offset}, nil

	case ir.RBTraceEntry:
		return &ir.RBTraceEntryData{Type: d.Type, SrcKey: d.SrcKey}, nil

	case ir.RBTraceMsg:
		return &ir.RBTraceMsgData{Type: d.Type, Msg: d.Msg}, nil

	default:
		return nil, nil
	}
}

