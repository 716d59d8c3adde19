// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link tracks branch sites which refer to IR blocks, so that every
// referenced successor can be checked to have been lowered.
package link

import (
	"github.com/pkg/errors"
)

// L is the label of a lowered block.  Block is negative until the label is
// bound.
type L struct {
	Sites []int32 // Referring vasm blocks.
	Block int32
}

func Undefined() L {
	return L{Block: -1}
}

func (l *L) AddSite(block int32) {
	l.Sites = append(l.Sites, block)
}

func (l *L) Bind(block int32) {
	l.Block = block
}

// Table maps IR block ids to labels.
type Table struct {
	labels map[int]*L
}

func (t *Table) Get(id int) *L {
	if t.labels == nil {
		t.labels = make(map[int]*L)
	}
	l := t.labels[id]
	if l == nil {
		u := Undefined()
		l = &u
		t.labels[id] = l
	}
	return l
}

// Check that every label with branch sites has been bound.
func (t *Table) Check() error {
	for id, l := range t.labels {
		if l.Block < 0 && len(l.Sites) > 0 {
			return errors.Errorf("branch to IR block B%d which was not lowered (%d sites)", id, len(l.Sites))
		}
	}
	return nil
}
