// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rodata pools the static strings which compiled code refers to by
// address.
package rodata

import (
	"sync"
)

// Align is the alignment of each string.
const Align = 16

// Pool of static strings at a fixed base address.  It is safe for concurrent
// use.
type Pool struct {
	Base uint64

	mu      sync.Mutex
	data    []byte
	offsets map[string]uint64
}

func NewPool(base uint64) *Pool {
	return &Pool{
		Base:    base,
		offsets: make(map[string]uint64),
	}
}

// Intern returns the address of the string.  Equal strings share storage.
func (p *Pool) Intern(s string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if off, found := p.offsets[s]; found {
		return p.Base + off
	}

	off := uint64(len(p.data))
	p.data = append(p.data, s...)
	for len(p.data)%Align != 0 {
		p.data = append(p.data, 0)
	}
	p.offsets[s] = off
	return p.Base + off
}

// Bytes returns a copy of the pool contents.
func (p *Pool) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]byte(nil), p.data...)
}
