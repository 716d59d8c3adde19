// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"encoding/binary"
	"sync"
)

const pageSize = 4096

type page [pageSize]byte

// Memory is sparse, zero-initialized and sequentially consistent: each access
// is atomic with respect to the others.
type Memory struct {
	mu    sync.Mutex
	pages map[uint64]*page
}

func newMemory() *Memory {
	return &Memory{pages: make(map[uint64]*page)}
}

func (m *Memory) page(addr uint64) *page {
	base := addr &^ (pageSize - 1)
	p := m.pages[base]
	if p == nil {
		p = new(page)
		m.pages[base] = p
	}
	return p
}

func (m *Memory) read(addr uint64, buf []byte) {
	for i := range buf {
		a := addr + uint64(i)
		buf[i] = m.page(a)[a%pageSize]
	}
}

func (m *Memory) write(addr uint64, buf []byte) {
	for i, b := range buf {
		a := addr + uint64(i)
		m.page(a)[a%pageSize] = b
	}
}

func (m *Memory) Load(addr uint64, size int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.load(addr, size)
}

func (m *Memory) load(addr uint64, size int) uint64 {
	var buf [8]byte
	m.read(addr, buf[:size])
	return binary.LittleEndian.Uint64(buf[:])
}

func (m *Memory) Store(addr uint64, size int, x uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store(addr, size, x)
}

func (m *Memory) store(addr uint64, size int, x uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	m.write(addr, buf[:size])
}

// Modify applies f to a value atomically and returns the new value.
func (m *Memory) Modify(addr uint64, size int, f func(uint64) uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	x := f(m.load(addr, size))
	m.store(addr, size, x)
	return x
}

func (m *Memory) WriteBytes(addr uint64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.write(addr, data)
}

func (m *Memory) ReadBytes(addr uint64, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, n)
	m.read(addr, buf)
	return buf
}
