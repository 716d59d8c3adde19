// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memo

import (
	"encoding/binary"
	"sync"

	"gate.computer/irlower/internal/repo"
)

// Key identifies a cache entry.  Keys built from equal parts compare equal.
type Key string

// KeyBuilder accumulates key parts.
type KeyBuilder struct {
	buf []byte
}

const (
	partInt  = 'i'
	partStr  = 's'
	partFunc = 'f'
)

func (b *KeyBuilder) AddInt(x int64) {
	b.buf = append(b.buf, partInt)
	b.buf = binary.LittleEndian.AppendUint64(b.buf, uint64(x))
}

func (b *KeyBuilder) AddStr(s string) {
	b.buf = append(b.buf, partStr)
	b.buf = binary.AppendUvarint(b.buf, uint64(len(s)))
	b.buf = append(b.buf, s...)
}

// AddFunc tags the key with a callee, for shared caches.
func (b *KeyBuilder) AddFunc(f repo.FuncID) {
	b.buf = append(b.buf, partFunc)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(f))
}

func (b *KeyBuilder) Key() Key {
	return Key(b.buf)
}

// Cache maps keys to values.  Implementations must be safe for concurrent
// use.
type Cache[V any] interface {
	Get(k Key) (v V, found bool)
	Set(k Key, v V)
	Len() int
}

// MapCache is a Cache backed by a map.
type MapCache[V any] struct {
	mu      sync.Mutex
	entries map[Key]V
}

func NewMapCache[V any]() *MapCache[V] {
	return &MapCache[V]{
		entries: make(map[Key]V),
	}
}

func (c *MapCache[V]) Get(k Key) (v V, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, found = c.entries[k]
	return
}

func (c *MapCache[V]) Set(k Key, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = v
}

func (c *MapCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Range calls f for each entry until it returns false.
func (c *MapCache[V]) Range(f func(Key, V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.entries {
		if !f(k, v) {
			return
		}
	}
}
