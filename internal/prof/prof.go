// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prof lays out the counters of profiling translations.  A counter
// starts at the retranslation threshold and is decremented on each entry.
package prof

import (
	"fmt"
	"sync"
)

// CounterSize is the size of one counter.
const CounterSize = 8

// Counters is a fixed-size table of 64-bit counters at an absolute address.
type Counters struct {
	Base  uint64
	Limit uint32 // Number of counters.

	mu   sync.Mutex
	used map[uint32]struct{}
}

// CounterAddr returns the address of a translation's counter.
func (c *Counters) CounterAddr(transID uint32) uint64 {
	if transID >= c.Limit {
		panic(fmt.Errorf("profiling translation id out of range: %d", transID))
	}

	c.mu.Lock()
	if c.used == nil {
		c.used = make(map[uint32]struct{})
	}
	c.used[transID] = struct{}{}
	c.mu.Unlock()

	return c.Base + uint64(transID)*CounterSize
}

// Used reports if code has referenced the translation's counter.
func (c *Counters) Used(transID uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, found := c.used[transID]
	return found
}

// Size of the table in bytes.
func (c *Counters) Size() int {
	return int(c.Limit) * CounterSize
}
