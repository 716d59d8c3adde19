// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build debug || gendebug

package debug

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

const Enabled = true

var mu sync.Mutex

// Log indents the output of one lowering goroutine.  Independent units may be
// lowered concurrently; their output interleaves line by line.
type Log struct {
	Depth int
}

func (l *Log) Printf(format string, args ...interface{}) {
	if l.Depth < 0 {
		panic("negative debug depth")
	}
	write(strings.Repeat("  ", l.Depth) + fmt.Sprintf(format, args...) + "\n")
}

func Printf(format string, args ...interface{}) {
	write(fmt.Sprintf(format, args...) + "\n")
}

func write(line string) {
	mu.Lock()
	defer mu.Unlock()
	os.Stderr.WriteString(line)
}
