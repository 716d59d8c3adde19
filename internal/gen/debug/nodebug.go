// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !debug && !gendebug

package debug

const Enabled = false

type Log struct {
	Depth int
}

func (*Log) Printf(format string, args ...interface{}) {}

func Printf(format string, args ...interface{}) {}
