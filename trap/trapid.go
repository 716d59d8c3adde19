// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trap enumerates the reasons for which compiled code may abort.
package trap

import (
	"fmt"
)

type ID int

const (
	Unreachable = ID(iota) // Explicitly unreachable IR region.
	EndOfBlock             // Control fell off the end of a block.
	IncRefBadType          // Reference count increment on an uncounted value.
	Breakpoint

	NumTraps
)

func (id ID) String() string {
	switch id {
	case Unreachable:
		return "unreachable"

	case EndOfBlock:
		return "end of block"

	case IncRefBadType:
		return "incref of uncounted value"

	case Breakpoint:
		return "breakpoint"

	default:
		return fmt.Sprintf("unknown trap %d", id)
	}
}

func (id ID) Error() string {
	return "trap: " + id.String()
}

// Reason is the diagnostic payload of a trap instruction.  Where identifies
// the compiler-side origin of the assertion.
type Reason struct {
	ID    ID
	Where string
}

func (r Reason) String() string {
	if r.Where == "" {
		return r.ID.String()
	}
	return fmt.Sprintf("%s (%s)", r.ID, r.Where)
}

func (r Reason) Error() string {
	return "trap: " + r.String()
}
