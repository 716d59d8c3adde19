// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

// Storage is the kind of physical storage assigned to an IR value.
type Storage uint8

const (
	None    = Storage(iota) // Value occupies no storage (e.g. Null type).
	Reg                     // Data word in a register, tag implied by type.
	RegPair                 // Data word and type byte in two registers.
	Stack                   // Spilled TypedValue at a native stack offset.
)

func (s Storage) String() string {
	switch s {
	case None:
		return "none"

	case Reg:
		return "register"

	case RegPair:
		return "register pair"

	case Stack:
		return "stack"

	default:
		return "<invalid operand storage type>"
	}
}
