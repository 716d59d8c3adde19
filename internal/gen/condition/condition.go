// Copyright (c) 2016 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package condition enumerates integer flag conditions.
package condition

type C int

const (
	Eq = C(iota)
	Ne
	GeS
	GtS
	GeU
	GtU
	LeS
	LtS
	LeU
	LtU

	NumConditions
)

// Flag test results are expressed with Eq and Ne.
const (
	Zero    = Eq
	NonZero = Ne
)

var Inverted = [NumConditions]C{
	Eq:  Ne,
	Ne:  Eq,
	GeS: LtS,
	GtS: LeS,
	GeU: LtU,
	GtU: LeU,
	LeS: GtS,
	LtS: GeS,
	LeU: GtU,
	LtU: GeU,
}

var mnemonics = [NumConditions]string{
	Eq:  "e",
	Ne:  "ne",
	GeS: "ge",
	GtS: "g",
	GeU: "ae",
	GtU: "a",
	LeS: "le",
	LtS: "l",
	LeU: "be",
	LtU: "b",
}

// Mnemonic is the conventional short name, as in jcc mnemonics.
func (c C) Mnemonic() string {
	if i := int(c); i >= 0 && i < len(mnemonics) {
		return mnemonics[i]
	}
	return "?"
}

var strings = [NumConditions]string{
	Eq:  "equal",
	Ne:  "not-equal",
	GeS: "signed greater-or-equal",
	GtS: "signed greater",
	GeU: "unsigned greater-or-equal",
	GtU: "unsigned greater",
	LeS: "signed less-or-equal",
	LtS: "signed less",
	LeU: "unsigned less-or-equal",
	LtU: "unsigned less",
}

func (c C) String() string {
	if i := int(c); i >= 0 && i < len(strings) {
		return strings[i]
	} else {
		return "<invalid condition>"
	}
}

// Eval decides the condition for the result of a subtraction or a test.  cmp
// is the signed comparison of the operands (or of the tested value against
// zero) and ucmp the unsigned one.
func (c C) Eval(cmp, ucmp int) bool {
	switch c {
	case Eq:
		return cmp == 0
	case Ne:
		return cmp != 0
	case GeS:
		return cmp >= 0
	case GtS:
		return cmp > 0
	case LeS:
		return cmp <= 0
	case LtS:
		return cmp < 0
	case GeU:
		return ucmp >= 0
	case GtU:
		return ucmp > 0
	case LeU:
		return ucmp <= 0
	case LtU:
		return ucmp < 0
	default:
		panic(c)
	}
}
