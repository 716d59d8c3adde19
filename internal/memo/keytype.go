// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memo describes the runtime's memoization caches: the key types
// which accessors can be specialized on, the dispatch tables of specialized
// accessors, and the generic fallback descriptors.
//
// Keys are frame locals.  Accessors receive the address of the last key
// local, which has the lowest address; key number i of n (counting from the
// first local) is located at keys + (n-1-i)*TVSize.
package memo

import (
	"fmt"
	"strings"
)

// KeyType is the statically known type of a key.
type KeyType uint8

const (
	Any = KeyType(iota) // Any int or string; tag must be checked.
	Int
	Str
)

func (t KeyType) String() string {
	switch t {
	case Any:
		return "Any"

	case Int:
		return "Int"

	case Str:
		return "Str"

	default:
		return "<invalid key type>"
	}
}

// Valid reports if t is one of the defined key types.
func (t KeyType) Valid() bool {
	return t <= Str
}

func (t KeyType) letter() byte {
	return "AIS"[t]
}

func ParseKeyType(s string) (KeyType, error) {
	switch s {
	case "Any":
		return Any, nil

	case "Int":
		return Int, nil

	case "Str":
		return Str, nil

	default:
		return 0, fmt.Errorf("unknown memo key type: %q", s)
	}
}

// Signature is the compact form of a key type list, e.g. "IS".
func Signature(types []KeyType) string {
	var b strings.Builder
	for _, t := range types {
		b.WriteByte(t.letter())
	}
	return b.String()
}

// ParseSignature is the inverse of Signature.
func ParseSignature(sig string) (types []KeyType, err error) {
	for i := 0; i < len(sig); i++ {
		switch sig[i] {
		case 'A':
			types = append(types, Any)
		case 'I':
			types = append(types, Int)
		case 'S':
			types = append(types, Str)
		default:
			err = fmt.Errorf("invalid memo key signature: %q", sig)
			return
		}
	}
	return
}
