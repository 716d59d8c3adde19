// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vasm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Listing is the printable form of a unit.
type Listing struct {
	Name   string         `msgpack:"name"`
	Entry  int32          `msgpack:"entry"`
	Blocks []ListingBlock `msgpack:"blocks"`
}

type ListingBlock struct {
	Label int32    `msgpack:"label"`
	Area  string   `msgpack:"area"`
	Code  []string `msgpack:"code"`
}

func (u *Unit) Listing(name string) Listing {
	l := Listing{
		Name:  name,
		Entry: int32(u.Entry),
	}

	// Main area first, then cold.
	for area := Main; area < NumAreas; area++ {
		for _, b := range u.Blocks {
			if b.Area != area {
				continue
			}

			lb := ListingBlock{
				Label: int32(b.Label),
				Area:  b.Area.String(),
			}
			for _, i := range b.Code {
				lb.Code = append(lb.Code, i.String())
			}
			l.Blocks = append(l.Blocks, lb)
		}
	}

	return l
}

// Print the listing as text.  The decorate callbacks may be nil.
func (l Listing) Print(w io.Writer, label, instr func(string) string) error {
	if label == nil {
		label = plain
	}
	if instr == nil {
		instr = plain
	}

	bw := bufio.NewWriter(w)

	if l.Name != "" {
		fmt.Fprintf(bw, "%s:\n", l.Name)
	}

	area := ""
	for _, b := range l.Blocks {
		if b.Area != area {
			fmt.Fprintf(bw, "  ; %s\n", b.Area)
			area = b.Area
		}

		fmt.Fprintf(bw, "  %s:\n", label(Label(b.Label).String()))
		for _, s := range b.Code {
			fmt.Fprintf(bw, "    %s\n", instr(s))
		}
	}

	return bw.Flush()
}

func plain(s string) string { return s }

// Encode the listing in MessagePack format.
func (l Listing) Encode(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(&l)
}

// DecodeListing reads a listing encoded by Encode.
func DecodeListing(r io.Reader) (l Listing, err error) {
	err = msgpack.NewDecoder(r).Decode(&l)
	return
}
