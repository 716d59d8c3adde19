// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gate.computer/irlower"
	"gate.computer/irlower/internal/unitfile"
	"gate.computer/irlower/internal/vasm"
	"gate.computer/irlower/ir"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	lowerOutput string
	lowerBudget int
	lowerJobs   int
)

var lowerCmd = &cobra.Command{
	Use:   "lower file...",
	Short: "Lower unit description files and print the listings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLower,
}

func init() {
	lowerCmd.Flags().StringVarP(&lowerOutput, "output", "o", "", "write the listings in msgpack format to a file")
	lowerCmd.Flags().IntVar(&lowerBudget, "budget", 0, "number of registers available to values (0 is unlimited)")
	lowerCmd.Flags().IntVar(&lowerJobs, "jobs", 0, "number of units lowered concurrently (0 is GOMAXPROCS)")
}

func runLower(cmd *cobra.Command, args []string) error {
	units := make([]*ir.Unit, len(args))
	for i, path := range args {
		u, err := unitfile.Load(path)
		if err != nil {
			return err
		}
		units[i] = u
	}

	r := irlower.NewRuntime(conf)

	results, err := irlower.LowerUnits(cmd.Context(), units, r, lowerBudget, lowerJobs)
	if err != nil {
		return err
	}

	var (
		listings []vasm.Listing
		failed   int
	)

	for i, res := range results {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[i], color.RedString("%v", res.Err))
			failed++
			continue
		}

		l := res.Result.Code.Listing(units[i].Func.String())
		listings = append(listings, l)

		if lowerOutput == "" {
			if err := printListing(cmd.OutOrStdout(), l); err != nil {
				return err
			}
		}
	}

	if lowerOutput != "" {
		if err := writeListings(lowerOutput, listings); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(units))
	}
	return nil
}

var (
	labelColor  = color.New(color.FgYellow, color.Bold)
	opcodeColor = color.New(color.FgCyan)
)

func printListing(w io.Writer, l vasm.Listing) error {
	label := func(s string) string {
		return labelColor.Sprint(s)
	}

	instr := func(s string) string {
		op, rest, found := strings.Cut(s, " ")
		op = opcodeColor.Sprint(op)
		if found {
			return op + " " + rest
		}
		return op
	}

	return l.Print(w, label, instr)
}

func writeListings(path string, listings []vasm.Listing) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	for _, l := range listings {
		if err = l.Encode(f); err != nil {
			return
		}
	}
	return
}
