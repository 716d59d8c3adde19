// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"gate.computer/irlower/internal/vasm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show file",
	Short: "Print listings written by lower -o",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	// Successive decoders must not buffer past their listing.
	r := bufio.NewReader(f)

	for n := 0; ; n++ {
		l, err := vasm.DecodeListing(r)
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				return nil
			}
			return fmt.Errorf("%s: listing %d: %w", args[0], n, err)
		}

		if err := printListing(cmd.OutOrStdout(), l); err != nil {
			return err
		}
	}
}
