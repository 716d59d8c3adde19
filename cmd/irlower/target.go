// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"gate.computer/irlower/config"
	"github.com/spf13/cobra"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Show the capabilities detected for this machine and the effective options",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "detected:       %s\n", config.DetectTarget())
		fmt.Fprintf(w, "target:         %s\n", conf.Target)
		fmt.Fprintf(w, "racy_profiling: %t\n", conf.RacyProfiling)
		fmt.Fprintf(w, "filter_lease:   %t\n", conf.FilterLease)
		fmt.Fprintf(w, "enable_stats:   %t\n", conf.EnableStats)
		return nil
	},
}
