// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Program irlower lowers IR unit descriptions to virtual assembly.
package main

import (
	"fmt"
	"os"
	"strings"

	"gate.computer/irlower/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:           "irlower",
	Short:         "IR to virtual assembly lowering",
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRunE: setup,
}

var (
	configPath string
	colorMode  string

	conf config.Config
)

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML file with a [jit] table")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) (err error) {
	switch strings.ToLower(colorMode) {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unsupported color mode %q (must be auto, on or off)", colorMode)
	}

	if configPath != "" {
		conf, err = config.Load(configPath)
	} else {
		conf = config.Default()
	}
	return
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
