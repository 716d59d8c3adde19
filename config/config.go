// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the runtime options which affect lowering.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config options.  The zero value is not the default; see Default.
type Config struct {
	// RacyProfiling makes profiling counter decrements non-atomic.  Lost
	// decrements only delay retranslation.
	RacyProfiling bool `toml:"racy_profiling"`

	// FilterLease makes the cold check consult the optimization lease before
	// taking the retranslation path.
	FilterLease bool `toml:"filter_lease"`

	// EnableStats makes IncStat emit code.
	EnableStats bool `toml:"enable_stats"`

	Target Target `toml:"target"`
}

// Target describes the capabilities of the machine which runs the code.
type Target struct {
	// AtomicRMW indicates that a locked memory decrement is a single
	// instruction.  Otherwise it is a support routine call.
	AtomicRMW bool `toml:"atomic_rmw"`
}

func Default() Config {
	return Config{
		FilterLease: true,
		Target:      DetectTarget(),
	}
}

type file struct {
	JIT Config `toml:"jit"`
}

// Load reads a TOML file with a [jit] table.  Unspecified options keep
// their default values.
func Load(path string) (Config, error) {
	f := file{JIT: Default()}

	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return check(path, meta, f.JIT)
}

// Parse is like Load for in-memory text.
func Parse(text string) (Config, error) {
	f := file{JIT: Default()}

	meta, err := toml.Decode(text, &f)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return check("config", meta, f.JIT)
}

func check(path string, meta toml.MetaData, c Config) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return c, nil
}
