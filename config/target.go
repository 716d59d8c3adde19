// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// DetectTarget describes the host.
func DetectTarget() Target {
	switch runtime.GOARCH {
	case "amd64", "386":
		return Target{AtomicRMW: true}

	case "arm64":
		return Target{AtomicRMW: cpu.ARM64.HasATOMICS}

	default:
		return Target{}
	}
}

func (t Target) String() string {
	if t.AtomicRMW {
		return "atomic-rmw"
	}
	return "no-atomic-rmw"
}
