// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package irlower

import (
	"context"
	"runtime"

	"gate.computer/irlower/ir"
	"golang.org/x/sync/errgroup"
)

// UnitResult pairs a unit's lowering result with its error.  A failed unit
// does not affect the others.
type UnitResult struct {
	Result *Result
	Err    error
}

// LowerUnits lowers independent units concurrently.  Jobs limits the
// parallelism; zero or less means GOMAXPROCS.  The returned error is non-nil
// only if the context was canceled.
func LowerUnits(ctx context.Context, units []*ir.Unit, r *Runtime, regBudget, jobs int) ([]UnitResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]UnitResult, len(units))
	if len(units) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))

	for i, u := range units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := Lower(u, r, regBudget)
			results[i] = UnitResult{res, err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}
