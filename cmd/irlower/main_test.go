// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color=off"}, args...))
	defer func() {
		lowerOutput = ""
		lowerBudget = 0
		lowerJobs = 0
	}()

	err := rootCmd.Execute()
	return out.String() + errOut.String(), err
}

func TestLower(t *testing.T) {
	out, err := execute(t, "lower", "../../testdata/static_cache.toml", "../../testdata/instance_value.toml")
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"lookup:", "Widget::size:", "; main", "; cold", "jcc", "ret"} {
		if !strings.Contains(out, s) {
			t.Errorf("output does not contain %q:\n%s", s, out)
		}
	}
}

func TestLowerOutputAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.msgpack")

	out, err := execute(t, "lower", "-o", path, "../../testdata/static_cache.toml", "../../testdata/instance_value.toml")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("unexpected output:\n%s", out)
	}

	direct, err := execute(t, "lower", "../../testdata/static_cache.toml", "../../testdata/instance_value.toml")
	if err != nil {
		t.Fatal(err)
	}

	shown, err := execute(t, "show", path)
	if err != nil {
		t.Fatal(err)
	}
	if shown != direct {
		t.Errorf("show output differs:\n%s\nexpected:\n%s", shown, direct)
	}
}

func TestLowerMissingFile(t *testing.T) {
	if _, err := execute(t, "lower", "nonexistent.toml"); err == nil {
		t.Error("no error")
	}
}

func TestBadColorMode(t *testing.T) {
	_, err := execute(t, "--color=sometimes", "target")
	if err == nil || !strings.Contains(err.Error(), "unsupported color mode") {
		t.Errorf("error: %v", err)
	}
}

func TestTarget(t *testing.T) {
	out, err := execute(t, "target")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "filter_lease:   true") {
		t.Errorf("output:\n%s", out)
	}
}
