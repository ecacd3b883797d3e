// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	os.Setenv("USER", "alice")
	cfg := Defaults()

	if cfg.Prefix != "alice-spr/" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, "alice-spr/")
	}
	if cfg.Land != Flatten {
		t.Errorf("Land = %q, want %q", cfg.Land, Flatten)
	}
	if cfg.IgnoreTag != "ignore" {
		t.Errorf("IgnoreTag = %q, want %q", cfg.IgnoreTag, "ignore")
	}
	if cfg.PrDescriptionMode != Overwrite {
		t.Errorf("PrDescriptionMode = %q, want %q", cfg.PrDescriptionMode, Overwrite)
	}
	if cfg.RestackConflict != Rollback {
		t.Errorf("RestackConflict = %q, want %q", cfg.RestackConflict, Rollback)
	}
}

func TestLoad_MissingFilesFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Land != Flatten {
		t.Errorf("Land = %q, want default %q", cfg.Land, Flatten)
	}
}

func TestLoad_RepoFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	contents := "base: develop\nprefix: stack\nland: per-pr\nrestack_conflict: halt\n"
	path := filepath.Join(dir, ".spr_multicommit_cfg.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Base != "develop" {
		t.Errorf("Base = %q, want %q", cfg.Base, "develop")
	}
	if cfg.Prefix != "stack/" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, "stack/")
	}
	if cfg.Land != PerPr {
		t.Errorf("Land = %q, want %q", cfg.Land, PerPr)
	}
	if cfg.RestackConflict != Halt {
		t.Errorf("RestackConflict = %q, want %q", cfg.RestackConflict, Halt)
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"stack":  "stack/",
		"stack/": "stack/",
		"a/b//":  "a/b/",
	}
	for in, want := range cases {
		if got := normalizePrefix(in); got != want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLandMode(t *testing.T) {
	cases := map[string]LandMode{
		"per-pr":  PerPr,
		"per_pr":  PerPr,
		"PerPr":   PerPr,
		"flatten": Flatten,
		"":        Flatten,
	}
	for in, want := range cases {
		if got := parseLandMode(in); got != want {
			t.Errorf("parseLandMode(%q) = %q, want %q", in, got, want)
		}
	}
}
