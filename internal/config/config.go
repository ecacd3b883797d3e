// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package config loads sprctl's YAML configuration, merging a home-level
// file with a repo-level file field-by-field, per spec.md §4.H.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// PrDescriptionMode controls how the reconciler rewrites a PR's body.
type PrDescriptionMode string

const (
	// Overwrite replaces the whole body with pr_body_base() + stack block.
	Overwrite PrDescriptionMode = "overwrite"
	// StackOnly replaces only the sentinel-delimited region.
	StackOnly PrDescriptionMode = "stackonly"
)

// ListOrder controls display order only; local PR numbering stays bottom-up.
type ListOrder string

// RecentOnTop reverses display order; local numbering remains bottom-up.
const RecentOnTop ListOrder = "recent-on-top"

// RestackConflict selects the rewrite engine's conflict-handling policy.
type RestackConflict string

const (
	Rollback RestackConflict = "rollback"
	Halt     RestackConflict = "halt"
)

// LandMode is the default landing mode.
type LandMode string

const (
	Flatten LandMode = "flatten"
	PerPr   LandMode = "per-pr"
)

// fileConfig is the on-disk YAML shape; every field is a pointer so a file
// that doesn't set it doesn't clobber a value set by an earlier layer.
type fileConfig struct {
	Base              *string `yaml:"base"`
	Prefix            *string `yaml:"prefix"`
	Land              *string `yaml:"land"`
	IgnoreTag         *string `yaml:"ignore_tag"`
	PrDescriptionMode *string `yaml:"pr_description_mode"`
	ListOrder         *string `yaml:"list_order"`
	RestackConflict   *string `yaml:"restack_conflict"`
}

// Config is the fully-resolved, in-memory configuration used by every
// command. GithubToken/GithubUser/GithubEndpoint/DryRun/Verbose are supplied
// by the CLI layer (flags/environment), not the YAML file, matching the
// teacher's config.Config which mixes YAML-able and flag-only fields in one
// struct.
type Config struct {
	Base              string
	Prefix            string
	Land              LandMode
	IgnoreTag         string
	PrDescriptionMode PrDescriptionMode
	ListOrder         ListOrder
	RestackConflict   RestackConflict

	GithubUser     string
	GithubToken    string
	GithubEndpoint string
	GithubSkipSSL  bool
	Verbose        bool
	DryRun         bool
	TempDir        string
}

// Defaults returns the configuration before any file or flag has been
// applied, per spec.md §4.H's default column.
func Defaults() Config {
	prefix := os.Getenv("USER")
	if prefix == "" {
		prefix = "user"
	}

	return Config{
		Prefix:            prefix + "-spr/",
		Land:              Flatten,
		IgnoreTag:         "ignore",
		PrDescriptionMode: Overwrite,
		ListOrder:         RecentOnTop,
		RestackConflict:   Rollback,
	}
}

// Load merges $HOME/.spr_multicommit_cfg.yml then
// <repoRoot>/.spr_multicommit_cfg.yml over the defaults, field by field.
// repoRoot may be empty if it could not be resolved yet (e.g. before a
// repository context is available); the repo-level file is simply skipped
// in that case.
func Load(repoRoot string) (Config, error) {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		if err := applyFile(&cfg, filepath.Join(home, ".spr_multicommit_cfg.yml")); err != nil {
			return cfg, err
		}
	}

	if repoRoot != "" {
		if err := applyFile(&cfg, filepath.Join(repoRoot, ".spr_multicommit_cfg.yml")); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if fc.Base != nil {
		cfg.Base = *fc.Base
	}
	if fc.Prefix != nil {
		cfg.Prefix = normalizePrefix(*fc.Prefix)
	}
	if fc.Land != nil {
		cfg.Land = parseLandMode(*fc.Land)
	}
	if fc.IgnoreTag != nil {
		tag := *fc.IgnoreTag
		if tag == "" {
			tag = "ignore"
		}
		cfg.IgnoreTag = tag
	}
	if fc.PrDescriptionMode != nil {
		if strings.EqualFold(*fc.PrDescriptionMode, "stackonly") {
			cfg.PrDescriptionMode = StackOnly
		} else {
			cfg.PrDescriptionMode = Overwrite
		}
	}
	if fc.ListOrder != nil {
		cfg.ListOrder = ListOrder(*fc.ListOrder)
	}
	if fc.RestackConflict != nil {
		if strings.EqualFold(*fc.RestackConflict, "halt") {
			cfg.RestackConflict = Halt
		} else {
			cfg.RestackConflict = Rollback
		}
	}

	return nil
}

// normalizePrefix ensures the branch prefix carries exactly one trailing
// slash, per spec.md §4.H.
func normalizePrefix(p string) string {
	return strings.TrimRight(p, "/") + "/"
}

// parseLandMode maps the configured string to a LandMode; "per-pr",
// "perpr", and "per_pr" all map to PerPr, anything else to Flatten.
func parseLandMode(s string) LandMode {
	switch strings.ToLower(s) {
	case "per-pr", "perpr", "per_pr":
		return PerPr
	default:
		return Flatten
	}
}
