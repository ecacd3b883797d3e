// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/shell"
	"github.com/unikraft/sprctl/internal/stack/limit"
	"github.com/unikraft/sprctl/internal/stack/parser"
	"github.com/unikraft/sprctl/internal/stack/rewrite"
)

// spinnerInterval is the frame rate for the progress spinner wrapped
// around batched pushes and GraphQL mutations, per spec.md §5.
const spinnerInterval = 100 * time.Millisecond

// globalFlags holds the persistent flags every subcommand shares, bound
// directly with pflag rather than through a reflection layer (see
// DESIGN.md).
type globalFlags struct {
	verbose     bool
	base        string
	prefix      string
	dryRun      bool
	until       int
	exact       int
	githubToken string
	endpoint    string
}

func addGlobalFlags(cmd *cobra.Command, gf *globalFlags) {
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&gf.verbose, "verbose", "v", false, "enable verbose command logging")
	flags.StringVar(&gf.base, "base", "", "base branch the stack is built on (default: origin/HEAD)")
	flags.StringVar(&gf.prefix, "prefix", "", "branch name prefix for stack branches (default: from config)")
	flags.BoolVar(&gf.dryRun, "dry-run", false, "print what would be done without touching the remote")
	flags.IntVar(&gf.until, "until", 0, "limit to the first N PRs (bottom-up)")
	flags.IntVar(&gf.exact, "exact", 0, "operate on exactly the Nth group, 1-based bottom-up (used by prep)")
	flags.StringVar(&gf.githubToken, "github-token", os.Getenv("GITHUB_TOKEN"), "GitHub access token (default: $GITHUB_TOKEN)")
	flags.StringVar(&gf.endpoint, "github-endpoint", "", "GitHub Enterprise base URL, empty for github.com")
}

// app bundles the resolved config, shell runner, and parsed stack state
// every subcommand needs. Built once per invocation by newApp.
type app struct {
	cfg      config.Config
	runner   *shell.Runner
	repoRoot string

	leadingIgnored []string
	groups         []*parser.Group
}

// newApp resolves the repo root, merges config-file + flag overrides, and
// parses the commit stream into groups, applying --until if given.
func newApp(ctx context.Context, gf *globalFlags) (*app, error) {
	bootstrapRunner := shell.NewRunner(shell.ExecutionContext{Verbose: gf.verbose})

	repoRoot, err := gitutil.RepoRoot(ctx, bootstrapRunner)
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = gf.verbose
	cfg.DryRun = gf.dryRun
	cfg.GithubToken = gf.githubToken
	cfg.GithubEndpoint = gf.endpoint
	if gf.base != "" {
		cfg.Base = gf.base
	}
	if gf.prefix != "" {
		cfg.Prefix = gf.prefix
	}
	cfg.TempDir = os.TempDir()

	runner := shell.NewRunner(shell.ExecutionContext{Verbose: cfg.Verbose, TempDirPrefix: cfg.TempDir})

	if cfg.Base == "" {
		base, err := gitutil.DiscoverOriginHeadBase(ctx, runner)
		if err != nil {
			return nil, err
		}
		cfg.Base = base
	}

	a := &app{cfg: cfg, runner: runner, repoRoot: repoRoot}

	if err := a.parseStack(ctx, gf); err != nil {
		return nil, err
	}

	return a, nil
}

// parseStack reads the commit range base..HEAD and applies --until.
func (a *app) parseStack(ctx context.Context, gf *globalFlags) error {
	raw, err := a.runner.GitRO(ctx, "log", gitutil.ToRemoteRef(a.cfg.Base)+"..HEAD",
		"--format=%H\x00%B\x1e", "--reverse")
	if err != nil {
		return fmt.Errorf("could not read commit range: %w", err)
	}

	leadingIgnored, groups, err := parser.ParseRecords(ctx, raw, a.cfg.IgnoreTag)
	if err != nil {
		return fmt.Errorf("could not parse commit stack: %w", err)
	}

	// --exact is prep's per-group selector, not a scope truncation, so only
	// --until (first N groups, bottom-up) narrows the parsed group list here;
	// prep reads --exact directly off gf and declares its own --until.
	var lim *limit.Limit
	if gf.until > 0 {
		lim = &limit.Limit{Kind: limit.ByPr, N: gf.until}
	}
	groups = limit.Apply(groups, lim)

	a.leadingIgnored = leadingIgnored
	a.groups = groups
	return nil
}

// provider builds the Client for the current app, resolving owner/repo
// from the origin remote.
func (a *app) provider(ctx context.Context) (*provider.Client, error) {
	if a.cfg.GithubToken == "" {
		return nil, fmt.Errorf("no GitHub token available (set --github-token or $GITHUB_TOKEN)")
	}
	owner, repo, err := gitutil.OriginOwnerRepo(ctx, a.runner)
	if err != nil {
		return nil, err
	}
	return provider.NewClient(ctx, a.cfg.GithubToken, a.cfg.GithubEndpoint, owner, repo)
}

// engine builds the rewrite Engine for the current app.
func (a *app) engine() *rewrite.Engine {
	return rewrite.New(a.runner, a.cfg.TempDir, a.cfg.RestackConflict)
}
