// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package rewrite is the shared history-rewrite engine behind restack,
// move, fix-pr, and prep: a temp-worktree lifecycle, a cherry-pick plan
// executor with conflict handling, and an atomic branch swing, adapted from
// internal/ghpr's temp-clone-and-checkout pattern into a real `git worktree`
// lifecycle (spec.md §4.F).
package rewrite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/shell"
)

// Engine runs rewrite operations against the repository the process's
// working directory is already inside.
type Engine struct {
	Runner   *shell.Runner
	TempDir  string
	Conflict config.RestackConflict
}

// New builds an Engine bound to the given runner, temp-directory root, and
// conflict policy.
func New(r *shell.Runner, tempDir string, conflict config.RestackConflict) *Engine {
	return &Engine{Runner: r, TempDir: tempDir, Conflict: conflict}
}

func (e *Engine) shortHead(ctx context.Context) (string, error) {
	out, err := e.Runner.GitRO(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("could not resolve HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (e *Engine) names(kind, short string) (branch, path string) {
	branch = fmt.Sprintf("spr/tmp-%s-%s", kind, short)
	path = filepath.Join(e.TempDir, fmt.Sprintf("spr-%s-%s", kind, short))
	return branch, path
}

// worktreeEntry is one block parsed from `git worktree list --porcelain`.
type worktreeEntry struct {
	path   string
	branch string
}

func parseWorktreeList(out string) []worktreeEntry {
	var entries []worktreeEntry
	var cur worktreeEntry
	flush := func() {
		if cur.path != "" {
			entries = append(entries, cur)
		}
		cur = worktreeEntry{}
	}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			cur.branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "":
			flush()
		}
	}
	flush()
	return entries
}

// prepareWorktree implements spec.md §4.F's "before creating" cleanup
// sequence, then creates the worktree with `-B` so a prior interrupted
// dry-run never leaves stale state behind.
func (e *Engine) prepareWorktree(ctx context.Context, kind, startPoint string, dry bool) (branch, path string, err error) {
	short, err := e.shortHead(ctx)
	if err != nil {
		return "", "", err
	}
	branch, path = e.names(kind, short)

	listOut, err := e.Runner.GitRO(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return "", "", fmt.Errorf("could not list worktrees: %w", err)
	}
	entries := parseWorktreeList(listOut)

	for _, wt := range entries {
		if wt.branch == branch {
			if _, err := e.Runner.GitRW(ctx, dry, "worktree", "remove", "-f", wt.path); err != nil {
				logging.G(ctx).WithField("path", wt.path).WithError(err).Warn("could not remove stale worktree holding temp branch")
			}
		}
	}
	for _, wt := range entries {
		if wt.path == path {
			if _, err := e.Runner.GitRW(ctx, dry, "worktree", "remove", "-f", path); err != nil {
				logging.G(ctx).WithField("path", path).WithError(err).Warn("could not remove worktree registered at temp path")
			}
		}
	}
	if _, err := e.Runner.GitRW(ctx, dry, "worktree", "prune"); err != nil {
		logging.G(ctx).WithError(err).Debug("worktree prune failed")
	}

	if _, err := e.Runner.GitRW(ctx, dry, "worktree", "add", "-f", "-B", branch, path, startPoint); err != nil {
		return "", "", fmt.Errorf("could not create temp worktree: %w", err)
	}

	return branch, path, nil
}

// teardownWorktree removes the temp worktree and its branch. Errors are
// logged, never surfaced: cleanup never overrides the primary outcome.
func (e *Engine) teardownWorktree(ctx context.Context, branch, path string, dry bool) {
	if _, err := e.Runner.GitRW(ctx, dry, "worktree", "remove", "-f", path); err != nil {
		logging.G(ctx).WithField("path", path).WithError(err).Warn("could not remove temp worktree")
	}
	if _, err := e.Runner.GitRW(ctx, dry, "branch", "-D", branch); err != nil {
		logging.G(ctx).WithField("branch", branch).WithError(err).Warn("could not delete temp branch")
	}
}

// backupBranch creates/overwrites a recovery branch pointing at curBranch's
// current tip. It exists for user recovery only; the tool never reads it
// back.
func (e *Engine) backupBranch(ctx context.Context, kind, curBranch, short string, dry bool) error {
	name := fmt.Sprintf("backup/%s/%s-%s", kind, curBranch, short)
	if _, err := e.Runner.GitRW(ctx, dry, "branch", "-f", name, curBranch); err != nil {
		return fmt.Errorf("could not create backup branch %s: %w", name, err)
	}
	return nil
}
