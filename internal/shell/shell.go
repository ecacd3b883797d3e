// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package shell is the process-exec shim: it runs git and gh subprocesses on
// behalf of every other component, honoring a request-scoped dry-run policy
// instead of relying on global mutable flags (see spec.md §9's guidance on
// avoiding process-global state for verbose/dry-run).
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/unikraft/sprctl/internal/logging"
)

// ExecutionContext is threaded through every shim call. It replaces the
// teacher's environment-variable globals (GOVERN_DRY_RUN, verbose flags)
// with an explicit, request-scoped value.
type ExecutionContext struct {
	Verbose bool
	// TempDirPrefix is the prefix used to recognize "locally safe" temp
	// paths that may be mutated even during a dry run (see GitRW).
	TempDirPrefix string
}

// Runner executes git/gh subprocesses.
type Runner struct {
	Exec ExecutionContext
}

// NewRunner constructs a Runner bound to the given execution context.
func NewRunner(ec ExecutionContext) *Runner {
	return &Runner{Exec: ec}
}

// Error wraps a non-zero subprocess exit, surfacing stderr verbatim.
type Error struct {
	Argv     []string
	Stderr   string
	Cause    error
	ExitCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", strings.Join(e.Argv, " "), strings.TrimSpace(e.Stderr))
}

func (e *Error) Unwrap() error { return e.Cause }

func formatArgv(argv []string, dryRunElideBody bool) string {
	parts := make([]string, 0, len(argv))
	elideNext := false
	for _, a := range argv {
		if elideNext {
			parts = append(parts, "<elided>")
			elideNext = false
			continue
		}
		if dryRunElideBody && a == "--body" {
			elideNext = true
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func (r *Runner) run(ctx context.Context, name string, argv []string) (string, error) {
	if r.Exec.Verbose {
		logging.G(ctx).WithField("argv", formatArgv(append([]string{name}, argv...), false)).Debug("exec")
	}

	cmd := exec.CommandContext(ctx, name, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", &Error{Argv: append([]string{name}, argv...), Stderr: stderr.String(), Cause: err, ExitCode: exitCode}
	}

	return stdout.String(), nil
}

// isLocallySafe reports whether a read-write invocation is safe to execute
// even under dry-run: anything operating on our own scratch directory, or
// any `git worktree` subcommand (worktree bookkeeping has no effect on
// shared/remote state).
func (r *Runner) isLocallySafe(argv []string) bool {
	for _, a := range argv {
		if r.Exec.TempDirPrefix != "" && strings.Contains(a, r.Exec.TempDirPrefix) {
			return true
		}
	}
	return len(argv) > 0 && argv[0] == "worktree"
}

// GitRO runs a read-only git command and returns its stdout.
func (r *Runner) GitRO(ctx context.Context, argv ...string) (string, error) {
	return r.run(ctx, "git", argv)
}

// GitRW runs a write-capable git command. Under dry-run it logs the
// intended command and returns empty stdout, unless the command is locally
// safe (see isLocallySafe).
func (r *Runner) GitRW(ctx context.Context, dry bool, argv ...string) (string, error) {
	if dry && !r.isLocallySafe(argv) {
		logging.G(ctx).WithField("argv", formatArgv(append([]string{"git"}, argv...), false)).Info("dry-run: would run")
		return "", nil
	}
	return r.run(ctx, "git", argv)
}

// GhRO runs a read-only gh command.
func (r *Runner) GhRO(ctx context.Context, argv ...string) (string, error) {
	return r.run(ctx, "gh", argv)
}

// GhRW runs a write-capable gh command. Under dry-run, --body argument
// values are elided from the log line.
func (r *Runner) GhRW(ctx context.Context, dry bool, argv ...string) (string, error) {
	if dry {
		logging.G(ctx).WithField("argv", formatArgv(append([]string{"gh"}, argv...), true)).Info("dry-run: would run")
		return "", nil
	}
	return r.run(ctx, "gh", argv)
}
