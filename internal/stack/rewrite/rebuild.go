// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/logging"
)

// Rebuild replays ops against a fresh temp worktree rooted at startPoint,
// then swings curBranch to the result, per spec.md §4.F. kind names the
// operation for worktree/backup naming ("restack", "move", "fix-pr",
// "prep").
func (e *Engine) Rebuild(ctx context.Context, kind, curBranch, startPoint string, ops []CherryPickOp, dry bool) error {
	short, err := e.shortHead(ctx)
	if err != nil {
		return err
	}
	if err := e.backupBranch(ctx, kind, curBranch, short, dry); err != nil {
		return err
	}

	branch, path, err := e.prepareWorktree(ctx, kind, startPoint, dry)
	if err != nil {
		return err
	}

	for _, op := range ops {
		if _, err := e.Runner.GitRW(ctx, dry, "-C", path, "cherry-pick", op.Arg()); err != nil {
			return e.handleConflict(ctx, kind, branch, path, curBranch, op, err, dry)
		}
	}

	tipOut, err := e.Runner.GitRO(ctx, "-C", path, "rev-parse", "HEAD")
	if err != nil {
		e.teardownWorktree(ctx, branch, path, dry)
		return fmt.Errorf("could not resolve rebuilt tip: %w", err)
	}
	tip := strings.TrimSpace(tipOut)

	if _, err := e.Runner.GitRW(ctx, dry, "reset", "--hard", tip); err != nil {
		e.teardownWorktree(ctx, branch, path, dry)
		return fmt.Errorf("could not swing %s to rebuilt tip: %w", curBranch, err)
	}

	e.teardownWorktree(ctx, branch, path, dry)
	return nil
}

func (e *Engine) handleConflict(ctx context.Context, kind, tmpBranch, tmpPath, curBranch string, op CherryPickOp, cause error, dry bool) error {
	if e.Conflict == config.Halt {
		logging.G(ctx).
			WithField("worktree", tmpPath).
			WithField("branch", tmpBranch).
			Error("cherry-pick failed; leaving temp worktree in place for manual recovery")
		logging.G(ctx).Infof("recovery: git -C %s cherry-pick --abort && git worktree remove -f %s && git branch -D %s && git -C . reset --hard backup/%s/%s-*", tmpPath, tmpPath, tmpBranch, kind, curBranch)
		logging.G(ctx).Infof("to continue manually: resolve conflicts in %s, then `git -C %s cherry-pick --continue`, replay any remaining operations, then `git reset --hard %s` here and clean up the worktree/branch yourself", tmpPath, tmpPath, tmpBranch)
		return fmt.Errorf("%s halted on conflict at %s: %w", kind, op.Arg(), cause)
	}

	if _, err := e.Runner.GitRW(ctx, dry, "-C", tmpPath, "cherry-pick", "--abort"); err != nil {
		logging.G(ctx).WithError(err).Debug("cherry-pick --abort failed (no cherry-pick in progress, or dry-run)")
	}
	e.teardownWorktree(ctx, tmpBranch, tmpPath, dry)
	return fmt.Errorf("%s rolled back after conflict at %s: %w", kind, op.Arg(), cause)
}
