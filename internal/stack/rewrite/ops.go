// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package rewrite

import (
	"context"
	"fmt"

	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/stack/parser"
)

// RestackAfter drops the first n groups' commits (presumed already landed),
// keeping their leading/trailing ignored commits, and rebuilds the
// remainder from base, per spec.md §4.F's restack_after.
func (e *Engine) RestackAfter(ctx context.Context, base string, leadingIgnored []string, groups []*parser.Group, n int, dry bool) error {
	curBranch, err := gitutil.CurrentBranch(ctx, e.Runner)
	if err != nil {
		return err
	}

	if n >= len(groups) {
		if _, err := e.Runner.GitRW(ctx, dry, "reset", "--hard", base); err != nil {
			return fmt.Errorf("could not reset %s to %s: %w", curBranch, base, err)
		}
		return nil
	}

	dropped, kept := groups[:n], groups[n:]
	var retained []string
	retained = append(retained, leadingIgnored...)
	for _, g := range dropped {
		retained = append(retained, g.IgnoredAfter...)
	}

	ops := append(opsFromSHAs(retained), buildFullPlan(nil, kept)...)
	return e.Rebuild(ctx, "restack", curBranch, base, ops, dry)
}

// Move reorders the atomic block of groups [a..b] to sit immediately after
// original position c (0 = bottom, len(groups) = top), and rebuilds from
// base, per spec.md §4.F's move(range, after).
func (e *Engine) Move(ctx context.Context, base string, leadingIgnored []string, groups []*parser.Group, a, b, c int, dry bool) error {
	curBranch, err := gitutil.CurrentBranch(ctx, e.Runner)
	if err != nil {
		return err
	}

	order, err := computeMovePermutation(len(groups), a, b, c)
	if err != nil {
		return err
	}
	if isIdentityOrder(order) {
		return nil
	}
	reordered := reorderGroups(groups, order)

	ops := buildFullPlan(leadingIgnored, reordered)
	return e.Rebuild(ctx, "move", curBranch, base, ops, dry)
}

// isIdentityOrder reports whether order is 1, 2, ..., len(order) — the
// no-op move permutation produced when a == b == c, per spec.md §8.
func isIdentityOrder(order []int) bool {
	for i, v := range order {
		if v != i+1 {
			return false
		}
	}
	return true
}

// FixPR moves the top `tail` commits so they become the tail of group n,
// and rebuilds from base, per spec.md §4.F's fix_pr(n, tail).
func (e *Engine) FixPR(ctx context.Context, base string, leadingIgnored []string, groups []*parser.Group, n, tail int, dry bool) error {
	curBranch, err := gitutil.CurrentBranch(ctx, e.Runner)
	if err != nil {
		return err
	}

	ops, err := buildFixPRPlan(leadingIgnored, groups, n, tail)
	if err != nil {
		return err
	}

	return e.Rebuild(ctx, "fix-pr", curBranch, base, ops, dry)
}
