// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package cleanup deletes remote stack branches that no longer carry an
// open PR, per spec.md §4.J.
package cleanup

import (
	"context"
	"fmt"
	"sort"

	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/shell"
	"github.com/unikraft/sprctl/utils"
)

// Clean enumerates remote branches carrying prefix, computes the ones with
// no open PR, and deletes them in a single `git push origin --delete`, per
// spec.md §4.J. Returns the deleted branch names, sorted, for display.
func Clean(ctx context.Context, r *shell.Runner, p *provider.Client, prefix string, dry bool) ([]string, error) {
	branches, err := gitutil.ListRemoteBranchesWithPrefix(ctx, r, prefix)
	if err != nil {
		return nil, err
	}
	if len(branches) == 0 {
		return nil, nil
	}

	openPRs, err := p.ListOpenPRsWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("could not list open PRs for cleanup: %w", err)
	}
	open := map[string]bool{}
	for _, pr := range openPRs {
		open[pr.Head] = true
	}

	stale := staleBranches(branches, open)
	if len(stale) == 0 {
		return nil, nil
	}

	argv := append([]string{"push", "origin", "--delete"}, stale...)
	if _, err := r.GitRW(ctx, dry, argv...); err != nil {
		return nil, fmt.Errorf("could not delete stale branches: %w", err)
	}

	return stale, nil
}

// staleBranches is the set of branches with no entry in open, sorted for
// stable display and argv ordering. The set difference itself is
// utils.Difference, the teacher's generic string-slice helper.
func staleBranches(branches []string, open map[string]bool) []string {
	openBranches := make([]string, 0, len(open))
	for b := range open {
		openBranches = append(openBranches, b)
	}

	stale := utils.Difference(branches, openBranches)
	sort.Strings(stale)
	return stale
}
