// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"context"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/stack/reconciler"
	"github.com/unikraft/sprctl/internal/stack/statusview"
)

// resolveStatusEntries looks up each group's PR (open or merged), then
// layers CI/review status on top of the open ones, shared by `list pr` and
// `status`. Display order honors cfg.ListOrder, matching the reconciler's
// own Step 7 ordering.
func resolveStatusEntries(ctx context.Context, p *provider.Client, a *app) ([]statusview.Entry, error) {
	branches := make([]string, len(a.groups))
	for i, g := range a.groups {
		branches[i] = g.BranchName(a.cfg.Prefix)
	}

	prs, err := p.ListOpenOrMergedPRsForHeads(ctx, branches)
	if err != nil {
		return nil, err
	}
	byBranch := map[string]provider.PrInfoWithState{}
	for _, pr := range prs {
		byBranch[pr.Head] = pr
	}

	var entries []reconciler.Entry
	merged := map[int]bool{}
	var openNumbers []int
	for _, g := range a.groups {
		branch := g.BranchName(a.cfg.Prefix)
		pr, ok := byBranch[branch]
		if !ok {
			continue
		}
		entries = append(entries, reconciler.Entry{Number: pr.Number, Branch: branch, URL: p.PRURL(pr.Number), Title: g.PrTitle()})
		if pr.State == provider.Merged {
			merged[pr.Number] = true
		} else {
			openNumbers = append(openNumbers, pr.Number)
		}
	}

	statuses, err := p.FetchCIReviewStatus(ctx, openNumbers)
	if err != nil {
		return nil, err
	}

	result := statusview.BuildEntries(entries, merged, statuses)
	if a.cfg.ListOrder == config.RecentOnTop {
		reverseStatusEntries(result)
	}
	return result, nil
}

func reverseStatusEntries(entries []statusview.Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
