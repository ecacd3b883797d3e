// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package land implements the `land` command: CI/review safety gating, the
// PerPr one-commit-per-PR check, and the single aliased GraphQL mutation
// that resets the landing PR's base, merges it, and closes/comments on
// every PR beneath it in the segment, per spec.md §4.I.
package land

import (
	"context"
	"fmt"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/shell"
	"github.com/unikraft/sprctl/internal/stack/parser"
	"github.com/unikraft/sprctl/internal/stack/rewrite"
)

// Options configures a Land call.
type Options struct {
	// N is the number of groups (bottom-up) to land; 0 means all.
	N int
	// Mode selects Flatten (SQUASH) or PerPr (REBASE).
	Mode config.LandMode
	// BypassSafety lands even when CI/review gates are not green, per
	// spec.md §4.I's bypass_safety ("--unsafe").
	BypassSafety bool
	// NoRestack skips the post-land restack of the remaining groups.
	NoRestack bool
	Dry       bool
}

// Result reports what Land did, for the command layer to render.
type Result struct {
	Landed    []string // branch names, bottom-up, that were merged/closed
	LandingPR int
	Restacked bool
}

// Land resolves the first N groups to their open PRs, gates on CI/review
// status, validates PerPr's one-commit-per-PR invariant, issues the single
// aliased merge mutation, and optionally restacks what remains, per
// spec.md §4.I.
func Land(ctx context.Context, r *shell.Runner, p *provider.Client, engine *rewrite.Engine, leadingIgnored []string, groups []*parser.Group, cfg config.Config, opts Options) (*Result, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("nothing to land: no PR groups found")
	}

	n := opts.N
	if n == 0 || n > len(groups) {
		n = len(groups)
	}
	segment := groups[:n]

	branches := make([]string, len(segment))
	for i, g := range segment {
		branches[i] = g.BranchName(cfg.Prefix)
	}

	prs, err := p.ListOpenPRsForHeads(ctx, branches)
	if err != nil {
		return nil, fmt.Errorf("could not resolve PRs for landing segment: %w", err)
	}
	byBranch := map[string]provider.PrInfo{}
	for _, pr := range prs {
		byBranch[pr.Head] = pr
	}

	entries := make([]provider.PrInfo, len(segment))
	numbers := make([]int, len(segment))
	for i, branch := range branches {
		info, ok := byBranch[branch]
		if !ok {
			return nil, fmt.Errorf("group %q has no open PR; run `update` first", segment[i].Tag)
		}
		entries[i] = info
		numbers[i] = info.Number
	}

	if err := gateSafety(ctx, p, numbers, opts.BypassSafety); err != nil {
		return nil, err
	}

	if opts.Mode == config.PerPr {
		if err := validateOneCommitPerPR(ctx, r, cfg, segment); err != nil {
			return nil, err
		}
	}

	landing := provider.MergeSegmentEntry{NodeID: entries[len(entries)-1].ID, Number: entries[len(entries)-1].Number}
	var preceding []provider.MergeSegmentEntry
	for _, e := range entries[:len(entries)-1] {
		preceding = append(preceding, provider.MergeSegmentEntry{NodeID: e.ID, Number: e.Number})
	}

	method := provider.SquashMerge
	if opts.Mode == config.PerPr {
		method = provider.RebaseMerge
	}

	if err := p.MergeStack(ctx, cfg.Base, landing, method, preceding, opts.Dry); err != nil {
		return nil, err
	}

	res := &Result{Landed: branches, LandingPR: landing.Number}

	if !opts.NoRestack && engine != nil {
		if _, err := r.GitRW(ctx, opts.Dry, "fetch", "origin", cfg.Base); err != nil {
			logging.G(ctx).WithError(err).Warn("could not fetch the updated base after landing; skipping restack")
			return res, nil
		}
		freshBase := gitutil.ToRemoteRef(cfg.Base)
		if err := engine.RestackAfter(ctx, freshBase, leadingIgnored, groups, n, opts.Dry); err != nil {
			return res, fmt.Errorf("landed successfully but restack failed: %w", err)
		}
		res.Restacked = true
	}

	return res, nil
}

// gateSafety refuses to land unless every PR's CI state is SUCCESS and
// review decision is APPROVED, unless bypassSafety is set, in which case it
// warns and proceeds, per spec.md §4.I.
func gateSafety(ctx context.Context, p *provider.Client, numbers []int, bypassSafety bool) error {
	statuses, err := p.FetchCIReviewStatus(ctx, numbers)
	if err != nil {
		return fmt.Errorf("could not fetch CI/review status: %w", err)
	}

	problems := safetyProblems(numbers, statuses)
	if len(problems) == 0 {
		return nil
	}

	if !bypassSafety {
		return fmt.Errorf("refusing to land: %v (use --unsafe to override)", problems)
	}

	logging.G(ctx).WithField("problems", problems).Warn("landing despite failing safety gates (--unsafe)")
	return nil
}

// safetyProblems reports every numbered PR that fails the CI-success/
// review-approved gate, in order.
func safetyProblems(numbers []int, statuses map[int]provider.CiReviewStatus) []string {
	var problems []string
	for _, n := range numbers {
		st, ok := statuses[n]
		if !ok {
			problems = append(problems, fmt.Sprintf("PR #%d: no status available", n))
			continue
		}
		if st.CIState != "SUCCESS" {
			problems = append(problems, fmt.Sprintf("PR #%d: CI state is %s", n, st.CIState))
		}
		if st.ReviewDecision != "APPROVED" {
			problems = append(problems, fmt.Sprintf("PR #%d: review decision is %s", n, st.ReviewDecision))
		}
	}
	return problems
}

// validateOneCommitPerPR requires every PerPr-mode PR in the segment to
// carry exactly one commit over its base, via `git rev-list --count`, per
// spec.md §4.I.
func validateOneCommitPerPR(ctx context.Context, r *shell.Runner, cfg config.Config, segment []*parser.Group) error {
	prevBase := gitutil.ToRemoteRef(cfg.Base)
	for _, g := range segment {
		head := gitutil.ToRemoteRef(g.BranchName(cfg.Prefix))
		count, err := gitutil.CountCommits(ctx, r, prevBase, head)
		if err != nil {
			return err
		}
		if count != 1 {
			return fmt.Errorf("group %q carries %d commits over its parent; per-pr landing requires exactly one, run `prep` first", g.Tag, count)
		}
		prevBase = head
	}
	return nil
}
