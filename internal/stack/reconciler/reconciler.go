// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package reconciler implements the `update` pipeline: given parsed groups
// it classifies and executes the branch pushes, upserts PRs, and rewrites
// their bases and stack-block bodies, per spec.md §4.E.
package reconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/shell"
	"github.com/unikraft/sprctl/internal/stack/parser"
)

// PushKind classifies how a group's branch must be updated on the remote.
type PushKind int

const (
	Skip PushKind = iota
	FastForward
	Force
)

func (k PushKind) String() string {
	switch k {
	case Skip:
		return "skip"
	case FastForward:
		return "fast-forward"
	case Force:
		return "force"
	default:
		return "unknown"
	}
}

// Plan is one group's push classification, returned in Result.Plans.
type Plan struct {
	Group     *parser.Group
	Branch    string
	TargetSHA string
	RemoteSHA string
	HasRemote bool
	Kind      PushKind
}

// Entry is one PR in the final emitted list, in display order.
type Entry struct {
	Number int
	Branch string
	URL    string
	Title  string
}

// Result is the outcome of a full reconcile pass.
type Result struct {
	Plans   []Plan
	Entries []Entry
}

const arrowGlyph = "➡"
const emSpace = " "
const stackWarning = "⚠️ *Part of a stack created by [spr-multicommit](https://github.com/mattskl-openai/spr-multicommit). Do not merge manually using the UI - doing so may have unexpected results.*"

// Update runs the full seven-step reconciliation, per spec.md §4.E.
func Update(ctx context.Context, r *shell.Runner, p *provider.Client, groups []*parser.Group, cfg config.Config) (*Result, error) {
	if len(groups) == 0 {
		return &Result{}, nil
	}

	branches := make([]string, len(groups))
	for i, g := range groups {
		branches[i] = g.BranchName(cfg.Prefix)
	}

	// Step 1 — gather state.
	allRefs := append(append([]string{}, branches...), cfg.Base)
	remoteShas, err := gitutil.GetRemoteBranchesSha(ctx, r, allRefs)
	if err != nil {
		return nil, fmt.Errorf("could not gather remote state: %w", err)
	}

	openPRs, err := p.ListOpenPRsForHeads(ctx, branches)
	if err != nil {
		return nil, fmt.Errorf("could not list existing pull requests: %w", err)
	}
	prByHead := map[string]provider.PrInfo{}
	for _, pr := range openPRs {
		prByHead[pr.Head] = pr
	}

	// Step 2 — classify push per group.
	plans := make([]Plan, len(groups))
	for i, g := range groups {
		branch := branches[i]
		target := g.TargetSHA()
		plan := Plan{Group: g, Branch: branch, TargetSHA: target}

		remoteSha, hasRemote := remoteShas[branch]
		plan.RemoteSHA = remoteSha
		plan.HasRemote = hasRemote

		switch {
		case !hasRemote:
			plan.Kind = FastForward
		case remoteSha == target:
			plan.Kind = Skip
		default:
			isAncestor, err := gitutil.GitIsAncestor(ctx, r, remoteSha, target)
			if err != nil {
				return nil, fmt.Errorf("could not classify push for %s: %w", branch, err)
			}
			if isAncestor {
				plan.Kind = FastForward
			} else {
				plan.Kind = Force
			}
		}

		plans[i] = plan
	}

	desiredBase := func(i int) string {
		if i == 0 {
			return cfg.Base
		}
		return branches[i-1]
	}

	// Step 3 — pre-push base normalization.
	if err := normalizeBases(ctx, p, branches, prByHead, remoteShas, desiredBase, cfg.Base, cfg.DryRun); err != nil {
		return nil, err
	}

	// Step 4 — push execution.
	if err := executePush(ctx, r, plans, remoteShas, cfg.DryRun); err != nil {
		return nil, err
	}

	// Step 5 — PR upsert (create only), bottom-up.
	cache := map[string]int{}
	for branch, pr := range prByHead {
		cache[branch] = pr.Number
	}
	numbers := make([]int, len(groups))
	for i, g := range groups {
		branch := branches[i]
		base := desiredBase(i)
		num, err := p.UpsertPRCached(ctx, branch, base, g.PrTitle(), g.PrBody(), cfg.DryRun, cache)
		if err != nil {
			return nil, fmt.Errorf("could not upsert pull request for %s: %w", branch, err)
		}
		numbers[i] = num
	}

	ids, err := resolveNodeIDs(ctx, p, branches, prByHead, cfg.DryRun)
	if err != nil {
		return nil, err
	}

	// Step 6 — final base + body rewrite.
	if err := rewriteBasesAndBodies(ctx, p, groups, branches, numbers, ids, desiredBase, cfg); err != nil {
		return nil, err
	}

	// Step 7 — emit PR list.
	entries := make([]Entry, len(groups))
	for i, g := range groups {
		entries[i] = Entry{Number: numbers[i], Branch: branches[i], URL: p.PRURL(numbers[i]), Title: g.PrTitle()}
	}
	if cfg.ListOrder == config.RecentOnTop {
		reverseEntries(entries)
	}

	for _, e := range entries {
		logging.G(ctx).WithField("pr", e.Number).WithField("title", e.Title).Info(e.URL)
	}

	return &Result{Plans: plans, Entries: entries}, nil
}

// Relink reruns only Update's base handling, without touching pushes, PR
// creation, or body content: Step 3's normalization to the root base, then
// Step 6's rewrite of every existing PR's base to the bottom-up chain. It is
// the subset of Update used by `relink-prs` (aliased as `fix-stack`) to
// repair a stack whose bases have drifted without otherwise re-running a
// full reconcile.
func Relink(ctx context.Context, r *shell.Runner, p *provider.Client, groups []*parser.Group, cfg config.Config) error {
	if len(groups) == 0 {
		return nil
	}

	branches := make([]string, len(groups))
	for i, g := range groups {
		branches[i] = g.BranchName(cfg.Prefix)
	}

	allRefs := append(append([]string{}, branches...), cfg.Base)
	remoteShas, err := gitutil.GetRemoteBranchesSha(ctx, r, allRefs)
	if err != nil {
		return fmt.Errorf("could not gather remote state: %w", err)
	}

	openPRs, err := p.ListOpenPRsForHeads(ctx, branches)
	if err != nil {
		return fmt.Errorf("could not list existing pull requests: %w", err)
	}
	prByHead := map[string]provider.PrInfo{}
	for _, pr := range openPRs {
		prByHead[pr.Head] = pr
	}

	desiredBase := func(i int) string {
		if i == 0 {
			return cfg.Base
		}
		return branches[i-1]
	}

	if err := normalizeBases(ctx, p, branches, prByHead, remoteShas, desiredBase, cfg.Base, cfg.DryRun); err != nil {
		return err
	}

	var updates []provider.BaseUpdate
	for i, branch := range branches {
		if pr, ok := prByHead[branch]; ok {
			updates = append(updates, provider.BaseUpdate{NodeID: pr.ID, Base: desiredBase(i)})
		}
	}
	if err := p.UpdateBases(ctx, updates, cfg.DryRun); err != nil {
		return fmt.Errorf("could not relink PR bases: %w", err)
	}
	return nil
}

func normalizeBases(ctx context.Context, p *provider.Client, branches []string, prByHead map[string]provider.PrInfo, remoteShas map[string]string, desiredBase func(int) string, base string, dry bool) error {
	anyMismatch := false
	for i, branch := range branches {
		if pr, ok := prByHead[branch]; ok && pr.Base != desiredBase(i) {
			anyMismatch = true
			break
		}
	}
	if !anyMismatch {
		return nil
	}

	var updates []provider.BaseUpdate
	for _, branch := range branches {
		pr, ok := prByHead[branch]
		if !ok || pr.Base == base {
			continue
		}
		headSha, hasHead := remoteShas[branch]
		baseSha, hasBase := remoteShas[pr.Base]
		if hasHead && hasBase && headSha == baseSha {
			continue
		}
		updates = append(updates, provider.BaseUpdate{NodeID: pr.ID, Base: base})
	}
	if len(updates) == 0 {
		return nil
	}

	if err := p.UpdateBases(ctx, updates, dry); err != nil {
		return fmt.Errorf("could not normalize PR bases to %s: %w", base, err)
	}
	return nil
}

func executePush(ctx context.Context, r *shell.Runner, plans []Plan, remoteShas map[string]string, dry bool) error {
	var fastForwardRefs []string
	var forceBranches []Plan
	for _, plan := range plans {
		switch plan.Kind {
		case FastForward:
			fastForwardRefs = append(fastForwardRefs, fmt.Sprintf("%s:refs/heads/%s", plan.TargetSHA, plan.Branch))
		case Force:
			forceBranches = append(forceBranches, plan)
		}
	}

	if len(fastForwardRefs) > 0 {
		argv := append([]string{"push", "origin"}, fastForwardRefs...)
		if _, err := r.GitRW(ctx, dry, argv...); err != nil {
			return fmt.Errorf("could not fast-forward push: %w", err)
		}
	}

	if len(forceBranches) > 0 {
		allLeased := true
		for _, plan := range forceBranches {
			if _, ok := remoteShas[plan.Branch]; !ok {
				allLeased = false
				break
			}
		}

		var argv []string
		if allLeased {
			for _, plan := range forceBranches {
				argv = append(argv, fmt.Sprintf("--force-with-lease=refs/heads/%s:%s", plan.Branch, remoteShas[plan.Branch]))
			}
		} else {
			argv = append(argv, "--force-with-lease")
		}
		argv = append(argv, "origin")
		for _, plan := range forceBranches {
			argv = append(argv, fmt.Sprintf("%s:refs/heads/%s", plan.TargetSHA, plan.Branch))
		}

		pushArgv := append([]string{"push"}, argv...)
		if _, err := r.GitRW(ctx, dry, pushArgv...); err != nil {
			return fmt.Errorf("could not force-with-lease push: %w", err)
		}
	}

	return nil
}

// resolveNodeIDs returns branch -> GraphQL node id for every branch,
// re-querying the provider for any branch not already known from Step 1
// (i.e. a PR newly created in Step 5). In dry-run with no prior PR, no real
// PR was created, so a synthetic id is used for the logged-only mutation.
func resolveNodeIDs(ctx context.Context, p *provider.Client, branches []string, prByHead map[string]provider.PrInfo, dry bool) (map[string]string, error) {
	ids := map[string]string{}
	for branch, pr := range prByHead {
		ids[branch] = pr.ID
	}

	var missing []string
	for _, branch := range branches {
		if _, ok := ids[branch]; !ok {
			missing = append(missing, branch)
		}
	}
	if len(missing) == 0 {
		return ids, nil
	}

	if dry {
		for _, branch := range missing {
			ids[branch] = "dryrun-pr-" + branch
		}
		return ids, nil
	}

	fresh, err := p.ListOpenPRsForHeads(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("could not resolve node ids for newly created pull requests: %w", err)
	}
	for _, pr := range fresh {
		ids[pr.Head] = pr.ID
	}
	return ids, nil
}

func rewriteBasesAndBodies(ctx context.Context, p *provider.Client, groups []*parser.Group, branches []string, numbers []int, ids map[string]string, desiredBase func(int) string, cfg config.Config) error {
	var baseUpdates []provider.BaseUpdate
	for i, branch := range branches {
		baseUpdates = append(baseUpdates, provider.BaseUpdate{NodeID: ids[branch], Base: desiredBase(i)})
	}
	if err := p.UpdateBases(ctx, baseUpdates, cfg.DryRun); err != nil {
		return fmt.Errorf("could not rewrite PR bases: %w", err)
	}

	existingBodies := map[int]string{}
	if cfg.PrDescriptionMode == config.StackOnly {
		var toFetch []int
		for _, n := range numbers {
			if n > 0 {
				toFetch = append(toFetch, n)
			}
		}
		if len(toFetch) > 0 && !cfg.DryRun {
			bodies, err := p.FetchPRBodies(ctx, toFetch)
			if err != nil {
				return fmt.Errorf("could not fetch current PR bodies: %w", err)
			}
			for n, b := range bodies {
				existingBodies[n] = b.Body
			}
		}
	}

	var bodyUpdates []provider.BodyUpdate
	for i, g := range groups {
		branch := branches[i]
		block := buildStackBlock(numbers, numbers[i])

		var newBody string
		switch cfg.PrDescriptionMode {
		case config.StackOnly:
			newBody = applyStackOnly(existingBodies[numbers[i]], block)
		default:
			newBody = overwriteBody(g.PrBodyBase(), block)
		}

		bodyUpdates = append(bodyUpdates, provider.BodyUpdate{NodeID: ids[branch], Body: newBody})
	}
	if err := p.UpdateBodies(ctx, bodyUpdates, cfg.DryRun); err != nil {
		return fmt.Errorf("could not rewrite PR bodies: %w", err)
	}

	return nil
}

// buildStackBlock renders the full stack block content (no sentinels): a
// "**Stack**:" header, one bulleted row per PR in top→bottom display
// order (self marked with an arrow, every other entry with an em-space so
// the bullet column aligns), and the UI-merge warning footer, per
// spec.md §6.
func buildStackBlock(numbers []int, self int) string {
	var lines strings.Builder
	for i := len(numbers) - 1; i >= 0; i-- {
		n := numbers[i]
		marker := emSpace
		if n == self {
			marker = arrowGlyph
		}
		fmt.Fprintf(&lines, "- %s #%d\n", marker, n)
	}

	var b strings.Builder
	b.WriteString("**Stack**:\n")
	b.WriteString(strings.TrimRight(lines.String(), "\n"))
	b.WriteString("\n\n")
	b.WriteString(stackWarning)
	return b.String()
}

func wrapBlock(content string) string {
	return parser.StackSentinelStart + "\n" + content + "\n" + parser.StackSentinelEnd
}

func overwriteBody(base, content string) string {
	if strings.TrimSpace(base) == "" {
		return wrapBlock(content)
	}
	return base + "\n\n" + wrapBlock(content)
}

func applyStackOnly(current, content string) string {
	start := strings.Index(current, parser.StackSentinelStart)
	end := strings.Index(current, parser.StackSentinelEnd)
	if start >= 0 && end > start {
		return current[:start] + wrapBlock(content) + current[end+len(parser.StackSentinelEnd):]
	}
	if strings.TrimSpace(current) == "" {
		return wrapBlock(content)
	}
	return strings.TrimRight(current, "\n") + "\n\n" + wrapBlock(content)
}

func reverseEntries(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
