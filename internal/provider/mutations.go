// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v32/github"

	"github.com/unikraft/sprctl/internal/logging"
)

type mutationOp struct {
	Alias string
	Text  string
}

func buildUpdateBaseOp(alias, nodeID, base string) mutationOp {
	return mutationOp{
		Alias: alias,
		Text:  fmt.Sprintf(`%s: updatePullRequest(input:{pullRequestId:"%s", baseRefName:"%s"}){ clientMutationId }`, alias, escape(nodeID), escape(base)),
	}
}

func buildUpdateBodyOp(alias, nodeID, body string) mutationOp {
	return mutationOp{
		Alias: alias,
		Text:  fmt.Sprintf(`%s: updatePullRequest(input:{pullRequestId:"%s", body:"%s"}){ clientMutationId }`, alias, escape(nodeID), escape(body)),
	}
}

func buildMutationDocument(ops []mutationOp) string {
	var b strings.Builder
	b.WriteString("mutation {")
	for _, op := range ops {
		b.WriteString(" ")
		b.WriteString(op.Text)
	}
	b.WriteString(" }")
	return b.String()
}

// chunkOps groups ops into chunks of at most maxOps operations and at most
// maxChars characters of rendered mutation text each, preferring a single
// chunk when the whole batch already fits (the "prefer_single" rule of
// spec.md §4.C).
func chunkOps(ops []mutationOp, maxOps, maxChars int) [][]mutationOp {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) <= maxOps && len(buildMutationDocument(ops)) <= maxChars {
		return [][]mutationOp{ops}
	}

	var chunks [][]mutationOp
	var current []mutationOp
	for _, op := range ops {
		candidate := append(append([]mutationOp{}, current...), op)
		if len(candidate) > maxOps || len(buildMutationDocument(candidate)) > maxChars {
			if len(current) == 0 {
				chunks = append(chunks, []mutationOp{op})
				continue
			}
			chunks = append(chunks, current)
			current = []mutationOp{op}
			continue
		}
		current = candidate
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

func isResourceLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "resource_limits_exceeded") {
		return true
	}
	return strings.Contains(msg, "resource limits") && strings.Contains(msg, "exceeded")
}

// executeChunk runs one chunk, binary-splitting and retrying on a
// RESOURCE_LIMITS_EXCEEDED error per spec.md §4.C. A chunk of size 1 that
// still fails with that error is surfaced.
func (c *Client) executeChunk(ctx context.Context, ops []mutationOp, dry bool) error {
	err := c.rawMutate(ctx, buildMutationDocument(ops), dry)
	if err == nil || !isResourceLimitError(err) {
		return err
	}
	if len(ops) == 1 {
		return fmt.Errorf("resource limits exceeded for a single mutation operation %s: %w", ops[0].Alias, err)
	}

	mid := len(ops) / 2
	if err := c.executeChunk(ctx, ops[:mid], dry); err != nil {
		return err
	}
	return c.executeChunk(ctx, ops[mid:], dry)
}

func (c *Client) executeChunked(ctx context.Context, ops []mutationOp, maxOps, maxChars int, dry bool) error {
	for _, chunk := range chunkOps(ops, maxOps, maxChars) {
		if err := c.executeChunk(ctx, chunk, dry); err != nil {
			return err
		}
	}
	return nil
}

// BaseUpdate and BodyUpdate are the reconciler's batched rewrite pass
// inputs (spec.md §4.E Step 6).
type BaseUpdate struct {
	NodeID string
	Base   string
}

type BodyUpdate struct {
	NodeID string
	Body   string
}

const (
	maxBaseOpsPerChunk   = 50
	maxBaseCharsPerChunk = 20000
	maxBodyOpsPerChunk   = 1
	maxBodyCharsPerChunk = 100000
)

// UpdateBases issues one or more chunked GraphQL mutations to set each PR's
// baseRefName, per spec.md §4.C/§4.E Step 6.
func (c *Client) UpdateBases(ctx context.Context, updates []BaseUpdate, dry bool) error {
	if len(updates) == 0 {
		return nil
	}
	ops := make([]mutationOp, 0, len(updates))
	for i, u := range updates {
		ops = append(ops, buildUpdateBaseOp(fmt.Sprintf("b%d", i), u.NodeID, u.Base))
	}
	if err := c.executeChunked(ctx, ops, maxBaseOpsPerChunk, maxBaseCharsPerChunk, dry); err != nil {
		return fmt.Errorf("could not update PR bases: %w", err)
	}
	return nil
}

// UpdateBodies issues one GraphQL mutation per body (bodies are large
// enough that batching more than one per chunk risks the character limit),
// per spec.md §4.C.
func (c *Client) UpdateBodies(ctx context.Context, updates []BodyUpdate, dry bool) error {
	if len(updates) == 0 {
		return nil
	}
	ops := make([]mutationOp, 0, len(updates))
	for i, u := range updates {
		ops = append(ops, buildUpdateBodyOp(fmt.Sprintf("d%d", i), u.NodeID, u.Body))
	}
	if err := c.executeChunked(ctx, ops, maxBodyOpsPerChunk, maxBodyCharsPerChunk, dry); err != nil {
		return fmt.Errorf("could not update PR bodies: %w", err)
	}
	return nil
}

// UpsertPRCached returns the cached PR number for branch if present,
// otherwise creates a new PR via a single REST call and caches the result.
// It never edits an existing PR; title/body/base changes are batched
// separately. In dry-run with no cache entry, it returns a deterministic
// negative placeholder instead of creating anything, per spec.md §9.1's
// dry-run number-stability supplement.
func (c *Client) UpsertPRCached(ctx context.Context, branch, base, title, body string, dry bool, cache map[string]int) (int, error) {
	if num, ok := cache[branch]; ok {
		return num, nil
	}

	if dry {
		placeholder := -(len(cache) + 1)
		cache[branch] = placeholder
		return placeholder, nil
	}

	pr, _, err := c.rest.PullRequests.Create(ctx, c.Owner, c.Repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(branch),
		Base:  github.String(base),
		Body:  github.String(body),
	})
	if err != nil {
		return 0, fmt.Errorf("could not create pull request for %s: %w", branch, err)
	}

	num := 0
	if pr != nil && pr.Number != nil {
		num = *pr.Number
	}
	if num == 0 {
		prs, _, err := c.rest.PullRequests.List(ctx, c.Owner, c.Repo, &github.PullRequestListOptions{
			State: "open",
			Head:  c.Owner + ":" + branch,
		})
		if err != nil {
			return 0, fmt.Errorf("could not determine PR number for %s: %w", branch, err)
		}
		if len(prs) > 0 && prs[0].Number != nil {
			num = *prs[0].Number
		}
	}
	if num == 0 {
		return 0, fmt.Errorf("failed to determine PR number for %s", branch)
	}

	cache[branch] = num
	return num, nil
}

// AppendWarningToPR idempotently appends a warning line to a PR's body,
// per spec.md §4.C and §4.F's prep_squash successor-PR warning.
func (c *Client) AppendWarningToPR(ctx context.Context, number int, warning string, dry bool) error {
	bodies, err := c.FetchPRBodies(ctx, []int{number})
	if err != nil {
		return fmt.Errorf("could not fetch PR #%d body: %w", number, err)
	}
	info, ok := bodies[number]
	if !ok {
		return nil
	}
	if strings.Contains(info.Body, warning) {
		logging.G(ctx).WithField("pr", number).Debug("warning already present; skipping")
		return nil
	}

	newBody := warning
	if strings.TrimSpace(info.Body) != "" {
		newBody = strings.TrimRight(info.Body, "\n") + "\n\n" + warning
	}

	op := buildUpdateBodyOp("u", info.ID, newBody)
	if err := c.rawMutate(ctx, buildMutationDocument([]mutationOp{op}), dry); err != nil {
		return fmt.Errorf("could not append warning to PR #%d: %w", number, err)
	}
	return nil
}

// MergeSegmentEntry is one PR in a land segment.
type MergeSegmentEntry struct {
	NodeID string
	Number int
}

// MergeMethod selects REBASE (PerPr) or SQUASH (Flatten), per spec.md §4.I.
type MergeMethod string

const (
	RebaseMerge MergeMethod = "REBASE"
	SquashMerge MergeMethod = "SQUASH"
)

// MergeStack builds and issues the single GraphQL mutation spec.md §4.I
// describes: reset the landing PR's base to root, merge it, then comment on
// and close every preceding PR in the segment.
func (c *Client) MergeStack(ctx context.Context, rootBase string, landing MergeSegmentEntry, method MergeMethod, preceding []MergeSegmentEntry, dry bool) error {
	var b strings.Builder
	b.WriteString("mutation {")
	fmt.Fprintf(&b, ` b0: updatePullRequest(input:{pullRequestId:"%s", baseRefName:"%s"}){ clientMutationId }`, escape(landing.NodeID), escape(rootBase))
	fmt.Fprintf(&b, ` m0: mergePullRequest(input:{pullRequestId:"%s", mergeMethod:%s}){ clientMutationId }`, escape(landing.NodeID), method)
	for i, p := range preceding {
		comment := fmt.Sprintf("Merged as part of PR #%d", landing.Number)
		fmt.Fprintf(&b, ` c%d: addComment(input:{subjectId:"%s", body:"%s"}){ clientMutationId }`, i, escape(p.NodeID), escape(comment))
		fmt.Fprintf(&b, ` x%d: closePullRequest(input:{pullRequestId:"%s"}){ clientMutationId }`, i, escape(p.NodeID))
	}
	b.WriteString(" }")

	if err := c.rawMutate(ctx, b.String(), dry); err != nil {
		return fmt.Errorf("could not land PR #%d: %w", landing.Number, err)
	}
	return nil
}
