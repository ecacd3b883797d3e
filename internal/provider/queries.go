// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package provider

import (
	"context"
	"fmt"
	"strings"
)

// PrInfo is a minimal PR record as returned by the provider adapter, per
// spec.md §3.
type PrInfo struct {
	Number int
	Head   string
	Base   string
	ID     string
}

// PrState distinguishes open from merged in ListOpenOrMergedPRsForHeads.
type PrState string

const (
	Open   PrState = "OPEN"
	Merged PrState = "MERGED"
)

// PrInfoWithState is a PrInfo carrying its resolved state.
type PrInfoWithState struct {
	PrInfo
	State PrState
}

// PrBody is a PR's GraphQL node id and current body.
type PrBody struct {
	ID   string
	Body string
}

// CiReviewStatus is a PR's CI rollup and review decision.
type CiReviewStatus struct {
	CIState        string
	ReviewDecision string
}

type prNode struct {
	Number      int    `json:"number"`
	ID          string `json:"id"`
	HeadRefName string `json:"headRefName"`
	BaseRefName string `json:"baseRefName"`
}

type nodesField struct {
	Nodes []prNode `json:"nodes"`
}

func (c *Client) repoHeader() string {
	return fmt.Sprintf(`query { repository(owner:"%s", name:"%s") {`, escape(c.Owner), escape(c.Repo))
}

// ListOpenPRsForHeads issues a single GraphQL query with one aliased
// pullRequests(...) field per head, per spec.md §4.C. Heads without an open
// PR are silently omitted; callers must not assume 1:1 alignment with input.
func (c *Client) ListOpenPRsForHeads(ctx context.Context, heads []string) ([]PrInfo, error) {
	if len(heads) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString(c.repoHeader())
	for i, h := range heads {
		fmt.Fprintf(&b, ` h%d: pullRequests(headRefName:"%s", states:[OPEN], first:1) { nodes { number id headRefName baseRefName } }`, i, escape(h))
	}
	b.WriteString(" } }")

	var resp struct {
		Repository map[string]nodesField `json:"repository"`
	}
	if err := c.rawQuery(ctx, b.String(), &resp); err != nil {
		return nil, fmt.Errorf("could not list open PRs for heads: %w", err)
	}

	var out []PrInfo
	for i := range heads {
		field, ok := resp.Repository[fmt.Sprintf("h%d", i)]
		if !ok || len(field.Nodes) == 0 {
			continue
		}
		n := field.Nodes[0]
		out = append(out, PrInfo{Number: n.Number, Head: n.HeadRefName, Base: n.BaseRefName, ID: n.ID})
	}
	return out, nil
}

// ListOpenOrMergedPRsForHeads is ListOpenPRsForHeads extended with a MERGED
// alias per head; an open PR takes precedence over a merged one, per
// spec.md §4.C.
func (c *Client) ListOpenOrMergedPRsForHeads(ctx context.Context, heads []string) ([]PrInfoWithState, error) {
	if len(heads) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString(c.repoHeader())
	for i, h := range heads {
		fmt.Fprintf(&b, ` o%d: pullRequests(headRefName:"%s", states:[OPEN], first:1) { nodes { number id headRefName baseRefName } }`, i, escape(h))
		fmt.Fprintf(&b, ` m%d: pullRequests(headRefName:"%s", states:[MERGED], first:1) { nodes { number id headRefName baseRefName } }`, i, escape(h))
	}
	b.WriteString(" } }")

	var resp struct {
		Repository map[string]nodesField `json:"repository"`
	}
	if err := c.rawQuery(ctx, b.String(), &resp); err != nil {
		return nil, fmt.Errorf("could not list open-or-merged PRs for heads: %w", err)
	}

	var out []PrInfoWithState
	for i := range heads {
		if field, ok := resp.Repository[fmt.Sprintf("o%d", i)]; ok && len(field.Nodes) > 0 {
			n := field.Nodes[0]
			out = append(out, PrInfoWithState{PrInfo: PrInfo{Number: n.Number, Head: n.HeadRefName, Base: n.BaseRefName, ID: n.ID}, State: Open})
			continue
		}
		if field, ok := resp.Repository[fmt.Sprintf("m%d", i)]; ok && len(field.Nodes) > 0 {
			n := field.Nodes[0]
			out = append(out, PrInfoWithState{PrInfo: PrInfo{Number: n.Number, Head: n.HeadRefName, Base: n.BaseRefName, ID: n.ID}, State: Merged})
		}
	}
	return out, nil
}

// FetchPRBodies fetches id+body for each number in one query.
func (c *Client) FetchPRBodies(ctx context.Context, numbers []int) (map[int]PrBody, error) {
	out := map[int]PrBody{}
	if len(numbers) == 0 {
		return out, nil
	}

	var b strings.Builder
	b.WriteString(c.repoHeader())
	for i, n := range numbers {
		fmt.Fprintf(&b, ` pr%d: pullRequest(number: %d) { id body }`, i, n)
	}
	b.WriteString(" } }")

	var resp struct {
		Repository map[string]struct {
			ID   string `json:"id"`
			Body string `json:"body"`
		} `json:"repository"`
	}
	if err := c.rawQuery(ctx, b.String(), &resp); err != nil {
		return nil, fmt.Errorf("could not fetch PR bodies: %w", err)
	}

	for i, n := range numbers {
		if field, ok := resp.Repository[fmt.Sprintf("pr%d", i)]; ok {
			out[n] = PrBody{ID: field.ID, Body: field.Body}
		}
	}
	return out, nil
}

// FetchCIReviewStatus fetches the CI rollup and review decision for each
// number in one query, applying the default/heuristic rules of spec.md
// §4.C, grounded in original_source/src/github.rs's fetch_pr_ci_review_status.
func (c *Client) FetchCIReviewStatus(ctx context.Context, numbers []int) (map[int]CiReviewStatus, error) {
	out := map[int]CiReviewStatus{}
	if len(numbers) == 0 {
		return out, nil
	}

	var b strings.Builder
	b.WriteString(c.repoHeader())
	for i, n := range numbers {
		fmt.Fprintf(&b, ` pr%d: pullRequest(number: %d) { reviewDecision isDraft reviewRequests(first:1){ totalCount } reviews(last:50, states:[APPROVED,CHANGES_REQUESTED]){ nodes { state } } commits(last:1) { nodes { commit { statusCheckRollup { state } } } } }`, i, n)
	}
	b.WriteString(" } }")

	var resp struct {
		Repository map[string]struct {
			ReviewDecision string `json:"reviewDecision"`
			IsDraft        bool   `json:"isDraft"`
			ReviewRequests struct {
				TotalCount int `json:"totalCount"`
			} `json:"reviewRequests"`
			Reviews struct {
				Nodes []struct {
					State string `json:"state"`
				} `json:"nodes"`
			} `json:"reviews"`
			Commits struct {
				Nodes []struct {
					Commit struct {
						StatusCheckRollup *struct {
							State string `json:"state"`
						} `json:"statusCheckRollup"`
					} `json:"commit"`
				} `json:"nodes"`
			} `json:"commits"`
		} `json:"repository"`
	}
	if err := c.rawQuery(ctx, b.String(), &resp); err != nil {
		return nil, fmt.Errorf("could not fetch PR CI/review status: %w", err)
	}

	for i, n := range numbers {
		field, ok := resp.Repository[fmt.Sprintf("pr%d", i)]
		if !ok {
			continue
		}

		ci := "SUCCESS"
		if len(field.Commits.Nodes) > 0 && field.Commits.Nodes[0].Commit.StatusCheckRollup != nil {
			if s := field.Commits.Nodes[0].Commit.StatusCheckRollup.State; s != "" {
				ci = s
			}
		}

		review := field.ReviewDecision
		if review == "" {
			hasChangesRequested, hasApproved := false, false
			for _, r := range field.Reviews.Nodes {
				switch r.State {
				case "CHANGES_REQUESTED":
					hasChangesRequested = true
				case "APPROVED":
					hasApproved = true
				}
			}
			switch {
			case hasChangesRequested:
				review = "CHANGES_REQUESTED"
			case hasApproved:
				review = "APPROVED"
			default:
				review = "REVIEW_REQUIRED"
			}
		}

		out[n] = CiReviewStatus{CIState: ci, ReviewDecision: review}
	}
	return out, nil
}
