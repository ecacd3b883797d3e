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
)

// ListOpenPRsWithPrefix enumerates open PRs via paginated REST, filtering to
// heads carrying the configured branch prefix. Used by cleanup (to compute
// the branches with no open PR), grounded in
// internal/ghapi.ListOpenPullRequests.
func (c *Client) ListOpenPRsWithPrefix(ctx context.Context, prefix string) ([]PrInfo, error) {
	var out []PrInfo
	opts := &github.PullRequestListOptions{State: "open", ListOptions: github.ListOptions{PerPage: 100}}

	for {
		prs, resp, err := c.rest.PullRequests.List(ctx, c.Owner, c.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("could not list open pull requests: %w", err)
		}
		for _, pr := range prs {
			head := pr.GetHead().GetRef()
			if !strings.HasPrefix(head, prefix) {
				continue
			}
			out = append(out, PrInfo{
				Number: pr.GetNumber(),
				Head:   head,
				Base:   pr.GetBase().GetRef(),
				ID:     pr.GetNodeID(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return out, nil
}
