// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package limit truncates a parsed group list by "first N PRs" or "first N
// commits", per spec.md §4.G.
package limit

import "github.com/unikraft/sprctl/internal/stack/parser"

// Kind distinguishes the two ways a stack can be truncated.
type Kind int

const (
	// ByPr takes the first N groups.
	ByPr Kind = iota
	// ByCommits takes groups cumulatively until N commits are reached,
	// truncating the group that would overshoot.
	ByCommits
)

// Limit is the truncation request.
type Limit struct {
	Kind Kind
	N    int
}

// Apply truncates groups per spec.md §4.G. A nil lim means "no limit" (the
// CLI passes nil when --until is not given). A non-nil
// lim is applied exactly, including the boundary case Limit{ByCommits, 0}
// which yields an empty group list. Never mutates the input slice or its
// groups; truncated groups are copies.
func Apply(groups []*parser.Group, lim *Limit) []*parser.Group {
	if lim == nil {
		return groups
	}

	switch lim.Kind {
	case ByPr:
		if lim.N <= 0 {
			return nil
		}
		if lim.N >= len(groups) {
			return groups
		}
		return groups[:lim.N]

	case ByCommits:
		return applyByCommits(groups, lim.N)

	default:
		return groups
	}
}

func applyByCommits(groups []*parser.Group, n int) []*parser.Group {
	var out []*parser.Group
	remaining := n

	for _, g := range groups {
		if remaining <= 0 {
			break
		}

		if len(g.Commits) <= remaining {
			out = append(out, g)
			remaining -= len(g.Commits)
			continue
		}

		truncated := &parser.Group{
			Tag:          g.Tag,
			Commits:      append([]string(nil), g.Commits[:remaining]...),
			Subjects:     append([]string(nil), g.Subjects[:remaining]...),
			FirstMessage: g.FirstMessage,
		}
		out = append(out, truncated)
		remaining = 0
		break
	}

	return out
}
