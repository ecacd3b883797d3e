// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package limit

import (
	"testing"

	"github.com/unikraft/sprctl/internal/stack/parser"
)

func groups() []*parser.Group {
	return []*parser.Group{
		{Tag: "alpha", Commits: []string{"a1", "a2"}, Subjects: []string{"s1", "s2"}},
		{Tag: "beta", Commits: []string{"b1"}, Subjects: []string{"s3"}},
		{Tag: "gamma", Commits: []string{"c1", "c2"}, Subjects: []string{"s4", "s5"}},
	}
}

func TestApply_ByPr(t *testing.T) {
	out := Apply(groups(), &Limit{Kind: ByPr, N: 2})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Tag != "alpha" || out[1].Tag != "beta" {
		t.Fatalf("unexpected groups: %+v", out)
	}
}

func TestApply_ByPr_NoLimit(t *testing.T) {
	out := Apply(groups(), nil)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3 (unlimited)", len(out))
	}
}

func TestApply_ByCommits_Truncates(t *testing.T) {
	out := Apply(groups(), &Limit{Kind: ByCommits, N: 3})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Tag != "alpha" || len(out[0].Commits) != 2 {
		t.Fatalf("group 0 = %+v", out[0])
	}
	if out[1].Tag != "beta" || len(out[1].Commits) != 1 {
		t.Fatalf("group 1 = %+v", out[1])
	}
}

func TestApply_ByCommits_SplitsMidGroup(t *testing.T) {
	in := groups()
	out := Apply(in, &Limit{Kind: ByCommits, N: 4})
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if len(out[2].Commits) != 1 || out[2].Commits[0] != "c1" {
		t.Fatalf("gamma truncated = %+v, want [c1]", out[2].Commits)
	}
	// Input must not be mutated.
	if len(in[2].Commits) != 2 {
		t.Fatalf("input group mutated")
	}
}

func TestApply_ByCommits_Zero(t *testing.T) {
	out := Apply(groups(), &Limit{Kind: ByCommits, N: 0})
	if len(out) != 0 {
		t.Fatalf("ByCommits(0) must yield an empty group list, got len=%d", len(out))
	}
}

func TestApply_Nil_NoLimit(t *testing.T) {
	out := Apply(groups(), nil)
	if len(out) != 3 {
		t.Fatalf("nil limit means unlimited, got len=%d", len(out))
	}
}
