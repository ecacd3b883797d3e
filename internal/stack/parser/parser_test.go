// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package parser

import (
	"context"
	"testing"
)

func commits(pairs ...[2]string) []Commit {
	out := make([]Commit, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Commit{SHA: p[0], Message: p[1]})
	}
	return out
}

func TestParse_ThreeGroupBuildFromScratch(t *testing.T) {
	in := commits(
		[2]string{"a1", "a1: feat pr:alpha"},
		[2]string{"a2", "a2: more"},
		[2]string{"b1", "b1: feat pr:beta"},
		[2]string{"c1", "c1: feat pr:gamma"},
		[2]string{"c2", "c2: cleanup"},
	)

	leading, groups, err := Parse(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leading) != 0 {
		t.Fatalf("expected no leading ignored commits, got %v", leading)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	want := []struct {
		tag     string
		commits []string
	}{
		{"alpha", []string{"a1", "a2"}},
		{"beta", []string{"b1"}},
		{"gamma", []string{"c1", "c2"}},
	}
	for i, w := range want {
		if groups[i].Tag != w.tag {
			t.Errorf("group %d: tag = %q, want %q", i, groups[i].Tag, w.tag)
		}
		if len(groups[i].Commits) != len(w.commits) {
			t.Fatalf("group %d: commits = %v, want %v", i, groups[i].Commits, w.commits)
		}
		for j := range w.commits {
			if groups[i].Commits[j] != w.commits[j] {
				t.Errorf("group %d commit %d = %q, want %q", i, j, groups[i].Commits[j], w.commits[j])
			}
		}
	}
}

func TestParse_IgnoreBlockBetweenTwoGroups(t *testing.T) {
	in := commits(
		[2]string{"a1", "a1 pr:alpha"},
		[2]string{"i1", "i1 pr:ignore"},
		[2]string{"i2", "i2"},
		[2]string{"b1", "b1 pr:beta"},
	)

	leading, groups, err := Parse(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leading) != 0 {
		t.Fatalf("expected no leading ignored, got %v", leading)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if got := groups[0].IgnoredAfter; len(got) != 2 || got[0] != "i1" || got[1] != "i2" {
		t.Fatalf("alpha.IgnoredAfter = %v, want [i1 i2]", got)
	}
	if len(groups[0].Commits) != 1 || groups[0].Commits[0] != "a1" {
		t.Fatalf("alpha.Commits = %v, want [a1]", groups[0].Commits)
	}
	if len(groups[1].Commits) != 1 || groups[1].Commits[0] != "b1" {
		t.Fatalf("beta.Commits = %v, want [b1]", groups[1].Commits)
	}
}

func TestParse_LeadingIgnored(t *testing.T) {
	in := commits(
		[2]string{"i0", "i0 pr:ignore"},
		[2]string{"a1", "a1 pr:alpha"},
	)

	leading, groups, err := Parse(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leading) != 1 || leading[0] != "i0" {
		t.Fatalf("leadingIgnored = %v, want [i0]", leading)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
}

func TestParse_MultipleMarkersFail(t *testing.T) {
	in := commits([2]string{"a1", "pr:alpha and also pr:beta"})

	if _, _, err := Parse(context.Background(), in, ""); err == nil {
		t.Fatalf("expected error for multiple markers, got nil")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	leading, groups, err := Parse(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leading) != 0 || len(groups) != 0 {
		t.Fatalf("expected empty output, got leading=%v groups=%v", leading, groups)
	}
}

func TestParse_SingleUntaggedCommitDropped(t *testing.T) {
	in := commits([2]string{"a1", "just a commit"})

	leading, groups, err := Parse(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leading) != 0 || len(groups) != 0 {
		t.Fatalf("expected empty output, got leading=%v groups=%v", leading, groups)
	}
}

func TestParse_SingleTaggedCommit(t *testing.T) {
	in := commits([2]string{"a1", "a1 pr:alpha"})

	_, groups, err := Parse(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Commits) != 1 {
		t.Fatalf("expected a single single-commit group, got %+v", groups)
	}
}

func TestParse_CaseSensitiveIgnoreTag(t *testing.T) {
	// spec.md §9 resolves the case-sensitivity open question in favor of
	// case-sensitive ignore_tag matching: pr:IGNORE must NOT be treated as
	// an ignore block when ignore_tag is "ignore".
	in := commits(
		[2]string{"a1", "a1 pr:IGNORE"},
	)

	_, groups, err := Parse(context.Background(), in, "ignore")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || groups[0].Tag != "IGNORE" {
		t.Fatalf("expected pr:IGNORE to start a normal group named IGNORE, got %+v", groups)
	}
}

func TestParse_RoundTripInvariant(t *testing.T) {
	in := commits(
		[2]string{"i0", "i0 pr:ignore"},
		[2]string{"a1", "a1 pr:alpha"},
		[2]string{"a2", "a2"},
		[2]string{"i1", "i1 pr:ignore"},
		[2]string{"i2", "i2"},
		[2]string{"b1", "b1 pr:beta"},
	)

	leading, groups, err := Parse(context.Background(), in, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var reconstructed []string
	reconstructed = append(reconstructed, leading...)
	for _, g := range groups {
		reconstructed = append(reconstructed, g.Commits...)
		reconstructed = append(reconstructed, g.IgnoredAfter...)
	}

	want := []string{"i0", "a1", "a2", "i1", "i2", "b1"}
	if len(reconstructed) != len(want) {
		t.Fatalf("reconstructed = %v, want %v", reconstructed, want)
	}
	for i := range want {
		if reconstructed[i] != want[i] {
			t.Fatalf("reconstructed[%d] = %q, want %q", i, reconstructed[i], want[i])
		}
	}
}

func TestGroup_PrTitleAndBody(t *testing.T) {
	g := &Group{
		Tag:          "alpha",
		Subjects:     []string{"a1: feat pr:alpha"},
		FirstMessage: "a1: feat pr:alpha\n\nSome body text.\n",
	}

	if got, want := g.PrTitle(), "a1: feat"; got != want {
		t.Errorf("PrTitle() = %q, want %q", got, want)
	}
	if got, want := g.PrBodyBase(), "Some body text."; got != want {
		t.Errorf("PrBodyBase() = %q, want %q", got, want)
	}
}

func TestGroup_PrBodyBaseStripsTrailers(t *testing.T) {
	g := &Group{
		Tag:          "alpha",
		Subjects:     []string{"a1: feat pr:alpha"},
		FirstMessage: "a1: feat pr:alpha\n\nSome body text.\nSigned-off-by: A <a@example.com>\nCo-authored-by: B <b@example.com>\n",
	}

	if got, want := g.PrBodyBase(), "Some body text."; got != want {
		t.Errorf("PrBodyBase() = %q, want %q", got, want)
	}
}

func TestGroup_SquashCommitMessageMismatch(t *testing.T) {
	g := &Group{Tag: "alpha", FirstMessage: "feat pr:beta"}
	if _, err := g.SquashCommitMessage(); err == nil {
		t.Fatalf("expected mismatch error, got nil")
	}
}

func TestParseRecords_SplitsOnSentinels(t *testing.T) {
	raw := "a1\x00a1 pr:alpha\n\x1eb1\x00b1 pr:beta\n\x1e"
	_, groups, err := ParseRecords(context.Background(), raw, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Commits[0] != "a1" || groups[1].Commits[0] != "b1" {
		t.Fatalf("unexpected commit shas: %+v", groups)
	}
}
