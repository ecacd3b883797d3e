// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package statusview

import (
	"testing"

	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/stack/reconciler"
)

func TestCIIcon(t *testing.T) {
	cases := map[string]string{
		"SUCCESS":  "✓",
		"FAILURE":  "✗",
		"ERROR":    "✗",
		"PENDING":  "◐",
		"EXPECTED": "◐",
		"WEIRD":    "?",
	}
	for in, want := range cases {
		if got := CIIcon(in); got != want {
			t.Errorf("CIIcon(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReviewIcon(t *testing.T) {
	cases := map[string]string{
		"APPROVED":          "✓",
		"CHANGES_REQUESTED": "✗",
		"REVIEW_REQUIRED":   "◐",
		"SOMETHING_ELSE":    "?",
	}
	for in, want := range cases {
		if got := ReviewIcon(in); got != want {
			t.Errorf("ReviewIcon(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender(t *testing.T) {
	if got := Render(true, true, provider.CiReviewStatus{CIState: "SUCCESS", ReviewDecision: "APPROVED"}); got != MergedMarker {
		t.Errorf("merged PR should always show %q, got %q", MergedMarker, got)
	}
	if got := Render(false, false, provider.CiReviewStatus{}); got != MissingMarker {
		t.Errorf("no status should show %q, got %q", MissingMarker, got)
	}
	if got := Render(false, true, provider.CiReviewStatus{CIState: "SUCCESS", ReviewDecision: "APPROVED"}); got != "✓✓" {
		t.Errorf("green PR should show ✓✓, got %q", got)
	}
	if got := Render(false, true, provider.CiReviewStatus{CIState: "FAILURE", ReviewDecision: "CHANGES_REQUESTED"}); got != "✗✗" {
		t.Errorf("red PR should show ✗✗, got %q", got)
	}
}

func TestBuildEntries(t *testing.T) {
	prs := []reconciler.Entry{
		{Number: 1, Branch: "u/one", Title: "One", URL: "http://x/1"},
		{Number: 2, Branch: "u/two", Title: "Two", URL: "http://x/2"},
	}
	merged := map[int]bool{2: true}
	statuses := map[int]provider.CiReviewStatus{
		1: {CIState: "SUCCESS", ReviewDecision: "APPROVED"},
	}

	entries := BuildEntries(prs, merged, statuses)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Icons != "✓✓" {
		t.Errorf("entry 0 icons = %q, want ✓✓", entries[0].Icons)
	}
	if entries[1].Icons != MergedMarker {
		t.Errorf("entry 1 icons = %q, want %q", entries[1].Icons, MergedMarker)
	}
}
