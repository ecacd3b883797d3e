// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package statusview renders the CI/review/merged icons used by `list pr`
// and `status`, per spec.md §4.J. It keeps entries in the order it is
// given; the command layer applies config.ListOrder to the result.
package statusview

import (
	"github.com/unikraft/sprctl/internal/provider"
	"github.com/unikraft/sprctl/internal/stack/reconciler"
)

// CIIcon maps a CI rollup state to its display glyph.
func CIIcon(state string) string {
	switch state {
	case "SUCCESS":
		return "✓"
	case "FAILURE", "ERROR":
		return "✗"
	case "PENDING", "EXPECTED":
		return "◐"
	default:
		return "?"
	}
}

// ReviewIcon maps a review decision to its display glyph.
func ReviewIcon(decision string) string {
	switch decision {
	case "APPROVED":
		return "✓"
	case "CHANGES_REQUESTED":
		return "✗"
	case "REVIEW_REQUIRED":
		return "◐"
	default:
		return "?"
	}
}

// MergedMarker is the fixed icon for a PR already merged.
const MergedMarker = "⑃M"

// MissingMarker is shown when no status could be fetched at all.
const MissingMarker = "??"

// Entry is one row of a rendered status/list view: the provider's PR
// number, its branch, title, URL, and icons.
type Entry struct {
	Number int
	Branch string
	Title  string
	URL    string
	Icons  string
}

// Render combines CI state, review decision, and merged/missing status into
// the two-character icon string spec.md §4.J describes.
func Render(merged bool, hasStatus bool, st provider.CiReviewStatus) string {
	if merged {
		return MergedMarker
	}
	if !hasStatus {
		return MissingMarker
	}
	return CIIcon(st.CIState) + ReviewIcon(st.ReviewDecision)
}

// BuildEntries pairs each reconciler-emitted PR entry with its rendered
// status icons, given the set of numbers known to be merged and the
// CI/review status map for everything else still open.
func BuildEntries(prs []reconciler.Entry, merged map[int]bool, statuses map[int]provider.CiReviewStatus) []Entry {
	entries := make([]Entry, 0, len(prs))
	for _, pr := range prs {
		st, ok := statuses[pr.Number]
		entries = append(entries, Entry{
			Number: pr.Number,
			Branch: pr.Branch,
			Title:  pr.Title,
			URL:    pr.URL,
			Icons:  Render(merged[pr.Number], ok, st),
		})
	}
	return entries
}
