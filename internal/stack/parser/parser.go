// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package parser turns a (sha, message) commit stream into an ordered list
// of PR groups, plus any local-only "ignored" blocks, per spec.md §3/§4.D.
package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/unikraft/sprctl/internal/logging"
)

// markerRe matches `pr:<tag>` with a word boundary on both sides, case
// insensitive, tag character class [A-Za-z0-9._-]+.
var markerRe = regexp.MustCompile(`(?i)\bpr:([A-Za-z0-9._\-]+)\b`)

// DefaultIgnoreTag is used when configuration does not override it.
const DefaultIgnoreTag = "ignore"

// Commit is the minimal shape the parser needs per input record.
type Commit struct {
	SHA     string
	Message string
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	if idx := strings.IndexByte(c.Message, '\n'); idx >= 0 {
		return c.Message[:idx]
	}
	return c.Message
}

// Group is the central aggregation: all commits that will become one PR.
type Group struct {
	Tag           string
	Commits       []string
	Subjects      []string
	FirstMessage  string
	IgnoredAfter  []string
}

// findMarkers returns all captured tag values found in message.
func findMarkers(message string) []string {
	matches := markerRe.FindAllStringSubmatch(message, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// StripMarkers removes every `pr:<tag>` occurrence from s.
func StripMarkers(s string) string {
	return markerRe.ReplaceAllString(s, "")
}

// Parse implements spec.md §4.D's algorithm: given an ordered (oldest→newest)
// sequence of commits and the configured ignore tag, returns the leading
// ignored commits (before the first group) and the ordered groups.
func Parse(ctx context.Context, commits []Commit, ignoreTag string) (leadingIgnored []string, groups []*Group, err error) {
	if ignoreTag == "" {
		ignoreTag = DefaultIgnoreTag
	}

	var current *Group
	inIgnore := false
	var pendingIgnored []string

	flushGroup := func() {
		if current != nil {
			groups = append(groups, current)
			current = nil
		}
	}

	closeIgnoreBlock := func() {
		if !inIgnore {
			return
		}
		if len(pendingIgnored) > 0 {
			if len(groups) > 0 {
				groups[len(groups)-1].IgnoredAfter = append(groups[len(groups)-1].IgnoredAfter, pendingIgnored...)
			} else {
				leadingIgnored = append(leadingIgnored, pendingIgnored...)
			}
		}
		pendingIgnored = nil
		inIgnore = false
	}

	for _, c := range commits {
		if strings.TrimSpace(c.Message) == "" && c.SHA == "" {
			continue
		}

		tags := findMarkers(c.Message)
		if len(tags) > 1 {
			return nil, nil, fmt.Errorf("commit %s contains multiple pr:<tag> markers", c.SHA)
		}

		if len(tags) == 1 {
			tag := tags[0]
			if tag == ignoreTag {
				flushGroup()
				inIgnore = true
				pendingIgnored = append(pendingIgnored, c.SHA)
				continue
			}

			closeIgnoreBlock()
			flushGroup()
			current = &Group{
				Tag:          tag,
				Commits:      []string{c.SHA},
				Subjects:     []string{c.Subject()},
				FirstMessage: c.Message,
			}
			continue
		}

		// No marker.
		if inIgnore {
			pendingIgnored = append(pendingIgnored, c.SHA)
			continue
		}
		if current != nil {
			current.Commits = append(current.Commits, c.SHA)
			current.Subjects = append(current.Subjects, c.Subject())
			continue
		}

		logging.G(ctx).WithField("sha", c.SHA).Warn("untagged commit before first pr:<tag> group; dropped")
	}

	closeIgnoreBlock()
	flushGroup()

	return leadingIgnored, groups, nil
}

// ParseRecords parses the raw output of
// `git log --format=%H\x00%B\x1e --reverse <range>`, splitting on the
// record separator 0x1e and the SHA/message separator NUL, per spec.md
// §4.D's input contract.
func ParseRecords(ctx context.Context, raw string, ignoreTag string) (leadingIgnored []string, groups []*Group, err error) {
	var commits []Commit

	for _, record := range strings.Split(raw, "\x1e") {
		record = strings.TrimRight(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		parts := strings.SplitN(record, "\x00", 2)
		sha := strings.TrimSpace(parts[0])
		message := ""
		if len(parts) == 2 {
			message = parts[1]
		}
		commits = append(commits, Commit{SHA: sha, Message: message})
	}

	return Parse(ctx, commits, ignoreTag)
}

// PrTitle is the subject of the first commit with the pr:<tag> marker
// stripped and trimmed, falling back to the tag itself.
func (g *Group) PrTitle() string {
	if len(g.Subjects) > 0 {
		t := strings.TrimSpace(StripMarkers(g.Subjects[0]))
		if t != "" {
			return t
		}
	}
	return g.Tag
}

// knownTrailers are stripped from a PR body so that Signed-off-by and
// similar bookkeeping lines don't leak into the rendered description.
var knownTrailers = []string{
	"Signed-off-by",
	"Co-authored-by",
	"GitHub-Closes",
	"GitHub-Fixes",
}

// stripTrailers removes any line whose prefix (case-insensitive) matches a
// known trailer.
func stripTrailers(body string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		isTrailer := false
		for _, trailer := range knownTrailers {
			if strings.HasPrefix(strings.ToLower(line), strings.ToLower(trailer)+":") {
				isTrailer = true
				break
			}
		}
		if !isTrailer {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// PrBodyBase is the full first message minus its subject line, with all
// pr:<tag> markers and known trailers removed, trimmed.
func (g *Group) PrBodyBase() string {
	lines := strings.Split(g.FirstMessage, "\n")
	var body string
	if len(lines) > 1 {
		body = strings.Join(lines[1:], "\n")
	}
	return strings.TrimSpace(stripTrailers(StripMarkers(body)))
}

// StackSentinelStart and StackSentinelEnd delimit the stack block region
// of a PR body, per spec.md §6.
const (
	StackSentinelStart = "<!-- spr-stack:start -->"
	StackSentinelEnd   = "<!-- spr-stack:end -->"
)

// PrBody is PrBodyBase plus a placeholder stack block; the reconciler
// replaces the placeholder with the real rendered block in its final pass.
func (g *Group) PrBody() string {
	base := g.PrBodyBase()
	placeholder := StackSentinelStart + "\n" + StackSentinelEnd
	if base == "" {
		return placeholder
	}
	return base + "\n\n" + placeholder
}

// SquashCommitMessage is the untouched first message, used when squashing.
// It re-validates that the leading marker matches the group's tag.
func (g *Group) SquashCommitMessage() (string, error) {
	if g.FirstMessage == "" {
		return "", fmt.Errorf("first commit message missing for group %q", g.Tag)
	}

	matches := markerRe.FindStringSubmatch(g.FirstMessage)
	if matches == nil {
		return "", fmt.Errorf("first commit is missing required pr:%s tag for group %q", g.Tag, g.Tag)
	}
	if !strings.EqualFold(matches[1], g.Tag) {
		return "", fmt.Errorf("first commit tag mismatch for group %q: expected pr:%s, found pr:%s", g.Tag, g.Tag, matches[1])
	}

	return strings.TrimRight(g.FirstMessage, "\n \t"), nil
}

// TargetSHA is the last commit in the group (the branch tip).
func (g *Group) TargetSHA() string {
	if len(g.Commits) == 0 {
		return ""
	}
	return g.Commits[len(g.Commits)-1]
}

// BranchName is "{prefix}{tag}".
func (g *Group) BranchName(prefix string) string {
	return prefix + g.Tag
}
