// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/stack/parser"
)

// SelectionKind distinguishes prep's three selection shapes.
type SelectionKind int

const (
	SelectionAll SelectionKind = iota
	SelectionUntil
	SelectionExact
)

// Selection picks which groups prep_squash folds into a single commit each,
// per spec.md §4.F.
type Selection struct {
	Kind SelectionKind
	N    int
}

func (s Selection) includes(oneBasedIndex int) bool {
	switch s.Kind {
	case SelectionAll:
		return true
	case SelectionUntil:
		return oneBasedIndex <= s.N
	case SelectionExact:
		return oneBasedIndex == s.N
	default:
		return false
	}
}

type prepUnit struct {
	squash  bool
	sha     string // replay: the single source commit; squash: the group's last commit
	message string // squash only; replay fetches the commit's own message live
}

func buildPrepUnits(leadingIgnored []string, groups []*parser.Group, sel Selection) ([]prepUnit, error) {
	var units []prepUnit

	for _, sha := range leadingIgnored {
		units = append(units, prepUnit{sha: sha})
	}

	for i, g := range groups {
		if sel.includes(i + 1) {
			msg, err := g.SquashCommitMessage()
			if err != nil {
				return nil, err
			}
			units = append(units, prepUnit{squash: true, sha: g.TargetSHA(), message: msg})
		} else {
			for _, sha := range g.Commits {
				units = append(units, prepUnit{sha: sha})
			}
		}
		for _, sha := range g.IgnoredAfter {
			units = append(units, prepUnit{sha: sha})
		}
	}

	return units, nil
}

// SuccessorGroup returns the group immediately following the selection
// window, if any, for the once-only warning append spec.md §4.F describes.
func SuccessorGroup(groups []*parser.Group, sel Selection) *parser.Group {
	last := 0
	for i := range groups {
		if sel.includes(i + 1) {
			last = i + 1
		}
	}
	if last == 0 || last >= len(groups) {
		return nil
	}
	return groups[last]
}

func (e *Engine) treeOf(ctx context.Context, sha string) (string, error) {
	out, err := e.Runner.GitRO(ctx, "rev-parse", sha+"^{tree}")
	if err != nil {
		return "", fmt.Errorf("could not resolve tree for %s: %w", sha, err)
	}
	return strings.TrimSpace(out), nil
}

func (e *Engine) fullMessageOf(ctx context.Context, sha string) (string, error) {
	out, err := e.Runner.GitRO(ctx, "log", "-1", "--format=%B", sha)
	if err != nil {
		return "", fmt.Errorf("could not read message for %s: %w", sha, err)
	}
	return out, nil
}

func (e *Engine) commitTree(ctx context.Context, tree, parent, message string, dry bool) (string, error) {
	out, err := e.Runner.GitRW(ctx, dry, "commit-tree", tree, "-p", parent, "-m", message)
	if err != nil {
		return "", fmt.Errorf("could not build commit for tree %s: %w", tree, err)
	}
	if dry {
		return parent, nil
	}
	return strings.TrimSpace(out), nil
}

// PrepSquash reflows history by constructing new commits with `commit-tree`
// instead of cherry-picks: each selected group collapses to one commit (tree
// = the group's tip tree, message = squash_commit_message()); everything
// else (ignored commits, non-selected groups) replays individually
// preserving tree and full message. Any step, squashed or replayed, whose
// tree equals its parent's is skipped to avoid an empty commit. The branch is finally moved
// to the new tip with `update-ref`, per spec.md §4.F's prep_squash.
func (e *Engine) PrepSquash(ctx context.Context, base string, leadingIgnored []string, groups []*parser.Group, sel Selection, dry bool) error {
	curBranch, err := gitutil.CurrentBranch(ctx, e.Runner)
	if err != nil {
		return err
	}

	units, err := buildPrepUnits(leadingIgnored, groups, sel)
	if err != nil {
		return err
	}

	short, err := e.shortHead(ctx)
	if err != nil {
		return err
	}
	if err := e.backupBranch(ctx, "prep", curBranch, short, dry); err != nil {
		return err
	}

	parentSHA := base
	parentTree, err := e.treeOf(ctx, base)
	if err != nil {
		return err
	}

	for _, u := range units {
		var tree, message string
		if u.squash {
			message = u.message
			tree, err = e.treeOf(ctx, u.sha)
		} else {
			tree, err = e.treeOf(ctx, u.sha)
			if err == nil {
				message, err = e.fullMessageOf(ctx, u.sha)
			}
		}
		if err != nil {
			return err
		}

		if tree == parentTree {
			continue
		}

		newSHA, err := e.commitTree(ctx, tree, parentSHA, message, dry)
		if err != nil {
			return fmt.Errorf("could not prep commit for %s: %w", u.sha, err)
		}
		parentSHA = newSHA
		parentTree = tree
	}

	if _, err := e.Runner.GitRW(ctx, dry, "update-ref", "refs/heads/"+curBranch, parentSHA); err != nil {
		return fmt.Errorf("could not move %s to prepped tip: %w", curBranch, err)
	}

	return nil
}
