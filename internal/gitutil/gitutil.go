// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package gitutil provides small, well-tested Git ref/ancestry helpers used
// by the reconciler and rewrite engine. Batched remote lookups and ancestry
// classification shell out through internal/shell, the same way the
// teacher's ghpr.go and patch.go mix go-git reads with raw `git` exec calls
// for operations go-git does not expose cleanly.
package gitutil

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/unikraft/sprctl/internal/shell"
)

// NormalizeBranchName strips a leading "refs/heads/" or "origin/" prefix.
func NormalizeBranchName(name string) string {
	name = strings.TrimPrefix(name, "refs/heads/")
	name = strings.TrimPrefix(name, "origin/")
	return name
}

// SanitizeGhBaseRef strips a leading "origin/" prefix; the provider
// rejects base refs qualified with the remote name.
func SanitizeGhBaseRef(name string) string {
	return strings.TrimPrefix(name, "origin/")
}

// ToRemoteRef yields "origin/<normalized>".
func ToRemoteRef(name string) string {
	return "origin/" + NormalizeBranchName(name)
}

// RepoRoot resolves the working tree root of the repository containing the
// current working directory.
func RepoRoot(ctx context.Context, r *shell.Runner) (string, error) {
	out, err := r.GitRO(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("could not resolve repository root: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DiscoverOriginHeadBase resolves the repository's default base branch from
// origin/HEAD. There is no hidden fallback: callers must surface the error
// loudly per spec.md §4.B.
func DiscoverOriginHeadBase(ctx context.Context, r *shell.Runner) (string, error) {
	out, err := r.GitRO(ctx, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err != nil {
		return "", fmt.Errorf("could not discover origin/HEAD: symbolic ref is unset (run `git remote set-head origin -a`): %w", err)
	}
	ref := strings.TrimSpace(out)
	ref = strings.TrimPrefix(ref, "refs/remotes/")
	return NormalizeBranchName(ref), nil
}

// GetRemoteBranchesSha performs a single `ls-remote --heads origin` call for
// the given branches and returns a branch -> sha map. Branches that do not
// exist on the remote are simply absent from the map.
func GetRemoteBranchesSha(ctx context.Context, r *shell.Runner, branches []string) (map[string]string, error) {
	out := map[string]string{}
	if len(branches) == 0 {
		return out, nil
	}

	argv := append([]string{"ls-remote", "--heads", "origin"}, branches...)
	stdout, err := r.GitRO(ctx, argv...)
	if err != nil {
		return nil, fmt.Errorf("could not list remote branches: %w", err)
	}

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		sha := fields[0]
		ref := strings.TrimPrefix(fields[1], "refs/heads/")
		out[ref] = sha
	}

	return out, nil
}

// GitIsAncestor reports whether a is an ancestor of (or equal to) d.
func GitIsAncestor(ctx context.Context, r *shell.Runner, a, d string) (bool, error) {
	_, err := r.GitRO(ctx, "merge-base", "--is-ancestor", a, d)
	if err == nil {
		return true, nil
	}

	if shErr, ok := err.(*shell.Error); ok {
		// git merge-base --is-ancestor exits 1 when `a` is not an ancestor
		// of `d`, and >1 on an actual error (e.g. unknown revision).
		if shErr.ExitCode == 1 {
			return false, nil
		}
	}

	return false, fmt.Errorf("could not determine ancestry of %s..%s: %w", a, d, err)
}

// ListRemoteBranchesWithPrefix enumerates remote branch names (without the
// "origin/" qualifier) that carry the given prefix, for cleanup.
func ListRemoteBranchesWithPrefix(ctx context.Context, r *shell.Runner, prefix string) ([]string, error) {
	stdout, err := r.GitRO(ctx, "ls-remote", "--heads", "origin", prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("could not list remote branches with prefix %q: %w", prefix, err)
	}

	var branches []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		branches = append(branches, strings.TrimPrefix(fields[1], "refs/heads/"))
	}

	return branches, nil
}

// CurrentBranch resolves the name of the branch checked out in the current
// working tree.
func CurrentBranch(ctx context.Context, r *shell.Runner) (string, error) {
	out, err := r.GitRO(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("could not resolve current branch: %w", err)
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", fmt.Errorf("not currently on a branch (detached HEAD)")
	}
	return branch, nil
}

// CountCommits returns the number of commits reachable from head but not
// from base (`git rev-list --count base..head`), used by `land` to verify a
// PerPr segment PR carries exactly one commit over its parent.
func CountCommits(ctx context.Context, r *shell.Runner, base, head string) (int, error) {
	out, err := r.GitRO(ctx, "rev-list", "--count", base+".."+head)
	if err != nil {
		return 0, fmt.Errorf("could not count commits %s..%s: %w", base, head, err)
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil {
		return 0, fmt.Errorf("could not parse commit count for %s..%s: %w", base, head, convErr)
	}
	return n, nil
}

// originURLRe matches both SSH ("git@github.com:owner/repo.git") and HTTPS
// ("https://github.com/owner/repo.git") origin remote URL forms.
var originURLRe = regexp.MustCompile(`(?:[:/])([^/:]+)/([^/]+?)(?:\.git)?$`)

// OriginOwnerRepo resolves the owner/repo pair from the origin remote's URL,
// used to bind the provider client without requiring the user to repeat
// what git already knows.
func OriginOwnerRepo(ctx context.Context, r *shell.Runner) (owner, repo string, err error) {
	out, err := r.GitRO(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", "", fmt.Errorf("could not resolve origin remote url: %w", err)
	}
	return parseOriginURL(strings.TrimSpace(out))
}

func parseOriginURL(url string) (owner, repo string, err error) {
	m := originURLRe.FindStringSubmatch(url)
	if m == nil {
		return "", "", fmt.Errorf("could not parse owner/repo from origin url %q", url)
	}
	return m[1], m[2], nil
}

// OpenRepository is a thin go-git wrapper that opens the repository
// containing path without shelling out.
func OpenRepository(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("could not open repository at %s: %w", path, err)
	}
	return repo, nil
}
