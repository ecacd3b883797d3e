// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package rewrite

import (
	"reflect"
	"testing"

	"github.com/unikraft/sprctl/internal/stack/parser"
)

func TestOpsFromSHAs(t *testing.T) {
	if ops := opsFromSHAs(nil); ops != nil {
		t.Fatalf("expected nil for empty input, got %v", ops)
	}
	if ops := opsFromSHAs([]string{"a"}); len(ops) != 1 || ops[0].Arg() != "a" {
		t.Fatalf("single sha: got %v", ops)
	}
	ops := opsFromSHAs([]string{"a", "b", "c"})
	if len(ops) != 1 || ops[0].Arg() != "a^..c" {
		t.Fatalf("range: got %v", ops)
	}
}

func groupsFixture() []*parser.Group {
	return []*parser.Group{
		{Tag: "one", Commits: []string{"c1"}},
		{Tag: "two", Commits: []string{"c2", "c3"}, IgnoredAfter: []string{"i1"}},
		{Tag: "three", Commits: []string{"c4"}},
	}
}

func TestBuildFullPlan(t *testing.T) {
	ops := buildFullPlan([]string{"lead1"}, groupsFixture())
	var args []string
	for _, o := range ops {
		args = append(args, o.Arg())
	}
	want := []string{"lead1", "c1", "c2^..c3", "i1", "c4"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
}

func TestComputeMovePermutation_MoveUpPastTop(t *testing.T) {
	order, err := computeMovePermutation(4, 1, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 4, 1, 2}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("got %v, want %v", order, want)
	}
}

func TestComputeMovePermutation_MoveToBottom(t *testing.T) {
	order, err := computeMovePermutation(4, 3, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 1, 2, 4}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("got %v, want %v", order, want)
	}
}

func TestComputeMovePermutation_SingleGroupToItself(t *testing.T) {
	order, err := computeMovePermutation(4, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	if !isIdentityOrder(order) {
		t.Fatal("expected identity order for a == b == c")
	}
}

func TestComputeMovePermutation_DestinationInsideRangeRejected(t *testing.T) {
	if _, err := computeMovePermutation(4, 1, 2, 2); err == nil {
		t.Fatal("expected error when destination falls inside moved range")
	}
}

func TestComputeMovePermutation_InvalidRange(t *testing.T) {
	if _, err := computeMovePermutation(3, 2, 1, 0); err == nil {
		t.Fatal("expected error for b < a")
	}
	if _, err := computeMovePermutation(3, 1, 4, 0); err == nil {
		t.Fatal("expected error for b > n")
	}
}

func TestReorderGroups(t *testing.T) {
	groups := groupsFixture()
	reordered := reorderGroups(groups, []int{3, 1, 2})
	if reordered[0].Tag != "three" || reordered[1].Tag != "one" || reordered[2].Tag != "two" {
		t.Fatalf("unexpected order: %v %v %v", reordered[0].Tag, reordered[1].Tag, reordered[2].Tag)
	}
}

func TestBuildFixPRPlan_MovesTailAfterTargetGroup(t *testing.T) {
	groups := []*parser.Group{
		{Tag: "one", Commits: []string{"c1"}},
		{Tag: "two", Commits: []string{"c2", "c3"}, IgnoredAfter: []string{"i1"}},
		{Tag: "three", Commits: []string{"c4", "c5"}},
	}
	ops, err := buildFixPRPlan(nil, groups, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	var args []string
	for _, o := range ops {
		args = append(args, o.Arg())
	}
	// total commits: c1 c2 c3 i1 c4 c5 (6); tail=1 splits group three's
	// c4^..c5 chunk into c4 (kept) and c5 (moved); c5 is inserted right
	// after group 1's (c1) insertion point.
	want := []string{"c1", "c5", "c2^..c3", "i1", "c4"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
}

func TestBuildFixPRPlan_RejectsMovingGroupMarker(t *testing.T) {
	groups := groupsFixture()
	// tail=4 moves c2,c3,i1,c4 - the last of which (c4) is group three's
	// sole commit and thus its marker commit.
	if _, err := buildFixPRPlan(nil, groups, 1, 4); err == nil {
		t.Fatal("expected error when selection would move a group marker commit")
	}
}

func TestBuildFixPRPlan_OutOfRangeGroup(t *testing.T) {
	groups := groupsFixture()
	if _, err := buildFixPRPlan(nil, groups, 0, 1); err == nil {
		t.Fatal("expected error for group index 0")
	}
	if _, err := buildFixPRPlan(nil, groups, 99, 1); err == nil {
		t.Fatal("expected error for out-of-range group index")
	}
}

func TestBuildFixPRPlan_OutOfRangeTail(t *testing.T) {
	groups := groupsFixture()
	if _, err := buildFixPRPlan(nil, groups, 1, 0); err == nil {
		t.Fatal("expected error for non-positive tail")
	}
	if _, err := buildFixPRPlan(nil, groups, 1, 100); err == nil {
		t.Fatal("expected error for tail exceeding the stack size")
	}
}

func TestParseWorktreeList(t *testing.T) {
	out := "worktree /repo\nHEAD deadbeef\nbranch refs/heads/main\n\n" +
		"worktree /tmp/spr-restack-abc\nHEAD cafebabe\nbranch refs/heads/spr/tmp-restack-abc\n"
	entries := parseWorktreeList(out)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].path != "/repo" || entries[0].branch != "main" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].path != "/tmp/spr-restack-abc" || entries[1].branch != "spr/tmp-restack-abc" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}
