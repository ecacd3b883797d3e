// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package cleanup

import (
	"reflect"
	"testing"
)

func TestStaleBranches(t *testing.T) {
	branches := []string{"u/three", "u/one", "u/two"}
	open := map[string]bool{"u/two": true}

	got := staleBranches(branches, open)
	want := []string{"u/one", "u/three"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestStaleBranches_AllOpen(t *testing.T) {
	branches := []string{"u/one", "u/two"}
	open := map[string]bool{"u/one": true, "u/two": true}
	if got := staleBranches(branches, open); len(got) != 0 {
		t.Fatalf("expected no stale branches, got %v", got)
	}
}

func TestStaleBranches_NoneOpen(t *testing.T) {
	branches := []string{"u/one"}
	if got := staleBranches(branches, map[string]bool{}); len(got) != 1 || got[0] != "u/one" {
		t.Fatalf("expected [u/one], got %v", got)
	}
}
