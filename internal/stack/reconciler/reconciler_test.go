// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package reconciler

import "testing"

func TestBuildStackBlock_MarksSelfWithArrow(t *testing.T) {
	got := buildStackBlock([]int{10, 20, 30}, 20)
	want := "**Stack**:\n" +
		"- " + emSpace + " #30\n" +
		"- ➡ #20\n" +
		"- " + emSpace + " #10\n\n" +
		stackWarning
	if got != want {
		t.Errorf("buildStackBlock() = %q, want %q", got, want)
	}
}

func TestOverwriteBody_EmptyBase(t *testing.T) {
	got := overwriteBody("", "  #1")
	want := "<!-- spr-stack:start -->\n  #1\n<!-- spr-stack:end -->"
	if got != want {
		t.Errorf("overwriteBody() = %q, want %q", got, want)
	}
}

func TestOverwriteBody_WithBase(t *testing.T) {
	got := overwriteBody("fixes the thing", "  #1")
	want := "fixes the thing\n\n<!-- spr-stack:start -->\n  #1\n<!-- spr-stack:end -->"
	if got != want {
		t.Errorf("overwriteBody() = %q, want %q", got, want)
	}
}

func TestApplyStackOnly_ReplacesExistingBlock(t *testing.T) {
	current := "description\n\n<!-- spr-stack:start -->\nold\n<!-- spr-stack:end -->\n"
	got := applyStackOnly(current, "new")
	want := "description\n\n<!-- spr-stack:start -->\nnew\n<!-- spr-stack:end -->\n"
	if got != want {
		t.Errorf("applyStackOnly() = %q, want %q", got, want)
	}
}

func TestApplyStackOnly_AppendsWhenSentinelsAbsent(t *testing.T) {
	got := applyStackOnly("description", "new")
	want := "description\n\n<!-- spr-stack:start -->\nnew\n<!-- spr-stack:end -->"
	if got != want {
		t.Errorf("applyStackOnly() = %q, want %q", got, want)
	}
}

func TestApplyStackOnly_BlockAloneWhenBodyEmpty(t *testing.T) {
	got := applyStackOnly("", "new")
	want := "<!-- spr-stack:start -->\nnew\n<!-- spr-stack:end -->"
	if got != want {
		t.Errorf("applyStackOnly() = %q, want %q", got, want)
	}
}

func TestPushKind_String(t *testing.T) {
	cases := map[PushKind]string{Skip: "skip", FastForward: "fast-forward", Force: "force"}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("PushKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
