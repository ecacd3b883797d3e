// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package provider

import (
	"errors"
	"testing"
)

func opsN(n int) []mutationOp {
	ops := make([]mutationOp, n)
	for i := range ops {
		ops[i] = buildUpdateBaseOp("b", "PR_node", "main")
	}
	return ops
}

func TestChunkOps_PrefersSingle(t *testing.T) {
	chunks := chunkOps(opsN(3), 50, 20000)
	if len(chunks) != 1 || len(chunks[0]) != 3 {
		t.Fatalf("expected a single chunk of 3, got %+v", chunks)
	}
}

func TestChunkOps_SplitsByMaxOps(t *testing.T) {
	chunks := chunkOps(opsN(5), 2, 1<<20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (2,2,1), got %d", len(chunks))
	}
	if len(chunks[0]) != 2 || len(chunks[1]) != 2 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunk sizes: %v %v %v", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestChunkOps_SplitsByMaxChars(t *testing.T) {
	single := buildMutationDocument(opsN(1))
	maxChars := len(single) + 5
	chunks := chunkOps(opsN(4), 50, maxChars)
	if len(chunks) < 2 {
		t.Fatalf("expected char budget to force more than one chunk, got %d", len(chunks))
	}
}

func TestChunkOps_Empty(t *testing.T) {
	if chunks := chunkOps(nil, 50, 20000); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}

func TestIsResourceLimitError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("graphql error: RESOURCE_LIMITS_EXCEEDED"), true},
		{errors.New("Resource limits for this query have been exceeded"), true},
		{errors.New("some other failure"), false},
	}
	for _, c := range cases {
		if got := isResourceLimitError(c.err); got != c.want {
			t.Errorf("isResourceLimitError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestEscape(t *testing.T) {
	in := "line1\nline2\t\"quoted\"\\back\rcarriage"
	want := `line1\nline2\t\"quoted\"\\back\rcarriage`
	if got := escape(in); got != want {
		t.Errorf("escape() = %q, want %q", got, want)
	}
}

func TestBuildMutationDocument(t *testing.T) {
	doc := buildMutationDocument([]mutationOp{buildUpdateBaseOp("b0", "PR_1", "main")})
	want := `mutation { b0: updatePullRequest(input:{pullRequestId:"PR_1", baseRefName:"main"}){ clientMutationId } }`
	if doc != want {
		t.Errorf("buildMutationDocument() = %q, want %q", doc, want)
	}
}
