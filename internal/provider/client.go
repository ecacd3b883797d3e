// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package provider is the GraphQL-first adapter onto a GitHub-like hosting
// provider: a typed githubv4 query authenticates the client at construction
// time, and every other query/mutation is a hand-built GraphQL document
// whose shape depends on a runtime-determined number of aliased fields (one
// per head branch or PR number) — something githubv4's reflection-based
// typed queries cannot express. REST (google/go-github) covers PR creation
// and the paginated open-PR listing used by cleanup.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/go-github/v32/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/unikraft/sprctl/internal/logging"
)

// Client is bound to a single owner/repo, matching internal/ghapi's
// single-org GithubClient shape.
type Client struct {
	gql      *githubv4.Client
	rest     *github.Client
	http     *http.Client
	endpoint string

	Owner string
	Repo  string
	Login string

	webBase string
}

// PRURL builds the human-facing URL for a PR number, honoring an Enterprise
// endpoint the same way the GraphQL/REST endpoints above do.
func (c *Client) PRURL(number int) string {
	return fmt.Sprintf("%s/%s/%s/pull/%d", c.webBase, c.Owner, c.Repo, number)
}

// NewClient authenticates with a personal access token (or GitHub App
// installation token) and resolves the authenticated login, mirroring
// internal/ghapi.NewGithubClient's oauth2.StaticTokenSource setup.
func NewClient(ctx context.Context, token, endpoint, owner, repo string) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	restClient := github.NewClient(httpClient)
	gqlClient := githubv4.NewClient(httpClient)
	gqlEndpoint := "https://api.github.com/graphql"
	webBase := "https://github.com"

	if endpoint != "" {
		var err error
		restClient, err = github.NewEnterpriseClient(endpoint, endpoint, httpClient)
		if err != nil {
			return nil, fmt.Errorf("could not build enterprise REST client: %w", err)
		}
		gqlEndpoint = strings.TrimRight(endpoint, "/") + "/api/graphql"
		gqlClient = githubv4.NewEnterpriseClient(gqlEndpoint, httpClient)
		webBase = strings.TrimRight(endpoint, "/")
	}

	c := &Client{
		gql:      gqlClient,
		rest:     restClient,
		http:     httpClient,
		endpoint: gqlEndpoint,
		Owner:    owner,
		Repo:     repo,
		webBase:  webBase,
	}

	var q struct {
		Viewer struct {
			Login githubv4.String
		}
		RateLimit struct {
			Cost      githubv4.Int
			Remaining githubv4.Int
		}
	}
	if err := c.gql.Query(ctx, &q, nil); err != nil {
		return nil, fmt.Errorf("could not authenticate against the GitHub GraphQL API: %w", err)
	}
	c.Login = string(q.Viewer.Login)

	logging.G(ctx).WithField("login", c.Login).WithField("remaining", int(q.RateLimit.Remaining)).Debug("authenticated with github")

	return c, nil
}

type graphqlRequest struct {
	Query string `json:"query"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// rawQuery executes a hand-built GraphQL document and decodes its "data"
// field into out (nil to discard). Dynamic alias keys (h0, h1, pr0, pr1, ...)
// decode naturally into Go maps without any reflection gymnastics.
func (c *Client) rawQuery(ctx context.Context, document string, out interface{}) error {
	payload, err := json.Marshal(graphqlRequest{Query: document})
	if err != nil {
		return fmt.Errorf("could not encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach graphql endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read graphql response: %w", err)
	}

	var gr graphqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("could not parse graphql response (status %s): %w", resp.Status, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("graphql error: %s", strings.Join(msgs, "; "))
	}
	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("could not decode graphql data: %w", err)
		}
	}

	return nil
}

var bodyArgRe = regexp.MustCompile(`body:"(?:[^"\\]|\\.)*"`)

// rawMutate executes a mutation document, honoring dry-run by logging the
// intended mutation with body-bearing arguments elided instead of sending
// it, mirroring shell.Runner.GhRW's --body elision policy.
func (c *Client) rawMutate(ctx context.Context, document string, dry bool) error {
	if dry {
		logging.G(ctx).WithField("mutation", bodyArgRe.ReplaceAllString(document, `body:"<elided>"`)).Info("dry-run: would run graphql mutation")
		return nil
	}
	return c.rawQuery(ctx, document, nil)
}

// escape applies the escaping discipline spec.md §9 requires for every
// value written inside a GraphQL string literal, grounded in
// original_source/src/github.rs's graphql_escape.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
