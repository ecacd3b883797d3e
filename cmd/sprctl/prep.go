// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/gitutil"
	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/stack/reconciler"
	"github.com/unikraft/sprctl/internal/stack/rewrite"
)

const prepSuccessorWarning = "parent PRs have changed, this PR may show extra diffs from parent PR"

func newPrepCmd(gf *globalFlags) *cobra.Command {
	var until int

	cmd := &cobra.Command{
		Use:   "prep",
		Short: "Squash selected groups into one commit each via commit-tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}

			sel, err := prepSelectionFromFlags(until, gf.exact)
			if err != nil {
				return err
			}
			successor := rewrite.SuccessorGroup(a.groups, sel)

			base := gitutil.ToRemoteRef(a.cfg.Base)
			if err := a.engine().PrepSquash(ctx, base, a.leadingIgnored, a.groups, sel, a.cfg.DryRun); err != nil {
				return err
			}
			if err := a.parseStack(ctx, gf); err != nil {
				return err
			}

			p, err := a.provider(ctx)
			if err != nil {
				return err
			}
			if _, err := reconciler.Update(ctx, a.runner, p, a.groups, a.cfg); err != nil {
				return fmt.Errorf("prepped successfully but update failed: %w", err)
			}

			if successor != nil {
				branch := successor.BranchName(a.cfg.Prefix)
				prs, err := p.ListOpenPRsForHeads(ctx, []string{branch})
				if err != nil {
					return fmt.Errorf("prepped and updated successfully but could not resolve successor PR: %w", err)
				}
				if len(prs) == 1 {
					if err := p.AppendWarningToPR(ctx, prs[0].Number, prepSuccessorWarning, a.cfg.DryRun); err != nil {
						logging.G(ctx).WithError(err).Warn("could not append successor warning")
					}
				}
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&until, "until", 0, "squash groups 1..=N (bottom-up)")
	cmd.Flags().IntVar(&gf.exact, "exact", 0, "squash only group N (bottom-up)")
	return cmd
}

func prepSelectionFromFlags(until, exact int) (rewrite.Selection, error) {
	switch {
	case until > 0 && exact > 0:
		return rewrite.Selection{}, fmt.Errorf("--until and --exact are mutually exclusive")
	case exact > 0:
		return rewrite.Selection{Kind: rewrite.SelectionExact, N: exact}, nil
	case until > 0:
		return rewrite.Selection{Kind: rewrite.SelectionUntil, N: until}, nil
	default:
		return rewrite.Selection{Kind: rewrite.SelectionAll}, nil
	}
}
