// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/gitutil"
)

func newFixPRCmd(gf *globalFlags) *cobra.Command {
	var n, tail int

	cmd := &cobra.Command{
		Use:   "fix-pr",
		Short: "Move the top --tail commits so they become the tail of group --n",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}

			base := gitutil.ToRemoteRef(a.cfg.Base)
			return a.engine().FixPR(ctx, base, a.leadingIgnored, a.groups, n, tail, a.cfg.DryRun)
		},
	}
	cmd.Flags().IntVar(&n, "n", 0, "1-based group index to move the tail into")
	cmd.Flags().IntVar(&tail, "tail", 0, "number of commits from the top of the stack to move")
	return cmd
}
