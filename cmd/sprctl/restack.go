// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/gitutil"
)

func newRestackCmd(gf *globalFlags) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "restack",
		Short: "Drop the first N already-landed groups and rebuild the rest from base",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}
			if n < 0 || n > len(a.groups) {
				return fmt.Errorf("n must be between 0 and %d, got %d", len(a.groups), n)
			}

			base := gitutil.ToRemoteRef(a.cfg.Base)
			return a.engine().RestackAfter(ctx, base, a.leadingIgnored, a.groups, n, a.cfg.DryRun)
		},
	}
	cmd.Flags().IntVar(&n, "n", 0, "number of leading groups, bottom-up, to drop as already landed")
	return cmd
}
