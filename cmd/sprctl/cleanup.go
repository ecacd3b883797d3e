// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/stack/cleanup"
)

func newCleanupCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete remote stack branches that no longer carry an open PR",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}

			p, err := a.provider(ctx)
			if err != nil {
				return err
			}

			deleted, err := cleanup.Clean(ctx, a.runner, p, a.cfg.Prefix, a.cfg.DryRun)
			if err != nil {
				return err
			}
			if len(deleted) == 0 {
				fmt.Println("nothing to clean up")
				return nil
			}
			for _, b := range deleted {
				fmt.Println("deleted", b)
			}
			return nil
		},
	}
}
