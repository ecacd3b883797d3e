// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/stack/reconciler"
)

// newRelinkCmd builds the base-normalization-only command; `fix-stack` is
// registered as a second command under a different Use so both names show
// up in --help, since cobra commands don't alias by name alone.
func newRelinkCmd(gf *globalFlags, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Rerun only the chain-of-bases normalization (a subset of update)",
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

			return reconciler.Relink(ctx, a.runner, p, a.groups, a.cfg)
		},
	}
}
