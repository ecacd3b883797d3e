// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/stack/reconciler"
)

func newUpdateCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Push the stack's branches, open missing PRs, and rewrite bases/descriptions",
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

			s := spinner.New(spinner.CharSets[9], spinnerInterval)
			s.Suffix = " updating stack..."
			s.Start()
			res, err := reconciler.Update(ctx, a.runner, p, a.groups, a.cfg)
			s.Stop()
			if err != nil {
				return err
			}

			for _, e := range res.Entries {
				logging.G(ctx).WithField("pr", e.Number).Info(e.URL)
			}
			return nil
		},
	}
}
