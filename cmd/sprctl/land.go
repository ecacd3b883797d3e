// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/config"
	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/stack/land"
)

func newLandCmd(gf *globalFlags) *cobra.Command {
	var mode string
	var unsafe, noRestack bool

	cmd := &cobra.Command{
		Use:   "land [flatten|per-pr]",
		Short: "Merge the landing segment and close/comment on the PRs beneath it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}

			landMode := a.cfg.Land
			if mode != "" {
				landMode = parseLandModeArg(mode)
			} else if len(args) == 1 {
				landMode = parseLandModeArg(args[0])
			}

			p, err := a.provider(ctx)
			if err != nil {
				return err
			}

			opts := land.Options{
				N:            gf.until,
				Mode:         landMode,
				BypassSafety: unsafe,
				NoRestack:    noRestack,
				Dry:          a.cfg.DryRun,
			}
			res, err := land.Land(ctx, a.runner, p, a.engine(), a.leadingIgnored, a.groups, a.cfg, opts)
			if err != nil {
				return err
			}

			logging.G(ctx).WithField("pr", res.LandingPR).WithField("restacked", res.Restacked).Info("landed")
			for _, b := range res.Landed {
				fmt.Println("landed", b)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "flatten (squash-merge) or per-pr (rebase-merge); default from config")
	cmd.Flags().BoolVar(&unsafe, "unsafe", false, "land even if CI/review safety gates are not green")
	cmd.Flags().BoolVar(&noRestack, "no-restack", false, "skip restacking the remaining groups after landing")
	return cmd
}

func parseLandModeArg(s string) config.LandMode {
	switch s {
	case "per-pr", "perpr":
		return config.PerPr
	default:
		return config.Flatten
	}
}
