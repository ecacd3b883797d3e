// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/rancher/wrangler/v3/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/logging"
	"github.com/unikraft/sprctl/internal/version"
)

func newRootCmd() *cobra.Command {
	gf := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "sprctl COMMAND",
		Short: "Manage a stacked pull request workflow",
		Long: heredoc.Docf(`
			Manage a stacked pull request workflow

			sprctl turns a branch of commits carrying pr:<tag> markers into a
			stack of GitHub pull requests, and keeps that stack's branches,
			bases, and descriptions in sync as the commits change.

			VERSION
			  %s`, version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	addGlobalFlags(cmd, gf)

	cmd.AddCommand(newUpdateCmd(gf))
	cmd.AddCommand(newRestackCmd(gf))
	cmd.AddCommand(newPrepCmd(gf))
	cmd.AddCommand(newListCmd(gf))
	cmd.AddCommand(newStatusCmd(gf))
	cmd.AddCommand(newLandCmd(gf))
	cmd.AddCommand(newRelinkCmd(gf, "relink-prs"))
	cmd.AddCommand(newRelinkCmd(gf, "fix-stack"))
	cmd.AddCommand(newFixPRCmd(gf))
	cmd.AddCommand(newMoveCmd(gf))
	cmd.AddCommand(newCleanupCmd(gf))

	return cmd
}

func main() {
	ctx := signals.SetupSignalContext()

	logger := logrus.New()
	logger.Formatter = logging.NewTextFormatter()
	ctx = logging.WithLogger(ctx, logger)

	cmd := newRootCmd()
	cmd.SetContext(ctx)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sprctl:", err)
		os.Exit(1)
	}
}
