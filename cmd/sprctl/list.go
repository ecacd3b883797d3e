// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stack's commits or pull requests",
	}
	cmd.AddCommand(newListPRCmd(gf))
	cmd.AddCommand(newListCommitCmd(gf))
	return cmd
}

func newListPRCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pr",
		Short: "List the stack's pull requests, with status icons",
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

			entries, err := resolveStatusEntries(ctx, p, a)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s #%d  %s  %s  %s\n", e.Icons, e.Number, e.Branch, e.Title, e.URL)
			}
			return nil
		},
	}
}

func newListCommitCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "List the stack's commits, numbered bottom-up",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}

			n := 1
			for _, g := range a.groups {
				for i, subject := range g.Subjects {
					marker := " "
					if i == 0 {
						marker = "*"
					}
					fmt.Printf("%2d %s %s  %s\n", n, marker, g.Tag, subject)
				}
				n++
			}
			return nil
		},
	}
}
