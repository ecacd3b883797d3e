// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stack's pull requests with CI/review/merged status icons",
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
			if len(entries) == 0 {
				fmt.Println("no pull requests in the stack")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%-2s #%d  %-40s %s\n", e.Icons, e.Number, e.Branch, e.Title)
			}
			return nil
		},
	}
}
