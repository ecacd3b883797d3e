// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unikraft/sprctl/internal/gitutil"
)

func newMoveCmd(gf *globalFlags) *cobra.Command {
	var after string

	cmd := &cobra.Command{
		Use:   "move RANGE --after C",
		Short: "Move the atomic block of groups RANGE to sit immediately after position C",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, gf)
			if err != nil {
				return err
			}

			rangeA, rangeB, err := parseMoveRange(args[0])
			if err != nil {
				return err
			}
			dest, err := parseMoveAfter(after, len(a.groups))
			if err != nil {
				return err
			}

			base := gitutil.ToRemoteRef(a.cfg.Base)
			return a.engine().Move(ctx, base, a.leadingIgnored, a.groups, rangeA, rangeB, dest, a.cfg.DryRun)
		},
	}
	cmd.Flags().StringVar(&after, "after", "bottom", "group position to move the range after: a number, \"bottom\", or \"top\"")
	return cmd
}

// parseMoveRange accepts "A" or "A..B", per spec.md §4.F.
func parseMoveRange(s string) (a, b int, err error) {
	if idx := strings.Index(s, ".."); idx >= 0 {
		a, err = parseIntArg(s[:idx])
		if err != nil {
			return 0, 0, err
		}
		b, err = parseIntArg(s[idx+2:])
		if err != nil {
			return 0, 0, err
		}
		return a, b, nil
	}

	n, err := parseIntArg(s)
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}

// parseMoveAfter accepts an integer, "bottom" (= 0), or "top" (= n), per
// spec.md §4.F.
func parseMoveAfter(s string, n int) (int, error) {
	switch strings.ToLower(s) {
	case "bottom":
		return 0, nil
	case "top":
		return n, nil
	}
	return parseIntArg(s)
}

func parseIntArg(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("could not parse %q as an integer: %w", s, err)
	}
	return n, nil
}
