// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package version carries the build-time version of sprctl.
package version

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Commit is the git commit sprctl was built from, overridden at build time.
var Commit = "unknown"

// String renders a one-line version string for the root command's help.
func String() string {
	return "sprctl " + Version + " (" + Commit + ")"
}
