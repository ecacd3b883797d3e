// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2022, Unikraft GmbH and The Unikraft Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

// Package logging carries a *logrus.Entry through a context.Context, the
// same shape the teacher's kraftkit.sh/log.G(ctx) offered, without pulling
// in the rest of that SDK.
package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// WithLogger attaches logger to ctx, returning a derived context.
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logrus.NewEntry(logger))
}

// G returns the logger previously attached to ctx, or an entry on logrus's
// standard logger if none was attached. Mirrors the teacher's log.G(ctx) call site exactly so
// the rest of the codebase reads the same way it did in the teacher.
func G(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// NewTextFormatter builds a forced-color text formatter with timestamps
// disabled (DisableTimestamp takes precedence over FullTimestamp), without
// the kraftkit indirection.
func NewTextFormatter() *logrus.TextFormatter {
	return &logrus.TextFormatter{
		ForceColors:      true,
		FullTimestamp:    true,
		DisableTimestamp: true,
	}
}
