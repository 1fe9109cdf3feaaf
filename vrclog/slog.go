// Copyright (c) 2023 Alexey Mayshev. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vrclog

import (
	"context"
	"log/slog"
)

var _ Logger = (*SlogLogger)(nil)

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlog returns a Logger backed by log.
func NewSlog(log *slog.Logger) *SlogLogger {
	if log == nil {
		panic("vrclog: log is nil")
	}
	return &SlogLogger{log: log}
}

// Debug is for the Logger interface.
func (l *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.log.DebugContext(ctx, msg, args...)
}

// Warn is for the Logger interface.
func (l *SlogLogger) Warn(ctx context.Context, msg string, err error) {
	l.log.WarnContext(ctx, msg, slog.Any("err", err))
}

// Error is for the Logger interface.
func (l *SlogLogger) Error(ctx context.Context, msg string, err error) {
	l.log.ErrorContext(ctx, msg, slog.Any("err", err))
}
