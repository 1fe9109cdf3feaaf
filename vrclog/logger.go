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

// Package vrclog is the pluggable logging interface used by package graph
// to report the handful of benign races spec.md documents (a losing
// name-map race that orphans a node, a discarded duplicate set_location),
// never the hot path of an uncontended operation.
package vrclog

import "context"

// Logger is the interface graph.Graph accepts for diagnostic output.
type Logger interface {
	// Debug logs a message at the debug level.
	Debug(ctx context.Context, msg string, args ...any)
	// Warn logs a message at the warn level with an error.
	Warn(ctx context.Context, msg string, err error)
	// Error logs a message at the error level with an error.
	Error(ctx context.Context, msg string, err error)
}

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (noopLogger) Warn(ctx context.Context, msg string, err error)    {}
func (noopLogger) Error(ctx context.Context, msg string, err error)   {}

// Noop is a Logger that discards everything. It is graph.Graph's default.
func Noop() Logger {
	return noopLogger{}
}
