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

package graph

import (
	"errors"

	"github.com/bonzini/vrc/vrclog"
)

const defaultInitialCapacity = 16

// ErrIllegalCapacity means a non-positive initial capacity was passed to
// an Option.
var ErrIllegalCapacity = errors.New("vrc: initial capacity should be positive")

type options struct {
	initialCapacity int
	logger          vrclog.Logger
}

func defaultOptions() *options {
	return &options{
		initialCapacity: defaultInitialCapacity,
		logger:          vrclog.Noop(),
	}
}

func (o *options) validate() error {
	if o.initialCapacity <= 0 {
		return ErrIllegalCapacity
	}
	return nil
}

// Option configures a Graph built by New.
type Option func(*options)

// WithInitialCapacity sets the initial capacity of every container the
// Graph allocates. capacity must be positive.
func WithInitialCapacity(capacity int) Option {
	return func(o *options) {
		o.initialCapacity = capacity
	}
}

// WithLogger sets the Logger used to report benign races. The default is
// vrclog.Noop.
func WithLogger(logger vrclog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
