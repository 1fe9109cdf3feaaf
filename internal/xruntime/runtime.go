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

// Package xruntime holds small facts about the host that the concurrent
// containers use to lay out memory: the cache line size, for padding hot
// atomics apart so independent readers and writers do not false-share a
// line.
package xruntime

const (
	// CacheLineSize is used to pad hot atomic fields so that independent
	// readers and writers do not false-share a cache line.
	CacheLineSize = 64
)
