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

package rcu

import "sync/atomic"

// Pointer is a single-owner, many-reader RCU-protected pointer cell. It is
// the Go counterpart of the source's RCUPtr<T>: one designated writer calls
// Store/SwapAndDeferFree, any number of readers call LoadForReader from
// inside a read-side critical section.
type Pointer[T any] struct {
	p atomic.Pointer[T]
}

// LoadForReader loads the pointer. The pointee's publishing writes happen
// before this load observes it; the source specifies consume ordering here,
// but Go's atomic package does not distinguish consume from acquire, so
// this uses the same underlying load as any other atomic pointer read
// (strictly stronger than consume, which is always a safe substitution).
func (p *Pointer[T]) LoadForReader() *T {
	return p.p.Load()
}

// LoadForOwner loads the pointer without any ordering contract beyond what
// Go's atomics always provide. It exists to document that only the single
// designated writer may call it; readers must use LoadForReader.
func (p *Pointer[T]) LoadForOwner() *T {
	return p.p.Load()
}

// Store publishes a new pointee with release ordering.
func (p *Pointer[T]) Store(v *T) {
	p.p.Store(v)
}

// SwapAndDeferFree publishes v, waits for every reader that might still be
// observing the previous pointee to finish its critical section, and
// returns the previous pointee so the caller can release any non-memory
// resources it owns. Ordinary memory is reclaimed by the garbage collector
// once the caller drops its own reference; the Synchronize call is what
// makes dropping that reference safe.
func (p *Pointer[T]) SwapAndDeferFree(v *T) *T {
	old := p.p.Swap(v)
	Synchronize()
	return old
}
