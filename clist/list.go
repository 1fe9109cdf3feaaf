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

// Package clist implements an append-only list over a growable backing
// array: Add reserves a slot, stores the value, and only then publishes it
// by advancing a separate published counter, so size() never counts a slot
// whose value isn't visible yet.
package clist

import (
	"sync/atomic"

	"github.com/bonzini/vrc/internal/carray"
	"github.com/bonzini/vrc/rcu"
)

type entry[T any] struct {
	value T
}

type entryOwner[T any] struct{}

func (entryOwner[T]) Alloc(capacity int) []entry[T] { return make([]entry[T], capacity) }
func (entryOwner[T]) Copy(dest, src []entry[T])     { copy(dest, src) }

// List is a growable, append-only sequence. Index i, once returned by Add,
// is stable for the list's lifetime.
type List[T any] struct {
	contents  *carray.Array[entry[T]]
	published atomic.Uint64
}

// New creates a List with the given initial capacity.
func New[T any](initialCapacity int) *List[T] {
	return &List[T]{contents: carray.New[entry[T]](entryOwner[T]{}, initialCapacity)}
}

// Add reserves the next index, stores value there, and publishes it. r must
// already be locked; Add may unlock and relock it if a resize is needed. The
// returned index satisfies size() > index and At(index) == value for any
// reader that enters after Add returns.
func (l *List[T]) Add(r *rcu.Reader, value T) int {
	r = rcu.Or(r)
	idx := l.contents.Reserve(r, entryOwner[T]{}, 1.0)
	*l.contents.At(idx) = entry[T]{value: value}

	// Slots publish in reservation order: a slot can only become visible
	// in size() once every slot before it already is, so a reader that
	// sees size() > i never finds an unwritten tail at i. On CAS failure
	// we just spin, since the slot ahead of us is mid-write, not absent.
	for !l.published.CompareAndSwap(uint64(idx), uint64(idx+1)) {
	}
	return idx
}

// Size returns the number of published entries.
func (l *List[T]) Size() int {
	return int(l.published.Load())
}

// MaxSize returns the current capacity of the backing array.
func (l *List[T]) MaxSize() int {
	return l.contents.MaxSize()
}

// At returns the value at index i. The caller must be inside a read-side
// critical section and must only pass an i it has independent reason to
// believe is published (typically i < Size()).
func (l *List[T]) At(i int) T {
	return l.contents.At(i).value
}

// Iter is a snapshot iterator over a List's currently published entries.
// The caller must remain inside a read-side critical section for as long
// as it drains the iterator.
type Iter[T any] struct {
	list *List[T]
	size int
	pos  int
}

// Iter returns a fresh iterator over l's currently published entries.
func (l *List[T]) Iter() *Iter[T] {
	return &Iter[T]{list: l, size: l.Size()}
}

// Next advances the iterator and reports whether a value was produced.
func (it *Iter[T]) Next() (T, bool) {
	if it.pos >= it.size {
		var zero T
		return zero, false
	}
	v := it.list.At(it.pos)
	it.pos++
	return v, true
}
