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

// Package intset implements an open-addressing, linear-probing hash set of
// uint64 keys over a growable backing array. It is the container behind
// every node-id set in package graph (callers, calls, refs, per-label
// membership).
package intset

import (
	"sync/atomic"

	"github.com/bonzini/vrc/internal/carray"
	"github.com/bonzini/vrc/internal/xhash"
	"github.com/bonzini/vrc/internal/xmath"
	"github.com/bonzini/vrc/rcu"
)

// Sentinel marks an empty slot. Keys must never equal it.
const Sentinel = ^uint64(0)

type slotOwner struct{}

func (slotOwner) Alloc(capacity int) []atomic.Uint64 {
	slots := make([]atomic.Uint64, capacity)
	for i := range slots {
		slots[i].Store(Sentinel)
	}
	return slots
}

func (slotOwner) Copy(dest, src []atomic.Uint64) {
	mask := uint64(len(dest) - 1)
	for i := range src {
		key := src[i].Load()
		if key == Sentinel {
			continue
		}
		i := xhash.HashUint64(key) - 1
		for {
			i = (i + 1) & mask
			if dest[i].Load() == Sentinel {
				break
			}
		}
		dest[i].Store(key)
	}
}

// Set is a growable open-addressing set of uint64 keys.
type Set struct {
	contents *carray.Array[atomic.Uint64]
}

// New creates a Set whose initial capacity is the smallest power of two
// that is at least initialCapacity.
func New(initialCapacity int) *Set {
	capacity := int(xmath.RoundUpPowerOf2(uint32(initialCapacity)))
	return &Set{contents: carray.New[atomic.Uint64](slotOwner{}, capacity)}
}

func (s *Set) findIndex(key uint64, i uint64) uint64 {
	mask := uint64(s.contents.MaxSize() - 1)
	for {
		i = (i + 1) & mask
		v := s.contents.At(int(i)).Load()
		if v == Sentinel || v == key {
			return i
		}
	}
}

// Add inserts key, returning true if it was not already present. key must
// not equal Sentinel.
func (s *Set) Add(r *rcu.Reader, key uint64) bool {
	if key == Sentinel {
		panic("intset: sentinel value inserted")
	}
	r = rcu.Or(r)
	s.contents.Reserve(r, slotOwner{}, 0.75)

	i := xhash.HashUint64(key) - 1
	for {
		i = s.findIndex(key, i)
		slot := s.contents.At(int(i))
		if slot.Load() == key {
			s.contents.DropReservation()
			return false
		}
		if slot.CompareAndSwap(Sentinel, key) {
			return true
		}
		// Lost the race for this slot. Someone else just stored something
		// there; reread it before probing onward, since that someone may
		// have been a concurrent Add(key) that beat us to it, in which
		// case we must report false rather than install a second slot for
		// the same key.
		if slot.Load() == key {
			s.contents.DropReservation()
			return false
		}
	}
}

// Includes reports whether key is present.
func (s *Set) Includes(r *rcu.Reader, key uint64) bool {
	_ = r
	i := xhash.HashUint64(key) - 1
	i = s.findIndex(key, i)
	return s.contents.At(int(i)).Load() == key
}

// Size returns a lower bound on the number of distinct keys present.
func (s *Set) Size() int {
	return s.contents.Size()
}

// MaxSize returns the current capacity of the backing array.
func (s *Set) MaxSize() int {
	return s.contents.MaxSize()
}

// Iter is a snapshot iterator over a Set's current backing array. The
// caller must remain inside a read-side critical section for as long as it
// drains the iterator.
type Iter struct {
	slots []atomic.Uint64
	pos   int
}

// Iter returns a fresh iterator over s's current contents.
func (s *Set) Iter() *Iter {
	return &Iter{slots: s.contents.Load()}
}

// Next advances the iterator, skipping sentinel slots, and reports whether
// a value was produced.
func (it *Iter) Next() (uint64, bool) {
	for it.pos < len(it.slots) {
		v := it.slots[it.pos].Load()
		it.pos++
		if v != Sentinel {
			return v, true
		}
	}
	return 0, false
}
