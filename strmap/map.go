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

// Package strmap implements an open-addressing, linear-probing hash map
// keyed by string, with two-phase key publication so a reader never
// observes a slot whose value isn't visible yet. It backs every
// string-indexed lookup in package graph: the canonical name index, the
// username index, the per-file node index and the per-label node index.
package strmap

import (
	"fmt"
	"sync/atomic"

	"github.com/bonzini/vrc/internal/carray"
	"github.com/bonzini/vrc/internal/xhash"
	"github.com/bonzini/vrc/internal/xmath"
	"github.com/bonzini/vrc/rcu"
)

// pendingKey is a unique, never-dereferenced sentinel pointer identifying a
// slot claimed by a writer whose value has not yet been published. Its
// identity, not its contents, is what matters: no real key string can ever
// share this address.
var pendingKey = new(string)

type mapEntry[V any] struct {
	key   atomic.Pointer[string]
	value V
}

type entryOwner[V any] struct{}

func (entryOwner[V]) Alloc(capacity int) []mapEntry[V] { return make([]mapEntry[V], capacity) }

func (entryOwner[V]) Copy(dest, src []mapEntry[V]) {
	mask := uint64(len(dest) - 1)
	for i := range src {
		k := src[i].key.Load()
		if k == nil {
			continue
		}
		// No PENDING slot can exist here: the resize mutex that guards
		// Copy also serializes against every in-flight Reserve, so every
		// occupied slot in src is already fully published.
		idx := xhash.HashString(*k) - 1
		for {
			idx = (idx + 1) & mask
			if dest[idx].key.Load() == nil {
				break
			}
		}
		dest[idx].value = src[i].value
		dest[idx].key.Store(k)
	}
}

// Map is a growable open-addressing string-keyed map.
type Map[V any] struct {
	contents *carray.Array[mapEntry[V]]
}

// New creates a Map whose initial capacity is the smallest power of two
// that is at least initialCapacity.
func New[V any](initialCapacity int) *Map[V] {
	capacity := int(xmath.RoundUpPowerOf2(uint32(initialCapacity)))
	return &Map[V]{contents: carray.New[mapEntry[V]](entryOwner[V]{}, capacity)}
}

// acquire finds or claims the slot for key. If it returns inserter == true,
// the caller has exclusively claimed an empty slot and must publish it by
// writing the value and then the key. Otherwise the returned slot already
// holds key's published value.
func (m *Map[V]) acquire(r *rcu.Reader, key string) (slot *mapEntry[V], inserter bool) {
	m.contents.Reserve(r, entryOwner[V]{}, 0.75)
	mask := uint64(m.contents.MaxSize() - 1)
	i := xhash.HashString(key) - 1
	advance := true
	for {
		if advance {
			i = (i + 1) & mask
		}
		advance = true

		slot = m.contents.At(int(i))
		k := slot.key.Load()
		for k == pendingKey {
			k = slot.key.Load()
		}
		if k == nil {
			if slot.key.CompareAndSwap(nil, pendingKey) {
				return slot, true
			}
			// Someone else claimed or published this slot first;
			// re-examine it rather than skipping past it.
			advance = false
			continue
		}
		if *k == key {
			m.contents.DropReservation()
			return slot, false
		}
	}
}

// GetOrInsertDefault returns a stable pointer to key's value, inserting the
// zero value of V if key is absent.
func (m *Map[V]) GetOrInsertDefault(r *rcu.Reader, key string) *V {
	var zero V
	return m.GetOrInsertWith(r, key, func() V { return zero })
}

// GetOrInsertWith is like GetOrInsertDefault but, when key is absent,
// constructs the value by calling factory instead of using V's zero value.
// factory runs before the key is published, so a concurrent reader that
// observes the published key always sees a fully constructed value; this
// matters for value types like a pointer to a freshly allocated container,
// where the zero value (nil) would not be usable.
func (m *Map[V]) GetOrInsertWith(r *rcu.Reader, key string, factory func() V) *V {
	r = rcu.Or(r)
	slot, inserter := m.acquire(r, key)
	if !inserter {
		return &slot.value
	}
	slot.value = factory()
	k := key
	slot.key.Store(&k)
	return &slot.value
}

// InsertIfAbsent inserts value under key if absent, returning a pointer to
// the value now stored (the caller's value if inserted, the existing one
// otherwise; the caller's value is discarded in that case).
func (m *Map[V]) InsertIfAbsent(r *rcu.Reader, key string, value V) *V {
	r = rcu.Or(r)
	slot, inserter := m.acquire(r, key)
	if !inserter {
		return &slot.value
	}
	slot.value = value
	k := key
	slot.key.Store(&k)
	return &slot.value
}

func (m *Map[V]) find(key string) *mapEntry[V] {
	mask := uint64(m.contents.MaxSize() - 1)
	i := xhash.HashString(key) - 1
	for {
		i = (i + 1) & mask
		slot := m.contents.At(int(i))
		k := slot.key.Load()
		for k == pendingKey {
			k = slot.key.Load()
		}
		if k == nil {
			return nil
		}
		if *k == key {
			return slot
		}
	}
}

// Get returns a pointer to key's value. It panics if key is absent.
func (m *Map[V]) Get(r *rcu.Reader, key string) *V {
	_ = rcu.Or(r)
	slot := m.find(key)
	if slot == nil {
		panic(fmt.Sprintf("strmap: get on absent key %q", key))
	}
	return &slot.value
}

// GetOr returns a pointer to key's value, or def if key is absent.
func (m *Map[V]) GetOr(r *rcu.Reader, key string, def *V) *V {
	_ = rcu.Or(r)
	slot := m.find(key)
	if slot == nil {
		return def
	}
	return &slot.value
}

// Size returns the number of reserved slots (published or momentarily
// in-flight); once all writers active at call time have quiesced, this
// equals the number of distinct keys inserted.
func (m *Map[V]) Size() int {
	return m.contents.Size()
}

// MaxSize returns the current capacity of the backing array.
func (m *Map[V]) MaxSize() int {
	return m.contents.MaxSize()
}

// Iter is a snapshot iterator over a Map's occupied, published slots. The
// caller must remain inside a read-side critical section for as long as it
// drains the iterator.
type Iter[V any] struct {
	slots []mapEntry[V]
	pos   int
}

// Iter returns a fresh iterator over m's current contents.
func (m *Map[V]) Iter() *Iter[V] {
	return &Iter[V]{slots: m.contents.Load()}
}

// Next advances the iterator, skipping empty and pending slots, and reports
// whether an entry was produced.
func (it *Iter[V]) Next() (key string, value *V, ok bool) {
	for it.pos < len(it.slots) {
		slot := &it.slots[it.pos]
		it.pos++
		k := slot.key.Load()
		if k != nil && k != pendingKey {
			return *k, &slot.value, true
		}
	}
	return "", nil, false
}
