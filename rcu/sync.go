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

import "github.com/gammazero/deque"

// Synchronize blocks until every read-side critical section that was in
// progress when it was called has ended. It may be called from multiple
// writer goroutines concurrently; calls are serialized by the same lock
// that guards reader registration, so only one Synchronize actually drains
// readers at a time (this mirrors the source, whose lock_guard on
// threads_lock is held for the whole function body, including while it
// blocks on the wake semaphore).
func Synchronize() {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry.Count() == 0 {
		return
	}

	gp := currentGP.Load()
	currentGP.Store(gp + 1)

	waiting := deque.New[*Reader]()
	registry.Iter(func(r *Reader, _ struct{}) (stop bool) {
		waiting.PushBack(r)
		return false
	})

	for {
		// Drop any stale notification left over from a previous round.
		wake.tryAcquire()

		for i := 0; i < waiting.Len(); i++ {
			waiting.At(i).waiting.Store(true)
		}

		// No explicit fence is issued: sync/atomic operations are
		// sequentially consistent, so the waiting stores above and the
		// period loads below pair with Reader.Unlock's period store and
		// waiting load. A reader either has its period visible as gp below
		// (still in the section that started before this grace period) or
		// has already observed waiting==true and will release wake on its
		// way out.

		next := deque.New[*Reader]()
		for i := 0; i < waiting.Len(); i++ {
			r := waiting.At(i)
			if r.period.Load() == gp {
				next.PushBack(r)
			} else {
				r.waiting.Store(false)
			}
		}

		if next.Len() == 0 {
			return
		}

		waiting = next
		wake.acquire()
	}
}
