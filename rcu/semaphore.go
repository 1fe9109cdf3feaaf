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

// binarySemaphore is a channel-backed binary semaphore: it is either signaled
// or not, and a release while already signaled is a no-op. It plays the role
// of std::binary_semaphore in the source RCU implementation, and is built the
// way the teacher builds its MPSC queue's consumer wakeup (a buffered channel
// of size 1 guarded by an atomic flag so releases never block).
type binarySemaphore struct {
	signaled atomic.Uint32
	ch       chan struct{}
}

func newBinarySemaphore() *binarySemaphore {
	return &binarySemaphore{ch: make(chan struct{}, 1)}
}

// release signals the semaphore if it is not already signaled.
func (s *binarySemaphore) release() {
	if s.signaled.CompareAndSwap(0, 1) {
		s.ch <- struct{}{}
	}
}

// tryAcquire drains a pending signal without blocking.
func (s *binarySemaphore) tryAcquire() {
	select {
	case <-s.ch:
		s.signaled.Store(0)
	default:
	}
}

// acquire blocks until the semaphore is signaled.
func (s *binarySemaphore) acquire() {
	<-s.ch
	s.signaled.Store(0)
}
