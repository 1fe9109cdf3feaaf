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

// Package rcu implements a quiescent-state-based RCU (read-copy-update)
// engine: readers enter and leave read-side critical sections without ever
// blocking, and a writer's Synchronize call blocks until every critical
// section in progress at its call time has completed. Package clist,
// intset and strmap use it to grow their backing arrays without making
// readers pay for atomic reference counting.
package rcu

import (
	"sync"
	"sync/atomic"

	"github.com/dolthub/swiss"
)

// Reader is a read-side handle. Callers enter a critical section with Lock
// and leave it with Unlock; sections must be balanced and must not nest.
// A Reader is meant to be owned by a single goroutine at a time (the source
// implementation calls this "thread scope"); Lock/Unlock on the same Reader
// from multiple goroutines concurrently is a misuse this package does not
// guard against, matching the original's thread-local design.
type Reader struct {
	depth   uint32
	period  atomic.Uint64
	waiting atomic.Bool
}

var (
	registryMu sync.Mutex
	registry   = swiss.NewMap[*Reader, struct{}](32)

	currentGP atomic.Uint64
	wake      = newBinarySemaphore()

	ambientOnce sync.Once
	ambient     *Reader
)

func init() {
	// The grace-period counter starts at 1; 0 means "not inside a read
	// section" and must never be a valid grace-period value.
	currentGP.Store(1)
}

// RegisterReader creates a new Reader and adds it to the global reader set
// that Synchronize scans.
func RegisterReader() *Reader {
	r := &Reader{}
	registryMu.Lock()
	registry.Put(r, struct{}{})
	registryMu.Unlock()
	return r
}

// Unregister removes r from the global reader set. r must not be used for
// further Lock/Unlock calls afterwards.
func (r *Reader) Unregister() {
	registryMu.Lock()
	registry.Delete(r)
	registryMu.Unlock()
}

// Ambient returns the lazily-initialized, process-wide reader handle used by
// call sites that do not pass an explicit Reader. It is registered on first
// use and lives for the remainder of the process.
func Ambient() *Reader {
	ambientOnce.Do(func() {
		ambient = RegisterReader()
	})
	return ambient
}

// Or returns r if non-nil, else the ambient reader. Every package built on
// top of rcu that accepts an optional *Reader argument should route it
// through Or so that a nil Reader means "use the ambient handle".
func Or(r *Reader) *Reader {
	if r != nil {
		return r
	}
	return Ambient()
}

// Lock enters a read-side critical section. Re-entering a section already
// held by this Reader is a programming error and panics, matching the
// source's std::abort() on re-entry.
func (r *Reader) Lock() {
	if r.depth != 0 {
		panic("rcu: reader critical section entered while already active")
	}
	r.depth++

	// Write period before any read the caller performs in the critical
	// section. Every sync/atomic operation in the Go memory model acts as
	// a full barrier relative to other atomic operations, so the explicit
	// seq_cst fence the source pairs with this store has no separate
	// analogue to spell out here; the store itself provides it.
	r.period.Store(currentGP.Load())
}

// Unlock leaves a read-side critical section previously entered with Lock.
func (r *Reader) Unlock() {
	if r.depth == 0 {
		panic("rcu: reader critical section unlocked without a matching lock")
	}
	r.depth--
	r.period.Store(0)

	// Paired with Synchronize marking readers "wake requested" and then
	// re-checking their period (see sync.go; both sides rely on the
	// sequential consistency of sync/atomic rather than a fence): either
	// this reader's period was observed as the writer's grace period (and
	// it stays on the writer's waiting list), or this load observes the
	// writer's wake request and releases it here.
	if r.waiting.Load() {
		r.waiting.Store(false)
		wake.release()
	}
}
