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
	"sync"
	"sync/atomic"

	"github.com/bonzini/vrc/intset"
)

// NodeId indexes into a Graph's node list. It is stable for the graph's
// lifetime.
type NodeId uint64

// node is one function/symbol in the call graph. name is immutable once
// the node is constructed; file and line follow a first-writer-wins
// discipline, and username may be replaced until a file is set, after which
// it is frozen; all three are guarded by mu. external and the three edge
// sets tolerate concurrent, unsynchronized readers by construction (atomic
// flag, lock-free sets).
type node struct {
	name string

	mu       sync.Mutex
	username string
	file     string
	line     int64

	external atomic.Bool

	callers *intset.Set
	calls   *intset.Set
	refs    *intset.Set
}

func newNode(name string, initialCapacity int) *node {
	n := &node{
		name:    name,
		line:    -1,
		callers: intset.New(initialCapacity),
		calls:   intset.New(initialCapacity),
		refs:    intset.New(initialCapacity),
	}
	n.external.Store(true)
	return n
}

// trySetUsername records username if no file is set yet, reporting whether
// it did. Once a file is set, the node is frozen: a further call must name
// the same username already recorded, or it is a programming error.
func (n *node) trySetUsername(username string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.file != "" {
		if n.username != username {
			panic("graph: conflicting username set after location was recorded")
		}
		return false
	}
	n.username = username
	return true
}

// setLocation records file and line if none is set yet, reporting whether
// this call was the one that set it.
func (n *node) setLocation(file string, line int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.file != "" {
		return false
	}
	n.file = file
	n.line = line
	return true
}

func (n *node) location() (file string, line int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.file, n.line
}

func (n *node) getUsername() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.username
}
