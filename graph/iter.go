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
	"github.com/bonzini/vrc/clist"
	"github.com/bonzini/vrc/intset"
	"github.com/bonzini/vrc/rcu"
)

type nodeSource func() (NodeId, bool)

func noNodes() (NodeId, bool) { return 0, false }

// NodeIter yields NodeIds from a snapshot of a set or list taken at
// construction time. Unlike the source's C ABI iterator (which released its
// read-side critical section the instant the getter returned, before a
// caller's first iter_next — an invalidation hazard the source's own "TODO:
// iterator invalidation" comment flags), a NodeIter owns a dedicated reader
// that it keeps locked for its own lifetime, so the snapshot it was built
// from is guaranteed to stay valid for as long as the caller drains it.
// Close releases that reader; an iterator that is never closed leaks a
// permanently-locked reader, so callers should always close one they
// fully or partially drain.
type NodeIter struct {
	reader *rcu.Reader
	source nodeSource
	closed bool
}

func newNodeIter() *NodeIter {
	r := rcu.RegisterReader()
	r.Lock()
	return &NodeIter{reader: r, source: noNodes}
}

// Next advances the iterator, skipping sentinel slots the same way the
// underlying set or list does, and reports whether a value was produced.
func (it *NodeIter) Next() (NodeId, bool) {
	if it.closed {
		return 0, false
	}
	return it.source()
}

// Close unlocks and unregisters the iterator's internal reader, taking the
// place of the C surface's iter_delete. Safe to call more than once; Next
// produces nothing after Close.
func (it *NodeIter) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.reader.Unlock()
	it.reader.Unregister()
}

func setNodeSource(s *intset.Set) nodeSource {
	inner := s.Iter()
	return func() (NodeId, bool) {
		v, ok := inner.Next()
		return NodeId(v), ok
	}
}

func listNodeSource(l *clist.List[NodeId]) nodeSource {
	inner := l.Iter()
	return inner.Next
}

// GetCallers returns an iterator over id's callers set.
func (g *Graph) GetCallers(id NodeId) *NodeIter {
	it := newNodeIter()
	it.source = setNodeSource(g.nodeAt(id).callers)
	return it
}

// GetCallees returns an iterator over id's calls set.
func (g *Graph) GetCallees(id NodeId) *NodeIter {
	it := newNodeIter()
	it.source = setNodeSource(g.nodeAt(id).calls)
	return it
}

// GetRefs returns an iterator over id's refs set.
func (g *Graph) GetRefs(id NodeId) *NodeIter {
	it := newNodeIter()
	it.source = setNodeSource(g.nodeAt(id).refs)
	return it
}

// AllNodesForFile returns an iterator over every NodeId located in file. If
// no node has ever been located there, the iterator produces nothing.
func (g *Graph) AllNodesForFile(file string) *NodeIter {
	it := newNodeIter()
	var none *clist.List[NodeId]
	list := g.nodesByFile.GetOr(it.reader, file, &none)
	if *list != nil {
		it.source = listNodeSource(*list)
	}
	return it
}

// AllNodesForLabel returns an iterator over every NodeId carrying label. If
// the label was never added, the iterator produces nothing.
func (g *Graph) AllNodesForLabel(label string) *NodeIter {
	it := newNodeIter()
	labels := g.nodeLabels.LoadForReader()
	var none *intset.Set
	set := labels.GetOr(it.reader, label, &none)
	if *set != nil {
		it.source = setNodeSource(*set)
	}
	return it
}

// AllFiles returns every distinct file path nodes have been located in. The
// result's capacity is pre-sized from the file index's Size() at the start
// of the call, the way the source's graph_all_files sizes its calloc, but
// the slice still grows: the walk covers the index's live backing buffer, so
// a file published into that buffer during the walk may or may not appear.
func (g *Graph) AllFiles(r *rcu.Reader) []string {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	out := make([]string, 0, g.nodesByFile.Size())
	it := g.nodesByFile.Iter()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, k)
	}
	return out
}

// AllLabels returns every distinct label ever added, sized the same way as
// AllFiles.
func (g *Graph) AllLabels(r *rcu.Reader) []string {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	labels := g.nodeLabels.LoadForReader()
	out := make([]string, 0, labels.Size())
	it := labels.Iter()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, k)
	}
	return out
}
