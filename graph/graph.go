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

// Package graph implements a concurrent call-graph accumulator: nodes,
// caller/callee/reference edges, a file index and a label index, built
// entirely on package clist, intset and strmap and coordinated by package
// rcu. Every exported method that takes a reader handle accepts nil
// (falling back to rcu.Ambient) and holds it locked for the duration of the
// call, the same way the source wraps every C ABI entry point in a single
// lock guard for its whole body. NodeCount and ResetLabels take no reader,
// and the iterator getters in iter.go lock a reader of their own.
package graph

import (
	"context"

	"github.com/bonzini/vrc/clist"
	"github.com/bonzini/vrc/intset"
	"github.com/bonzini/vrc/rcu"
	"github.com/bonzini/vrc/strmap"
	"github.com/bonzini/vrc/vrclog"
)

// Graph is a concurrent, append-only call-graph accumulator. The zero
// value is not usable; construct one with New.
type Graph struct {
	logger          vrclog.Logger
	initialCapacity int

	nodesByIndex    *clist.List[*node]
	nodes           *strmap.Map[NodeId]
	nodesByUsername *strmap.Map[NodeId]
	nodesByFile     *strmap.Map[*clist.List[NodeId]]
	nodeLabels      rcu.Pointer[strmap.Map[*intset.Set]]
}

// New creates a Graph. It returns ErrIllegalCapacity if WithInitialCapacity
// was given a non-positive value.
func New(opts ...Option) (*Graph, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		logger:          o.logger,
		initialCapacity: o.initialCapacity,
		nodesByIndex:    clist.New[*node](o.initialCapacity),
		nodes:           strmap.New[NodeId](o.initialCapacity),
		nodesByUsername: strmap.New[NodeId](o.initialCapacity),
		nodesByFile:     strmap.New[*clist.List[NodeId]](o.initialCapacity),
	}
	g.nodeLabels.Store(strmap.New[*intset.Set](o.initialCapacity))
	return g, nil
}

// Must is like New but panics on error.
func Must(opts ...Option) *Graph {
	g, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) nodeAt(id NodeId) *node {
	return g.nodesByIndex.At(int(id))
}

func lookupNodeId(r *rcu.Reader, m *strmap.Map[NodeId], key string) (NodeId, bool) {
	var notFound NodeId
	marker := &notFound
	ptr := m.GetOr(r, key, marker)
	if ptr == marker {
		return 0, false
	}
	return *ptr, true
}

// AddExternalNode returns the existing NodeId for name (checked first
// against usernames, then against canonical names), or creates a new
// external node and returns its id. Two concurrent calls for the same name
// may both reserve a node; the loser's node is left in the list, reachable
// only by index, never by name — spec.md's documented orphan-node race.
func (g *Graph) AddExternalNode(r *rcu.Reader, name string) NodeId {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	if id, ok := lookupNodeId(r, g.nodesByUsername, name); ok {
		return id
	}
	if id, ok := lookupNodeId(r, g.nodes, name); ok {
		return id
	}

	idx := g.nodesByIndex.Add(r, newNode(name, g.initialCapacity))
	id := NodeId(idx)
	winner := g.nodes.InsertIfAbsent(r, name, id)
	if *winner != id {
		g.logger.Debug(context.Background(), "orphaned node from a racing add_external_node",
			"name", name, "orphan_id", id, "winning_id", *winner)
	}
	return *winner
}

// SetDefined clears id's external flag.
func (g *Graph) SetDefined(r *rcu.Reader, id NodeId) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	g.nodeAt(id).external.Store(false)
}

// SetUsername records username as id's human-readable alternate name and
// indexes it for lookup, if id's file location has not yet been set. If the
// file is already set, username must equal the value already recorded, or
// this panics (matching the source's assert).
func (g *Graph) SetUsername(r *rcu.Reader, id NodeId, username string) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	n := g.nodeAt(id)
	if !n.trySetUsername(username) {
		return
	}
	g.nodesByUsername.InsertIfAbsent(r, username, id)
}

// SetLocation records id's source file and line, if none is set yet, and
// indexes id under nodesByFile[file]. A second call for the same id is a
// silently discarded benign race (first writer wins).
func (g *Graph) SetLocation(r *rcu.Reader, id NodeId, file string, line int64) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	n := g.nodeAt(id)
	if !n.setLocation(file, line) {
		g.logger.Debug(context.Background(), "duplicate set_location discarded", "id", id, "file", file)
		return
	}

	list := *g.nodesByFile.GetOrInsertWith(r, file, func() *clist.List[NodeId] {
		return clist.New[NodeId](g.initialCapacity)
	})
	list.Add(r, id)
}

// AddEdge adds caller to callee's callers set, and callee to caller's calls
// set (isCall) or refs set (!isCall). Self-edges and duplicate edges are
// allowed; the backing set simply de-duplicates the latter.
func (g *Graph) AddEdge(r *rcu.Reader, caller, callee NodeId, isCall bool) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	g.nodeAt(callee).callers.Add(r, uint64(caller))
	if isCall {
		g.nodeAt(caller).calls.Add(r, uint64(callee))
	} else {
		g.nodeAt(caller).refs.Add(r, uint64(callee))
	}
}

// NodeCount returns the number of nodes in the graph, including orphans.
func (g *Graph) NodeCount() int {
	return g.nodesByIndex.Size()
}

// Name returns id's canonical name.
func (g *Graph) Name(r *rcu.Reader, id NodeId) string {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()
	return g.nodeAt(id).name
}

// Username returns id's recorded username, or "" if none was set.
func (g *Graph) Username(r *rcu.Reader, id NodeId) string {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()
	return g.nodeAt(id).getUsername()
}

// Location returns id's recorded file and line, or ("", -1) if none was set.
func (g *Graph) Location(r *rcu.Reader, id NodeId) (file string, line int64) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()
	return g.nodeAt(id).location()
}

// GetNode returns the NodeId registered for name, checked first against
// usernames, then canonical names.
func (g *Graph) GetNode(r *rcu.Reader, name string) (NodeId, bool) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	if id, ok := lookupNodeId(r, g.nodesByUsername, name); ok {
		return id, true
	}
	return lookupNodeId(r, g.nodes, name)
}

// IsNodeExternal reports whether id has not been marked defined.
func (g *Graph) IsNodeExternal(r *rcu.Reader, id NodeId) bool {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()
	return g.nodeAt(id).external.Load()
}

// HasEdge reports whether dst is in src's calls set, or (if refOk) in src's
// refs set and dst is not external. The "not external" guard keeps refs
// from producing false call-like edges to mere declarations.
func (g *Graph) HasEdge(r *rcu.Reader, src, dst NodeId, refOk bool) bool {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	if g.nodeAt(src).calls.Includes(r, uint64(dst)) {
		return true
	}
	if g.nodeAt(dst).external.Load() {
		return false
	}
	return refOk && g.nodeAt(src).refs.Includes(r, uint64(dst))
}

// HasCallEdge reports whether dst is in src's calls set.
func (g *Graph) HasCallEdge(r *rcu.Reader, src, dst NodeId) bool {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()
	return g.nodeAt(src).calls.Includes(r, uint64(dst))
}

// AddLabel adds id to label's node set, creating the set on first use.
func (g *Graph) AddLabel(r *rcu.Reader, id NodeId, label string) {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	labels := g.nodeLabels.LoadForReader()
	set := *labels.GetOrInsertWith(r, label, func() *intset.Set {
		return intset.New(g.initialCapacity)
	})
	set.Add(r, uint64(id))
}

// HasLabel reports whether id is in label's node set.
func (g *Graph) HasLabel(r *rcu.Reader, id NodeId, label string) bool {
	r = rcu.Or(r)
	r.Lock()
	defer r.Unlock()

	labels := g.nodeLabels.LoadForReader()
	var none *intset.Set
	set := labels.GetOr(r, label, &none)
	if *set == nil {
		return false
	}
	return (*set).Includes(r, uint64(id))
}

// ResetLabels atomically replaces the label index with a fresh, empty one.
// It is the library's only bulk-destructive operation: any reader still
// retaining a raw reference to the old label map across this call sees
// stale data, not a crash, since the old map is only freed after a grace
// period elapses.
func (g *Graph) ResetLabels() {
	fresh := strmap.New[*intset.Set](g.initialCapacity)
	g.nodeLabels.SwapAndDeferFree(fresh)
}
