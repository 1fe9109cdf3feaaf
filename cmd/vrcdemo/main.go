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

// Command vrcdemo builds a small synthetic call graph from several
// goroutines racing to declare overlapping functions and edges, then
// prints summary counts. It is not a real ingest pipeline (the library's
// AST visitor and CLI glue are out of scope); it exists to exercise
// package rcu, clist, intset, strmap and graph together end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/bonzini/vrc/graph"
	"github.com/bonzini/vrc/rcu"
	"github.com/bonzini/vrc/vrclog"
)

func main() {
	workers := flag.Int("workers", 8, "number of concurrent worker goroutines")
	funcsPerWorker := flag.Int("funcs", 50, "functions declared per worker")
	flag.Parse()

	logger := vrclog.NewSlog(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	g := graph.Must(graph.WithLogger(logger), graph.WithInitialCapacity(64))

	run(g, logger, *workers, *funcsPerWorker)

	ctx := context.Background()
	logger.Debug(ctx, "ingest complete",
		"nodes", g.NodeCount(),
		"files", len(g.AllFiles(nil)),
	)
	fmt.Printf("nodes=%d files=%v\n", g.NodeCount(), g.AllFiles(nil))
}

// run spawns workers goroutines, each declaring funcsPerWorker functions in
// its own file and wiring call edges to a function shared by every worker
// (a deliberate race on the same node, mirroring the shared "caller races
// callee" scenario the library is built to handle safely).
func run(g *graph.Graph, logger vrclog.Logger, workers, funcsPerWorker int) {
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			r := rcu.RegisterReader()
			defer r.Unregister()

			file := fmt.Sprintf("worker%d.c", worker)
			shared := g.AddExternalNode(r, "shared_helper")

			for i := 0; i < funcsPerWorker; i++ {
				name := fmt.Sprintf("worker%d_func%d", worker, i)
				id := g.AddExternalNode(r, name)
				g.SetDefined(r, id)
				g.SetLocation(r, id, file, int64(i))
				g.AddLabel(r, id, "generated")
				g.AddEdge(r, id, shared, true)
			}
		}(w)
	}
	wg.Wait()

	logger.Debug(context.Background(), "all workers finished")
}
