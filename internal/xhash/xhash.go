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

// Package xhash provides the two hash functions the concurrent containers
// need: a generic hash for uint64 keys (the integer hash set) and a fast
// string hash (the string-keyed map and the call graph's name/file/label
// indexes).
package xhash

import (
	"github.com/dolthub/maphash"
	"github.com/zeebo/xxh3"
)

var uint64Hasher = maphash.NewHasher[uint64]()

// HashUint64 hashes a uint64 key. Used by intset.Set, whose keys are
// NodeIds or other plain integers.
func HashUint64(key uint64) uint64 {
	return uint64Hasher.Hash(key)
}

// HashString hashes a string key. Used by strmap.Map and, through it, by
// every string-keyed index in package graph.
func HashString(s string) uint64 {
	return xxh3.HashString(s)
}
