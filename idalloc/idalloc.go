// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package idalloc generates new shard IDs by composing a PG id with a
// monotonic per-PG sequence. It holds no state of its own — the sequence
// counter lives on the directory's PG entry, guarded by the PG lock, and
// the directory calls Next under that lock on every allocation.
package idalloc

import (
	"github.com/shardkeep/shardmgr/internal/assert"
	"github.com/shardkeep/shardmgr/proto"
)

// Next pre-increments current and composes the resulting ShardID for pg.
// The caller must hold pg's write lock. Panics if the PG is exhausted —
// sequence space exhaustion is a broken invariant, not a recoverable error.
func Next(pg proto.PGID, current uint64) (next uint64, id proto.ShardID) {
	next = current + 1
	assert.Release(next < proto.MaxShardNumInPG(), "pg %d exhausted its shard sequence space (max %d)", pg, proto.MaxShardNumInPG())
	return next, proto.MakeShardID(pg, next)
}
