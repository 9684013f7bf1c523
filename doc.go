/*
 *
 * Copyright 2023 CubeFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# shardmgr: the replicated shard lifecycle core

A shard manager tracks the lifecycle of shards within a placement
group (PG): allocating shard ids, proposing CREATE and SEAL through a
per-PG replicated log, and applying committed entries into a durable
superblock record exactly once regardless of how many times a given
log entry is delivered.

## Data Model

* PG (Placement Group) - the unit of replication. Every shard belongs
  to exactly one PG and is never reassigned.

* Shard - a capacity-bounded unit of storage within a PG, identified
  by a ShardID that encodes its PG and a per-PG monotonic sequence.

* Chunk - the underlying storage extent a shard is bound to, handed
  out by a chunkselector.Selector and released back to it on SEAL.

## Architecture

* idalloc - per-PG monotonic ShardID allocation.

* codec - the CRC32-framed wire encoding of CREATE/SEAL log entries.

* catalog - the replicated core: Proposer submits entries to a PG's
  replog.Device, Committer applies them idempotently on every replica
  (steady-state delivery and restart replay alike), Manager wires both
  to the Directory and to the external collaborators (replog.Device,
  chunkselector.Selector, superblock.Store).

* directory - the in-memory index of every PG this replica serves and
  the shards committed within each.

* superblock - the durable named-blob record a shard's current state
  is persisted into.

### Replication

Each PG's CREATE/SEAL history lives in its own replicated log; the
Committer is the log's only writer of shard state and needs no
coordination across PGs.

### Idempotency

Every apply checks existence/state before any side effect, so replay
of an already-applied entry after a crash is a safe no-op rather than
a duplicate insert.

## Building Blocks

* Prometheus
* golang.org/x/sync/errgroup
* golang.org/x/time/rate
* github.com/google/uuid

*/

package shardmgr
