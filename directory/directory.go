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

// Package directory holds the concurrent in-memory indices the data
// path and the committer share: PG -> ordered shards, shard id -> shard
// entry, shard id -> chunk id, and the per-PG "any allocated chunk"
// cache. It is the sole owner of both indices; InsertShard, called on
// CREATE commit and on startup recovery, is the only method that takes
// the PG lock and the shard lock together, always PG-before-shard.
package directory

import (
	"sync"

	"github.com/shardkeep/shardmgr/chunkselector"
	"github.com/shardkeep/shardmgr/errors"
	"github.com/shardkeep/shardmgr/idalloc"
	"github.com/shardkeep/shardmgr/internal/assert"
	"github.com/shardkeep/shardmgr/proto"
	"github.com/shardkeep/shardmgr/replog"
	"github.com/shardkeep/shardmgr/superblock"
)

// ShardEntry is the directory-side record for one shard: the logical
// ShardInfo, its durable superblock handle, and the chunk it is bound to.
type ShardEntry struct {
	Info    proto.ShardInfo
	Blob    superblock.Blob
	ChunkID chunkselector.ChunkNum
}

// pgEntry is the directory-side record for one placement group.
type pgEntry struct {
	id               proto.PGID
	device           replog.Device
	shardSequenceNum uint64
	shards           []*ShardEntry // insertion order == commit order
	anyAllocChunk    *chunkselector.ChunkNum
}

// Directory is the concurrent PG/shard index. The zero value is not
// ready for use; construct with New.
type Directory struct {
	pgMu sync.RWMutex
	pgs  map[proto.PGID]*pgEntry

	shardMu sync.RWMutex
	shards  map[proto.ShardID]*ShardEntry
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{
		pgs:    make(map[proto.PGID]*pgEntry),
		shards: make(map[proto.ShardID]*ShardEntry),
	}
}

// RegisterPG installs (or replaces) the replication device for pg. Called
// once a PG's membership is known, independent of any shard activity.
func (d *Directory) RegisterPG(pg proto.PGID, dev replog.Device) {
	d.pgMu.Lock()
	defer d.pgMu.Unlock()

	e, ok := d.pgs[pg]
	if !ok {
		e = &pgEntry{id: pg}
		d.pgs[pg] = e
	}
	e.device = dev
}

// Device resolves pg's replication handle. Returns ErrUnknownPG if the PG
// was never registered, ErrPGNotReady if it exists but has no device yet.
func (d *Directory) Device(pg proto.PGID) (replog.Device, error) {
	d.pgMu.RLock()
	defer d.pgMu.RUnlock()

	e, ok := d.pgs[pg]
	if !ok {
		return nil, errors.ErrUnknownPG
	}
	if e.device == nil {
		return nil, errors.ErrPGNotReady
	}
	return e.device, nil
}

// AllocateShardID pre-increments pg's sequence and composes a fresh
// ShardID. Leader-side only — followers adopt the ID carried in the
// replicated payload instead of calling this.
func (d *Directory) AllocateShardID(pg proto.PGID) (proto.ShardID, error) {
	d.pgMu.Lock()
	defer d.pgMu.Unlock()

	e, ok := d.pgs[pg]
	if !ok {
		return 0, errors.ErrUnknownPG
	}

	next, id := idalloc.Next(pg, e.shardSequenceNum)
	e.shardSequenceNum = next
	return id, nil
}

// GetShardChunk returns the chunk bound to shard id, if the shard exists.
func (d *Directory) GetShardChunk(id proto.ShardID) (chunkselector.ChunkNum, bool) {
	d.shardMu.RLock()
	defer d.shardMu.RUnlock()

	e, ok := d.shards[id]
	if !ok {
		return 0, false
	}
	return e.ChunkID, true
}

// GetAnyChunkID returns a placement hint for pg: the chunk of its first
// ever shard, cached on first lookup. Not authoritative.
func (d *Directory) GetAnyChunkID(pg proto.PGID) (chunkselector.ChunkNum, bool) {
	d.pgMu.Lock()
	defer d.pgMu.Unlock()

	e, ok := d.pgs[pg]
	if !ok {
		return 0, false
	}
	if e.anyAllocChunk != nil {
		return *e.anyAllocChunk, true
	}
	if len(e.shards) == 0 {
		return 0, false
	}
	chunk := e.shards[0].ChunkID
	e.anyAllocChunk = &chunk
	return chunk, true
}

// GetShard returns the directory's current view of shard id.
func (d *Directory) GetShard(id proto.ShardID) (ShardEntry, bool) {
	d.shardMu.RLock()
	defer d.shardMu.RUnlock()

	e, ok := d.shards[id]
	if !ok {
		return ShardEntry{}, false
	}
	return *e, true
}

// ShardExists reports whether id has already been materialised — the
// CREATE commit's idempotence check.
func (d *Directory) ShardExists(id proto.ShardID) bool {
	d.shardMu.RLock()
	defer d.shardMu.RUnlock()
	_, ok := d.shards[id]
	return ok
}

// InsertShard materialises a brand-new shard entry: inserts it into the
// PG's ordered list and the shard-id index, and raises the PG's sequence
// to at least the sequence encoded in id (follower catch-up). Takes the
// PG lock then the shard lock, the one call site in this core that holds
// both at once, always in that order.
//
// Returns false without modifying anything if id is already present —
// callers must check ShardExists first under their own serialization if
// they need a race-free read, but InsertShard itself re-checks under
// lock so concurrent callers never double-insert.
func (d *Directory) InsertShard(pg proto.PGID, id proto.ShardID, entry *ShardEntry) bool {
	d.pgMu.Lock()
	defer d.pgMu.Unlock()
	d.shardMu.Lock()
	defer d.shardMu.Unlock()

	if _, exists := d.shards[id]; exists {
		return false
	}

	pgE, ok := d.pgs[pg]
	// A CREATE can only commit for a PG this replica already knows about
	// — the replicated log guarantees PG membership precedes any shard
	// traffic. Missing PG here is a broken invariant, not a recoverable error.
	assert.Release(ok, "create commit for unknown pg %d", pg)

	pgE.shards = append(pgE.shards, entry)
	d.shards[id] = entry

	if seq := id.Sequence(); seq > pgE.shardSequenceNum {
		pgE.shardSequenceNum = seq
	}
	return true
}

// UpdateShard overwrites the in-memory ShardInfo for an existing shard
// (the SEAL commit path). The shard must already exist.
func (d *Directory) UpdateShard(id proto.ShardID, info proto.ShardInfo) {
	d.shardMu.Lock()
	defer d.shardMu.Unlock()

	e, ok := d.shards[id]
	if !ok {
		return
	}
	e.Info = info
}

// ShardSequenceNum returns pg's current shard_sequence_num, for tests and
// reporting.
func (d *Directory) ShardSequenceNum(pg proto.PGID) (uint64, bool) {
	d.pgMu.RLock()
	defer d.pgMu.RUnlock()
	e, ok := d.pgs[pg]
	if !ok {
		return 0, false
	}
	return e.shardSequenceNum, true
}

// Shards returns a snapshot of pg's shards in commit order.
func (d *Directory) Shards(pg proto.PGID) []proto.ShardInfo {
	d.pgMu.RLock()
	defer d.pgMu.RUnlock()

	e, ok := d.pgs[pg]
	if !ok {
		return nil
	}
	out := make([]proto.ShardInfo, len(e.shards))
	for i, s := range e.shards {
		out[i] = s.Info
	}
	return out
}
