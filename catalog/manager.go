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

package catalog

import (
	"context"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"golang.org/x/sync/errgroup"

	"github.com/shardkeep/shardmgr/chunkselector"
	"github.com/shardkeep/shardmgr/directory"
	shardmgrerrors "github.com/shardkeep/shardmgr/errors"
	"github.com/shardkeep/shardmgr/proto"
	"github.com/shardkeep/shardmgr/replog"
	"github.com/shardkeep/shardmgr/superblock"
)

// Manager is the shard manager's public entry point: it owns the
// Directory, the Proposer, and the Committer, and exposes the CRUD
// surface a node's RPC layer calls into.
type Manager struct {
	dir      *directory.Directory
	proposer *Proposer
	comitter *Committer
	store    superblock.Store
}

// NewManager wires a Manager over store and selector, submitting
// proposals at up to writeMBPS megabytes/sec (0 for unlimited).
// RegisterPG must be called for every PG this replica serves before
// Recover or any proposal.
func NewManager(store superblock.Store, selector chunkselector.Selector, writeMBPS int) *Manager {
	dir := directory.New()
	return &Manager{
		dir:      dir,
		proposer: NewProposer(dir, writeMBPS),
		comitter: NewCommitter(dir, store, selector),
		store:    store,
	}
}

// RegisterPG installs dev as pg's replication device, and the Committer as
// its CommitHandler. Call once per PG this replica serves, before traffic.
func (m *Manager) RegisterPG(pg proto.PGID, dev replog.Device) {
	m.dir.RegisterPG(pg, dev)
}

// CommitHandler returns the Committer so callers can wire it to whatever
// owns the replication device's commit callback.
func (m *Manager) CommitHandler() replog.CommitHandler {
	return m.comitter
}

// Recover lists and decodes every surviving superblock once, then fans one
// goroutine out per PG to reinsert that PG's shards — the same
// enumerate-then-load shape the node uses to bring its disks up at
// startup. Must run after every served PG is registered and before log
// replay begins.
func (m *Manager) Recover(ctx context.Context, pgs []proto.PGID) error {
	span := trace.SpanFromContextSafe(ctx)

	blobs, err := m.store.Enumerate(ctx, superblock.Family)
	if err != nil {
		span.Errorf("recover: enumerate failed: %v", err)
		return err
	}

	type loaded struct {
		record superblock.Record
		blob   superblock.Blob
	}
	byPG := make(map[proto.PGID][]loaded, len(pgs))
	for _, blob := range blobs {
		raw, err := blob.Read()
		if err != nil {
			span.Errorf("recover: read blob %s failed: %v", blob.Name(), err)
			return err
		}
		record, err := superblock.UnmarshalRecord(raw)
		if err != nil {
			span.Errorf("recover: decode blob %s failed: %v", blob.Name(), err)
			return err
		}
		byPG[record.Info.PlacementGroup] = append(byPG[record.Info.PlacementGroup], loaded{record: record, blob: blob})
	}

	g, _ := errgroup.WithContext(ctx)
	for _, pg := range pgs {
		pg := pg
		items := byPG[pg]
		g.Go(func() error {
			for _, it := range items {
				entry := &directory.ShardEntry{Info: it.record.Info, Blob: it.blob, ChunkID: it.record.ChunkID}
				m.dir.InsertShard(pg, it.record.Info.ID, entry)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.Errorf("recover: %v", err)
		return err
	}
	return nil
}

// CreateShard proposes a new OPEN shard of sizeBytes in pg and blocks
// until the proposal commits on this replica.
func (m *Manager) CreateShard(ctx context.Context, pg proto.PGID, sizeBytes uint64) (proto.ShardInfo, error) {
	future, err := m.proposer.ProposeCreate(ctx, pg, sizeBytes, nowUnix())
	if err != nil {
		return proto.ShardInfo{}, err
	}
	return future.Wait(ctx)
}

// SealShard proposes sealing an OPEN shard and blocks until the proposal
// commits on this replica. info must be the caller's current view of the
// shard (obtained via GetShard) — capacity accounting fields are carried
// through unchanged.
func (m *Manager) SealShard(ctx context.Context, info proto.ShardInfo) (proto.ShardInfo, error) {
	current, ok := m.dir.GetShard(info.ID)
	if !ok {
		return proto.ShardInfo{}, shardmgrerrors.ErrShardNotFound
	}
	if current.Info.State != proto.ShardStateOpen {
		return proto.ShardInfo{}, shardmgrerrors.ErrShardNotOpen
	}

	future, err := m.proposer.ProposeSeal(ctx, info)
	if err != nil {
		return proto.ShardInfo{}, err
	}
	return future.Wait(ctx)
}

// GetShard returns this replica's current view of shard id.
func (m *Manager) GetShard(id proto.ShardID) (proto.ShardInfo, bool) {
	e, ok := m.dir.GetShard(id)
	if !ok {
		return proto.ShardInfo{}, false
	}
	return e.Info, true
}

// Shards returns a snapshot of pg's shards in commit order.
func (m *Manager) Shards(pg proto.PGID) []proto.ShardInfo {
	return m.dir.Shards(pg)
}

// GetShardChunk returns the chunk id shard id is bound to.
func (m *Manager) GetShardChunk(id proto.ShardID) (chunkselector.ChunkNum, bool) {
	return m.dir.GetShardChunk(id)
}

// GetAnyChunkID returns a placement hint for pg: the chunk of its first
// ever shard.
func (m *Manager) GetAnyChunkID(pg proto.PGID) (chunkselector.ChunkNum, bool) {
	return m.dir.GetAnyChunkID(pg)
}

// nowUnix is a var so tests can pin the clock; production uses time.Now.
var nowUnix = func() uint64 { return uint64(time.Now().Unix()) }
