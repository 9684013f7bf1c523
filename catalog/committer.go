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
	"fmt"
	"hash/crc32"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/shardkeep/shardmgr/chunkselector"
	"github.com/shardkeep/shardmgr/codec"
	"github.com/shardkeep/shardmgr/directory"
	shardmgrerrors "github.com/shardkeep/shardmgr/errors"
	"github.com/shardkeep/shardmgr/internal/assert"
	"github.com/shardkeep/shardmgr/metrics"
	"github.com/shardkeep/shardmgr/proto"
	"github.com/shardkeep/shardmgr/replog"
	"github.com/shardkeep/shardmgr/superblock"
)

// Committer implements replog.CommitHandler: apart from Manager.Recover,
// which reloads surviving superblocks at startup, it is the only writer of
// the Directory's shard entries and of the Store, and it is the only
// caller of Selector.
// Every apply is idempotent so that both steady-state delivery and
// restart replay of an already-applied entry are safe. Applies run
// synchronously on the calling goroutine, in the order the replicated
// log delivers them, so a PG's CREATE/SEAL commits are always applied
// in log order — SEAL can never observe a shard before its CREATE has
// durably reached the superblock.
type Committer struct {
	dir      *directory.Directory
	store    superblock.Store
	selector chunkselector.Selector
}

// NewCommitter returns a Committer wired to dir, store, and selector.
func NewCommitter(dir *directory.Directory, store superblock.Store, selector chunkselector.Selector) *Committer {
	return &Committer{
		dir:      dir,
		store:    store,
		selector: selector,
	}
}

// OnCommit applies a committed log entry. propCtx is non-nil only on the
// replica that originally proposed it; it carries the Future to resolve.
func (c *Committer) OnCommit(ctx context.Context, lsn uint64, header []byte, payload []byte, blk replog.BlockIDs, propCtx interface{}) {
	span := trace.SpanFromContextSafe(ctx)

	h := codec.UnmarshalHeader(header)
	if h.Corrupted() {
		span.Errorf("commit lsn %d: header corrupted for shard %d", lsn, h.ShardID)
		metrics.CRCMismatchesTotal.Inc()
		c.resolve(h.MsgType, propCtx, proto.ShardInfo{}, shardmgrerrors.ErrCRCMismatch)
		return
	}

	c.applyPayload(ctx, span, lsn, h, payload, blk, propCtx)
}

// OnCommitNoPayload is the restart-replay variant: the device retained
// only the header, so the committer must fetch the value back itself
// before it can apply anything.
func (c *Committer) OnCommitNoPayload(ctx context.Context, lsn uint64, header []byte, blk replog.BlockIDs, dev replog.Device) {
	span := trace.SpanFromContextSafe(ctx)

	h := codec.UnmarshalHeader(header)
	if h.Corrupted() {
		span.Errorf("replay lsn %d: header corrupted for shard %d", lsn, h.ShardID)
		metrics.CRCMismatchesTotal.Inc()
		return
	}

	metrics.ReplayReadsTotal.Inc()
	future, err := dev.AsyncRead(ctx, blk, int(h.PayloadSize))
	if err != nil {
		span.Errorf("replay lsn %d: read failed for shard %d: %v", lsn, h.ShardID, err)
		return
	}

	payload, err := future.Wait(ctx)
	if err != nil {
		span.Errorf("replay lsn %d: read wait failed for shard %d: %v", lsn, h.ShardID, err)
		return
	}

	c.applyPayload(ctx, span, lsn, h, payload, blk, nil)
}

func (c *Committer) applyPayload(ctx context.Context, span trace.Span, lsn uint64, h codec.Header, payload []byte, blk replog.BlockIDs, propCtx interface{}) {
	if crc32.ChecksumIEEE(payload) != h.PayloadCRC {
		span.Errorf("commit lsn %d: payload crc mismatch for shard %d", lsn, h.ShardID)
		metrics.CRCMismatchesTotal.Inc()
		c.resolve(h.MsgType, propCtx, proto.ShardInfo{}, shardmgrerrors.ErrCRCMismatch)
		return
	}

	info, err := codec.DecodeShardInfo(payload)
	if err != nil {
		span.Errorf("commit lsn %d: decode failed for shard %d: %v", lsn, h.ShardID, err)
		c.resolve(h.MsgType, propCtx, proto.ShardInfo{}, err)
		return
	}

	var result proto.ShardInfo
	var applyErr error

	switch h.MsgType {
	case proto.MsgCreateShard:
		result, applyErr = c.applyCreate(ctx, span, h, info, blk)
	case proto.MsgSealShard:
		result, applyErr = c.applySeal(ctx, span, info)
	default:
		assert.Release(false, "unknown message type %d at lsn %d", h.MsgType, lsn)
	}

	metrics.CommitsTotal.WithLabelValues(h.MsgType.String(), commitResultLabel(applyErr)).Inc()
	c.resolve(h.MsgType, propCtx, result, applyErr)
}

func (c *Committer) applyCreate(ctx context.Context, span trace.Span, h codec.Header, info proto.ShardInfo, blk replog.BlockIDs) (proto.ShardInfo, error) {
	if existing, ok := c.dir.GetShard(info.ID); ok {
		span.Debugf("create shard %d already applied, skipping", info.ID)
		return existing.Info, nil
	}

	chunk := blk.ChunkNum()
	name := fmt.Sprintf("%d", uint64(info.ID))

	blob, err := c.store.Create(ctx, superblock.Family, name, int(h.PayloadSize))
	if err != nil {
		span.Errorf("create shard %d: superblock create failed: %v", info.ID, err)
		return proto.ShardInfo{}, err
	}

	record := superblock.Record{Info: info, ChunkID: chunk}
	raw, err := record.Marshal()
	if err != nil {
		return proto.ShardInfo{}, err
	}
	if err := blob.Write(raw); err != nil {
		span.Errorf("create shard %d: superblock write failed: %v", info.ID, err)
		return proto.ShardInfo{}, err
	}

	// select_specific_chunk runs on every apply, not only the first for a
	// PG: the selector's own bookkeeping (usage accounting, GC exclusion)
	// must observe every shard, steady-state or replay alike.
	c.selector.SelectSpecificChunk(chunk)

	entry := &directory.ShardEntry{Info: info, Blob: blob, ChunkID: chunk}
	// The existence check above already skipped an applied CREATE, so a
	// second insert of the same id is a broken invariant.
	assert.Release(c.dir.InsertShard(info.PlacementGroup, info.ID, entry), "duplicate insert of shard %d", info.ID)

	span.Infof("created shard %d on pg %d, chunk %d", info.ID, info.PlacementGroup, chunk)
	return info, nil
}

func (c *Committer) applySeal(ctx context.Context, span trace.Span, info proto.ShardInfo) (proto.ShardInfo, error) {
	existing, ok := c.dir.GetShard(info.ID)
	assert.Release(ok, "seal commit for unknown shard %d", info.ID)

	if existing.Info.State == proto.ShardStateSealed {
		span.Debugf("seal shard %d already applied, skipping", info.ID)
		return existing.Info, nil
	}

	record := superblock.Record{Info: info, ChunkID: existing.ChunkID}
	raw, err := record.Marshal()
	if err != nil {
		return proto.ShardInfo{}, err
	}
	if err := existing.Blob.Write(raw); err != nil {
		span.Errorf("seal shard %d: superblock write failed: %v", info.ID, err)
		return proto.ShardInfo{}, err
	}

	c.selector.ReleaseChunk(existing.ChunkID)
	c.dir.UpdateShard(info.ID, info)

	span.Infof("sealed shard %d on pg %d", info.ID, info.PlacementGroup)
	return info, nil
}

func (c *Committer) resolve(msgType proto.MsgType, propCtx interface{}, info proto.ShardInfo, err error) {
	pc, ok := propCtx.(*propContext)
	if !ok || pc == nil {
		return
	}
	if !pc.submittedAt.IsZero() {
		metrics.CommitLatencySeconds.WithLabelValues(msgType.String()).Observe(time.Since(pc.submittedAt).Seconds())
	}
	pc.future.resolve(info, err)
}

func commitResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
