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

// Package catalog implements the shard manager's replicated core: the
// Proposer builds and submits CREATE/SEAL entries, the Committer applies
// them idempotently on every replica (steady-state and restart replay),
// and Manager wires both to the Directory and the external collaborators.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	blobstoreerrors "github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/google/uuid"

	"github.com/shardkeep/shardmgr/codec"
	"github.com/shardkeep/shardmgr/directory"
	shardmgrerrors "github.com/shardkeep/shardmgr/errors"
	"github.com/shardkeep/shardmgr/limiter"
	"github.com/shardkeep/shardmgr/metrics"
	"github.com/shardkeep/shardmgr/proto"
	"github.com/shardkeep/shardmgr/replog"
)

// propContext is the proposer-side continuation handed to the device as
// propCtx and returned verbatim to Committer.OnCommit on this replica.
// Followers never see one: they observe propCtx == nil.
type propContext struct {
	traceID     string
	submittedAt time.Time
	future      *Future
}

// Proposer builds wire entries and submits them to a PG's replication
// device. It holds no durable state of its own; AllocateShardID and the
// PG->device lookup both go through the Directory. Submission bandwidth
// is shared across every PG through a single Limiter so one busy PG
// cannot starve the others' proposals.
type Proposer struct {
	dir *directory.Directory
	lim *limiter.Limiter
}

// NewProposer returns a Proposer backed by dir, submitting at up to
// mbps megabytes/sec (0 for unlimited).
func NewProposer(dir *directory.Directory, mbps int) *Proposer {
	return &Proposer{dir: dir, lim: limiter.New(mbps)}
}

// ProposeCreate allocates a fresh ShardID for pg, builds the CREATE entry,
// and submits it. The returned Future resolves once this replica's
// Committer observes the commit.
func (p *Proposer) ProposeCreate(ctx context.Context, pg proto.PGID, sizeBytes uint64, now uint64) (*Future, error) {
	span := trace.SpanFromContextSafe(ctx)

	if sizeBytes == 0 || sizeBytes > proto.MaxShardSize() {
		return nil, blobstoreerrors.Info(shardmgrerrors.ErrInvalidShardSize, fmt.Sprintf("pg %d size %d", pg, sizeBytes))
	}

	dev, err := p.dir.Device(pg)
	if err != nil {
		span.Warnf("propose create: pg %d has no device: %v", pg, err)
		return nil, err
	}

	id, err := p.dir.AllocateShardID(pg)
	if err != nil {
		return nil, err
	}

	info := proto.ShardInfo{
		ID:                     id,
		PlacementGroup:         pg,
		State:                  proto.ShardStateOpen,
		CreatedTime:            now,
		LastModifiedTime:       now,
		TotalCapacityBytes:     sizeBytes,
		AvailableCapacityBytes: sizeBytes,
	}

	return p.submit(ctx, span, dev, proto.MsgCreateShard, info)
}

// ProposeSeal builds and submits a SEAL entry for an already-open shard.
// Capacity accounting fields are carried through from info unchanged; the
// caller is expected to have populated them from its own GetShard view.
func (p *Proposer) ProposeSeal(ctx context.Context, info proto.ShardInfo) (*Future, error) {
	span := trace.SpanFromContextSafe(ctx)

	dev, err := p.dir.Device(info.PlacementGroup)
	if err != nil {
		span.Warnf("propose seal: pg %d has no device: %v", info.PlacementGroup, err)
		return nil, err
	}

	sealed := info
	sealed.State = proto.ShardStateSealed

	return p.submit(ctx, span, dev, proto.MsgSealShard, sealed)
}

func (p *Proposer) submit(ctx context.Context, span trace.Span, dev replog.Device, msgType proto.MsgType, info proto.ShardInfo) (*Future, error) {
	entry, err := codec.EncodeShardInfo(msgType, info, dev.BlockSize())
	if err != nil {
		return nil, blobstoreerrors.Info(err, "encode shard info").Detail(err)
	}

	if err := p.lim.WaitN(ctx, len(entry.Payload)); err != nil {
		return nil, err
	}

	future := newFuture()
	pc := &propContext{traceID: uuid.NewString(), submittedAt: time.Now(), future: future}
	if span != nil {
		pc.traceID = span.TraceID()
	}

	if err := dev.AsyncAllocWrite(ctx, entry.Header.Marshal(), entry.Payload, pc); err != nil {
		span.Errorf("submit %s for shard %d failed: %v", msgType, info.ID, err)
		metrics.ProposalsTotal.WithLabelValues(msgType.String(), "error").Inc()
		return nil, err
	}

	metrics.ProposalsTotal.WithLabelValues(msgType.String(), "ok").Inc()
	span.Debugf("submitted %s for pg %d shard %d trace %s", msgType, info.PlacementGroup, info.ID, pc.traceID)
	return future, nil
}
