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

package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shardkeep/shardmgr/catalog"
	"github.com/shardkeep/shardmgr/codec"
	"github.com/shardkeep/shardmgr/internal/fake"
	"github.com/shardkeep/shardmgr/proto"
)

const testBlockSize = 512

func newHarness(t *testing.T, pg proto.PGID) (*catalog.Manager, *fake.Device, *fake.Store, *fake.Selector) {
	t.Helper()

	store := fake.NewStore()
	selector := fake.NewSelector()
	mgr := catalog.NewManager(store, selector, 0)

	dev := fake.NewDevice(testBlockSize)
	mgr.RegisterPG(pg, dev)
	dev.SetHandler(mgr.CommitHandler())

	return mgr, dev, store, selector
}

func ctxWithTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// S1: create then seal a shard end to end.
func TestCreateThenSeal(t *testing.T) {
	const pg proto.PGID = 1
	mgr, _, _, selector := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	created, err := mgr.CreateShard(ctx, pg, proto.GiB)
	require.NoError(t, err)
	require.Equal(t, proto.ShardStateOpen, created.State)
	require.Equal(t, pg, created.PlacementGroup)
	require.Equal(t, uint64(1), created.ID.Sequence())
	require.Len(t, selector.Selected, 1)

	sealed, err := mgr.SealShard(ctx, created)
	require.NoError(t, err)
	require.Equal(t, proto.ShardStateSealed, sealed.State)
	require.Equal(t, created.ID, sealed.ID)
	require.Len(t, selector.Released, 1)

	got, ok := mgr.GetShard(created.ID)
	require.True(t, ok)
	require.Equal(t, proto.ShardStateSealed, got.State)
}

// S2: proposing against an unregistered PG fails without touching the log.
func TestCreateUnknownPG(t *testing.T) {
	mgr, _, _, _ := newHarness(t, 1)
	ctx := ctxWithTimeout(t)

	_, err := mgr.CreateShard(ctx, 999, proto.GiB)
	require.Error(t, err)
}

// S3: an entry that was written to the log but never applied before a
// crash is picked up by OnCommitNoPayload alone — the committer fetches
// the payload back through the device and materialises the shard for the
// first time, with no superblock having existed beforehand.
func TestReplayWithoutSuperblockFetchesPayload(t *testing.T) {
	const pg proto.PGID = 2
	mgr, dev, _, selector := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	id := proto.MakeShardID(pg, 1)

	info := proto.ShardInfo{
		ID:                     id,
		PlacementGroup:         pg,
		State:                  proto.ShardStateOpen,
		CreatedTime:            1,
		LastModifiedTime:       1,
		TotalCapacityBytes:     proto.GiB,
		AvailableCapacityBytes: proto.GiB,
	}
	entry, err := codec.EncodeShardInfo(proto.MsgCreateShard, info, testBlockSize)
	require.NoError(t, err)

	blk := dev.Stage(entry.Header.Marshal(), entry.Payload)
	dev.ReplayStaged(ctx, blk)

	got, ok := mgr.GetShard(id)
	require.True(t, ok)
	require.Equal(t, info, got)
	require.Len(t, selector.Selected, 1)
}

// S4: re-delivering an already-applied commit (superblock already exists)
// is a no-op, not a duplicate insert or an error.
func TestReplayWithSuperblockIsIdempotent(t *testing.T) {
	const pg proto.PGID = 3
	mgr, dev, _, selector := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	created, err := mgr.CreateShard(ctx, pg, proto.GiB)
	require.NoError(t, err)
	require.Len(t, selector.Selected, 1)

	dev.ReplayLastNoPayload(ctx)
	dev.ReplayLastNoPayload(ctx)

	require.Len(t, selector.Selected, 1, "replaying an already-committed create must not re-select a chunk")

	shards := mgr.Shards(pg)
	require.Len(t, shards, 1)
	require.Equal(t, created.ID, shards[0].ID)
}

// S6: a follower with no in-flight proposal of its own still applies the
// commit and can serve reads afterwards.
func TestFollowerAppliesWithoutFuture(t *testing.T) {
	const pg proto.PGID = 4
	mgr, _, _, _ := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	id := proto.MakeShardID(pg, 1)
	info := proto.ShardInfo{
		ID:                     id,
		PlacementGroup:         pg,
		State:                  proto.ShardStateOpen,
		TotalCapacityBytes:     proto.GiB,
		AvailableCapacityBytes: proto.GiB,
	}
	entry, err := codec.EncodeShardInfo(proto.MsgCreateShard, info, testBlockSize)
	require.NoError(t, err)

	// A follower's device delivers the commit with no proposer context.
	mgr.CommitHandler().OnCommit(ctx, 1, entry.Header.Marshal(), entry.Payload, fake.BlockID(1), nil)

	chunk, ok := mgr.GetShardChunk(id)
	require.True(t, ok)

	anyChunk, ok := mgr.GetAnyChunkID(pg)
	require.True(t, ok)
	require.Equal(t, chunk, anyChunk)
}

func TestSealRejectsAlreadySealedShard(t *testing.T) {
	const pg proto.PGID = 5
	mgr, _, _, _ := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	created, err := mgr.CreateShard(ctx, pg, proto.GiB)
	require.NoError(t, err)

	_, err = mgr.SealShard(ctx, created)
	require.NoError(t, err)

	_, err = mgr.SealShard(ctx, created)
	require.Error(t, err)
}

func TestSealUnknownShardFails(t *testing.T) {
	mgr, _, _, _ := newHarness(t, 6)
	ctx := ctxWithTimeout(t)

	_, err := mgr.SealShard(ctx, proto.ShardInfo{ID: proto.MakeShardID(6, 99), PlacementGroup: 6})
	require.Error(t, err)
}

func TestCreateRejectsOversizeShard(t *testing.T) {
	const pg proto.PGID = 7
	mgr, _, _, _ := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	_, err := mgr.CreateShard(ctx, pg, proto.MaxShardSize()+1)
	require.Error(t, err)
}

func TestSequentialCreatesGetDistinctIDs(t *testing.T) {
	const pg proto.PGID = 8
	mgr, _, _, _ := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	first, err := mgr.CreateShard(ctx, pg, proto.GiB)
	require.NoError(t, err)
	second, err := mgr.CreateShard(ctx, pg, proto.GiB)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, uint64(1), first.ID.Sequence())
	require.Equal(t, uint64(2), second.ID.Sequence())
}

func TestRecoverReinsertsPersistedShards(t *testing.T) {
	const pg proto.PGID = 9
	mgr, _, store, _ := newHarness(t, pg)
	ctx := ctxWithTimeout(t)

	created, err := mgr.CreateShard(ctx, pg, proto.GiB)
	require.NoError(t, err)

	// Fresh manager over the same store, as if the process restarted.
	fresh := catalog.NewManager(store, fake.NewSelector(), 0)
	fresh.RegisterPG(pg, fake.NewDevice(testBlockSize))
	require.NoError(t, fresh.Recover(ctx, []proto.PGID{pg}))

	got, ok := fresh.GetShard(created.ID)
	require.True(t, ok)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.State, got.State)
}
