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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shardkeep/shardmgr/codec"
	"github.com/shardkeep/shardmgr/directory"
	shardmgrerrors "github.com/shardkeep/shardmgr/errors"
	"github.com/shardkeep/shardmgr/internal/fake"
	"github.com/shardkeep/shardmgr/proto"
)

// S5: a payload whose bytes were flipped after the header's CRC was
// sealed is rejected without ever reaching the directory, and the
// waiting proposer sees ErrCRCMismatch rather than hanging.
func TestOnCommitRejectsCorruptPayload(t *testing.T) {
	const pg proto.PGID = 42
	dir := directory.New()
	store := fake.NewStore()
	selector := fake.NewSelector()
	committer := NewCommitter(dir, store, selector)
	dir.RegisterPG(pg, nil)

	id, err := dir.AllocateShardID(pg)
	require.NoError(t, err)

	info := proto.ShardInfo{ID: id, PlacementGroup: pg, State: proto.ShardStateOpen, TotalCapacityBytes: proto.GiB}
	entry, err := codec.EncodeShardInfo(proto.MsgCreateShard, info, 512)
	require.NoError(t, err)

	tampered := append([]byte(nil), entry.Payload...)
	tampered[0] ^= 0xFF

	future := newFuture()
	pc := &propContext{traceID: "test", future: future}

	committer.OnCommit(context.Background(), 1, entry.Header.Marshal(), tampered, fake.BlockID(1), pc)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = future.Wait(ctx)
	require.ErrorIs(t, err, shardmgrerrors.ErrCRCMismatch)

	require.False(t, dir.ShardExists(id), "corrupt commit must not materialise a shard")
}

func TestOnCommitRejectsCorruptHeader(t *testing.T) {
	const pg proto.PGID = 43
	dir := directory.New()
	store := fake.NewStore()
	selector := fake.NewSelector()
	committer := NewCommitter(dir, store, selector)
	dir.RegisterPG(pg, nil)

	id, err := dir.AllocateShardID(pg)
	require.NoError(t, err)

	info := proto.ShardInfo{ID: id, PlacementGroup: pg, State: proto.ShardStateOpen, TotalCapacityBytes: proto.GiB}
	entry, err := codec.EncodeShardInfo(proto.MsgCreateShard, info, 512)
	require.NoError(t, err)

	header := entry.Header.Marshal()
	header[0] ^= 0xFF

	future := newFuture()
	pc := &propContext{traceID: "test", future: future}

	committer.OnCommit(context.Background(), 1, header, entry.Payload, fake.BlockID(1), pc)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = future.Wait(ctx)
	require.ErrorIs(t, err, shardmgrerrors.ErrCRCMismatch)
}
