package directory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shardkeep/shardmgr/proto"
)

type noopDevice struct{ blockSize int }

func (d noopDevice) BlockSize() int { return d.blockSize }

func TestDeviceUnknownPG(t *testing.T) {
	d := New()
	_, err := d.Device(999)
	require.Error(t, err)
}

func TestAllocateShardIDMonotonic(t *testing.T) {
	d := New()
	d.RegisterPG(7, nil)

	id1, err := d.AllocateShardID(7)
	require.NoError(t, err)
	id2, err := d.AllocateShardID(7)
	require.NoError(t, err)

	require.Equal(t, uint64(1), id1.Sequence())
	require.Equal(t, uint64(2), id2.Sequence())
	require.Equal(t, proto.PGID(7), id1.PG())
}

func TestInsertShardCatchesUpSequence(t *testing.T) {
	d := New()
	d.RegisterPG(7, nil)

	id := proto.MakeShardID(7, 5)
	ok := d.InsertShard(7, id, &ShardEntry{Info: proto.ShardInfo{ID: id, PlacementGroup: 7}, ChunkID: 42})
	require.True(t, ok)

	seq, found := d.ShardSequenceNum(7)
	require.True(t, found)
	require.Equal(t, uint64(5), seq)

	chunk, ok := d.GetShardChunk(id)
	require.True(t, ok)
	require.EqualValues(t, 42, chunk)
}

func TestInsertShardIdempotent(t *testing.T) {
	d := New()
	d.RegisterPG(7, nil)
	id := proto.MakeShardID(7, 1)

	first := d.InsertShard(7, id, &ShardEntry{Info: proto.ShardInfo{ID: id}, ChunkID: 1})
	second := d.InsertShard(7, id, &ShardEntry{Info: proto.ShardInfo{ID: id}, ChunkID: 2})

	require.True(t, first)
	require.False(t, second)

	chunk, _ := d.GetShardChunk(id)
	require.EqualValues(t, 1, chunk, "second insert must not clobber the existing entry")
}

func TestGetAnyChunkIDCachesFirstShard(t *testing.T) {
	d := New()
	d.RegisterPG(7, nil)
	id1 := proto.MakeShardID(7, 1)
	id2 := proto.MakeShardID(7, 2)
	d.InsertShard(7, id1, &ShardEntry{Info: proto.ShardInfo{ID: id1}, ChunkID: 10})
	d.InsertShard(7, id2, &ShardEntry{Info: proto.ShardInfo{ID: id2}, ChunkID: 20})

	chunk, ok := d.GetAnyChunkID(7)
	require.True(t, ok)
	require.EqualValues(t, 10, chunk)
}
