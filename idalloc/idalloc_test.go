package idalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shardkeep/shardmgr/proto"
)

func TestNextComposesMonotonicIDs(t *testing.T) {
	var cur uint64
	var ids []proto.ShardID
	for i := 0; i < 5; i++ {
		var id proto.ShardID
		cur, id = Next(7, cur)
		ids = append(ids, id)
		require.Equal(t, uint64(i+1), cur)
		require.Equal(t, proto.PGID(7), id.PG())
		require.Equal(t, uint64(i+1), id.Sequence())
	}
	for i := 1; i < len(ids); i++ {
		require.Greater(t, ids[i], ids[i-1])
	}
}

func TestNextPanicsOnExhaustion(t *testing.T) {
	require.Panics(t, func() {
		Next(1, proto.MaxShardNumInPG()-1)
	})
}
