package codec

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shardkeep/shardmgr/proto"
)

func sampleInfo() proto.ShardInfo {
	return proto.ShardInfo{
		ID:                     proto.MakeShardID(7, 1),
		PlacementGroup:         7,
		State:                  proto.ShardStateOpen,
		CreatedTime:            1000,
		LastModifiedTime:       1000,
		TotalCapacityBytes:     1 << 20,
		AvailableCapacityBytes: 1 << 20,
		DeletedCapacityBytes:   0,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	info := sampleInfo()
	entry, err := EncodeShardInfo(proto.MsgCreateShard, info, 4096)
	require.NoError(t, err)
	require.Equal(t, 4096, len(entry.Payload))
	require.False(t, entry.Header.Corrupted())

	got, err := DecodeShardInfo(entry.Payload)
	require.NoError(t, err)
	require.Equal(t, info, got)
}

func TestHeaderMarshalRoundTrip(t *testing.T) {
	info := sampleInfo()
	entry, err := EncodeShardInfo(proto.MsgSealShard, info, 512)
	require.NoError(t, err)

	wire := entry.Header.Marshal()
	require.Len(t, wire, HeaderSize)

	got := UnmarshalHeader(wire)
	require.Equal(t, entry.Header, got)
	require.False(t, got.Corrupted())
}

func TestHeaderCorruptionDetected(t *testing.T) {
	info := sampleInfo()
	entry, err := EncodeShardInfo(proto.MsgCreateShard, info, 512)
	require.NoError(t, err)

	tampered := entry.Header
	tampered.ShardID++
	require.True(t, tampered.Corrupted())
}

func TestPayloadCRCDetectsTamperedBit(t *testing.T) {
	info := sampleInfo()
	entry, err := EncodeShardInfo(proto.MsgCreateShard, info, 512)
	require.NoError(t, err)

	tampered := make([]byte, len(entry.Payload))
	copy(tampered, entry.Payload)
	tampered[0] ^= 0xFF

	require.NotEqual(t, entry.Header.PayloadCRC, crc32.ChecksumIEEE(tampered))
}

func TestDecodeToleratesTrailingZeroPadding(t *testing.T) {
	info := sampleInfo()
	entry, err := EncodeShardInfo(proto.MsgCreateShard, info, 8192)
	require.NoError(t, err)
	require.Greater(t, len(entry.Payload), 0)

	got, err := DecodeShardInfo(entry.Payload)
	require.NoError(t, err)
	require.Equal(t, info, got)
}
