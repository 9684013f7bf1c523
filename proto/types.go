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

// Package proto holds the shard manager's wire and logical data model:
// shard/PG identifiers, ShardInfo, and the CREATE/SEAL message types.
package proto

const (
	// ShardWidth is the number of low bits of a ShardID reserved for the
	// per-PG sequence. It is fixed across every replica.
	ShardWidth = 20

	// GiB is the fixed capacity ceiling for a single shard.
	GiB uint64 = 1 << 30
)

// PGID identifies a placement group.
type PGID uint64

// ShardID is a 64-bit composite: high bits are the owning PGID, the low
// ShardWidth bits are the per-PG monotonic sequence. Sequence 0 is reserved.
type ShardID uint64

// MakeShardID composes a ShardID from a PG id and a sequence number.
func MakeShardID(pg PGID, seq uint64) ShardID {
	return ShardID(uint64(pg)<<ShardWidth | (seq & (1<<ShardWidth - 1)))
}

// Sequence extracts the per-PG sequence encoded in the low ShardWidth bits.
func (id ShardID) Sequence() uint64 {
	return uint64(id) & (1<<ShardWidth - 1)
}

// PG extracts the owning placement group from the high bits of id.
func (id ShardID) PG() PGID {
	return PGID(uint64(id) >> ShardWidth)
}

// MaxShardSize is the largest capacity a single shard may request at CREATE.
func MaxShardSize() uint64 { return GiB }

// MaxShardNumInPG is the largest number of shards a single PG can ever hold.
func MaxShardNumInPG() uint64 { return uint64(1) << ShardWidth }

// ShardState is the shard lifecycle state. OPEN is the only state a shard
// is created in; SEALED is terminal.
type ShardState int32

const (
	ShardStateOpen ShardState = iota
	ShardStateSealed
)

func (s ShardState) String() string {
	if s == ShardStateSealed {
		return "SEALED"
	}
	return "OPEN"
}

// ShardInfo is the logical record replicated and persisted for every shard.
type ShardInfo struct {
	ID                     ShardID    `json:"shard_id"`
	PlacementGroup         PGID       `json:"pg_id"`
	State                  ShardState `json:"state"`
	CreatedTime            uint64     `json:"created_time"`
	LastModifiedTime       uint64     `json:"last_modified_time"`
	TotalCapacityBytes     uint64     `json:"total_capacity_bytes"`
	AvailableCapacityBytes uint64     `json:"available_capacity_bytes"`
	DeletedCapacityBytes   uint64     `json:"deleted_capacity_bytes"`
}

// MsgType distinguishes the two replicated shard operations.
type MsgType uint32

const (
	MsgCreateShard MsgType = iota + 1
	MsgSealShard
)

func (m MsgType) String() string {
	switch m {
	case MsgCreateShard:
		return "CREATE_SHARD"
	case MsgSealShard:
		return "SEAL_SHARD"
	default:
		return "UNKNOWN"
	}
}
