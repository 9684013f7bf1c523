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

package codec

import (
	"bytes"
	"encoding/json"
	"hash/crc32"

	"github.com/shardkeep/shardmgr/proto"
)

// Entry is a sealed (header, payload) pair ready to submit to the
// replication device.
type Entry struct {
	Header  Header
	Payload []byte // block-aligned, zero-padded
}

// EncodeShardInfo marshals info to its self-describing textual form, pads
// it with zeros to a multiple of blockSize, and seals a header of msgType
// over it. blockSize must be the replication device's block size.
func EncodeShardInfo(msgType proto.MsgType, info proto.ShardInfo, blockSize int) (Entry, error) {
	raw, err := json.Marshal(info)
	if err != nil {
		return Entry{}, err
	}

	padded := padToBlock(raw, blockSize)
	h := Header{
		MsgType:     msgType,
		PGID:        info.PlacementGroup,
		ShardID:     info.ID,
		PayloadSize: uint32(len(padded)),
		PayloadCRC:  crc32.ChecksumIEEE(padded),
	}
	h.Seal()

	return Entry{Header: h, Payload: padded}, nil
}

// DecodeShardInfo reverses EncodeShardInfo. It tolerates trailing zero
// padding in payload by stopping at the first complete JSON value rather
// than requiring the whole (padded) buffer to parse.
func DecodeShardInfo(payload []byte) (proto.ShardInfo, error) {
	var info proto.ShardInfo
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&info); err != nil {
		return proto.ShardInfo{}, err
	}
	return info, nil
}

// padToBlock returns a copy of raw, zero-padded up to the next multiple
// of blockSize bytes. blockSize <= 0 is treated as "no alignment".
func padToBlock(raw []byte, blockSize int) []byte {
	if blockSize <= 0 {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out
	}
	size := ((len(raw) + blockSize - 1) / blockSize) * blockSize
	if size == 0 {
		size = blockSize
	}
	out := make([]byte, size)
	copy(out, raw)
	return out
}
