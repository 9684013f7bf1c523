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

package superblock

import (
	"encoding/json"

	"github.com/shardkeep/shardmgr/chunkselector"
	"github.com/shardkeep/shardmgr/proto"
)

// Record is every ShardInfo field plus the bound chunk id — the
// superblock is the source of truth for a shard on restart.
type Record struct {
	Info    proto.ShardInfo        `json:"info"`
	ChunkID chunkselector.ChunkNum `json:"chunk_id"`
}

// Marshal encodes a Record for Blob.Write.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord decodes a Record previously produced by Marshal.
func UnmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}
