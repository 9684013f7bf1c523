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

// Package codec frames a CREATE/SEAL shard operation into the
// (header, payload) unit the replication log persists and redelivers at
// commit time. The header is a fixed little-endian layout with a CRC of
// its own bytes; the payload is a block-aligned, zero-padded, CRC-checked
// JSON encoding of proto.ShardInfo.
package codec

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/shardkeep/shardmgr/proto"
)

// HeaderSize is the on-the-wire size of Header in bytes.
const HeaderSize = 4 + 8 + 8 + 4 + 4 + 4

// Header is the fixed framing header persisted alongside the payload.
// Field order matches the little-endian wire layout exactly.
type Header struct {
	MsgType     proto.MsgType
	PGID        proto.PGID
	ShardID     proto.ShardID
	PayloadSize uint32
	PayloadCRC  uint32
	HeaderCRC   uint32
}

// Seal finalises HeaderCRC over every preceding header field. Must be
// called after PayloadSize/PayloadCRC are set and before the header is
// handed to the replication device.
func (h *Header) Seal() {
	h.HeaderCRC = crc32.ChecksumIEEE(h.bytesWithoutCRC())
}

// Corrupted reports whether the header's own CRC no longer matches its
// content — tampering, truncation, or a bit flip in transit/at rest.
func (h *Header) Corrupted() bool {
	return h.HeaderCRC != crc32.ChecksumIEEE(h.bytesWithoutCRC())
}

func (h *Header) bytesWithoutCRC() []byte {
	b := make([]byte, HeaderSize-4)
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.MsgType))
	binary.LittleEndian.PutUint64(b[4:12], uint64(h.PGID))
	binary.LittleEndian.PutUint64(b[12:20], uint64(h.ShardID))
	binary.LittleEndian.PutUint32(b[20:24], h.PayloadSize)
	binary.LittleEndian.PutUint32(b[24:28], h.PayloadCRC)
	return b
}

// Marshal encodes the header to its fixed-size wire form, HeaderCRC included.
func (h *Header) Marshal() []byte {
	b := make([]byte, HeaderSize)
	copy(b, h.bytesWithoutCRC())
	binary.LittleEndian.PutUint32(b[28:32], h.HeaderCRC)
	return b
}

// UnmarshalHeader decodes a fixed-size wire header previously produced by Marshal.
func UnmarshalHeader(b []byte) Header {
	return Header{
		MsgType:     proto.MsgType(binary.LittleEndian.Uint32(b[0:4])),
		PGID:        proto.PGID(binary.LittleEndian.Uint64(b[4:12])),
		ShardID:     proto.ShardID(binary.LittleEndian.Uint64(b[12:20])),
		PayloadSize: binary.LittleEndian.Uint32(b[20:24]),
		PayloadCRC:  binary.LittleEndian.Uint32(b[24:28]),
		HeaderCRC:   binary.LittleEndian.Uint32(b[28:32]),
	}
}
