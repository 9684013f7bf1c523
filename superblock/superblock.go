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

// Package superblock declares the durable named-blob store this core
// persists shard metadata into. Persistent superblock I/O — the actual
// write-ahead and fsync discipline — is out of scope. The committer does
// not treat a Store or Blob failure as fatal: it logs the error and
// returns it as the apply's result (which reaches the proposer's future
// on the proposing replica), leaving the Directory unchanged.
package superblock

import "context"

// Family is the named blob family every shard superblock is stored
// under.
const Family = "shard"

// Blob is one durable record, identified by the Store that produced it.
type Blob interface {
	// Read returns the blob's current bytes.
	Read() ([]byte, error)
	// Write atomically replaces the blob's bytes.
	Write(data []byte) error
	// Name is the key this blob was created or enumerated under.
	Name() string
}

// Store is the named-blob key/value collaborator consumed by the
// committer: one Create per new shard, one Write per SEAL, and a single
// Enumerate of the "shard" family on startup to recover what survived
// a crash.
type Store interface {
	// Create atomically allocates a new blob of size bytes under family/name.
	Create(ctx context.Context, family, name string, size int) (Blob, error)
	// Enumerate lists every blob already owned under family, for
	// startup recovery before log replay begins.
	Enumerate(ctx context.Context, family string) ([]Blob, error)
}
