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

// Package errors holds the shard manager's recoverable error kinds.
//
// These are the error kinds this core defines. Callers can also see
// errors passed through from the context, the replication device, the
// payload decoder and the superblock store. A broken replicated-log
// invariant (missing PG at commit, missing shard at SEAL commit,
// duplicate shard-ID insertion, per-PG sequence space exhaustion) is not
// returned as an error: it aborts the process via assert.Release.
package errors

import "errors"

var (
	// ErrUnknownPG is returned when the proposer cannot locate the PG at all.
	ErrUnknownPG = errors.New("shardmgr: unknown placement group")
	// ErrPGNotReady is returned when the PG exists but has no replication handle yet.
	ErrPGNotReady = errors.New("shardmgr: placement group not ready")
	// ErrCRCMismatch is returned to the proposer's future when the committer
	// detects header or payload corruption in a committed log entry.
	ErrCRCMismatch = errors.New("shardmgr: crc mismatch")
	// ErrInvalidShardSize is returned when a CREATE request's size is zero
	// or exceeds MaxShardSize.
	ErrInvalidShardSize = errors.New("shardmgr: invalid shard size")
	// ErrShardNotOpen is returned when SEAL is requested for a shard that
	// is not currently OPEN.
	ErrShardNotOpen = errors.New("shardmgr: shard not open")
	// ErrShardNotFound is returned when a lookup targets a shard id this
	// replica has never seen committed.
	ErrShardNotFound = errors.New("shardmgr: shard not found")
)
