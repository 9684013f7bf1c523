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

// Package replog declares the per-PG replication device contract this
// core consumes. The device itself — log append, quorum, leader
// election, snapshot transfer — is out of scope; this core only submits
// entries, reads back blocks on replay, and receives commit callbacks.
package replog

import (
	"context"

	"github.com/shardkeep/shardmgr/chunkselector"
)

// BlockIDs is the device's description of where a committed entry's
// value landed on the underlying chunk store.
type BlockIDs interface {
	ChunkNum() chunkselector.ChunkNum
}

// Device is a per-PG handle onto the replicated log. One Device exists
// per PG whose replication handle has been resolved; a PG with no Device
// yet fails proposals with errors.ErrPGNotReady.
type Device interface {
	// BlockSize is the alignment/padding unit the proposer must round
	// payloads up to before submission.
	BlockSize() int
	// AsyncAllocWrite submits header as the out-of-band key and the
	// (already padded) value for replication. propCtx, when non-nil, is
	// handed back verbatim to CommitHandler on the proposing replica;
	// followers observe it as nil.
	AsyncAllocWrite(ctx context.Context, header, value []byte, propCtx interface{}) error
	// AsyncRead reads back a previously committed value by its block ids,
	// used only during restart replay when a commit arrives without its
	// payload in hand.
	AsyncRead(ctx context.Context, blk BlockIDs, size int) (*ReadFuture, error)
}

// CommitHandler is invoked by the device for every committed log entry,
// on every replica, in steady state and during restart replay.
type CommitHandler interface {
	OnCommit(ctx context.Context, lsn uint64, header []byte, payload []byte, blk BlockIDs, propCtx interface{})
	// OnCommitNoPayload is the restart-replay variant: the device did not
	// retain payload and the handler must fetch it via AsyncRead itself.
	OnCommitNoPayload(ctx context.Context, lsn uint64, header []byte, blk BlockIDs, dev Device)
}

// ReadFuture resolves to the bytes requested from AsyncRead, or an error
// if the underlying read failed.
type ReadFuture struct {
	ch chan readResult
}

type readResult struct {
	payload []byte
	err     error
}

// NewReadFuture constructs an unresolved ReadFuture; the device resolves
// it exactly once via Resolve.
func NewReadFuture() *ReadFuture {
	return &ReadFuture{ch: make(chan readResult, 1)}
}

// Resolve completes the future. Safe to call at most once.
func (f *ReadFuture) Resolve(payload []byte, err error) {
	select {
	case f.ch <- readResult{payload: payload, err: err}:
	default:
	}
}

// Wait blocks until the device resolves the read or ctx is cancelled.
func (f *ReadFuture) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-f.ch:
		return r.payload, r.err
	}
}
