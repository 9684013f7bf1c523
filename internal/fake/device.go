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

// Package fake provides in-memory stand-ins for the external
// collaborators the shard manager core only ever consumes through
// interfaces: a single-replica replog.Device, a no-op chunk selector, and
// a map-backed superblock.Store.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/shardkeep/shardmgr/chunkselector"
	"github.com/shardkeep/shardmgr/replog"
)

// BlockID is the fake device's BlockIDs: just the chunk it landed on.
type BlockID chunkselector.ChunkNum

// ChunkNum implements replog.BlockIDs.
func (b BlockID) ChunkNum() chunkselector.ChunkNum { return chunkselector.ChunkNum(b) }

type loggedEntry struct {
	header  []byte
	payload []byte
	blk     BlockID
}

// Device is a single-replica replog.Device: every AsyncAllocWrite commits
// immediately and synchronously into the registered handler, on the same
// goroutine, with a freshly allocated chunk per entry.
type Device struct {
	blockSize int

	mu        sync.Mutex
	lsn       uint64
	nextChunk chunkselector.ChunkNum
	log       map[chunkselector.ChunkNum]loggedEntry
	handler   replog.CommitHandler
}

// NewDevice returns a Device with the given block alignment.
func NewDevice(blockSize int) *Device {
	return &Device{
		blockSize: blockSize,
		log:       make(map[chunkselector.ChunkNum]loggedEntry),
	}
}

// SetHandler installs the commit callback. Must be called before any
// AsyncAllocWrite.
func (d *Device) SetHandler(h replog.CommitHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

// BlockSize implements replog.Device.
func (d *Device) BlockSize() int { return d.blockSize }

// AsyncAllocWrite implements replog.Device: allocates the next chunk,
// records the entry for later AsyncRead, and invokes the handler inline.
func (d *Device) AsyncAllocWrite(ctx context.Context, header, value []byte, propCtx interface{}) error {
	d.mu.Lock()
	d.lsn++
	lsn := d.lsn
	d.nextChunk++
	blk := BlockID(d.nextChunk)
	d.log[chunkselector.ChunkNum(blk)] = loggedEntry{header: header, payload: value, blk: blk}
	handler := d.handler
	d.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("fake device: no handler registered")
	}
	handler.OnCommit(ctx, lsn, header, value, blk, propCtx)
	return nil
}

// AsyncRead implements replog.Device, resolving synchronously from the
// in-memory log.
func (d *Device) AsyncRead(ctx context.Context, blk replog.BlockIDs, size int) (*replog.ReadFuture, error) {
	d.mu.Lock()
	entry, ok := d.log[blk.ChunkNum()]
	d.mu.Unlock()

	future := replog.NewReadFuture()
	if !ok {
		future.Resolve(nil, fmt.Errorf("fake device: no entry for chunk %d", blk.ChunkNum()))
		return future, nil
	}
	future.Resolve(entry.payload, nil)
	return future, nil
}

// ReplayLastNoPayload re-delivers the most recently written entry through
// OnCommitNoPayload, simulating a restart where the device retained the
// header but not the payload.
func (d *Device) ReplayLastNoPayload(ctx context.Context) {
	d.mu.Lock()
	handler := d.handler
	blk := BlockID(d.nextChunk)
	entry, ok := d.log[chunkselector.ChunkNum(blk)]
	d.mu.Unlock()
	if !ok || handler == nil {
		return
	}
	handler.OnCommitNoPayload(ctx, d.lsn, entry.header, entry.blk, d)
}

// Stage records header/payload in the log, as if the entry had been
// written to the replicated log, without invoking the commit handler —
// simulating a crash between the write and its first apply. ReplayStaged
// delivers it exactly once, through OnCommitNoPayload only, mirroring a
// restart that never saw the in-memory commit at all.
func (d *Device) Stage(header, payload []byte) BlockID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lsn++
	d.nextChunk++
	blk := BlockID(d.nextChunk)
	d.log[chunkselector.ChunkNum(blk)] = loggedEntry{header: header, payload: payload, blk: blk}
	return blk
}

// ReplayStaged delivers the entry at blk through OnCommitNoPayload.
func (d *Device) ReplayStaged(ctx context.Context, blk BlockID) {
	d.mu.Lock()
	handler := d.handler
	lsn := d.lsn
	entry, ok := d.log[chunkselector.ChunkNum(blk)]
	d.mu.Unlock()
	if !ok || handler == nil {
		return
	}
	handler.OnCommitNoPayload(ctx, lsn, entry.header, entry.blk, d)
}
