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

package catalog

import (
	"context"

	"github.com/shardkeep/shardmgr/proto"
)

// Future resolves to a CREATE/SEAL operation's committed ShardInfo. The
// proposer hands one out per ProposeCreate/ProposeSeal call; the committer resolves it
// from inside the device's commit callback, on the proposing replica only.
type Future struct {
	ch chan futureResult
}

type futureResult struct {
	info proto.ShardInfo
	err  error
}

func newFuture() *Future {
	return &Future{ch: make(chan futureResult, 1)}
}

func (f *Future) resolve(info proto.ShardInfo, err error) {
	select {
	case f.ch <- futureResult{info: info, err: err}:
	default:
	}
}

// Wait blocks until the proposal commits (or fails to) or ctx is cancelled.
func (f *Future) Wait(ctx context.Context) (proto.ShardInfo, error) {
	select {
	case <-ctx.Done():
		return proto.ShardInfo{}, ctx.Err()
	case r := <-f.ch:
		return r.info, r.err
	}
}
