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

// Package limiter throttles the bandwidth the proposer submits
// CREATE/SEAL payloads to the replication device at, so a burst of
// proposals on one PG cannot starve the device's other PGs.
package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

const mb = 1 << 20

// Limiter caps submission bandwidth in megabytes/sec. The zero value is
// unlimited; WaitN on an unlimited Limiter never blocks.
type Limiter struct {
	rate *rate.Limiter
	mbps int32
}

// New returns a Limiter allowing mbps megabytes/sec, or an unlimited
// Limiter if mbps <= 0.
func New(mbps int) *Limiter {
	l := &Limiter{}
	if mbps > 0 {
		l.rate = rate.NewLimiter(rate.Limit(mbps*mb), mbps*mb)
		l.mbps = int32(mbps)
	}
	return l
}

// WaitN blocks until n bytes' worth of budget is available or ctx is
// cancelled.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l.rate == nil {
		return nil
	}
	return l.rate.WaitN(ctx, n)
}

// SetMBPS adjusts the limit at runtime; 0 disables limiting.
func (l *Limiter) SetMBPS(mbps int) {
	atomic.StoreInt32(&l.mbps, int32(mbps))
	if mbps <= 0 {
		l.rate = nil
		return
	}
	if l.rate == nil {
		l.rate = rate.NewLimiter(rate.Limit(mbps*mb), mbps*mb)
		return
	}
	l.rate.SetLimit(rate.Limit(mbps * mb))
	l.rate.SetBurst(mbps * mb)
}

// MBPS returns the currently configured limit, 0 meaning unlimited.
func (l *Limiter) MBPS() int {
	return int(atomic.LoadInt32(&l.mbps))
}
