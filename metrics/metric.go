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

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registry = prometheus.NewRegistry()

	ProposalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ShardMgr",
		Name:      "proposals_total",
		Help:      "CREATE/SEAL proposals submitted, by message type and outcome.",
	}, []string{"msg_type", "result"})

	CommitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ShardMgr",
		Name:      "commits_total",
		Help:      "Log entries applied by the committer, by message type and outcome.",
	}, []string{"msg_type", "result"})

	CRCMismatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ShardMgr",
		Name:      "crc_mismatches_total",
		Help:      "Committed entries rejected for header or payload CRC mismatch.",
	})

	ReplayReadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ShardMgr",
		Name:      "replay_reads_total",
		Help:      "AsyncRead calls issued during restart replay for entries delivered without payload.",
	})

	CommitLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ShardMgr",
		Name:      "commit_latency_seconds",
		Help:      "Time from proposal submission to future resolution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"msg_type"})
)

func init() {
	Registry.MustRegister(
		ProposalsTotal,
		CommitsTotal,
		CRCMismatchesTotal,
		ReplayReadsTotal,
		CommitLatencySeconds,
	)
}
