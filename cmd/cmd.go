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

package main

import (
	"os"
	"os/signal"
	"syscall"

	blobconfig "github.com/cubefs/cubefs/blobstore/common/config"
	"github.com/cubefs/cubefs/blobstore/util/errors"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/shardkeep/shardmgr/config"
	"github.com/shardkeep/shardmgr/metrics"
)

func main() {
	blobconfig.Init("f", "", "shardmgr.json")

	cfg := &config.Config{}
	if err := blobconfig.Load(cfg); err != nil {
		log.Fatal(errors.Detail(err))
	}
	log.SetOutputLevel(cfg.LogLevel)

	log.Infof("shardmgr starting: write_mbps=%d", cfg.LimiterConfig.WriteMBPS)

	// The Manager itself is wired by whatever owns this process's
	// replication devices and superblock store; this binary only carries
	// config load, logging, and metrics registration, which is all that
	// is common across every deployment shape.
	_ = metrics.Registry

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch

	log.Info("shardmgr stopping")
}
