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

// Package config declares this core's on-disk configuration and its
// defaulting, loaded the same way the teacher's cmd package loads
// server.Config.
package config

import "github.com/cubefs/cubefs/blobstore/util/log"

// LimiterConfig caps the proposer's submission bandwidth.
type LimiterConfig struct {
	WriteMBPS int `json:"write_mbps"`
}

// Config is the top-level on-disk configuration, loaded via
// config.Load from a flag-supplied JSON file the same way the
// teacher's cmd.Config is. WriteMBPS of 0 means unlimited, so there
// are no zero-valued fields that need defaulting after load.
type Config struct {
	LimiterConfig LimiterConfig `json:"limiter_config"`
	LogLevel      log.Level     `json:"log_level"`
}
