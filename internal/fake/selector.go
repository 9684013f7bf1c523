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

package fake

import (
	"sync"

	"github.com/shardkeep/shardmgr/chunkselector"
)

// Selector records every SelectSpecificChunk/ReleaseChunk call it sees,
// for assertions, and does nothing else.
type Selector struct {
	mu       sync.Mutex
	Selected []chunkselector.ChunkNum
	Released []chunkselector.ChunkNum
}

// NewSelector returns an empty Selector.
func NewSelector() *Selector { return &Selector{} }

func (s *Selector) SelectSpecificChunk(chunk chunkselector.ChunkNum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Selected = append(s.Selected, chunk)
}

func (s *Selector) ReleaseChunk(chunk chunkselector.ChunkNum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = append(s.Released, chunk)
}
