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
	"context"
	"fmt"
	"sync"

	"github.com/shardkeep/shardmgr/superblock"
)

// Blob is an in-memory superblock.Blob.
type Blob struct {
	mu   sync.Mutex
	name string
	data []byte
}

func (b *Blob) Read() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *Blob) Write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	return nil
}

func (b *Blob) Name() string { return b.name }

// Store is an in-memory, family-scoped superblock.Store.
type Store struct {
	mu    sync.Mutex
	blobs map[string]map[string]*Blob
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]map[string]*Blob)}
}

func (s *Store) Create(ctx context.Context, family, name string, size int) (superblock.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fam, ok := s.blobs[family]
	if !ok {
		fam = make(map[string]*Blob)
		s.blobs[family] = fam
	}
	if _, exists := fam[name]; exists {
		return nil, fmt.Errorf("fake store: blob %s/%s already exists", family, name)
	}
	b := &Blob{name: name, data: make([]byte, size)}
	fam[name] = b
	return b, nil
}

// CreateBlobFor seeds the store directly, bypassing Create, for tests that
// need to preload superblocks before Manager.Recover runs.
func (s *Store) CreateBlobFor(family, name string, data []byte) *Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	fam, ok := s.blobs[family]
	if !ok {
		fam = make(map[string]*Blob)
		s.blobs[family] = fam
	}
	b := &Blob{name: name, data: append([]byte(nil), data...)}
	fam[name] = b
	return b
}

// Enumerate lists every blob in family.
func (s *Store) Enumerate(ctx context.Context, family string) ([]superblock.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fam := s.blobs[family]
	out := make([]superblock.Blob, 0, len(fam))
	for _, b := range fam {
		out = append(out, b)
	}
	return out, nil
}
