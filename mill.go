// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package slitter

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

// mill parcels address space into spans, one class at a time. Each
// class owns exactly one mill: a mill owns at most one current
// chunk. The span-carve bump is lock-free; only acquiring a
// brand new chunk takes the exclusive section.
//
// The CAS-retry discipline below is the same shape vm/malloc.go uses
// for its page bitmap (load, compute, CompareAndSwap, retry on
// failure); here it bumps a monotonic byte cursor instead of setting a
// bitmap bit, because spans are never freed back to a mill.
type mill struct {
	mapper Mapper

	mu      sync.Mutex // guards chunk acquisition only
	current atomic.Pointer[chunk]
}

func newMill(mapper Mapper) *mill {
	return &mill{mapper: mapper}
}

// carve returns a span of at least n bytes (rounded up to
// SpanAlignment), stamped for classID, acquiring a fresh chunk if the
// current one does not have room.
func (m *mill) carve(n uintptr, classID uint32) (spanStart, spanEnd uintptr) {
	n = geometry.RoundSpan(n)
	for {
		c := m.current.Load()
		if c == nil {
			m.acquireChunk()
			continue
		}
		for {
			before := atomic.LoadUint64(&c.cursor)
			after := before + uint64(n)
			if after > uint64(chunkDataSize) {
				break // this chunk is full; fall through to acquire a new one
			}
			if atomic.CompareAndSwapUint64(&c.cursor, before, after) {
				spanStart = c.base + uintptr(before)
				spanEnd = spanStart + n
				c.stamp(spanStart, spanEnd, classID)
				return spanStart, spanEnd
			}
			// lost the race to another carver in the same chunk; retry
		}
		// current chunk doesn't have room: try to install a new one.
		// Concurrent callers that lose this race simply reload m.current
		// and observe the winner's fresh chunk.
		m.acquireChunkIfStill(c)
	}
}

// acquireChunk installs the first chunk when m.current is nil.
func (m *mill) acquireChunk() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Load() != nil {
		return // another goroutine won the race while we waited for the lock
	}
	m.current.Store(m.reserveChunk())
}

// acquireChunkIfStill installs a new chunk only if m.current still
// points at the exhausted chunk the caller observed; otherwise another
// goroutine has already installed a replacement.
func (m *mill) acquireChunkIfStill(stale *chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Load() != stale {
		return
	}
	m.current.Store(m.reserveChunk())
}

// reserveChunk reserves, trims, and commits a fresh chunk of address
// space. Called with m.mu held.
func (m *mill) reserveChunk() *chunk {
	reserveSize := geometry.ReserveSize()
	resBase, err := m.mapper.Reserve(reserveSize)
	if err != nil {
		fatal("mill", "reserve %d bytes: %v", reserveSize, err)
	}

	chunkBase, ok := geometry.AlignChunkBase(resBase, reserveSize)
	if !ok {
		fatal("mill", "reservation too small to align a %d-byte chunk", chunkDataSize)
	}

	// Trim the reservation down to exactly
	// [guard0 | metadata | guard1 | data | guard2].
	guard0 := geometry.Guard0Base(chunkBase)
	leadSlack := guard0 - resBase
	if leadSlack > 0 {
		if err := m.mapper.Release(resBase, leadSlack); err != nil {
			fatal("mill", "trim leading slack: %v", err)
		}
	}
	tailStart := geometry.Guard2Base(chunkBase) + guardSize
	resEnd := resBase + reserveSize
	if tailStart < resEnd {
		if err := m.mapper.Release(tailStart, resEnd-tailStart); err != nil {
			fatal("mill", "trim trailing slack: %v", err)
		}
	}

	metaBase := geometry.MetaBase(chunkBase)
	if err := m.mapper.Commit(metaBase, metadataSize); err != nil {
		fatal("mill", "commit metadata region: %v", err)
	}
	if err := m.mapper.Commit(chunkBase, chunkDataSize); err != nil {
		fatal("mill", "commit data region: %v", err)
	}
	// Guard regions (guard0 and guard2) are left uncommitted /
	// inaccessible on purpose: they are the fences bracketing metadata
	// and data on both sides.

	spans := geometry.SpansPerChunk()
	metadata := unsafe.Slice((*spanMetadata)(unsafe.Pointer(metaBase)), spans)
	// A freshly committed anonymous mapping already reads as zero;
	// there is nothing further to do here.

	c := &chunk{
		id:       uuid.New(),
		base:     chunkBase,
		metadata: metadata,
		mapper:   m.mapper,
	}
	chunks.publish(c)
	return c
}
