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
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"

	"github.com/backtrace-labs/slitter/internal/layout"
)

// geometry is the single Config value every address-arithmetic helper
// in this package is built from; it exists so tests can construct a
// layout.Config directly without depending on package-level state.
var geometry = layout.Config{
	ChunkSize:     chunkDataSize,
	GuardSize:     guardSize,
	MetadataSize:  metadataSize,
	SpanAlignment: spanAlignment,
}

// spanMetadata is the fixed 32-byte per-span record. bumpLimit and
// spanBegin are addresses, not byte counts,
// which is what makes the struct pack to exactly 32 bytes on a 64-bit
// platform (4 + 4 pad + 8 + 8 + 8); class_id is stored atomically
// exactly once at stamp time and never again (see mill.carve), and
// the release-time check reads it with a plain load.
type spanMetadata struct {
	classID   uint32
	_         uint32 // pad: keeps the record a flat 32 bytes
	bumpLimit uintptr
	bumpPtr   uintptr
	spanBegin uintptr
}

const spanMetadataSize = unsafe.Sizeof(spanMetadata{})

func init() {
	if spanMetadataSize != 32 {
		panic("slitter: spanMetadata is not 32 bytes on this platform")
	}
}

// chunk is an immortal, 1-GiB-aligned (production profile) region
// carved by exactly one Mill. Its metadata slice aliases the committed
// metadata region; span data is never touched through this struct,
// only through raw pointers handed out by Press.
type chunk struct {
	id       uuid.UUID
	base     uintptr // start of the data region
	metadata []spanMetadata
	cursor   uint64 // atomically bumped span-carve cursor, byte units
	mapper   Mapper
}

func (c *chunk) metaAt(p uintptr) *spanMetadata {
	idx := geometry.SpanIndex(p)
	return &c.metadata[idx]
}

// stamp writes a span's metadata exactly once: the only moment a
// metadata slot transitions from zero to initialised.
func (c *chunk) stamp(spanStart, spanEnd uintptr, classID uint32) {
	idx := geometry.SpanIndex(spanStart)
	n := (spanEnd - spanStart) / spanAlignment
	for i := uintptr(0); i < n; i++ {
		m := &c.metadata[idx+i]
		atomic.StoreUint32(&m.classID, classID)
		m.bumpPtr = spanStart
		m.bumpLimit = spanEnd
		m.spanBegin = spanStart
	}
}

// chunkRegistry is the side table that lets release on an address
// whose chunk is unknown abort cleanly instead of crashing: a
// grow-only list of known chunk bases, published copy-on-write so that
// lookup never blocks the release fast path. Writes (one per chunk
// acquisition, always rare relative to allocate/release traffic) take
// a mutex; reads are a single atomic.Value.Load plus a binary search,
// the same grow-only/release-publish discipline the class registry
// uses.
type chunkRegistry struct {
	mu    sync.Mutex
	value atomic.Value // holds chunkSnapshot
}

type chunkSnapshot struct {
	bases  []uintptr // sorted ascending, parallel to chunks
	chunks []*chunk
}

var chunks chunkRegistry

func (r *chunkRegistry) publish(c *chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, _ := r.value.Load().(chunkSnapshot)
	bases := make([]uintptr, len(old.bases), len(old.bases)+1)
	copy(bases, old.bases)
	chks := make([]*chunk, len(old.chunks), len(old.chunks)+1)
	copy(chks, old.chunks)
	bases = append(bases, c.base)
	chks = append(chks, c)
	sort.Sort(chunkSnapshotSorter{bases, chks})
	r.value.Store(chunkSnapshot{bases: bases, chunks: chks})
}

type chunkSnapshotSorter struct {
	bases  []uintptr
	chunks []*chunk
}

func (s chunkSnapshotSorter) Len() int           { return len(s.bases) }
func (s chunkSnapshotSorter) Less(i, j int) bool { return s.bases[i] < s.bases[j] }
func (s chunkSnapshotSorter) Swap(i, j int) {
	s.bases[i], s.bases[j] = s.bases[j], s.bases[i]
	s.chunks[i], s.chunks[j] = s.chunks[j], s.chunks[i]
}

// lookup returns the chunk owning data address p, or nil if p does not
// fall within any chunk this process has ever mapped. Lock-free: a
// single atomic load plus a binary search over an immutable snapshot.
func (r *chunkRegistry) lookup(p uintptr) *chunk {
	snap, _ := r.value.Load().(chunkSnapshot)
	base := geometry.ChunkBase(p)
	i := sort.Search(len(snap.bases), func(i int) bool { return snap.bases[i] >= base })
	if i < len(snap.bases) && snap.bases[i] == base {
		return snap.chunks[i]
	}
	return nil
}
