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

// Package layout implements the pure address arithmetic that maps a
// live pointer back to its chunk and span metadata slot. It carries
// no package-level state: every function takes a Config so the math
// can be exercised against both the production and test constants
// profile from the same test binary.
package layout

import "math/bits"

// Config describes the byte geometry of one chunk. All sizes must be
// powers of two; SpanAlignment must divide ChunkSize evenly.
type Config struct {
	ChunkSize     uintptr
	GuardSize     uintptr
	MetadataSize  uintptr
	SpanAlignment uintptr
}

// spanShift returns log2(SpanAlignment).
func (c Config) spanShift() uint {
	return uint(bits.TrailingZeros(uint(c.SpanAlignment)))
}

// SpansPerChunk is the number of span-aligned sub-ranges in one chunk's
// data region; it is also the number of SpanMetadata slots the
// metadata region must hold.
func (c Config) SpansPerChunk() uintptr {
	return c.ChunkSize / c.SpanAlignment
}

// ReserveSize is the number of bytes a Mill must ask a Mapper to
// reserve in order to fit guard0, metadata, guard1, data and guard2
// regardless of the reservation's own alignment: one full extra
// ChunkSize of slack guarantees a chunk-aligned data region can always
// be carved out, no matter where the Mapper placed the reservation.
func (c Config) ReserveSize() uintptr {
	return 2*c.ChunkSize + 3*c.GuardSize + c.MetadataSize
}

// AlignChunkBase returns the lowest ChunkSize-aligned address that
// leaves room for guard0+metadata+guard1 before it (within
// [base, base+reserved)) and for data+guard2 after it. Given a
// reservation of at least ReserveSize() bytes this always succeeds,
// independent of base's own alignment.
func (c Config) AlignChunkBase(base, reserved uintptr) (chunkBase uintptr, ok bool) {
	mask := c.ChunkSize - 1
	lead := 2*c.GuardSize + c.MetadataSize
	candidate := (base + lead + mask) &^ mask
	if candidate+c.ChunkSize+c.GuardSize > base+reserved {
		return 0, false
	}
	return candidate, true
}

// ChunkBase rounds p down to the start of its chunk's data region.
func (c Config) ChunkBase(p uintptr) uintptr {
	return p &^ (c.ChunkSize - 1)
}

// SpanIndex returns the index of the SpanMetadata slot that describes
// the SpanAlignment-sized sub-range containing p.
func (c Config) SpanIndex(p uintptr) uintptr {
	off := p & (c.ChunkSize - 1)
	return off >> c.spanShift()
}

// MetaBase returns the address of the first SpanMetadata slot for the
// chunk whose data region begins at chunkBase.
func (c Config) MetaBase(chunkBase uintptr) uintptr {
	return chunkBase - (c.GuardSize + c.MetadataSize)
}

// Guard0Base returns the address of the leading guard region, the
// lowest address belonging to the chunk's overall reservation.
func (c Config) Guard0Base(chunkBase uintptr) uintptr {
	return chunkBase - (2*c.GuardSize + c.MetadataSize)
}

// Guard2Base returns the address of the trailing guard region,
// immediately after the data region.
func (c Config) Guard2Base(chunkBase uintptr) uintptr {
	return chunkBase + c.ChunkSize
}

// RoundSpan rounds n up to a multiple of SpanAlignment.
func (c Config) RoundSpan(n uintptr) uintptr {
	mask := c.SpanAlignment - 1
	return (n + mask) &^ mask
}
