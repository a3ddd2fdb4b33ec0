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
	"testing"
	"unsafe"

	"github.com/google/uuid"
)

func TestSpanMetadataIsThirtyTwoBytes(t *testing.T) {
	if unsafe.Sizeof(spanMetadata{}) != 32 {
		t.Fatalf("spanMetadata is %d bytes, want 32", unsafe.Sizeof(spanMetadata{}))
	}
}

func TestSpansPerChunkMatchesMetadataRegion(t *testing.T) {
	spans := geometry.SpansPerChunk()
	if spans*spanMetadataSize != metadataSize {
		t.Fatalf("%d spans * %d bytes != metadata region size %d", spans, spanMetadataSize, metadataSize)
	}
}

func TestChunkRegistryPublishAndLookup(t *testing.T) {
	var r chunkRegistry

	c1 := &chunk{id: uuid.New(), base: 3 * chunkDataSize}
	c2 := &chunk{id: uuid.New(), base: 7 * chunkDataSize}
	r.publish(c1)
	r.publish(c2)

	if got := r.lookup(c1.base + 17); got != c1 {
		t.Fatalf("lookup(c1.base+17) = %v, want c1", got)
	}
	if got := r.lookup(c2.base); got != c2 {
		t.Fatalf("lookup(c2.base) = %v, want c2", got)
	}
	if got := r.lookup(5 * chunkDataSize); got != nil {
		t.Fatalf("lookup of an unmapped chunk base = %v, want nil", got)
	}
}

func TestChunkStampWritesEverySubRange(t *testing.T) {
	spans := geometry.SpansPerChunk()
	c := &chunk{
		base:     chunkDataSize * 11,
		metadata: make([]spanMetadata, spans),
	}
	spanStart := c.base
	spanEnd := c.base + 3*spanAlignment
	c.stamp(spanStart, spanEnd, 42)

	for p := spanStart; p < spanEnd; p += spanAlignment {
		m := c.metaAt(p)
		if m.classID != 42 {
			t.Fatalf("metaAt(%#x).classID = %d, want 42", p, m.classID)
		}
		if m.spanBegin != spanStart || m.bumpPtr != spanStart || m.bumpLimit != spanEnd {
			t.Fatalf("metaAt(%#x) = %+v, want span [%#x,%#x)", p, *m, spanStart, spanEnd)
		}
	}
}
