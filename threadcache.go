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
	"unsafe"

	"github.com/backtrace-labs/slitter/internal/atomicbits"
	"github.com/backtrace-labs/slitter/internal/memops"
)

// cacheSlot is a ThreadCache's per-class (allocation, release) magazine
// pair.
type cacheSlot struct {
	alloc   magazine
	release magazine
}

// ThreadCache is the per-thread fast-path handle. Go has no
// OS-thread-local storage and no thread-exit hook, so a ThreadCache
// here is an explicit handle a goroutine binds with Bind and must
// Close when done; Close performs the drain-and-terminal-mode
// sequence. See DESIGN.md's Open Question resolution.
type ThreadCache struct {
	slots    []cacheSlot // index by class id; grown on demand, emptied by Close
	terminal bool        // set by Close; Allocate/Release then bypass slots
}

// Bind creates a new ThreadCache. Callers typically keep one per
// goroutine and must Close it before the goroutine exits.
func Bind() *ThreadCache {
	return &ThreadCache{}
}

// grow extends slots up to the registry's current published length;
// it may overshoot the triggering class id.
func (tc *ThreadCache) grow() {
	n := registrySize()
	if uint32(len(tc.slots)) >= n {
		return
	}
	grown := make([]cacheSlot, n)
	copy(grown, tc.slots)
	tc.slots = grown
}

// Allocate runs the allocate fast/slow path for the given class.
func (tc *ThreadCache) Allocate(c Class) unsafe.Pointer {
	ci := lookupClass(c.id)
	if tc.terminal {
		return tc.allocateTerminal(ci)
	}
	if c.id >= uint32(len(tc.slots)) {
		tc.grow()
	}
	slot := &tc.slots[c.id]
	if slot.alloc.exhausted() {
		if slot.alloc.storage != nil {
			ci.deposit(slot.alloc)
		}
		slot.alloc = ci.obtainAllocMag()
	}
	p := slot.alloc.allocPop()
	if ci.zeroInit {
		zeroObject(p, ci.objectSize)
	}
	leakTrack(p)
	return p
}

// Release runs the release fast/slow path: a null release is a
// benign no-op, and a class mismatch detected via span metadata
// aborts the process before any magazine state is touched.
func (tc *ThreadCache) Release(c Class, p unsafe.Pointer) {
	if p == nil {
		return
	}
	ci := lookupClass(c.id)
	validateClass(ci, uintptr(p))
	leakUntrack(p)

	if tc.terminal {
		tc.releaseTerminal(ci, p)
		return
	}
	if c.id >= uint32(len(tc.slots)) {
		tc.grow()
	}
	slot := &tc.slots[c.id]
	if slot.release.exhausted() {
		if slot.release.storage != nil {
			ci.deposit(slot.release)
		}
		slot.release = ci.obtainReleaseMag()
	}
	slot.release.releasePush(p)
}

// allocateTerminal is the terminal-mode allocate: try a single
// opportunistic try_pop from full, otherwise fall straight through to
// the Press.
func (tc *ThreadCache) allocateTerminal(ci *classInfo) unsafe.Pointer {
	var p unsafe.Pointer
	if s := atomicbits.TryPop[magazineStorage](&ci.full); s != nil {
		m := resumeAllocMagazine(s)
		p = m.allocPop()
		ci.deposit(m)
	} else {
		p = ci.press.allocateOne()
	}
	if ci.zeroInit {
		zeroObject(p, ci.objectSize)
	}
	leakTrack(p)
	return p
}

// releaseTerminal is the terminal-mode release: obtain a non-full
// magazine, push, and immediately deposit it back.
func (tc *ThreadCache) releaseTerminal(ci *classInfo, p unsafe.Pointer) {
	m := ci.obtainReleaseMag()
	m.releasePush(p)
	ci.deposit(m)
}

// Close is thread shutdown: every magazine the cache holds is
// deposited back to its owning ClassInfo, then the
// cache enters terminal mode. A second Close is a no-op;
// calling Allocate/Release afterward is still safe (terminal mode
// handles it) but no longer benefits from per-thread caching.
func (tc *ThreadCache) Close() {
	if tc.terminal {
		return
	}
	for id := range tc.slots {
		if id == 0 {
			continue // class id 0 is the reserved trap value; never assigned a slot
		}
		ci := lookupClass(uint32(id))
		slot := &tc.slots[id]
		if slot.alloc.storage != nil {
			ci.deposit(slot.alloc)
		}
		if slot.release.storage != nil {
			ci.deposit(slot.release)
		}
	}
	tc.slots = nil
	tc.terminal = true
}

// validateClass resolves p's SpanMetadata via pure address arithmetic
// and asserts its class id matches ci's, aborting before any magazine
// state is mutated otherwise. checkInterior runs an additional,
// opt-in check (no-op unless built with -tags slitterstrict).
func validateClass(ci *classInfo, p uintptr) {
	base := geometry.ChunkBase(p)
	ch := chunks.lookup(base)
	if ch == nil {
		fatal("release", "address %#x does not belong to any known chunk", p)
	}
	meta := ch.metaAt(p)
	got := meta.classID
	if got != ci.id {
		fatal("release", "class mismatch: pointer %#x in chunk %s belongs to class %d, released as class %d", p, ch.id, got, ci.id)
	}
	checkInterior(ci, meta, p)
}

func zeroObject(p unsafe.Pointer, size uintptr) {
	buf := unsafe.Slice((*byte)(p), size)
	memops.ZeroMemory(buf)
}
