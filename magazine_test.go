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
)

func TestAllocMagazineDrain(t *testing.T) {
	s := &magazineStorage{}
	for i := 0; i < magazineCapacity; i++ {
		s.slots[i] = unsafe.Pointer(uintptr(i + 1))
	}
	m := newAllocMagazine(s)
	if m.exhausted() {
		t.Fatal("freshly filled alloc magazine reports exhausted")
	}
	if !m.isFull() {
		t.Fatal("freshly filled alloc magazine should report full")
	}
	seen := map[uintptr]bool{}
	for i := 0; i < magazineCapacity; i++ {
		p := m.allocPop()
		seen[uintptr(p)] = true
	}
	if !m.exhausted() {
		t.Fatal("alloc magazine should be exhausted after draining every slot")
	}
	if len(seen) != magazineCapacity {
		t.Fatalf("popped %d distinct values, want %d", len(seen), magazineCapacity)
	}
}

func TestReleaseMagazineFill(t *testing.T) {
	s := &magazineStorage{}
	m := newReleaseMagazine(s)
	if !m.isEmpty() {
		t.Fatal("freshly minted release magazine should be empty")
	}
	for i := 0; i < magazineCapacity; i++ {
		m.releasePush(unsafe.Pointer(uintptr(i + 1)))
	}
	if !m.exhausted() {
		t.Fatal("release magazine should be exhausted (full) once capacity pointers are pushed")
	}
	if !m.isFull() {
		t.Fatal("release magazine should report full")
	}
}

func TestMagazineFlushAndResume(t *testing.T) {
	s := &magazineStorage{}
	m := newAllocMagazine(s)
	for i := 0; i < magazineCapacity-2; i++ {
		m.allocPop()
	}
	m.flush()
	if s.populated != 2 {
		t.Fatalf("flush recorded populated=%d, want 2", s.populated)
	}

	resumed := resumeAllocMagazine(s)
	if resumed.fill() != 2 {
		t.Fatalf("resumed alloc magazine fill=%d, want 2", resumed.fill())
	}
	resumed.allocPop()
	resumed.allocPop()
	if !resumed.exhausted() {
		t.Fatal("resumed alloc magazine should be exhausted after draining its remaining fill")
	}
}

func TestMagazineFlushAndResumeRelease(t *testing.T) {
	s := &magazineStorage{}
	m := newReleaseMagazine(s)
	m.releasePush(unsafe.Pointer(uintptr(1)))
	m.releasePush(unsafe.Pointer(uintptr(2)))
	m.flush()
	if s.populated != 2 {
		t.Fatalf("flush recorded populated=%d, want 2", s.populated)
	}

	resumed := resumeReleaseMagazine(s)
	if resumed.fill() != 2 {
		t.Fatalf("resumed release magazine fill=%d, want 2", resumed.fill())
	}
	if resumed.isFull() {
		t.Fatal("resumed release magazine with 2 of many slots filled should not be full")
	}
}

func TestExhaustedIsPolarityAmbiguousOnlyByDesign(t *testing.T) {
	empty := newEmptyAllocMagazine(&magazineStorage{})
	full := newFullReleaseMagazine(&magazineStorage{})
	if !empty.exhausted() || !full.exhausted() {
		t.Fatal("both an empty alloc magazine and a full release magazine must report exhausted")
	}
	if empty.fill() != 0 {
		t.Fatalf("empty alloc magazine fill=%d, want 0", empty.fill())
	}
	if full.fill() != magazineCapacity {
		t.Fatalf("full release magazine fill=%d, want %d", full.fill(), magazineCapacity)
	}
}
