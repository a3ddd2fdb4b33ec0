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

import "unsafe"

// magazineStorage is the fixed-capacity, immortal backing array
// shared by both magazine polarities. Ownership moves between stacks
// and threads;
// the storage itself is never freed. next is the intrusive link used
// exclusively while the storage sits on a magazineStack — it satisfies
// atomicbits.Linkable.
//
// populated records how many of slots[0:] are live, independent of
// which polarity last used the storage: both polarities build up and
// drain the very same [0, populated) prefix (release appends at
// populated, allocation drains from populated down to 0), so a bare
// storage popped off a stack carries everything a magazine handle
// needs to reconstruct its cursor. It is owned exclusively by whichever
// thread currently holds the storage and is only meaningful while the
// storage is off every stack.
type magazineStorage struct {
	slots     [magazineCapacity]unsafe.Pointer
	next      uintptr
	populated int
}

func (s *magazineStorage) SetNext(p uintptr) { s.next = p }
func (s *magazineStorage) GetNext() uintptr  { return s.next }

// polarity distinguishes the two senses given to the same
// {storage, cursor} shape: it alone disambiguates cursor == 0, which
// means "empty" for an allocation magazine and "full" for a release
// magazine.
type polarity bool

const (
	allocPolarity   polarity = false
	releasePolarity polarity = true
)

// magazine is the signed-cursor handle shared by both polarities. For
// an allocation magazine the cursor starts at capacity and counts down to 0
// (exhausted == empty); for a release magazine it starts at
// -capacity and counts up to 0 (exhausted == full). Both polarities
// share one exhausted predicate: cursor == 0.
type magazine struct {
	storage *magazineStorage
	cursor  int
	pol     polarity
}

// newAllocMagazine wraps storage as a fully-populated allocation
// magazine; the caller is responsible for having filled every slot.
func newAllocMagazine(s *magazineStorage) magazine {
	return magazine{storage: s, cursor: magazineCapacity, pol: allocPolarity}
}

// newEmptyAllocMagazine wraps storage as an exhausted (empty)
// allocation magazine, used as the initial state before the first
// refill.
func newEmptyAllocMagazine(s *magazineStorage) magazine {
	return magazine{storage: s, cursor: 0, pol: allocPolarity}
}

// newReleaseMagazine wraps storage as an empty (non-full) release
// magazine.
func newReleaseMagazine(s *magazineStorage) magazine {
	return magazine{storage: s, cursor: -magazineCapacity, pol: releasePolarity}
}

// newFullReleaseMagazine wraps storage as an already-full release
// magazine (exhausted).
func newFullReleaseMagazine(s *magazineStorage) magazine {
	return magazine{storage: s, cursor: 0, pol: releasePolarity}
}

// resumeAllocMagazine rewraps a storage popped off a stack as an
// allocation magazine, reconstructing the cursor from the populated
// count the previous holder left behind via flush.
func resumeAllocMagazine(s *magazineStorage) magazine {
	return magazine{storage: s, cursor: s.populated, pol: allocPolarity}
}

// resumeReleaseMagazine rewraps a storage popped off a stack as a
// release magazine, reconstructing the cursor from the populated count
// the previous holder left behind via flush.
func resumeReleaseMagazine(s *magazineStorage) magazine {
	return magazine{storage: s, cursor: s.populated - magazineCapacity, pol: releasePolarity}
}

func (m *magazine) exhausted() bool { return m.cursor == 0 }

// allocPop is the allocation-polarity fast-path pop: decrement cursor,
// return the slot that was just uncovered.
func (m *magazine) allocPop() unsafe.Pointer {
	m.cursor--
	return m.storage.slots[m.cursor]
}

// releasePush is the release-polarity fast-path push: store p at
// capacity+cursor, increment cursor.
func (m *magazine) releasePush(p unsafe.Pointer) {
	m.storage.slots[magazineCapacity+m.cursor] = p
	m.cursor++
}

// fill reports how many live pointers this storage currently holds,
// regardless of polarity — used by ClassInfo.deposit to route a
// magazine to full/partial/empty.
func (m *magazine) fill() int {
	if m.pol == allocPolarity {
		return m.cursor
	}
	return magazineCapacity + m.cursor
}

func (m *magazine) isFull() bool  { return m.fill() == magazineCapacity }
func (m *magazine) isEmpty() bool { return m.fill() == 0 }

// flush persists the current fill count into the backing storage. It
// must be called before a magazine's storage is pushed onto any
// magazineStack or Rack, since only storage (not the magazine handle)
// survives the trip through a stack.
func (m *magazine) flush() {
	m.storage.populated = m.fill()
}
