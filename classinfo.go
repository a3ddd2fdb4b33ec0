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

import "github.com/backtrace-labs/slitter/internal/atomicbits"

// classInfo is the immortal per-class descriptor: a Press, a
// reference to the shared Rack, and the class's own full/partial
// magazine stacks.
type classInfo struct {
	id         uint32
	name       string
	objectSize uintptr
	zeroInit   bool
	press      *press
	rack       *rack

	full    atomicbits.TaggedStack[magazineStorage]
	partial atomicbits.TaggedStack[magazineStorage]
}

func newClassInfo(id uint32, name string, objectSize uintptr, zeroInit bool, m *mill, r *rack) *classInfo {
	return &classInfo{
		id:         id,
		name:       name,
		objectSize: objectSize,
		zeroInit:   zeroInit,
		press:      newPress(m, id, objectSize),
		rack:       r,
	}
}

// obtainAllocMag pops from full, else partial, else mints an empty
// one from the rack and refills it in one bulk bump from the press.
func (ci *classInfo) obtainAllocMag() magazine {
	if s := atomicbits.Pop[magazineStorage](&ci.full); s != nil {
		return resumeAllocMagazine(s)
	}
	if s := atomicbits.Pop[magazineStorage](&ci.partial); s != nil {
		return resumeAllocMagazine(s)
	}
	s := ci.rack.obtain()
	n := ci.press.allocateBulk(s.slots[:])
	for n < magazineCapacity {
		s.slots[n] = ci.press.allocateOne()
		n++
	}
	s.populated = magazineCapacity
	return newAllocMagazine(s)
}

// obtainReleaseMag pops a non-full magazine from partial, else mints
// an empty one from the rack.
func (ci *classInfo) obtainReleaseMag() magazine {
	if s := atomicbits.Pop[magazineStorage](&ci.partial); s != nil {
		return resumeReleaseMagazine(s)
	}
	s := ci.rack.obtain()
	return newReleaseMagazine(s)
}

// deposit routes a magazine by its observed fill: full → the full
// stack, empty → back to the rack, otherwise → partial.
func (ci *classInfo) deposit(m magazine) {
	m.flush()
	switch {
	case m.isFull():
		atomicbits.Push[magazineStorage](&ci.full, m.storage)
	case m.isEmpty():
		ci.rack.release(m.storage)
	default:
		atomicbits.Push[magazineStorage](&ci.partial, m.storage)
	}
}
