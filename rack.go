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

	"github.com/backtrace-labs/slitter/internal/atomicbits"
)

// rack is the shared pool of empty magazineStorage backing arrays:
// storage shapes are fungible across classes since every
// magazineStorage has the same capacity, so a single process-wide rack
// is reused by every ClassInfo instead of each class minting its own
// empty storages from scratch.
type rack struct {
	empties atomicbits.TaggedStack[magazineStorage]
}

var sharedRack rack

// minted holds every storage obtain has ever created. Stacks link
// storages through uintptr words the garbage collector does not trace,
// so this list is what keeps a stacked storage alive.
var (
	mintedMu sync.Mutex
	minted   []*magazineStorage
)

// obtain returns an empty storage, reusing one already donated back to
// the rack if available, or minting a fresh one otherwise. Minting
// never fails: a magazineStorage is a plain Go allocation, not a mapped
// region.
func (r *rack) obtain() *magazineStorage {
	if s := atomicbits.Pop[magazineStorage](&r.empties); s != nil {
		s.populated = 0
		return s
	}
	s := &magazineStorage{}
	mintedMu.Lock()
	minted = append(minted, s)
	mintedMu.Unlock()
	return s
}

// release donates an emptied-out storage back to the rack for reuse by
// any class. The caller must have already drained the storage (its
// populated count is ignored and reset).
func (r *rack) release(s *magazineStorage) {
	s.populated = 0
	atomicbits.Push[magazineStorage](&r.empties, s)
}
