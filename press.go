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
)

// press is a per-class bump allocator over spans obtained from a mill.
// Its "scan current region, fall through to a fresh one"
// shape is grounded on vm/slab.go's slab.malloc: try to serve out of
// what is already mapped, and only take the lock to go get more when
// that fails.
type press struct {
	mill       *mill
	classID    uint32
	objectSize uintptr
	spanBytes  uintptr // objectsPerSpan * objectSize; a multiple of SpanAlignment

	mu  sync.Mutex // serialises refills that replace cur
	cur atomic.Pointer[pressSpan]
}

type pressSpan struct {
	next uint64 // atomically bumped offset from base
	base uintptr
	end  uintptr
}

func newPress(m *mill, classID uint32, objectSize uintptr) *press {
	spanBytes := objectsPerSpan(objectSize) * objectSize
	return &press{mill: m, classID: classID, objectSize: objectSize, spanBytes: spanBytes}
}

func objectsPerSpan(objectSize uintptr) uintptr {
	l := lcm(objectSize, spanAlignment)
	return l / objectSize
}

func gcd(a, b uintptr) uintptr {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uintptr) uintptr {
	return a / gcd(a, b) * b
}

// allocateOne bumps within the current span if there's room,
// otherwise refills under the per-press exclusive section and retries.
func (p *press) allocateOne() unsafe.Pointer {
	for {
		s := p.cur.Load()
		if s != nil {
			for {
				before := atomic.LoadUint64(&s.next)
				after := before + uint64(p.objectSize)
				if s.base+uintptr(after) > s.end {
					break // this span is exhausted; refill
				}
				if atomic.CompareAndSwapUint64(&s.next, before, after) {
					return unsafe.Pointer(s.base + uintptr(before))
				}
			}
		}
		p.refill(s)
	}
}

// allocateBulk packs up to n pointers from the press in one pass,
// used by ClassInfo to refill a whole magazine at once. When the
// current span runs out mid-pass it refills from the mill and keeps
// going, so it always fills all of dst and returns len(dst).
func (p *press) allocateBulk(dst []unsafe.Pointer) int {
	n := 0
	for n < len(dst) {
		s := p.cur.Load()
		if s == nil {
			p.refill(s)
			continue
		}
		before := atomic.LoadUint64(&s.next)
		avail := (uint64(s.end-s.base) - before) / uint64(p.objectSize)
		want := uint64(len(dst) - n)
		if avail == 0 {
			p.refill(s)
			continue
		}
		if want > avail {
			want = avail
		}
		after := before + want*uint64(p.objectSize)
		if !atomic.CompareAndSwapUint64(&s.next, before, after) {
			continue // lost the race; reload and retry
		}
		base := s.base + uintptr(before)
		for i := uint64(0); i < want; i++ {
			dst[n] = unsafe.Pointer(base + uintptr(i)*p.objectSize)
			n++
		}
	}
	return n
}

// refill installs a fresh span, but only if p.cur still equals the
// stale span the caller observed (another goroutine may have already
// refilled while we were acquiring the lock).
func (p *press) refill(stale *pressSpan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur.Load() != stale {
		return
	}
	start, end := p.mill.carve(p.spanBytes, p.classID)
	p.cur.Store(&pressSpan{base: start, end: end})
}
