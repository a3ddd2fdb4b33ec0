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

// Package atomicbits implements a lock-free, ABA-safe tagged pointer
// word: a pointer packed together with a generation counter into a
// single machine word, CASed with the load-compute-CAS-retry shape
// vm/malloc.go uses for its page bitmap and internal/atomicext uses
// for its float accumulators.
//
// A 128-bit {pointer, generation} word updated with a double-wide
// compare-and-swap would be the natural shape, but Go's sync/atomic
// exposes no such primitive without assembly, and nothing in the
// reference corpus reaches for cgo or .s files to get one, so this
// packs both fields into one uint64 instead: the low 48 bits hold the
// pointer (ample for the user address space on every platform slitter
// targets) and the high 16 bits hold a wrapping generation counter.
// See DESIGN.md for the sizing rationale.
package atomicbits

import (
	"sync/atomic"
	"unsafe"
)

const (
	ptrBits  = 48
	ptrMask  = (uint64(1) << ptrBits) - 1
	genShift = ptrBits
)

func pack(ptr uintptr, gen uint16) uint64 {
	return (uint64(ptr) & ptrMask) | (uint64(gen) << genShift)
}

func unpack(word uint64) (ptr uintptr, gen uint16) {
	return uintptr(word & ptrMask), uint16(word >> genShift)
}

// TaggedStack is a lock-free LIFO of *T, where T has an intrusive
// "next" link managed entirely by this package (see Linkable).
type TaggedStack[T any] struct {
	word atomic.Uint64
}

// Linkable is satisfied by any *T usable as a TaggedStack element: it
// must expose a slot for the stack's intrusive link.
type Linkable[T any] interface {
	*T
	SetNext(uintptr)
	GetNext() uintptr
}

// Push reads {top,gen}, stores node.next:=top, then CASes to
// {node, gen+1}, retrying on failure.
func Push[T any, P Linkable[T]](s *TaggedStack[T], node P) {
	for {
		word := s.word.Load()
		top, gen := unpack(word)
		node.SetNext(top)
		next := pack(uintptr(unsafe.Pointer(node)), gen+1)
		if s.word.CompareAndSwap(word, next) {
			return
		}
	}
}

// Pop returns nil if top is null; otherwise CASes to {top.next,
// gen+1}, clearing the popped node's link on success.
func Pop[T any, P Linkable[T]](s *TaggedStack[T]) P {
	for {
		word := s.word.Load()
		top, gen := unpack(word)
		if top == 0 {
			return nil
		}
		node := P(unsafe.Pointer(top))
		next := node.GetNext()
		newWord := pack(next, gen+1)
		if s.word.CompareAndSwap(word, newWord) {
			node.SetNext(0)
			return node
		}
	}
}

// TryPop is the one-shot variant of Pop: a single CAS attempt,
// returning nil immediately on contention instead of retrying.
func TryPop[T any, P Linkable[T]](s *TaggedStack[T]) P {
	word := s.word.Load()
	top, gen := unpack(word)
	if top == 0 {
		return nil
	}
	node := P(unsafe.Pointer(top))
	next := node.GetNext()
	newWord := pack(next, gen+1)
	if !s.word.CompareAndSwap(word, newWord) {
		return nil
	}
	node.SetNext(0)
	return node
}

// Generation returns the current generation counter, exposed only for
// tests asserting it increases monotonically across a push/pop pair.
func (s *TaggedStack[T]) Generation() uint16 {
	_, gen := unpack(s.word.Load())
	return gen
}
