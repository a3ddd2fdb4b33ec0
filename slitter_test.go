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

// End-to-end scenarios; run with -tags slittertest for the reduced
// 2 MiB chunk profile (otherwise every Register mints a full
// production-sized chunk reservation).
package slitter

import (
	"sync"
	"testing"
	"unsafe"
)

func TestZeroInitAndRecycle(t *testing.T) {
	a := Register(ClassConfig{Name: "zero-init-a", Size: 16, ZeroInit: true})
	tc := Bind()
	defer tc.Close()

	p1 := tc.Allocate(a)
	buf1 := unsafe.Slice((*byte)(p1), 16)
	for i, b := range buf1 {
		if b != 0 {
			t.Fatalf("byte %d of freshly allocated zero_init object = %d, want 0", i, b)
		}
	}
	for i := range buf1 {
		buf1[i] = 0xAA
	}
	tc.Release(a, p1)

	p2 := tc.Allocate(a)
	buf2 := unsafe.Slice((*byte)(p2), 16)
	for i, b := range buf2 {
		if b != 0 {
			t.Fatalf("byte %d of a recycled zero_init object = %d, want 0", i, b)
		}
	}
}

func TestReleaseNullIsNoOp(t *testing.T) {
	a := Register(ClassConfig{Name: "null-release", Size: 16})
	tc := Bind()
	defer tc.Close()
	tc.Release(a, nil) // must not panic
}

func TestReleaseClassMismatchAborts(t *testing.T) {
	a := Register(ClassConfig{Name: "mismatch-a", Size: 16})
	b := Register(ClassConfig{Name: "mismatch-b", Size: 32})
	tc := Bind()
	defer tc.Close()

	p := tc.Allocate(b)
	mustAbort(t, "Release(a, p-from-b)", func() {
		tc.Release(a, p)
	})
}

func TestMagazineRefillAndFullStackPush(t *testing.T) {
	c := Register(ClassConfig{Name: "refill", Size: 16})
	tc := Bind()
	defer tc.Close()

	capacity := MagazineCapacity()
	ptrs := make([]unsafe.Pointer, capacity+1)
	for i := range ptrs {
		ptrs[i] = tc.Allocate(c) // forces at least one magazine refill
	}
	seen := map[unsafe.Pointer]bool{}
	for _, p := range ptrs {
		if seen[p] {
			t.Fatalf("allocate returned duplicate pointer %p", p)
		}
		seen[p] = true
	}
	for _, p := range ptrs {
		tc.Release(c, p) // forces at least one full-stack deposit
	}
}

func TestFileMapperCrossesChunkBoundary(t *testing.T) {
	const objectSize = 64
	c := Register(ClassConfig{Name: "file-backed", Size: objectSize, MapperName: "file"})
	tc := Bind()
	defer tc.Close()

	// Enough objects to exhaust one chunk's data region and force a
	// second chunk acquisition through the same fileMapper.
	n := int(ChunkDataSize()/objectSize) + MagazineCapacity()*2

	ptrs := make([]unsafe.Pointer, n)
	for i := range ptrs {
		ptrs[i] = tc.Allocate(c)
		buf := unsafe.Slice((*byte)(ptrs[i]), objectSize)
		for j := range buf {
			buf[j] = byte(i)
		}
	}
	for i, p := range ptrs {
		buf := unsafe.Slice((*byte)(p), objectSize)
		for j, b := range buf {
			if b != byte(i) {
				t.Fatalf("object %d byte %d = %d, want %d", i, j, b, byte(i))
			}
		}
	}
	for _, p := range ptrs {
		tc.Release(c, p)
	}
}

func TestCrossThreadHandoff(t *testing.T) {
	c := Register(ClassConfig{Name: "handoff", Size: 16})

	const n = 500
	ptrs := make([]unsafe.Pointer, n)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tc := Bind()
		defer tc.Close()
		for i := range ptrs {
			ptrs[i] = tc.Allocate(c)
		}
	}()
	wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		tc := Bind()
		defer tc.Close()
		for _, p := range ptrs {
			tc.Release(c, p)
		}
		// allocate again from this second thread cache, whose array the
		// releases above already extended to include c
		_ = tc.Allocate(c)
	}()
	wg.Wait()
}

func TestConcurrentAllocateReleaseStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}
	c := Register(ClassConfig{Name: "stress", Size: 16})

	const threads = 8
	const perThread = 2000

	var wg sync.WaitGroup
	for g := 0; g < threads; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tc := Bind()
			defer tc.Close()
			ptrs := make([]unsafe.Pointer, perThread)
			for i := range ptrs {
				ptrs[i] = tc.Allocate(c)
			}
			for _, p := range ptrs {
				tc.Release(c, p)
			}
		}()
	}
	wg.Wait()
}

func TestThreadCacheCloseIsIdempotent(t *testing.T) {
	c := Register(ClassConfig{Name: "close-idempotent", Size: 16})
	tc := Bind()
	p := tc.Allocate(c)
	tc.Release(c, p)
	tc.Close()
	tc.Close() // must not panic

	// terminal mode still services allocate/release correctly.
	p2 := tc.Allocate(c)
	tc.Release(c, p2)
}
