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

//go:build linux || darwin

package slitter

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"
)

// fileMapper backs every commit with a private, lazily-grown temp
// file instead of anonymous memory; pages are still demand-faulted,
// but now from the page cache over a real file instead of the zero
// page. Every reservation
// opens (and unlinks immediately, so no path lingers on disk) its own
// temp file — this mirrors vm/malloc.go's one-mapping-per-region shape
// rather than sharing a single backing file across chunks.
type fileMapper struct {
	mu    sync.Mutex
	files map[uintptr]*os.File // reservation base -> backing file
}

func newFileMapper() Mapper {
	return &fileMapper{files: map[uintptr]*os.File{}}
}

func (*fileMapper) Name() string      { return "file" }
func (*fileMapper) PageSize() uintptr { return uintptr(os.Getpagesize()) }

func (m *fileMapper) Reserve(size uintptr) (uintptr, error) {
	f, err := os.CreateTemp("", "slitter-chunk-*")
	if err != nil {
		return 0, fmt.Errorf("slitter: file mapper: create temp file: %w", err)
	}
	// Unlinking now means the file's storage is reclaimed the moment
	// every mapping of it is torn down (i.e. never, for an immortal
	// chunk, until process exit) without leaving a visible path around.
	os.Remove(f.Name())
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return 0, fmt.Errorf("slitter: file mapper: truncate %d bytes: %w", size, err)
	}
	buf, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_NONE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("slitter: file mapper: mmap %d bytes: %w", size, err)
	}
	base := uintptr(unsafe.Pointer(&buf[0]))
	m.mu.Lock()
	m.files[base] = f
	m.mu.Unlock()
	return base, nil
}

func (m *fileMapper) Release(base, size uintptr) error {
	// syscall.Munmap only accepts a slice covering a whole mapping it
	// created, so trimming an edge goes through the raw system call.
	if _, _, errno := syscall.Syscall(syscall.SYS_MUNMAP, base, size, 0); errno != 0 {
		return errno
	}
	return nil
}

func (*fileMapper) Commit(base, size uintptr) error {
	mem := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	if err := syscall.Mprotect(mem, syscall.PROT_READ|syscall.PROT_WRITE); err != nil {
		return fmt.Errorf("slitter: file mapper: mprotect commit %d bytes: %w", size, err)
	}
	return nil
}
