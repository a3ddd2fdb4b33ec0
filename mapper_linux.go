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

//go:build linux

package slitter

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// defaultMapper is the anonymous-private Mapper. It is grounded
// directly on vm/malloc.go's init(): reserve the whole region
// PROT_NONE via MAP_PRIVATE|MAP_ANONYMOUS, then mprotect the pieces
// that should become live.
type defaultMapper struct{}

func newDefaultMapper() Mapper { return defaultMapper{} }

func (defaultMapper) Name() string      { return "default" }
func (defaultMapper) PageSize() uintptr { return uintptr(os.Getpagesize()) }

func (defaultMapper) Reserve(size uintptr) (uintptr, error) {
	buf, err := syscall.Mmap(-1, 0, int(size), syscall.PROT_NONE, syscall.MAP_PRIVATE|syscall.MAP_ANONYMOUS)
	if err != nil {
		return 0, fmt.Errorf("slitter: mmap reserve %d bytes: %w", size, err)
	}
	return uintptr(unsafe.Pointer(&buf[0])), nil
}

func (defaultMapper) Release(base, size uintptr) error {
	// syscall.Munmap only accepts a slice covering a whole mapping it
	// created, so trimming an edge goes through the raw system call.
	if _, _, errno := syscall.Syscall(syscall.SYS_MUNMAP, base, size, 0); errno != 0 {
		return fmt.Errorf("slitter: munmap trim %d bytes: %w", size, errno)
	}
	return nil
}

func (defaultMapper) Commit(base, size uintptr) error {
	mem := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	if err := syscall.Mprotect(mem, syscall.PROT_READ|syscall.PROT_WRITE); err != nil {
		return fmt.Errorf("slitter: mprotect commit %d bytes: %w", size, err)
	}
	return nil
}
