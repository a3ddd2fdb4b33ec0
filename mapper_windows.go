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

//go:build windows

package slitter

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// defaultMapper mirrors vm/malloc_windows.go: a two-step
// VirtualAlloc — MEM_RESERVE with PAGE_NOACCESS up front, then
// MEM_COMMIT with PAGE_READWRITE over the sub-ranges that need to
// become live.
type defaultMapper struct{}

func newDefaultMapper() Mapper { return defaultMapper{} }

func (defaultMapper) Name() string { return "default" }

func (defaultMapper) PageSize() uintptr {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return uintptr(info.PageSize)
}

func (defaultMapper) Reserve(size uintptr) (uintptr, error) {
	base, err := windows.VirtualAlloc(0, size, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return 0, fmt.Errorf("slitter: VirtualAlloc(reserve) %d bytes: %w", size, err)
	}
	return base, nil
}

func (defaultMapper) Release(base, size uintptr) error {
	// Windows can only VirtualFree a reservation in its entirety, not
	// an arbitrary sub-range; trimming a reservation's edges (as the
	// Mill does to align the data region) is unavailable here, so
	// Release is a deliberate no-op on this platform — the untrimmed
	// slack simply stays reserved (never committed, so it costs no
	// physical memory) for the life of the process.
	return nil
}

func (defaultMapper) Commit(base, size uintptr) error {
	_, err := windows.VirtualAlloc(base, size, windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return fmt.Errorf("slitter: VirtualAlloc(commit) %d bytes: %w", size, err)
	}
	return nil
}
