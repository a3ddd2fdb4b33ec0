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

//go:build slitterleaks

package slitter

import (
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/exp/maps"
)

var (
	leaksActive atomic.Bool
	leaksLock   sync.Mutex
	leaksTraces = map[uintptr]string{}
)

func leakTrack(p unsafe.Pointer) {
	if leaksActive.Load() {
		stack := string(debug.Stack())
		leaksLock.Lock()
		leaksTraces[uintptr(p)] = stack
		leaksLock.Unlock()
	}
}

func leakUntrack(p unsafe.Pointer) {
	if leaksActive.Load() {
		leaksLock.Lock()
		delete(leaksTraces, uintptr(p))
		leaksLock.Unlock()
	}
}

// LeakCheck runs fn and writes the stack trace of every allocation
// site whose pointer was allocated during fn and never released, to
// w. Not reentrancy-safe: concurrent LeakCheck calls panic.
func LeakCheck(w io.Writer, fn func()) {
	if leaksActive.Swap(true) {
		panic("slitter: concurrent LeakCheck calls")
	}
	fn()
	leaksLock.Lock()
	defer leaksLock.Unlock()
	i := 1
	for p, stacktrace := range leaksTraces {
		fmt.Fprintf(w, "\n#%d. pointer %#x allocated at\n%s\n", i, p, stacktrace)
		i++
	}
	maps.Clear(leaksTraces)
	leaksActive.Store(false)
}
