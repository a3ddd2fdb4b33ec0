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

import "fmt"

// FatalError is the panic value raised by every abort path in this
// package: invariant violations, resource exhaustion and contract
// violations are all fatal; only a nil release is a no-op. It is
// exported so a top-level recover (see cmd/slitterstat) can print a
// clean diagnostic instead of a bare runtime stack dump.
type FatalError struct {
	Op  string
	Msg string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("slitter: %s: %s", e.Op, e.Msg)
}

// fatal raises a FatalError. This is the only way invariant violations
// surface in this package: a slab allocator cannot robustly continue
// after its internal invariants break, so there is no error-return
// path above the Mapper boundary.
func fatal(op, format string, args ...any) {
	panic(&FatalError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
