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

// Package slitter is a thread-caching slab allocator for long-running
// programs. Objects are drawn from registered allocation classes, each
// with its own permanently-typed address-space backing: once a span of
// memory is bound to a class it never serves another class or returns
// to the OS. Mismatched releases are detected (and fatal); a benign
// use-after-free is not detected, but it only ever touches objects of
// the same class instead of silently corrupting unrelated allocations.
//
// Register a class once at startup:
//
//	widgets := slitter.Register(slitter.ClassConfig{Name: "widget", Size: 64})
//
// then bind one ThreadCache per goroutine that allocates or releases,
// and close it when the goroutine is done:
//
//	tc := slitter.Bind()
//	defer tc.Close()
//	p := tc.Allocate(widgets)
//	tc.Release(widgets, p)
//
// Slitter aborts the process on contract violations (a class-id
// mismatch on release, a zero-valued class id, resource exhaustion) by
// design: a slab allocator with out-of-band metadata cannot robustly
// continue after its own invariants break, and recovery would
// undermine the type-stability guarantee the metadata exists to
// provide.
package slitter
