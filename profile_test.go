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

//go:build slittertest

package slitter

// Reduced constants profile used by the property tests in slitter_test.go
// and friends: small enough that a single test process can cross a span
// boundary and a chunk boundary without allocating gigabytes.
const (
	chunkDataSize    = 1 << 21 // 2 MiB
	guardSize        = 1 << 14 // 16 KiB
	metadataSize     = 1 << 14 // 16 KiB
	spanAlignment    = 1 << 12 // 4 KiB
	magazineCapacity = 6
)
