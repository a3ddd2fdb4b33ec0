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

//go:build !slittertest

package slitter

// Production constants profile; see internal/layout for the bit-exact
// [guard0|metadata|guard1|data|guard2] layout these imply. Build with
// -tags slittertest to switch to the reduced profile used by tests.
const (
	chunkDataSize    = 1 << 30 // 1 GiB
	guardSize        = 1 << 21 // 2 MiB
	metadataSize     = 1 << 21 // 2 MiB
	spanAlignment    = 1 << 14 // 16 KiB
	magazineCapacity = 30
)
