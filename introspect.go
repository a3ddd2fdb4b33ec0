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

// The functions below expose the build's constant profile and the
// Press sizing math for diagnostic tooling such as cmd/slitterstat;
// nothing in the engine itself calls them.

func ChunkDataSize() uintptr    { return chunkDataSize }
func GuardSize() uintptr        { return guardSize }
func MetadataSize() uintptr     { return metadataSize }
func SpanAlignment() uintptr    { return spanAlignment }
func MagazineCapacity() int     { return magazineCapacity }
func ObjectsPerSpan(size uintptr) uintptr { return objectsPerSpan(size) }

// Size reports the object size a registered Class was configured
// with. An unregistered id aborts via lookupClass (it never is
// unregistered once a Class value exists).
func (c Class) Size() uintptr {
	return lookupClass(c.id).objectSize
}

// ID returns the class's dense non-zero registry id.
func (c Class) ID() uint32 {
	return c.id
}
