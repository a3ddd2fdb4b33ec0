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

import "testing"

func TestObjectsPerSpanLeavesNoLeftover(t *testing.T) {
	sizes := []uintptr{8, 16, 24, 32, 40, 48, 64, 96, 128, 200, 256, 513}
	for _, size := range sizes {
		n := objectsPerSpan(size)
		spanBytes := n * size
		if spanBytes%spanAlignment != 0 {
			t.Fatalf("object size %d: span bytes %d not a multiple of span alignment %d", size, spanBytes, spanAlignment)
		}
		if n == 0 {
			t.Fatalf("object size %d: objectsPerSpan returned 0", size)
		}
	}
}

func TestGCDLCM(t *testing.T) {
	cases := []struct{ a, b, gcd, lcm uintptr }{
		{12, 8, 4, 24},
		{7, 5, 1, 35},
		{spanAlignment, spanAlignment, spanAlignment, spanAlignment},
	}
	for _, c := range cases {
		if got := gcd(c.a, c.b); got != c.gcd {
			t.Fatalf("gcd(%d,%d) = %d, want %d", c.a, c.b, got, c.gcd)
		}
		if got := lcm(c.a, c.b); got != c.lcm {
			t.Fatalf("lcm(%d,%d) = %d, want %d", c.a, c.b, got, c.lcm)
		}
	}
}
