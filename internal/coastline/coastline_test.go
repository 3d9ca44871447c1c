// Copyright 2026 The CUDEM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coastline

import (
	"testing"

	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

func testGrid(nx, ny int) raster.Grid {
	return raster.Grid{Region: region.New2D(0, float64(nx), 0, float64(ny)), XInc: 1, YInc: 1, Node: region.NodeGrid}
}

func TestSignOf(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{{1, 1}, {-1, -1}, {0, 0}}
	for _, c := range cases {
		if got := signOf(c.in); got != c.want {
			t.Fatalf("signOf(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNeighbors4Corners(t *testing.T) {
	n := neighbors4(0, 0, 3, 3)
	if len(n) != 2 {
		t.Fatalf("corner cell should have 2 neighbors, got %d", len(n))
	}
	n = neighbors4(1, 1, 3, 3)
	if len(n) != 4 {
		t.Fatalf("interior cell should have 4 neighbors, got %d", len(n))
	}
}

func TestPolygonizeSingleComponentTopN(t *testing.T) {
	m := Mask{
		Grid:   testGrid(4, 4),
		Values: []float64{1, 1, 0, 0, 1, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0},
	}
	polys := m.Polygonize(1)
	if len(polys) != 1 {
		t.Fatalf("topN=1 should return exactly 1 polygon, got %d", len(polys))
	}
	if polys[0].Area != 4 {
		t.Fatalf("largest component area = %v, want 4", polys[0].Area)
	}
}
