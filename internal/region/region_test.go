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

package region

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestGeoTransformForTilesExactly(t *testing.T) {
	r := New2D(0, 10, 0, 10)
	nx, ny, gt := GeoTransformFor(r, 1, 1, NodeGrid)
	if nx != 10 || ny != 10 {
		t.Fatalf("nx/ny = %d/%d, want 10/10", nx, ny)
	}
	gotXMax := gt.OX + float64(nx)*gt.DX
	gotYMin := gt.OY + float64(ny)*gt.DY
	if !almostEqual(gotXMax, r.XMax, 1e-9) {
		t.Errorf("gt.OX+nx*dx = %v, want %v", gotXMax, r.XMax)
	}
	if !almostEqual(gotYMin, r.YMin, 1e-9) {
		t.Errorf("gt.OY+ny*dy = %v, want %v", gotYMin, r.YMin)
	}
}

// TestGeoTransformForNodePixelScenario1 reproduces spec §8 scenario 1: a
// unit region at inc 1 under NodePixel must yield a 2x2 grid, one cell per
// corner point, not the 1x1 a plain area-tiling count would give.
func TestGeoTransformForNodePixelScenario1(t *testing.T) {
	r := New2D(0, 1, 0, 1)
	nx, ny, _ := GeoTransformFor(r, 1, 1, NodePixel)
	if nx != 2 || ny != 2 {
		t.Fatalf("nx/ny = %d/%d, want 2/2", nx, ny)
	}
}

func TestPixelGeoRoundTrip(t *testing.T) {
	gt := GeoTransform{OX: 100, DX: 2, OY: 50, DY: -2}
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			x, y := gt.Geo(float64(col), float64(row))
			c2, r2 := gt.Pixel(x, y)
			if !almostEqual(c2, float64(col), 1e-9) || !almostEqual(r2, float64(row), 1e-9) {
				t.Errorf("round trip (%d,%d) -> (%v,%v)", col, row, c2, r2)
			}
		}
	}
}

func TestSrcwinInsideRaster(t *testing.T) {
	gt := GeoTransform{OX: 0, DX: 1, OY: 10, DY: -1}
	nx, ny := 10, 10
	r := New2D(-5, 5, -5, 5)
	w := SrcwinFor(r, gt, nx, ny)
	if w.XOff < 0 || w.YOff < 0 || w.XOff+w.XSize > nx || w.YOff+w.YSize > ny {
		t.Fatalf("srcwin %+v escapes raster bounds [0,%d)x[0,%d)", w, nx, ny)
	}
}

func TestSrcwinDisjointIsEmpty(t *testing.T) {
	gt := GeoTransform{OX: 0, DX: 1, OY: 10, DY: -1}
	r := New2D(100, 110, 100, 110)
	w := SrcwinFor(r, gt, 10, 10)
	if !w.Empty() {
		t.Fatalf("expected empty srcwin for disjoint region, got %+v", w)
	}
}

func TestIntersectMerge(t *testing.T) {
	a := New2D(0, 10, 0, 10)
	b := New2D(5, 15, 5, 15)
	i := Intersect(a, b)
	if i.XMin != 5 || i.XMax != 10 || i.YMin != 5 || i.YMax != 10 {
		t.Fatalf("intersect = %+v", i)
	}
	m := Merge(a, b)
	if m.XMin != 0 || m.XMax != 15 || m.YMin != 0 || m.YMax != 15 {
		t.Fatalf("merge = %+v", m)
	}
}

func TestBufferAbsSnapsToIncrement(t *testing.T) {
	r := New2D(0, 10, 0, 10)
	b := r.BufferAbs(0.2, 0.2, 1, 1)
	if b.XMin != -1 || b.XMax != 11 {
		t.Fatalf("buffered x = [%v,%v], want [-1,11]", b.XMin, b.XMax)
	}
}

func TestWarpIdentity(t *testing.T) {
	r := New2D(0, 10, 0, 20)
	identity := func(x, y float64) (float64, float64, error) { return x, y, nil }
	w, err := r.Warp(identity)
	if err != nil {
		t.Fatal(err)
	}
	if w != r {
		t.Fatalf("warp under identity = %+v, want %+v", w, r)
	}
}
