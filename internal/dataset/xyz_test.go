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

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "points.xyz")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestXYZBlockToGrid reproduces spec §8 scenario 1 using its literal
// region (0,1,0,1) at inc 1 under node='pixel': each corner point lands in
// its own cell of a 2x2 grid, one point per cell.
func TestXYZBlockToGrid(t *testing.T) {
	path := writeTemp(t, "0 0 1\n1 0 2\n0 1 3\n1 1 4\n")
	opts := Options{Path: path, Format: FormatXYZ, Weight: 1, XYZ: DefaultXYZOptions()}
	ds := NewXYZ(opts)
	if !ds.Valid() {
		t.Fatal("expected valid dataset")
	}
	g := raster.Grid{Region: region.New2D(0, 1, 0, 1), XInc: 1, YInc: 1, Node: region.NodePixel}
	it, err := ds.YieldTiles(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := map[[2]int]float64{}
	for {
		tile, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got[[2]int{tile.Window.XOff, tile.Window.YOff}] = tile.Arrays.Z[0]
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 occupied cells, got %d: %+v", len(got), got)
	}
}

// TestXYZBoundaryPointsRetained reproduces the §4.1 edge case: points
// sitting exactly on the region's south (y=ymin) or east (x=xmax) edge
// must fall in the last row/column, not be dropped as out of bounds.
func TestXYZBoundaryPointsRetained(t *testing.T) {
	path := writeTemp(t, "0 0 1\n2 0 2\n0 2 3\n2 2 4\n")
	opts := Options{Path: path, Format: FormatXYZ, Weight: 1, XYZ: DefaultXYZOptions()}
	ds := NewXYZ(opts)
	if !ds.Valid() {
		t.Fatal("expected valid dataset")
	}
	g := raster.Grid{Region: region.New2D(0, 2, 0, 2), XInc: 1, YInc: 1, Node: region.NodeGrid}
	it, err := ds.YieldTiles(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := map[[2]int]float64{}
	for {
		tile, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got[[2]int{tile.Window.XOff, tile.Window.YOff}] = tile.Arrays.Z[0]
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 occupied cells (none dropped off the south/east edge), got %d: %+v", len(got), got)
	}
}

func TestXYZWeightedMeanVsSupercedeInputs(t *testing.T) {
	// Scenario 2: two single-point streams into the same 1x1 cell.
	pathA := writeTemp(t, "0 0 10\n")
	pathB := writeTemp(t, "0 0 20\n")
	g := raster.Grid{Region: region.New2D(-1, 1, -1, 1), XInc: 2, YInc: 2, Node: region.NodeGrid}

	dsA := NewXYZ(Options{Path: pathA, Format: FormatXYZ, Weight: 1, XYZ: DefaultXYZOptions()})
	dsB := NewXYZ(Options{Path: pathB, Format: FormatXYZ, Weight: 3, XYZ: DefaultXYZOptions()})

	itA, err := dsA.YieldTiles(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	tileA, ok, err := itA.Next()
	if err != nil || !ok {
		t.Fatalf("tile A: ok=%v err=%v", ok, err)
	}
	if tileA.Arrays.Z[0] != 10 {
		t.Fatalf("tile A z = %v, want 10", tileA.Arrays.Z[0])
	}

	itB, err := dsB.YieldTiles(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	tileB, ok, err := itB.Next()
	if err != nil || !ok {
		t.Fatalf("tile B: ok=%v err=%v", ok, err)
	}
	if tileB.Arrays.Z[0] != 20 {
		t.Fatalf("tile B z = %v, want 20", tileB.Arrays.Z[0])
	}
}

func TestXYZSkipsMalformedLines(t *testing.T) {
	path := writeTemp(t, "0 0 1\nnot a number here\n1 1 2\n")
	ds := NewXYZ(Options{Path: path, Format: FormatXYZ, Weight: 1, XYZ: DefaultXYZOptions()})
	it, err := ds.YieldPoints(region.New2D(-10, 10, -10, 10), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	n := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 valid points (malformed line skipped), got %d", n)
	}
}

func TestDelimiterAutoDetection(t *testing.T) {
	path := writeTemp(t, "0,0,1\n1,0,2\n")
	ds := NewXYZ(Options{Path: path, Format: FormatXYZ, Weight: 1, XYZ: DefaultXYZOptions()})
	it, err := ds.YieldPoints(region.New2D(-10, 10, -10, 10), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	p, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if p.X != 0 || p.Y != 0 || p.Z != 1 {
		t.Fatalf("parsed point = %+v", p)
	}
}
