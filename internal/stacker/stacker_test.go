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

package stacker

import (
	"math"
	"testing"

	"github.com/jph6366/cudem-sub000/internal/dataset"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

func testGrid() raster.Grid {
	return raster.Grid{Region: region.New2D(0, 2, 0, 2), XInc: 1, YInc: 1, Node: region.NodeGrid}
}

func cellTile(col, row int, z, weight, unc float64) dataset.Tile {
	return dataset.Tile{
		Arrays: dataset.TileArrays{
			Z:           []float64{z},
			Count:       []float64{1},
			Weight:      []float64{weight},
			Uncertainty: []float64{unc},
		},
		Window: region.Srcwin{XOff: col, YOff: row, XSize: 1, YSize: 1},
	}
}

// TestWeightedMeanUnitWeightIsArithmeticMean reproduces spec §8's
// property: for a single dataset of unit weight, finalized band-1 equals
// the per-cell arithmetic mean of input z values.
func TestWeightedMeanUnitWeightIsArithmeticMean(t *testing.T) {
	s := New(testGrid(), WeightedMean, -9999, nil)
	s.Apply(cellTile(0, 0, 10, 1, 0))
	s.Apply(cellTile(0, 0, 20, 1, 0))
	s.Finalize()
	gi := 0*s.nx + 0
	want := 15.0
	if math.Abs(s.z[gi]-want) > 1e-9 {
		t.Fatalf("z = %v, want %v", s.z[gi], want)
	}
	if s.n[gi] != 2 {
		t.Fatalf("count = %v, want 2", s.n[gi])
	}
}

// TestWeightedMeanCombinesCrossDatasetWeights reproduces spec §8
// scenario 2: two differently-weighted contributions (10@w1, 20@w3) into
// one cell finalize to the plain weighted mean Z/W, not a further
// divide-by-count; the weight band reports the summed weight, not a
// per-point average of it.
func TestWeightedMeanCombinesCrossDatasetWeights(t *testing.T) {
	s := New(testGrid(), WeightedMean, -9999, nil)
	s.Apply(cellTile(0, 0, 10, 1, 0))
	s.Apply(cellTile(0, 0, 20, 3, 0))
	s.Finalize()
	gi := 0
	if math.Abs(s.z[gi]-17.5) > 1e-9 {
		t.Fatalf("z = %v, want 17.5", s.z[gi])
	}
	if math.Abs(s.w[gi]-4) > 1e-9 {
		t.Fatalf("weight = %v, want 4", s.w[gi])
	}
	if s.n[gi] != 2 {
		t.Fatalf("count = %v, want 2", s.n[gi])
	}
}

// TestSupercedeCommutativeOnDisjointTiles reproduces spec §8: for
// disjoint tiles, supercede application order does not affect output.
func TestSupercedeCommutativeOnDisjointTiles(t *testing.T) {
	a := New(testGrid(), Supercede, -9999, nil)
	a.Apply(cellTile(0, 0, 5, 1, 0))
	a.Apply(cellTile(1, 1, 9, 2, 0))
	a.Finalize()

	b := New(testGrid(), Supercede, -9999, nil)
	b.Apply(cellTile(1, 1, 9, 2, 0))
	b.Apply(cellTile(0, 0, 5, 1, 0))
	b.Finalize()

	for i := range a.z {
		if a.z[i] != b.z[i] {
			t.Fatalf("cell %d diverged: %v vs %v", i, a.z[i], b.z[i])
		}
	}
}

// TestSupercedeHigherWeightWins exercises the per-cell conflict rule
// directly: the tile with greater weight overwrites the cell.
func TestSupercedeHigherWeightWins(t *testing.T) {
	s := New(testGrid(), Supercede, -9999, nil)
	s.Apply(cellTile(0, 0, 10, 1, 0))
	s.Apply(cellTile(0, 0, 20, 3, 0))
	s.Finalize()
	gi := 0
	if s.z[gi] != 20 {
		t.Fatalf("z = %v, want 20 (higher-weight tile should win)", s.z[gi])
	}
}

// TestEmptyCellsAreNodata checks that cells never touched by any tile are
// marked NODATA in every band after finalization.
func TestEmptyCellsAreNodata(t *testing.T) {
	s := New(testGrid(), WeightedMean, -9999, nil)
	s.Apply(cellTile(0, 0, 1, 1, 0))
	s.Finalize()
	untouched := 1*s.nx + 1
	if s.z[untouched] != -9999 || s.n[untouched] != -9999 {
		t.Fatalf("untouched cell = z:%v n:%v, want NODATA in both", s.z[untouched], s.n[untouched])
	}
}

func TestMalformedTileWindowIsSkipped(t *testing.T) {
	s := New(testGrid(), WeightedMean, -9999, nil)
	s.Apply(dataset.Tile{
		Arrays: dataset.TileArrays{Z: []float64{1}, Count: []float64{1}, Weight: []float64{1}, Uncertainty: []float64{0}},
		Window: region.Srcwin{XOff: 100, YOff: 100, XSize: 1, YSize: 1},
	})
	s.Finalize()
	for i, v := range s.n {
		if v != -9999 {
			t.Fatalf("cell %d = %v, want all-NODATA since the only tile was out of bounds", i, v)
		}
	}
}
