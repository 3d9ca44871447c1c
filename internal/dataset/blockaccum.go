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
	"math"

	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// cellAccumulator buffers per-cell count/weighted-z-sum/weight-sum/
// uncertainty-sum-of-squares for the default point-to-grid blocking
// strategy of spec §4.2, keyed sparsely so empty regions cost nothing.
type cellAccumulator struct {
	nx, ny  int
	cells   map[int64]*cell
	zStdDev bool // emit std-z as the uncertainty band instead of RMS(u)
}

type cell struct {
	count float64
	zsum  float64
	z2sum float64
	wsum  float64
	u2sum float64
}

func newCellAccumulator(nx, ny int) *cellAccumulator {
	return &cellAccumulator{nx: nx, ny: ny, cells: make(map[int64]*cell)}
}

func key(ci, ri int) int64 { return int64(ri)*1_000_000_000 + int64(ci) }

func (a *cellAccumulator) add(ci, ri int, p point.Point) {
	k := key(ci, ri)
	c, ok := a.cells[k]
	if !ok {
		c = &cell{}
		a.cells[k] = c
	}
	c.count++
	c.zsum += p.Z * p.W
	c.z2sum += p.Z * p.Z
	c.wsum += p.W
	c.u2sum += p.U * p.U
}

// iterator walks the occupied cells in arbitrary order, emitting one 1x1
// tile per cell (spec §4.2 allows implementers to buffer larger tiles for
// throughput; per-cell emission keeps this reference path simple and
// correct, and the Stacker's accumulator does not care about tile shape).
func (a *cellAccumulator) iterator(gt region.GeoTransform) TileIterator {
	keys := make([]int64, 0, len(a.cells))
	for k := range a.cells {
		keys = append(keys, k)
	}
	return &blockTileIterator{acc: a, keys: keys, gt: gt}
}

type blockTileIterator struct {
	acc *cellAccumulator
	keys []int64
	gt  region.GeoTransform
	i   int
}

func (it *blockTileIterator) Next() (Tile, bool, error) {
	if it.i >= len(it.keys) {
		return Tile{}, false, nil
	}
	k := it.keys[it.i]
	it.i++
	ri := int(k / 1_000_000_000)
	ci := int(k % 1_000_000_000)
	c := it.acc.cells[k]
	z := 0.0
	if c.wsum > 0 {
		z = c.zsum / c.wsum
	}
	u := 0.0
	if it.acc.zStdDev && c.count > 0 {
		meanZ := c.zsum / math.Max(c.wsum, 1)
		variance := c.z2sum/c.count - meanZ*meanZ
		if variance > 0 {
			u = math.Sqrt(variance)
		}
	} else if c.count > 0 {
		u = math.Sqrt(c.u2sum / c.count)
	}
	tileGT := region.GeoTransform{
		OX: it.gt.OX + float64(ci)*it.gt.DX,
		DX: it.gt.DX,
		OY: it.gt.OY + float64(ri)*it.gt.DY,
		DY: it.gt.DY,
	}
	return Tile{
		Arrays: TileArrays{
			Z:           []float64{z},
			Count:       []float64{c.count},
			Weight:      []float64{c.wsum},
			Uncertainty: []float64{u},
		},
		Window: region.Srcwin{XOff: ci, YOff: ri, XSize: 1, YSize: 1},
		GT:     tileGT,
	}, true, nil
}

func (it *blockTileIterator) Close() error { return nil }
