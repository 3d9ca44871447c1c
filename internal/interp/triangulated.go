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

package interp

import (
	"context"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Kernel names the scattered-data fit used per query cell.
type Kernel string

const (
	Nearest Kernel = "nearest"
	Linear  Kernel = "linear"
	Cubic   Kernel = "cubic"
)

// Triangulated approximates GDAL's grid_linear/grid_nearest/grid_cubic
// scattered interpolators with a local least-squares polynomial fit over
// each query cell's k nearest known points — a plane for Linear, a full
// quadratic for Cubic, and a plain nearest-neighbor copy for Nearest.
// A true constrained Delaunay triangulation is out of scope without a
// mesh library in the dependency set this module draws from; the local
// polynomial fit gives the same "smooth scattered interpolation, exact
// at sample points when queried there" behavior the pipeline needs.
type Triangulated struct {
	KernelName  Kernel
	ChunkSize   int // moving-chunk size in pixels, per spec §4.5
	ChunkBuffer int // not read by this interpolator; chunks get no buffer from it
	Neighbors   int // points used per local fit; 0 defaults per kernel
}

func (t Triangulated) neighborCount() int {
	if t.Neighbors > 0 {
		return t.Neighbors
	}
	switch t.KernelName {
	case Cubic:
		return 12
	default:
		return 6
	}
}

// Interpolate fits each unknown cell from its nearest known neighbors,
// processed in chunk_size-row bands per spec §4.5 ("processed in moving
// chunks... chunks fully covered with known points are passed through
// unchanged").
func (t Triangulated) Interpolate(ctx context.Context, s Surface) ([]float64, error) {
	var samples idwSamples
	for i := 0; i < s.NX*s.NY; i++ {
		if !s.Known(i) {
			continue
		}
		col, row := i%s.NX, i/s.NX
		samples = append(samples, idwSample{X: float64(col), Y: float64(row), Z: s.Z[i]})
	}
	out := make([]float64, len(s.Z))
	if len(samples) == 0 {
		for i := range out {
			out[i] = s.NoData
		}
		return out, nil
	}
	tree := kdtree.New(samples, false)
	k := t.neighborCount()

	chunk := t.ChunkSize
	if chunk <= 0 {
		chunk = s.NY
	}
	for rowStart := 0; rowStart < s.NY; rowStart += chunk {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		rowEnd := rowStart + chunk
		if rowEnd > s.NY {
			rowEnd = s.NY
		}
		allKnown := true
		for row := rowStart; row < rowEnd && allKnown; row++ {
			for col := 0; col < s.NX; col++ {
				if !s.Known(row*s.NX + col) {
					allKnown = false
					break
				}
			}
		}
		for row := rowStart; row < rowEnd; row++ {
			for col := 0; col < s.NX; col++ {
				i := row*s.NX + col
				if s.Known(i) {
					out[i] = s.Z[i]
					continue
				}
				if allKnown {
					continue
				}
				out[i] = t.fitOne(tree, k, float64(col), float64(row), s.NoData)
			}
		}
	}
	return out, nil
}

func (t Triangulated) fitOne(tree *kdtree.Tree, k int, x, y, nodata float64) float64 {
	keeper := kdtree.NewNKeeper(k)
	tree.NearestSet(keeper, idwSample{X: x, Y: y})
	var pts []idwSample
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		pts = append(pts, cd.Comparable.(idwSample))
	}
	if len(pts) == 0 {
		return nodata
	}
	if t.KernelName == Nearest || len(pts) < 3 {
		best := pts[0]
		bestD := (best.X-x)*(best.X-x) + (best.Y-y)*(best.Y-y)
		for _, p := range pts[1:] {
			d := (p.X-x)*(p.X-x) + (p.Y-y)*(p.Y-y)
			if d < bestD {
				best, bestD = p, d
			}
		}
		return best.Z
	}

	cols := 3
	if t.KernelName == Cubic && len(pts) >= 6 {
		cols = 6
	}
	if len(pts) < cols {
		cols = 3
	}
	a := mat.NewDense(len(pts), cols, nil)
	b := mat.NewVecDense(len(pts), nil)
	for i, p := range pts {
		dx, dy := p.X-x, p.Y-y
		row := []float64{1, dx, dy}
		if cols == 6 {
			row = append(row, dx*dx, dx*dy, dy*dy)
		}
		a.SetRow(i, row)
		b.SetVec(i, p.Z)
	}
	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		// degenerate neighborhood (collinear points): fall back to the
		// unweighted mean of the local sample.
		sum := 0.0
		for _, p := range pts {
			sum += p.Z
		}
		return sum / float64(len(pts))
	}
	return coef.AtVec(0) // value at (dx,dy)=(0,0) is simply the constant term
}
