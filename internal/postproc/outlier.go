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

package postproc

import (
	"context"
	"math"
	"sort"

	"github.com/jph6366/cudem-sub000/internal/interp"
	"github.com/jph6366/cudem-sub000/internal/raster"
)

// OutlierOptions configures the shared outlier filter of spec §4.7.
type OutlierOptions struct {
	ChunkSize, ChunkStep int
	MultiPass            int     // number of passes; 0 or 1 means a single pass at ChunkSize
	MinChunkSize         int     // lower bound of the multipass range
	MaxChunkSize         int     // upper bound of the multipass range
	Aggressive           bool    // skip IQR fencing, use the raw percentile as the fence
	LowerPercentile      float64 // default 25
	UpperPercentile      float64 // default 75
	Replace              bool    // true: cubic-interpolate masked cells; false: clear to NODATA
}

func (o OutlierOptions) bounds() (lo, hi float64) {
	lo, hi = o.LowerPercentile, o.UpperPercentile
	if lo == 0 && hi == 0 {
		lo, hi = 25, 75
	}
	return lo, hi
}

func (o OutlierOptions) passes() []int {
	n := o.MultiPass
	if n <= 1 {
		if o.ChunkSize > 0 {
			return []int{o.ChunkSize}
		}
		return []int{32}
	}
	lo, hi := o.MinChunkSize, o.MaxChunkSize
	if lo <= 0 {
		lo = o.ChunkSize
	}
	if hi <= 0 {
		hi = o.ChunkSize
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		out[i] = int(math.Round(float64(lo) + t*float64(hi-lo)))
	}
	return out
}

// outlierFilter implements spec §4.7: per moving window, joint statistical
// outlier detection across elevation/slope/curvature/TRI/TPI, accumulated
// into a per-cell mass and hit-count, thresholded by the 75th percentile
// of each across the whole raster.
func (p *Pipeline) outlierFilter(ds *raster.Dataset, f FilterSpec) (*raster.Dataset, error) {
	z, nx, ny, err := readWhole(ds)
	if err != nil {
		return nil, err
	}
	nodata := p.opts.NodataValue
	known := func(i int) bool { return z[i] != nodata }

	slope, curv, tri, tpi := terrainDerivatives(z, nx, ny, nodata)
	variables := [][]float64{z, slope, curv, tri, tpi}

	mass := make([]float64, nx*ny)
	count := make([]float64, nx*ny)

	step := f.Outlier.ChunkStep
	if step <= 0 {
		step = f.Outlier.ChunkSize
	}
	if step <= 0 {
		step = 16
	}

	for _, size := range f.Outlier.passes() {
		if size <= 0 {
			continue
		}
		for y0 := 0; y0 < ny; y0 += step {
			for x0 := 0; x0 < nx; x0 += step {
				y1 := min(y0+size, ny)
				x1 := min(x0+size, nx)
				accumulateOutlierMass(variables, known, nx, x0, y0, x1, y1, f.Outlier, mass, count)
			}
		}
	}

	massFence := percentileOf(nonZero(mass), 75)
	countFence := percentileOf(nonZero(count), 75)

	masked := make([]bool, nx*ny)
	for i := range masked {
		if mass[i] > massFence && count[i] > countFence {
			masked[i] = true
		}
	}

	out := make([]float64, len(z))
	copy(out, z)
	for i, m := range masked {
		if m {
			if f.HasSplitValue && z[i] >= f.SplitValue {
				continue
			}
			out[i] = nodata
		}
	}

	if f.Outlier.Replace {
		surf := interp.Surface{NX: nx, NY: ny, Z: out, NoData: nodata}
		kernel := interp.Triangulated{KernelName: interp.Cubic}
		filled, err := kernel.Interpolate(context.Background(), surf)
		if err != nil {
			return nil, err
		}
		out = filled
	}

	return writeWhole(p.stagePath("02-outlier.tif"), p.gridOf(ds), out, nodata)
}

func accumulateOutlierMass(variables [][]float64, known func(int) bool, nx, x0, y0, x1, y1 int, o OutlierOptions, mass, count []float64) {
	lo, hi := o.bounds()
	var cellIdx []int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := y*nx + x
			if known(i) {
				cellIdx = append(cellIdx, i)
			}
		}
	}
	if len(cellIdx) < 4 {
		return
	}
	for _, vals := range variables {
		var sample []float64
		for _, i := range cellIdx {
			sample = append(sample, vals[i])
		}
		p25 := percentileOf(sample, lo)
		p75 := percentileOf(sample, hi)
		iqr := p75 - p25
		upperFence := p75
		if !o.Aggressive {
			upperFence = p75 + 1.5*iqr
		}
		maxV := sample[0]
		for _, v := range sample {
			if v > maxV {
				maxV = v
			}
		}
		denom := maxV - upperFence
		if denom == 0 {
			continue
		}
		for _, i := range cellIdx {
			x := vals[i]
			if x <= upperFence {
				continue
			}
			w := 1.0
			contrib := w * w * (x - upperFence) * (x - upperFence) / (denom * denom)
			mass[i] += contrib
			count[i]++
		}
	}
}

func nonZero(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if x != 0 {
			out = append(out, x)
		}
	}
	return out
}

// percentileOf computes the pct-th percentile (0-100) via linear
// interpolation between closest ranks, the convention spec §4.7's
// 25th/75th Tukey fences assume.
func percentileOf(v []float64, pct float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	pos := pct / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (pos-float64(lo))*(s[hi]-s[lo])
}

// terrainDerivatives computes slope, curvature, TRI and TPI over a 3x3
// neighborhood at each cell (Horn's method for slope; the mean difference
// of the four edge neighbors from the center for curvature; the
// root-mean-square difference of the eight neighbors from the center for
// TRI; the center minus the eight-neighbor mean for TPI), treating a
// NODATA neighbor as equal to the center cell.
func terrainDerivatives(z []float64, nx, ny int, nodata float64) (slope, curv, tri, tpi []float64) {
	slope = make([]float64, nx*ny)
	curv = make([]float64, nx*ny)
	tri = make([]float64, nx*ny)
	tpi = make([]float64, nx*ny)

	at := func(x, y int, center float64) float64 {
		if x < 0 || x >= nx || y < 0 || y >= ny {
			return center
		}
		v := z[y*nx+x]
		if v == nodata {
			return center
		}
		return v
	}

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			c := z[i]
			if c == nodata {
				continue
			}
			z1, z2, z3 := at(x-1, y-1, c), at(x, y-1, c), at(x+1, y-1, c)
			z4, z6 := at(x-1, y, c), at(x+1, y, c)
			z7, z8, z9 := at(x-1, y+1, c), at(x, y+1, c), at(x+1, y+1, c)

			dzdx := ((z3 + 2*z6 + z9) - (z1 + 2*z4 + z7)) / 8
			dzdy := ((z7 + 2*z8 + z9) - (z1 + 2*z2 + z3)) / 8
			slope[i] = math.Atan(math.Hypot(dzdx, dzdy))
			curv[i] = (z4 + z6 + z2 + z8 - 4*c) / 4

			sumSq, sum, n := 0.0, 0.0, 0.0
			for _, nb := range []float64{z1, z2, z3, z4, z6, z7, z8, z9} {
				d := nb - c
				sumSq += d * d
				sum += nb
				n++
			}
			tri[i] = math.Sqrt(sumSq / n)
			tpi[i] = c - sum/n
		}
	}
	return slope, curv, tri, tpi
}
