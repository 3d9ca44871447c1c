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

package uncertainty

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jph6366/cudem-sub000/internal/interp"
)

// chunk is one sub-region of the analyzed surface.
type chunk struct {
	x0, y0, x1, y1 int
	density        float64
	meanProximity  float64
	meanSlope      float64
}

// chunkSizeFromPercentile sizes chunks at the targetPct percentile of the
// proximity raster (spec §4.9 step 3: "chunk the region at a size set by
// the target percentile of proximity").
func chunkSizeFromPercentile(proximity []float64, targetPct float64) int {
	if targetPct <= 0 {
		targetPct = 75
	}
	s := append([]float64(nil), proximity...)
	sort.Float64s(s)
	v := stat.Quantile(targetPct/100, stat.LinInterp, s, nil)
	size := int(v)
	if size < 8 {
		size = 8
	}
	return size
}

func chunkRegion(nx, ny, size int) []chunk {
	var out []chunk
	for y0 := 0; y0 < ny; y0 += size {
		for x0 := 0; x0 < nx; x0 += size {
			x1 := min(x0+size, nx)
			y1 := min(y0+size, ny)
			out = append(out, chunk{x0: x0, y0: y0, x1: x1, y1: y1})
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// zone groups chunks whose mean proximity/slope both fall in the same
// {low,mid,high} tercile (spec §4.9 step 4: nine zones).
type zone struct {
	chunks []chunk
}

// binByZone computes each chunk's density/mean proximity/mean slope, then
// assigns it to one of nine zones by proximity/slope tercile.
func binByZone(chunks []chunk, s interp.Surface, proximity, slope []float64) [9]zone {
	nx := s.NX
	for i := range chunks {
		c := &chunks[i]
		var known, total int
		var sumProx, sumSlope float64
		for y := c.y0; y < c.y1; y++ {
			for x := c.x0; x < c.x1; x++ {
				idx := y*nx + x
				total++
				if s.Known(idx) {
					known++
				}
				sumProx += proximity[idx]
				sumSlope += slope[idx]
			}
		}
		if total > 0 {
			c.density = float64(known) / float64(total)
			c.meanProximity = sumProx / float64(total)
			c.meanSlope = sumSlope / float64(total)
		}
	}

	proxTercile := terciles(chunks, func(c chunk) float64 { return c.meanProximity })
	slopeTercile := terciles(chunks, func(c chunk) float64 { return c.meanSlope })

	var zones [9]zone
	for _, c := range chunks {
		pz := bucket(c.meanProximity, proxTercile)
		sz := bucket(c.meanSlope, slopeTercile)
		idx := pz*3 + sz
		zones[idx].chunks = append(zones[idx].chunks, c)
	}
	return zones
}

func terciles(chunks []chunk, f func(chunk) float64) [2]float64 {
	vals := make([]float64, len(chunks))
	for i, c := range chunks {
		vals[i] = f(c)
	}
	sort.Float64s(vals)
	if len(vals) == 0 {
		return [2]float64{0, 0}
	}
	return [2]float64{
		stat.Quantile(1.0/3, stat.LinInterp, vals, nil),
		stat.Quantile(2.0/3, stat.LinInterp, vals, nil),
	}
}

func bucket(v float64, t [2]float64) int {
	if v <= t[0] {
		return 0
	}
	if v <= t[1] {
		return 1
	}
	return 2
}

// trainingChunks picks, from each zone, the sub-chunks whose density is at
// or below that zone's median density (spec §4.9 step 5).
func trainingChunks(zones [9]zone) []chunk {
	var out []chunk
	for _, z := range zones {
		if len(z.chunks) == 0 {
			continue
		}
		densities := make([]float64, len(z.chunks))
		for i, c := range z.chunks {
			densities[i] = c.density
		}
		sort.Float64s(densities)
		median := stat.Quantile(0.5, stat.LinInterp, densities, nil)
		for _, c := range z.chunks {
			if c.density <= median {
				out = append(out, c)
			}
		}
	}
	return out
}
