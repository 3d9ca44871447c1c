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
	"math"

	"github.com/jph6366/cudem-sub000/internal/interp"
)

// proximityRaster computes, per cell, the Euclidean distance in pixels to
// the nearest known cell via a two-pass chamfer approximation (forward
// pass propagating from up/left neighbors, backward pass from down/right),
// which is exact for 4/8-connected chamfer weights and a close approximation
// of true Euclidean distance, sufficient for the chunk-sizing and zone
// binning spec §4.9 asks for.
func proximityRaster(s interp.Surface) []float64 {
	nx, ny := s.NX, s.NY
	const inf = math.MaxFloat64
	dist := make([]float64, nx*ny)
	for i := range dist {
		if s.Known(i) {
			dist[i] = 0
		} else {
			dist[i] = inf
		}
	}
	const d1, d2 = 1.0, 1.4142135623730951

	at := func(x, y int) float64 {
		if x < 0 || x >= nx || y < 0 || y >= ny {
			return inf
		}
		return dist[y*nx+x]
	}
	relax := func(x, y int, cand float64) {
		i := y*nx + x
		if cand < dist[i] {
			dist[i] = cand
		}
	}

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if dist[y*nx+x] == 0 {
				continue
			}
			relax(x, y, at(x-1, y)+d1)
			relax(x, y, at(x, y-1)+d1)
			relax(x, y, at(x-1, y-1)+d2)
			relax(x, y, at(x+1, y-1)+d2)
		}
	}
	for y := ny - 1; y >= 0; y-- {
		for x := nx - 1; x >= 0; x-- {
			if dist[y*nx+x] == 0 {
				continue
			}
			relax(x, y, at(x+1, y)+d1)
			relax(x, y, at(x, y+1)+d1)
			relax(x, y, at(x+1, y+1)+d2)
			relax(x, y, at(x-1, y+1)+d2)
		}
	}
	return dist
}

// slopeRaster computes Horn's-method slope (radians) over band 1, treating
// out-of-range or NODATA neighbors as equal to the center cell.
func slopeRaster(s interp.Surface) []float64 {
	nx, ny := s.NX, s.NY
	out := make([]float64, nx*ny)
	at := func(x, y int, center float64) float64 {
		if x < 0 || x >= nx || y < 0 || y >= ny {
			return center
		}
		i := y*nx + x
		if !s.Known(i) {
			return center
		}
		return s.Z[i]
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			c := s.Z[i]
			z1, z2, z3 := at(x-1, y-1, c), at(x, y-1, c), at(x+1, y-1, c)
			z4, z6 := at(x-1, y, c), at(x+1, y, c)
			z7, z8, z9 := at(x-1, y+1, c), at(x, y+1, c), at(x+1, y+1, c)
			dzdx := ((z3 + 2*z6 + z9) - (z1 + 2*z4 + z7)) / 8
			dzdy := ((z7 + 2*z8 + z9) - (z1 + 2*z2 + z3)) / 8
			out[i] = math.Atan(math.Hypot(dzdx, dzdy))
		}
	}
	return out
}
