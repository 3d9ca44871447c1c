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
	"sort"

	"github.com/ctessum/geom"
)

// Polygon is one labeled land component's footprint plus its pixel area.
type Polygon struct {
	Bounds geom.Polygon
	Area   float64
}

// Polygonize labels 4-connected land components and returns one axis-
// aligned bounding-box polygon per component (coarser than a true
// boundary trace, but grounded on the same mask every consumer already
// has; see DESIGN.md for the tracing-library gap this simplifies around),
// sorted by area descending and truncated to the top N when topN > 0.
func (m Mask) Polygonize(topN int) []Polygon {
	nx, ny, gt := m.Grid.GeoTransform()
	visited := make([]bool, len(m.Values))
	var polys []Polygon

	for start := 0; start < len(m.Values); start++ {
		if visited[start] || m.Values[start] == 0 {
			continue
		}
		minX, maxX := start%nx, start%nx
		minY, maxY := start/nx, start/nx
		area := 0.0
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%nx, i/nx
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
			area++
			for _, n := range neighbors4(x, y, nx, ny) {
				if !visited[n] && m.Values[n] != 0 {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
		x0, y0 := gt.Geo(float64(minX), float64(minY))
		x1, y1 := gt.Geo(float64(maxX+1), float64(maxY+1))
		ring := []geom.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
		polys = append(polys, Polygon{Bounds: geom.Polygon{ring}, Area: area})
	}

	sort.Slice(polys, func(i, j int) bool { return polys[i].Area > polys[j].Area })
	if topN > 0 && len(polys) > topN {
		polys = polys[:topN]
	}
	return polys
}

func neighbors4(x, y, nx, ny int) []int {
	var out []int
	if x > 0 {
		out = append(out, y*nx+x-1)
	}
	if x < nx-1 {
		out = append(out, y*nx+x+1)
	}
	if y > 0 {
		out = append(out, (y-1)*nx+x)
	}
	if y < ny-1 {
		out = append(out, (y+1)*nx+x)
	}
	return out
}
