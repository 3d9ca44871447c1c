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
	"github.com/ctessum/geom"
	shp "github.com/jonas-p/go-shp"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// applyVectorLayer rasterizes every polygon in path at the mask's
// resolution and adds sign to every cell whose center falls inside one of
// its rings, implementing the "subtract" (sign=-1) and "add" (sign=+1)
// layers of spec §4.8.
func applyVectorLayer(sum []float64, nx, ny int, gt region.GeoTransform, path string, sign float64) error {
	r, err := shp.Open(path)
	if err != nil {
		return errs.Wrap(errs.IO, "coastline.applyVectorLayer", path, "open: %w", err)
	}
	defer r.Close()

	var polys []geom.Polygon
	for r.Next() {
		_, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		var rings geom.Polygon
		parts := append([]int32{}, poly.Parts...)
		parts = append(parts, int32(len(poly.Points)))
		for pi := 0; pi < len(parts)-1; pi++ {
			start, end := parts[pi], parts[pi+1]
			var ring []geom.Point
			for _, pt := range poly.Points[start:end] {
				ring = append(ring, geom.Point{X: pt.X, Y: pt.Y})
			}
			rings = append(rings, ring)
		}
		polys = append(polys, rings)
	}
	if len(polys) == 0 {
		return nil
	}

	for row := 0; row < ny; row++ {
		for col := 0; col < nx; col++ {
			x, y := gt.Geo(float64(col)+0.5, float64(row)+0.5)
			pt := geom.Point{X: x, Y: y}
			for _, poly := range polys {
				if pt.Within(poly) != geom.Outside {
					sum[row*nx+col] += sign
					break
				}
			}
		}
	}
	return nil
}
