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
	"github.com/ctessum/geom"
	shp "github.com/jonas-p/go-shp"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/raster"
)

// clipToPolygon masks every cell whose center falls outside (or, when
// Invert, inside) the union of polygons in c.Path, spec §4.6 step 4.
func (p *Pipeline) clipToPolygon(ds *raster.Dataset, c Clip) (*raster.Dataset, error) {
	polys, err := readShapefilePolygons(c.Path)
	if err != nil {
		return nil, err
	}
	z, nx, ny, err := readWhole(ds)
	if err != nil {
		return nil, err
	}
	gt := ds.GeoTransform()
	nodata := p.opts.NodataValue
	for row := 0; row < ny; row++ {
		for col := 0; col < nx; col++ {
			i := row*nx + col
			if z[i] == nodata {
				continue
			}
			x, y := gt.Geo(float64(col)+0.5, float64(row)+0.5)
			inside := false
			pt := geom.Point{X: x, Y: y}
			for _, poly := range polys {
				if pt.Within(poly) != geom.Outside {
					inside = true
					break
				}
			}
			if c.Invert {
				inside = !inside
			}
			if !inside {
				z[i] = nodata
			}
		}
	}
	return writeWhole(p.stagePath("04-clip.tif"), p.gridOf(ds), z, nodata)
}

// readShapefilePolygons reads every polygon shape's outer/inner rings from
// a shapefile into geom.Polygon values.
func readShapefilePolygons(path string) ([]geom.Polygon, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "postproc.readShapefilePolygons", path, "open: %w", err)
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
	return polys, nil
}
