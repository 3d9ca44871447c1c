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

package region

import "math"

// Node selects where a GeoTransform places cell centers relative to the
// region's bounds.
type Node int

const (
	// NodePixel places cell centers at exact increment multiples from the
	// region origin, on both of the region's edges (see GeoTransformFor).
	NodePixel Node = iota
	// NodeGrid places cell centers at half-increment offsets from the
	// region origin, so the cells exactly tile the region.
	NodeGrid
)

// GeoTransform is the GDAL-style six-tuple (OX, DX, 0, OY, 0, DY) mapping
// pixel indices to geographic coordinates. DY is conventionally negative
// (rows increase downward while Y increases northward).
type GeoTransform struct {
	OX, DX, OY, DY float64
}

// Geo converts a pixel coordinate (col,row) to a geographic coordinate.
func (gt GeoTransform) Geo(col, row float64) (x, y float64) {
	return gt.OX + col*gt.DX, gt.OY + row*gt.DY
}

// Pixel converts a geographic coordinate to a (possibly fractional) pixel
// coordinate; it is the exact inverse of Geo.
func (gt GeoTransform) Pixel(x, y float64) (col, row float64) {
	return (x - gt.OX) / gt.DX, (y - gt.OY) / gt.DY
}

// GeoTransformFor computes the cell counts and GeoTransform that exactly
// tile r at the given increments, per spec §4.1. NodePixel places the grid
// origin half an increment outside r's corner so that cell *centers* land
// on r's edges; NodeGrid places the origin exactly on r's corner.
func GeoTransformFor(r Region, xInc, yInc float64, node Node) (nx, ny int, gt GeoTransform) {
	nx = int(math.Round((r.XMax - r.XMin) / xInc))
	ny = int(math.Round((r.YMax - r.YMin) / yInc))
	if node == NodePixel {
		// NodePixel shifts the origin half an increment outward so cell
		// *centers* land on r's edges (see below); spanning both edges with
		// centers spaced xInc/yInc apart takes one more cell per axis than
		// the plain area-tiling count, the usual grid/gridline fencepost.
		nx++
		ny++
	}
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	gt = GeoTransform{OX: r.XMin, DX: xInc, OY: r.YMax, DY: -yInc}
	if node == NodePixel {
		gt.OX -= xInc / 2
		gt.OY += yInc / 2
	}
	return nx, ny, gt
}

// Srcwin is a pixel window (xoff,yoff,xsize,ysize) into a raster of size
// (nx,ny) described by gt.
type Srcwin struct {
	XOff, YOff   int
	XSize, YSize int
}

// Empty reports whether the window has zero area.
func (w Srcwin) Empty() bool { return w.XSize <= 0 || w.YSize <= 0 }

// SrcwinFor clips r against a raster of size (nx,ny) under gt, returning a
// zero-size window when the two are disjoint. The returned window always
// lies within [0,nx)x[0,ny).
func SrcwinFor(r Region, gt GeoTransform, nx, ny int) Srcwin {
	c0, r0 := gt.Pixel(r.XMin, r.YMax)
	c1, r1 := gt.Pixel(r.XMax, r.YMin)
	if c0 > c1 {
		c0, c1 = c1, c0
	}
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	xoff := int(math.Floor(c0))
	yoff := int(math.Floor(r0))
	xend := int(math.Ceil(c1))
	yend := int(math.Ceil(r1))
	if xoff < 0 {
		xoff = 0
	}
	if yoff < 0 {
		yoff = 0
	}
	if xend > nx {
		xend = nx
	}
	if yend > ny {
		yend = ny
	}
	if xend <= xoff || yend <= yoff {
		return Srcwin{}
	}
	return Srcwin{XOff: xoff, YOff: yoff, XSize: xend - xoff, YSize: yend - yoff}
}

// Region recovers the geographic Region covered by a raster of size
// (nx,ny) under gt.
func RegionFor(gt GeoTransform, nx, ny int) Region {
	x0, y0 := gt.Geo(0, 0)
	x1, y1 := gt.Geo(float64(nx), float64(ny))
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return New2D(x0, x1, y0, y1)
}
