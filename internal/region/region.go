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

// Package region implements the bounded-box value type (Region) and the
// pixel/geo GeoTransform pair that the rest of the ingest pipeline is
// built on (spec C1).
package region

import "math"

// unset marks an unconstrained bound on an auxiliary axis (z, w, u).
const unset = math.MaxFloat64

// Region is an immutable-by-convention 2D/4D bounded box: required
// (xmin,xmax,ymin,ymax) plus optional (zmin,zmax), (wmin,wmax), (umin,umax)
// where unset means "no constraint" on that axis. SRS carries an opaque
// source-CRS tag (typically a WKT or "EPSG:n" string); it is advisory and
// never interpreted by Region itself.
type Region struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
	WMin, WMax float64
	UMin, UMax float64
	SRS        string
}

// New2D builds a Region with only the horizontal bounds constrained.
func New2D(xmin, xmax, ymin, ymax float64) Region {
	return Region{
		XMin: xmin, XMax: xmax,
		YMin: ymin, YMax: ymax,
		ZMin: -unset, ZMax: unset,
		WMin: -unset, WMax: unset,
		UMin: -unset, UMax: unset,
	}
}

// HasZ reports whether the z-axis is constrained.
func (r Region) HasZ() bool { return r.ZMin > -unset || r.ZMax < unset }

// HasW reports whether the weight axis is constrained.
func (r Region) HasW() bool { return r.WMin > -unset || r.WMax < unset }

// HasU reports whether the uncertainty axis is constrained.
func (r Region) HasU() bool { return r.UMin > -unset || r.UMax < unset }

// Valid reports whether the box's required bounds are well ordered.
func (r Region) Valid() bool {
	return r.XMin <= r.XMax && r.YMin <= r.YMax
}

// Contains2D reports whether (x,y) falls within the horizontal bounds,
// inclusive.
func (r Region) Contains2D(x, y float64) bool {
	return x >= r.XMin && x <= r.XMax && y >= r.YMin && y <= r.YMax
}

// Contains reports whether (x,y,z,w,u) satisfies every constrained axis.
func (r Region) Contains(x, y, z, w, u float64) bool {
	if !r.Contains2D(x, y) {
		return false
	}
	if r.HasZ() && (z < r.ZMin || z > r.ZMax) {
		return false
	}
	if r.HasW() && (w < r.WMin || w > r.WMax) {
		return false
	}
	if r.HasU() && (u < r.UMin || u > r.UMax) {
		return false
	}
	return true
}

// Intersect returns the possibly-empty (Valid()==false) overlap of a and b.
// Auxiliary axes intersect only where both sides constrain them.
func Intersect(a, b Region) Region {
	out := Region{
		XMin: math.Max(a.XMin, b.XMin), XMax: math.Min(a.XMax, b.XMax),
		YMin: math.Max(a.YMin, b.YMin), YMax: math.Min(a.YMax, b.YMax),
		ZMin: -unset, ZMax: unset,
		WMin: -unset, WMax: unset,
		UMin: -unset, UMax: unset,
	}
	if a.HasZ() || b.HasZ() {
		out.ZMin, out.ZMax = math.Max(a.ZMin, b.ZMin), math.Min(a.ZMax, b.ZMax)
	}
	if a.HasW() || b.HasW() {
		out.WMin, out.WMax = math.Max(a.WMin, b.WMin), math.Min(a.WMax, b.WMax)
	}
	if a.HasU() || b.HasU() {
		out.UMin, out.UMax = math.Max(a.UMin, b.UMin), math.Min(a.UMax, b.UMax)
	}
	return out
}

// Merge returns the smallest Region enclosing both a and b.
func Merge(a, b Region) Region {
	out := Region{
		XMin: math.Min(a.XMin, b.XMin), XMax: math.Max(a.XMax, b.XMax),
		YMin: math.Min(a.YMin, b.YMin), YMax: math.Max(a.YMax, b.YMax),
		ZMin: -unset, ZMax: unset,
		WMin: -unset, WMax: unset,
		UMin: -unset, UMax: unset,
	}
	if a.HasZ() || b.HasZ() {
		out.ZMin, out.ZMax = math.Min(a.ZMin, b.ZMin), math.Max(a.ZMax, b.ZMax)
	}
	if a.HasW() || b.HasW() {
		out.WMin, out.WMax = math.Min(a.WMin, b.WMin), math.Max(a.WMax, b.WMax)
	}
	if a.HasU() || b.HasU() {
		out.UMin, out.UMax = math.Min(a.UMin, b.UMin), math.Max(a.UMax, b.UMax)
	}
	return out
}

// BufferPct grows the horizontal bounds by pct (e.g. 0.1 == 10%) of each
// axis's extent, split evenly on both sides.
func (r Region) BufferPct(pct float64) Region {
	dx := (r.XMax - r.XMin) * pct / 2
	dy := (r.YMax - r.YMin) * pct / 2
	out := r
	out.XMin -= dx
	out.XMax += dx
	out.YMin -= dy
	out.YMax += dy
	return out
}

// BufferAbs grows the horizontal bounds by the given absolute value on
// each side, then snaps the result outward to multiples of (xInc,yInc)
// when either increment is non-zero.
func (r Region) BufferAbs(xbv, ybv, xInc, yInc float64) Region {
	out := r
	out.XMin -= xbv
	out.XMax += xbv
	out.YMin -= ybv
	out.YMax += ybv
	if xInc > 0 {
		out.XMin = math.Floor(out.XMin/xInc) * xInc
		out.XMax = math.Ceil(out.XMax/xInc) * xInc
	}
	if yInc > 0 {
		out.YMin = math.Floor(out.YMin/yInc) * yInc
		out.YMax = math.Ceil(out.YMax/yInc) * yInc
	}
	return out
}

// CoordTransform maps a single (x,y) pair under some CRS transform.
// Implementations live in internal/srs; Region only consumes the contract
// so it stays free of any CRS-library dependency.
type CoordTransform func(x, y float64) (float64, float64, error)

// Warp transforms the region's four corners plus the midpoints of its two
// long edges (guarding against concave projections folding a convex box)
// and returns the axis-aligned hull of the transformed points.
func (r Region) Warp(t CoordTransform) (Region, error) {
	midY := (r.YMin + r.YMax) / 2
	pts := [][2]float64{
		{r.XMin, r.YMin}, {r.XMax, r.YMin},
		{r.XMin, r.YMax}, {r.XMax, r.YMax},
		{r.XMin, midY}, {r.XMax, midY},
	}
	out := r
	out.XMin, out.YMin = math.Inf(1), math.Inf(1)
	out.XMax, out.YMax = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		x, y, err := t(p[0], p[1])
		if err != nil {
			return Region{}, err
		}
		out.XMin = math.Min(out.XMin, x)
		out.XMax = math.Max(out.XMax, x)
		out.YMin = math.Min(out.YMin, y)
		out.YMax = math.Max(out.YMax, y)
	}
	return out, nil
}
