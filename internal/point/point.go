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

// Package point implements the (x,y,z,w,u) observation record shared by
// every point-yielding dataset variant (spec C2).
package point

import (
	"fmt"
	"math"

	"github.com/jph6366/cudem-sub000/internal/region"
)

// Point is a single elevation observation. W defaults to 1 (unit weight)
// and U defaults to 0 (no asserted uncertainty) when not otherwise known.
type Point struct {
	X, Y, Z float64
	W       float64
	U       float64
}

// New constructs a Point with the standard w=1/u=0 defaults.
func New(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z, W: 1, U: 0}
}

// Valid reports whether x, y and z are all finite.
func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// Transform is region.CoordTransform extended with z: it returns new x, y
// and z, so 3D (e.g. vertical-datum) transforms compose a z adjustment
// into the same closure.
type Transform func(x, y, z float64) (nx, ny, nz float64, err error)

// Apply mutates p in place under t.
func (p *Point) Apply(t Transform) error {
	if t == nil {
		return nil
	}
	x, y, z, err := t(p.X, p.Y, p.Z)
	if err != nil {
		return err
	}
	p.X, p.Y, p.Z = x, y, z
	return nil
}

// InRegion reports whether p falls inside r, honoring whichever of r's
// z/w/u constraints are set. When invert is true the test is negated.
func (p Point) InRegion(r region.Region, invert bool) bool {
	in := r.Contains(p.X, p.Y, p.Z, p.W, p.U)
	if invert {
		return !in
	}
	return in
}

// CombineWeight multiplies a per-point weight with a dataset (or
// inherited-ancestor) weight, per spec §3/§4.2.
func CombineWeight(pointWeight, datasetWeight float64) float64 {
	return pointWeight * datasetWeight
}

// CombineUncertainty composes a per-point uncertainty with a dataset (or
// inherited-ancestor) uncertainty in quadrature: sqrt(a^2+b^2).
func CombineUncertainty(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

// String renders a textual dump in the XYZ-ish order the rest of the
// toolchain uses for ASCII round-tripping and debugging.
func (p Point) String() string {
	return fmt.Sprintf("%.8f %.8f %.4f %.6f %.6f", p.X, p.Y, p.Z, p.W, p.U)
}
