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

// Package interp implements the stack-consuming interpolation backends
// (spec C8): an in-process IDW kernel over a KD-tree, a scattered
// triangulated kernel, and the ExternalGridder capability contract for
// GMT/MB-System shell-outs.
package interp

import "context"

// Surface is the shared (z, weight, uncertainty) band triple every
// interpolator reads from and writes as a single-band DEM of identical
// shape, the C7/C8 boundary of spec §4.5.
type Surface struct {
	NX, NY      int
	Z           []float64 // known-point band (NaN or NoData where unknown)
	Weight      []float64
	Uncertainty []float64
	NoData      float64
}

// Known reports whether cell i holds a known (non-NODATA) sample.
func (s Surface) Known(i int) bool {
	return s.Z[i] != s.NoData && !isNaN(s.Z[i])
}

func isNaN(v float64) bool { return v != v }

// Interpolator fills every cell of a Surface, returning a same-shape
// single-band result.
type Interpolator interface {
	Interpolate(ctx context.Context, s Surface) ([]float64, error)
}

// ExternalGridder is the narrow contract spec §9 names for shelling out
// to GMT/MB-System gridding tools: given a stack-derived source path, a
// region/increment and tool-specific options, produce a raster path.
// No in-process implementation of the tools themselves is in scope; this
// module only defines the seam and contains no implementation of it.
type ExternalGridder interface {
	Grid(ctx context.Context, stackPath string, region [4]float64, xInc, yInc float64, options map[string]string) (rasterPath string, err error)
}
