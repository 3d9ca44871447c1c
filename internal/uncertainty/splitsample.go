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
	"context"
	"math/rand"

	"github.com/jph6366/cudem-sub000/internal/interp"
)

// splitSampleOne runs one split-sample trial over a training chunk (spec
// §4.9 step 6): known points inside the chunk's inner half are the test
// candidates, known points in the chunk's outer half (plus every point
// outside the chunk) are always retained; a random HoldBackFraction of the
// inner/test points is withheld from the interpolator and queried against
// its output to produce (distance, residual) pairs.
func splitSampleOne(ctx context.Context, s interp.Surface, proximity []float64, c chunk, opts Options, r *rand.Rand) ([]residualSample, error) {
	midX := (c.x0 + c.x1) / 2
	midY := (c.y0 + c.y1) / 2
	innerHalf := (c.x1 - c.x0) / 4
	if innerHalf < 1 {
		innerHalf = 1
	}

	var inner []int
	for y := c.y0; y < c.y1; y++ {
		for x := c.x0; x < c.x1; x++ {
			i := y*s.NX + x
			if !s.Known(i) {
				continue
			}
			if abs(x-midX) <= innerHalf && abs(y-midY) <= innerHalf {
				inner = append(inner, i)
			}
		}
	}
	if len(inner) == 0 {
		return nil, nil
	}

	r.Shuffle(len(inner), func(i, j int) { inner[i], inner[j] = inner[j], inner[i] })
	holdN := int(float64(len(inner)) * opts.holdBack())
	if holdN < 1 {
		holdN = 1
	}
	if holdN > len(inner) {
		holdN = len(inner)
	}
	heldOut := inner[:holdN]

	trial := interp.Surface{NX: s.NX, NY: s.NY, Z: make([]float64, len(s.Z)), NoData: s.NoData}
	for i := range trial.Z {
		trial.Z[i] = s.NoData
	}
	for i, v := range s.Z {
		if s.Known(i) {
			heldBack := false
			for _, h := range heldOut {
				if h == i {
					heldBack = true
					break
				}
			}
			if !heldBack {
				trial.Z[i] = v
			}
		}
	}

	filled, err := opts.Base.Interpolate(ctx, trial)
	if err != nil {
		return nil, err
	}

	out := make([]residualSample, 0, len(heldOut))
	for _, i := range heldOut {
		out = append(out, residualSample{distance: proximity[i], residual: filled[i] - s.Z[i]})
	}
	return out, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
