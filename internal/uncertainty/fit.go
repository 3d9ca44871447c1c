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

	"gonum.org/v1/gonum/optimize"
)

// fitCurve fits ŷ = a + b·xᶜ to the (distance, residual) samples by
// nonlinear least squares on each sample's absolute residual, warm-started
// from the previous fit. Residuals are not grouped by distance, and no
// per-distance standard deviation is computed.
func fitCurve(samples []residualSample, warmStart Fit) (Fit, error) {
	sumSq := func(p []float64) float64 {
		a, b, c := p[0], p[1], p[2]
		var sse float64
		for _, s := range samples {
			pred := a + b*math.Pow(math.Max(s.distance, 0), c)
			d := math.Abs(s.residual) - pred
			sse += d * d
		}
		return sse
	}

	problem := optimize.Problem{Func: sumSq}
	init := []float64{warmStart.A, warmStart.B, warmStart.C}
	if init[1] == 0 && init[2] == 0 {
		init = []float64{0, 0.1, 0.2}
	}
	result, err := optimize.Minimize(problem, init, nil, &optimize.NelderMead{})
	if err != nil {
		return Fit{}, err
	}
	if result.X[1] == 0 && result.X[2] == 0 {
		// degenerate fit (spec §4.9 step 8): caller retries with the same
		// warm start next round rather than accepting a flat curve.
		return warmStart, nil
	}
	return Fit{A: result.X[0], B: result.X[1], C: result.X[2]}, nil
}
