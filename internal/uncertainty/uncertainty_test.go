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
	"testing"

	"github.com/jph6366/cudem-sub000/internal/interp"
)

func TestProximityRasterZeroAtKnownCells(t *testing.T) {
	s := interp.Surface{NX: 3, NY: 3, Z: []float64{1, -9999, -9999, -9999, -9999, -9999, -9999, -9999, 1}, NoData: -9999}
	d := proximityRaster(s)
	if d[0] != 0 || d[8] != 0 {
		t.Fatalf("known cells should have zero proximity, got %v, %v", d[0], d[8])
	}
	if d[4] <= 0 {
		t.Fatalf("center cell should have positive proximity, got %v", d[4])
	}
}

func TestFitCurveRecoversKnownParameters(t *testing.T) {
	a, b, c := 0.5, 2.0, 0.5
	var samples []residualSample
	for i := 1; i <= 20; i++ {
		d := float64(i)
		samples = append(samples, residualSample{distance: d, residual: a + b*math.Pow(d, c)})
	}
	fit, err := fitCurve(samples, Fit{A: 0, B: 0.1, C: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	pred := fit.A + fit.B*math.Pow(10, fit.C)
	want := a + b*math.Pow(10, c)
	if math.Abs(pred-want) > 0.5 {
		t.Fatalf("fit prediction at d=10 = %v, want close to %v", pred, want)
	}
}

func TestChunkSizeFromPercentileHasFloor(t *testing.T) {
	prox := make([]float64, 100)
	size := chunkSizeFromPercentile(prox, 75)
	if size < 8 {
		t.Fatalf("chunk size = %v, want >= 8 floor", size)
	}
}
