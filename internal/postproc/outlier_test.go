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
	"math"
	"testing"
)

func TestPercentileOfMedianOddLength(t *testing.T) {
	v := []float64{3, 1, 2}
	if got := percentileOf(v, 50); got != 2 {
		t.Fatalf("median = %v, want 2", got)
	}
}

func TestPercentileOfEndpoints(t *testing.T) {
	v := []float64{10, 20, 30, 40}
	if got := percentileOf(v, 0); got != 10 {
		t.Fatalf("p0 = %v, want 10", got)
	}
	if got := percentileOf(v, 100); got != 40 {
		t.Fatalf("p100 = %v, want 40", got)
	}
}

func TestGaussianKernelSumsToOne(t *testing.T) {
	k := gaussianKernel1D(2)
	sum := 0.0
	for _, v := range k {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("kernel sum = %v, want 1", sum)
	}
}

func TestTerrainDerivativesFlatSurfaceIsZero(t *testing.T) {
	nx, ny := 4, 4
	z := make([]float64, nx*ny)
	for i := range z {
		z[i] = 100
	}
	slope, curv, tri, tpi := terrainDerivatives(z, nx, ny, -9999)
	for i := range slope {
		if slope[i] != 0 || curv[i] != 0 || tri[i] != 0 || tpi[i] != 0 {
			t.Fatalf("cell %d: flat surface should have zero derivatives, got slope=%v curv=%v tri=%v tpi=%v", i, slope[i], curv[i], tri[i], tpi[i])
		}
	}
}

func TestSymmetricPadReflectsEdges(t *testing.T) {
	sig := []float64{1, 2, 3}
	out := symmetricPad(sig, 2)
	want := []float64{2, 1, 1, 2, 3, 3, 2}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}
