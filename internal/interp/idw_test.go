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

package interp

import (
	"context"
	"math"
	"testing"
)

func gridSurface(nx, ny int, known map[int]float64) Surface {
	z := make([]float64, nx*ny)
	for i := range z {
		z[i] = -9999
	}
	for i, v := range known {
		z[i] = v
	}
	return Surface{NX: nx, NY: ny, Z: z, NoData: -9999}
}

func TestIDWExactHitReturnsKnownValue(t *testing.T) {
	s := gridSurface(3, 3, map[int]float64{4: 42})
	k := IDW{MinPoints: 4, Radius: 10}
	out, err := k.Interpolate(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if out[4] != 42 {
		t.Fatalf("known cell changed: %v", out[4])
	}
}

func TestIDWNoNeighborsInRadiusIsNodata(t *testing.T) {
	s := gridSurface(5, 5, map[int]float64{0: 1})
	k := IDW{MinPoints: 4, Radius: 0.5}
	out, err := k.Interpolate(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	far := 4*5 + 4
	if out[far] != s.NoData {
		t.Fatalf("far cell = %v, want NODATA since nothing is within radius 0.5", out[far])
	}
}

func TestIDWWeightedAverageBetweenTwoEqualDistancePoints(t *testing.T) {
	// 3x1 row: known at col 0 (z=0) and col 2 (z=10), unknown at col 1,
	// equidistant from both, so the result should be their mean.
	s := gridSurface(3, 1, map[int]float64{0: 0, 2: 10})
	k := IDW{MinPoints: 2, Radius: 10, Power: 2}
	out, err := k.Interpolate(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out[1]-5) > 1e-9 {
		t.Fatalf("mid cell = %v, want 5", out[1])
	}
}

func TestIDWEmptySurfaceIsAllNodata(t *testing.T) {
	s := gridSurface(2, 2, nil)
	k := IDW{MinPoints: 4, Radius: 10}
	out, err := k.Interpolate(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != s.NoData {
			t.Fatalf("cell %d = %v, want NODATA", i, v)
		}
	}
}
