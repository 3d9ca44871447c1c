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

package point

import (
	"math"
	"testing"

	"github.com/jph6366/cudem-sub000/internal/region"
)

func TestValid(t *testing.T) {
	if !New(1, 2, 3).Valid() {
		t.Fatal("finite point should be valid")
	}
	if New(math.NaN(), 2, 3).Valid() {
		t.Fatal("NaN x should be invalid")
	}
	if New(1, math.Inf(1), 3).Valid() {
		t.Fatal("infinite y should be invalid")
	}
}

func TestInRegion(t *testing.T) {
	r := region.New2D(0, 10, 0, 10)
	p := New(5, 5, 0)
	if !p.InRegion(r, false) {
		t.Fatal("point inside region should match")
	}
	if p.InRegion(r, true) {
		t.Fatal("inverted match should be false for a contained point")
	}
	outside := New(50, 50, 0)
	if outside.InRegion(r, false) {
		t.Fatal("point outside region should not match")
	}
	if !outside.InRegion(r, true) {
		t.Fatal("inverted match should be true for an excluded point")
	}
}

func TestCombineWeightAndUncertainty(t *testing.T) {
	if w := CombineWeight(0.5, 2); w != 1.0 {
		t.Fatalf("combined weight = %v, want 1.0", w)
	}
	if u := CombineUncertainty(3, 4); u != 5 {
		t.Fatalf("combined uncertainty = %v, want 5", u)
	}
}

func TestApplyTransform(t *testing.T) {
	p := New(1, 2, 3)
	err := p.Apply(func(x, y, z float64) (float64, float64, float64, error) {
		return x + 1, y + 1, z + 1, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.X != 2 || p.Y != 3 || p.Z != 4 {
		t.Fatalf("transformed point = %+v", p)
	}
}
