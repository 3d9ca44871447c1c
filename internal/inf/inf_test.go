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

package inf

import "testing"

func TestUnionOfEmptyReturnsOther(t *testing.T) {
	a := Inf{}
	b := Inf{NumPts: 10, MinMax: [6]float64{0, 1, 0, 1, 0, 1}}
	if got := Union(a, b); got != b {
		t.Fatalf("union(empty,b) = %+v, want %+v", got, b)
	}
}

func TestUnionCombinesBounds(t *testing.T) {
	a := Inf{NumPts: 5, MinMax: [6]float64{0, 1, 0, 1, 0, 1}}
	b := Inf{NumPts: 10, MinMax: [6]float64{-1, 2, -1, 2, -1, 2}}
	u := Union(a, b)
	if u.NumPts != 15 {
		t.Fatalf("numpts = %d, want 15", u.NumPts)
	}
	if u.MinMax != [6]float64{-1, 2, -1, 2, -1, 2} {
		t.Fatalf("minmax = %+v", u.MinMax)
	}
}

func TestStaleRules(t *testing.T) {
	if !Stale(Inf{}, false, "h", false) {
		t.Fatal("missing sidecar must be stale")
	}
	valid := Inf{NumPts: 1, MinMax: [6]float64{0, 1, 0, 1, 0, 1}, Hash: "abc"}
	if Stale(valid, true, "abc", true) {
		t.Fatal("matching hash should not be stale")
	}
	if !Stale(valid, true, "different", true) {
		t.Fatal("hash mismatch should be stale")
	}
	if Stale(valid, true, "different", false) {
		t.Fatal("hash check disabled should not force staleness")
	}
}

func TestParseMBSInf(t *testing.T) {
	block := []byte(`MBIO Data Format ID:  88
Number of Data Records:  1234
Minimum Longitude:   -71.500000   Maximum Longitude:   -71.200000
Minimum Latitude:     41.100000   Maximum Latitude:     41.300000
Minimum Depth:            5.250000   Maximum Depth:          88.400000
`)
	i, err := ParseMBSInf(block)
	if err != nil {
		t.Fatal(err)
	}
	if i.NumPts != 1234 {
		t.Fatalf("numpts = %d, want 1234", i.NumPts)
	}
	if i.MinMax[0] != -71.5 || i.MinMax[1] != -71.2 {
		t.Fatalf("lon bounds = %v,%v", i.MinMax[0], i.MinMax[1])
	}
	if i.MinMax[4] != -88.4 || i.MinMax[5] != -5.25 {
		t.Fatalf("depth->z bounds = %v,%v", i.MinMax[4], i.MinMax[5])
	}
}

func TestParseMBSInfRejectsOther(t *testing.T) {
	if _, err := ParseMBSInf([]byte(`{"hash":"x"}`)); err != ErrNotMBSInf {
		t.Fatalf("expected ErrNotMBSInf, got %v", err)
	}
}
