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

package raster

import (
	"testing"

	"github.com/jph6366/cudem-sub000/internal/region"
)

func TestAutoResampler(t *testing.T) {
	if r := AutoResampler(1, 2); r != Average {
		t.Fatalf("downsampling (coarser dst) = %s, want average", r)
	}
	if r := AutoResampler(2, 1); r != Bilinear {
		t.Fatalf("upsampling (finer dst) = %s, want bilinear", r)
	}
}

func TestGridGeoTransform(t *testing.T) {
	g := Grid{Region: region.New2D(0, 10, 0, 10), XInc: 1, YInc: 1, Node: region.NodeGrid}
	nx, ny, gt := g.GeoTransform()
	if nx != 10 || ny != 10 {
		t.Fatalf("nx/ny = %d/%d, want 10/10", nx, ny)
	}
	if gt.DY >= 0 {
		t.Fatalf("dy = %v, want negative", gt.DY)
	}
}

func TestDefaultCreateOptions(t *testing.T) {
	opts := DefaultCreateOptions()
	if opts.Driver != "GTiff" || opts.NoData != DefaultNoData || !opts.Tiled {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}
