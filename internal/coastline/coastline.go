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

// Package coastline synthesizes a 0/1 land mask for a region by summing
// signed layer contributions and thresholding (spec C11).
package coastline

import (
	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// VectorLayer is one subtractive polygon layer (NHD hydrography,
// HydroLakes, OSM footprints, WSF built-up) applied against the mask.
type VectorLayer struct {
	Path string
	Sign float64 // -1 to subtract (spec's "subtract" layers), +1 to add
}

// UserLayer is the optional user-provided elevation override (spec §4.8's
// "user data: sign of user-provided z").
type UserLayer struct {
	Path string
	Sign float64
}

// Options configures one coastline synthesis run.
type Options struct {
	BackgroundDEM string // elevation raster; sign(z) seeds the mask
	Layers        []VectorLayer
	User          UserLayer
	Invert        bool
	Polygonize    bool
	TopN          int // 0 means no limit
}

// Mask is the synthesized 0/1 land raster plus its grid.
type Mask struct {
	Grid   raster.Grid
	Values []float64 // 1 == land, 0 == water
}

// Build runs the full layer-sum-and-threshold procedure of spec §4.8.
func Build(opts Options) (Mask, error) {
	bg, err := raster.Open(opts.BackgroundDEM)
	if err != nil {
		return Mask{}, err
	}
	defer bg.Close()

	nx, ny := bg.Size()
	z, err := bg.ReadBandF32(1, region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny})
	if err != nil {
		return Mask{}, err
	}

	sum := make([]float64, nx*ny)
	for i, v := range z {
		sum[i] = signOf(float64(v))
	}

	gt := bg.GeoTransform()
	for _, layer := range opts.Layers {
		if err := applyVectorLayer(sum, nx, ny, gt, layer.Path, layer.Sign); err != nil {
			return Mask{}, err
		}
	}
	if opts.User.Path != "" {
		u, err := raster.Open(opts.User.Path)
		if err != nil {
			return Mask{}, err
		}
		ubuf, err := u.ReadBandF32(1, region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny})
		u.Close()
		if err != nil {
			return Mask{}, err
		}
		for i, v := range ubuf {
			sum[i] += opts.User.Sign * signOf(float64(v))
		}
	}

	mask := make([]float64, nx*ny)
	for i, v := range sum {
		land := v > 0
		if opts.Invert {
			land = !land
		}
		if land {
			mask[i] = 1
		}
	}

	return Mask{
		Grid:   raster.Grid{Region: bg.Region(), XInc: gt.DX, YInc: -gt.DY, Node: region.NodeGrid},
		Values: mask,
	}, nil
}

func signOf(v float64) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// WriteTo persists the mask as a single-band float32 raster.
func (m Mask) WriteTo(path string) (*raster.Dataset, error) {
	opts := raster.DefaultCreateOptions()
	opts.NoData = -1
	opts.BandNames = []string{"land"}
	ds, err := raster.Create(path, 1, m.Grid, opts)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "coastline.WriteTo", path, "create: %w", err)
	}
	nx, ny, _ := m.Grid.GeoTransform()
	buf := make([]float32, len(m.Values))
	for i, v := range m.Values {
		buf[i] = float32(v)
	}
	if err := ds.WriteBandF32(1, region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny}, buf); err != nil {
		return nil, err
	}
	return ds, nil
}
