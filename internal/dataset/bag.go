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

package dataset

import (
	"math"

	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// BAGOptions configures the BNC Bathymetric Attributed Grid variant.
type BAGOptions struct {
	// Explode is not read by this variant: sub-grids are not enumerated,
	// and every BAG is read as one grid through its elevation and
	// uncertainty bands.
	Explode bool
	// VariableResolution is not read by this variant: a supergrid BAG is
	// read at the resolution raster.Open reports, like any other BAG,
	// with no change to its uncertainty.
	VariableResolution bool
}

// bagElevBand/bagUncBand are BAG's fixed band layout: band 1 is elevation, band
// 2 is per-node uncertainty (spec §4.2, "uncertainty always read from
// band 2").
const (
	bagElevBand = 1
	bagUncBand  = 2
)

// BAGDataset reads a BAG bathymetric grid, treating band 2 as the
// uncertainty surface unconditionally.
type BAGDataset struct {
	opts Options
}

func NewBAG(o Options) *BAGDataset { return &BAGDataset{opts: o} }

func (d *BAGDataset) Options() Options { return d.opts }

func (d *BAGDataset) Valid() bool {
	ds, err := raster.Open(d.opts.Path)
	if err != nil {
		return false
	}
	defer ds.Close()
	return ds.NumBands() >= 2
}

func (d *BAGDataset) GenerateInf(checkHash bool) (inf.Inf, error) {
	h, err := inf.HashFile(d.opts.Path)
	if err != nil {
		return inf.Inf{}, err
	}
	if cached, ok := inf.Load(d.opts.Path); !inf.Stale(cached, ok, h, checkHash) {
		return cached, nil
	}
	ds, err := raster.Open(d.opts.Path)
	if err != nil {
		return inf.Inf{}, err
	}
	defer ds.Close()
	r := ds.Region()
	nx, ny := ds.Size()
	out := inf.Inf{
		Name:   d.opts.Path,
		Format: int(FormatBAG),
		Hash:   h,
		NumPts: int64(nx) * int64(ny),
		MinMax: [6]float64{r.XMin, r.XMax, r.YMin, r.YMax, math.NaN(), math.NaN()},
		SrcSRS: ds.Projection(),
	}
	inf.Save(d.opts.Path, out)
	return out, nil
}

type bagPointIterator struct {
	ds     *raster.Dataset
	nx, ny int
	gt     region.GeoTransform
	elev   []float32
	unc    []float32
	i      int
}

func (d *BAGDataset) openPoints() (*bagPointIterator, error) {
	ds, err := raster.Open(d.opts.Path)
	if err != nil {
		return nil, err
	}
	nx, ny := ds.Size()
	w := region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny}
	elev, err := ds.ReadBandF32(bagElevBand, w)
	if err != nil {
		ds.Close()
		return nil, err
	}
	unc, err := ds.ReadBandF32(bagUncBand, w)
	if err != nil {
		ds.Close()
		return nil, err
	}
	return &bagPointIterator{ds: ds, nx: nx, ny: ny, gt: ds.GeoTransform(), elev: elev, unc: unc}, nil
}

func (it *bagPointIterator) Next() (point.Point, bool, error) {
	n := it.nx * it.ny
	for it.i < n {
		idx := it.i
		it.i++
		z := float64(it.elev[idx])
		if math.IsNaN(z) {
			continue
		}
		col := idx % it.nx
		row := idx / it.nx
		x, y := it.gt.Geo(float64(col)+0.5, float64(row)+0.5)
		p := point.New(x, y, z)
		p.U = float64(it.unc[idx])
		return p, true, nil
	}
	return point.Point{}, false, nil
}

func (it *bagPointIterator) Close() error { return it.ds.Close() }

func (d *BAGDataset) YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error) {
	it, err := d.openPoints()
	if err != nil {
		return nil, err
	}
	return &filteredPoints{inner: it, region: r, invert: invert, transform: t}, nil
}

// YieldTiles always warps the BAG onto g, then reads elevation and
// uncertainty off their fixed bands into a single tile covering the
// whole of g.
func (d *BAGDataset) YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error) {
	ds, err := raster.Open(d.opts.Path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	srcGT := ds.GeoTransform()
	_, _, dstGT := g.GeoTransform()
	r := raster.AutoResampler(math.Abs(srcGT.DX), math.Abs(dstGT.DX))

	tmp := d.opts.Path + ".cudem-warp.tif"
	warped, err := ds.Warp(tmp, g, r, g.Region.SRS)
	if err != nil {
		return nil, err
	}
	defer warped.Close()

	nx, ny, gt := g.GeoTransform()
	w := region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny}
	elev, err := warped.ReadBandF32(bagElevBand, w)
	if err != nil {
		return nil, err
	}
	unc, err := warped.ReadBandF32(bagUncBand, w)
	if err != nil {
		return nil, err
	}
	z := make([]float64, len(elev))
	count := make([]float64, len(elev))
	weight := make([]float64, len(elev))
	u := make([]float64, len(elev))
	for i, v := range elev {
		if math.IsNaN(float64(v)) {
			continue
		}
		z[i] = float64(v)
		count[i] = 1
		weight[i] = d.opts.EffectiveWeight()
		u[i] = point.CombineUncertainty(float64(unc[i]), d.opts.EffectiveUncertainty())
	}
	tile := Tile{
		Arrays: TileArrays{Z: z, Count: count, Weight: weight, Uncertainty: u},
		Window: w,
		GT:     gt,
	}
	return &singleTileIterator{tile: tile}, nil
}
