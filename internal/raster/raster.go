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

// Package raster adapts github.com/airbusgeo/godal's Dataset/Band API to
// the grid-aligned tile model the rest of the pipeline is built on (spec
// C3). Outside this package, godal is imported directly only by
// internal/srs (spatial references) and cmd/cudem (driver registration).
package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// DefaultNoData is the sentinel written at persistence boundaries when no
// caller-specified value applies (spec §6).
const DefaultNoData = -9999.0

// Resampler names the GDAL-style warp/resample kernel (spec §4.2 Raster
// variant).
type Resampler string

const (
	Nearest      Resampler = "nearest"
	Bilinear     Resampler = "bilinear"
	Cubic        Resampler = "cubic"
	CubicSpline  Resampler = "cubicspline"
	Lanczos      Resampler = "lanczos"
	Average      Resampler = "average"
	Mode         Resampler = "mode"
	Q1           Resampler = "q1"
	Median       Resampler = "med"
	Q3           Resampler = "q3"
	Min          Resampler = "min"
	Max          Resampler = "max"
	Sum          Resampler = "sum"
	AutoResample Resampler = "auto"
)

// AutoResampler resolves the "auto" resampler to Average when downsampling
// (destination cells wider than source cells) and Bilinear when
// upsampling, per spec §4.2 / SPEC_FULL.md.
func AutoResampler(srcInc, dstInc float64) Resampler {
	if dstInc >= srcInc {
		return Average
	}
	return Bilinear
}

// Grid pairs a Region with the increments and node convention used to
// rasterize it, mirroring the (region, x_inc, y_inc, node) tuple threaded
// throughout spec §4.1/§4.4.
type Grid struct {
	Region region.Region
	XInc   float64
	YInc   float64
	Node   region.Node
}

// GeoTransform returns the (nx,ny,gt) triple for this grid.
func (g Grid) GeoTransform() (nx, ny int, gt region.GeoTransform) {
	return region.GeoTransformFor(g.Region, g.XInc, g.YInc, g.Node)
}

// Dataset wraps a *godal.Dataset with the cached geometry the pipeline
// repeatedly needs (GeoTransform, size), avoiding a cgo round-trip per
// access.
type Dataset struct {
	ds   *godal.Dataset
	gt   region.GeoTransform
	nx   int
	ny   int
	path string
}

// Open opens path read-only as a raster-only dataset.
func Open(path string) (*Dataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, errs.Wrap(errs.IO, "raster.Open", path, "open: %w", err)
	}
	return wrap(ds, path)
}

func wrap(ds *godal.Dataset, path string) (*Dataset, error) {
	st := ds.Structure()
	raw, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, errs.Wrap(errs.IO, "raster.wrap", path, "geotransform: %w", err)
	}
	return &Dataset{
		ds:   ds,
		gt:   region.GeoTransform{OX: raw[0], DX: raw[1], OY: raw[3], DY: raw[5]},
		nx:   st.SizeX,
		ny:   st.SizeY,
		path: path,
	}, nil
}

// Close releases the underlying GDAL handle.
func (d *Dataset) Close() error { return d.ds.Close() }

// GeoTransform returns the dataset's pixel-to-geo transform.
func (d *Dataset) GeoTransform() region.GeoTransform { return d.gt }

// Size returns (nx,ny).
func (d *Dataset) Size() (int, int) { return d.nx, d.ny }

// Region recovers the geographic extent of the whole raster.
func (d *Dataset) Region() region.Region { return region.RegionFor(d.gt, d.nx, d.ny) }

// Srcwin clips r to this raster's pixel grid.
func (d *Dataset) Srcwin(r region.Region) region.Srcwin {
	return region.SrcwinFor(r, d.gt, d.nx, d.ny)
}

// Projection returns the dataset's WKT projection string.
func (d *Dataset) Projection() string { return d.ds.Projection() }

// NumBands returns the number of raster bands.
func (d *Dataset) NumBands() int { return len(d.ds.Bands()) }

// ReadBandF32 reads band (1-indexed) over w into a row-major float32
// buffer sized w.XSize*w.YSize.
func (d *Dataset) ReadBandF32(band int, w region.Srcwin) ([]float32, error) {
	bands := d.ds.Bands()
	if band < 1 || band > len(bands) {
		return nil, errs.New(errs.IO, "raster.ReadBandF32", d.path, fmt.Errorf("band %d out of range [1,%d]", band, len(bands)))
	}
	buf := make([]float32, w.XSize*w.YSize)
	b := bands[band-1]
	if err := b.Read(w.XOff, w.YOff, buf, w.XSize, w.YSize); err != nil {
		return nil, errs.Wrap(errs.IO, "raster.ReadBandF32", d.path, "band read: %w", err)
	}
	return buf, nil
}

// CreateOptions configures Create.
type CreateOptions struct {
	Driver      string // e.g. "GTiff"
	NoData      float64
	Compression string // e.g. "LZW"
	Tiled       bool
	BandNames   []string
}

// DefaultCreateOptions matches spec §6's default output convention
// (GTiff, LZW, tiled).
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{Driver: "GTiff", NoData: DefaultNoData, Compression: "LZW", Tiled: true}
}

// Create makes a new nBands-band float32 raster covering grid g.
func Create(path string, nBands int, g Grid, opts CreateOptions) (*Dataset, error) {
	nx, ny, gt := g.GeoTransform()
	createOpts := []string{}
	if opts.Compression != "" {
		createOpts = append(createOpts, "COMPRESS="+opts.Compression)
	}
	if opts.Tiled {
		createOpts = append(createOpts, "TILED=YES")
	}
	driver := opts.Driver
	if driver == "" {
		driver = "GTiff"
	}
	ds, err := godal.Create(godal.DriverName(driver), path, nBands, godal.Float32, nx, ny, godal.CreationOption(createOpts...))
	if err != nil {
		return nil, errs.Wrap(errs.IO, "raster.Create", path, "create: %w", err)
	}
	if err := ds.SetGeoTransform([6]float64{gt.OX, gt.DX, 0, gt.OY, 0, gt.DY}); err != nil {
		ds.Close()
		return nil, errs.Wrap(errs.IO, "raster.Create", path, "set geotransform: %w", err)
	}
	for i, b := range ds.Bands() {
		if err := b.SetNoData(opts.NoData); err != nil {
			ds.Close()
			return nil, errs.Wrap(errs.IO, "raster.Create", path, "set nodata: %w", err)
		}
		if i < len(opts.BandNames) {
			if err := b.SetDescription(opts.BandNames[i]); err != nil {
				ds.Close()
				return nil, errs.Wrap(errs.IO, "raster.Create", path, "set band description: %w", err)
			}
		}
	}
	return wrap(ds, path)
}

// WriteBandF32 writes buf (row-major, w.XSize*w.YSize) into band
// (1-indexed) at window w.
func (d *Dataset) WriteBandF32(band int, w region.Srcwin, buf []float32) error {
	bands := d.ds.Bands()
	if band < 1 || band > len(bands) {
		return errs.New(errs.IO, "raster.WriteBandF32", d.path, fmt.Errorf("band %d out of range [1,%d]", band, len(bands)))
	}
	if len(buf) != w.XSize*w.YSize {
		return errs.New(errs.IO, "raster.WriteBandF32", d.path, fmt.Errorf("buffer length %d != window area %d", len(buf), w.XSize*w.YSize))
	}
	b := bands[band-1]
	if err := b.Write(w.XOff, w.YOff, buf, w.XSize, w.YSize); err != nil {
		return errs.Wrap(errs.IO, "raster.WriteBandF32", d.path, "band write: %w", err)
	}
	return nil
}

// SetBandDescription names a band, used for the per-source mask raster
// of spec §6.
func (d *Dataset) SetBandDescription(band int, name string) error {
	bands := d.ds.Bands()
	if band < 1 || band > len(bands) {
		return fmt.Errorf("band %d out of range [1,%d]", band, len(bands))
	}
	return bands[band-1].SetDescription(name)
}

// SetMetadata sets a dataset-level metadata item (AREA_OR_POINT,
// TIFFTAG_DATETIME, etc per spec §6).
func (d *Dataset) SetMetadata(key, value string) error {
	return d.ds.SetMetadataItem(key, value, "")
}

// BuildOverviews computes raster overviews, mirroring the teacher's
// cogify-main.go post-translate step.
func (d *Dataset) BuildOverviews() error { return d.ds.BuildOverviews() }

// Warp reprojects/resamples the dataset to dstPath at the given grid
// using resampler r.
func (d *Dataset) Warp(dstPath string, g Grid, r Resampler, dstSRS string) (*Dataset, error) {
	nx, ny, gt := g.GeoTransform()
	switches := []string{
		"-r", string(r),
		"-ts", fmt.Sprintf("%d", nx), fmt.Sprintf("%d", ny),
		"-te", fmt.Sprintf("%v", g.Region.XMin), fmt.Sprintf("%v", g.Region.YMin),
		fmt.Sprintf("%v", g.Region.XMax), fmt.Sprintf("%v", g.Region.YMax),
	}
	if dstSRS != "" {
		switches = append(switches, "-t_srs", dstSRS)
	}
	out, err := d.ds.Warp(dstPath, switches)
	if err != nil {
		return nil, errs.Wrap(errs.Transform, "raster.Warp", d.path, "warp: %w", err)
	}
	_ = gt
	return wrap(out, dstPath)
}

// Translate format-converts the dataset, the final step of spec §4.6.
func (d *Dataset) Translate(dstPath string, driver string, switches []string) (*Dataset, error) {
	args := append([]string{"-of", driver}, switches...)
	out, err := d.ds.Translate(dstPath, args)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "raster.Translate", d.path, "translate: %w", err)
	}
	return wrap(out, dstPath)
}
