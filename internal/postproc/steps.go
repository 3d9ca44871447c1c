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
	"fmt"
	"path/filepath"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

func (p *Pipeline) gridOf(ds *raster.Dataset) raster.Grid {
	gt := ds.GeoTransform()
	return raster.Grid{Region: ds.Region(), XInc: gt.DX, YInc: -gt.DY, Node: region.NodeGrid}
}

func (p *Pipeline) stagePath(name string) string {
	return filepath.Join(p.workDir, name)
}

// normalizeNodata rewrites every cell equal to SourceNodata (or NaN) to the
// configured target sentinel, step 1 of spec §4.6.
func (p *Pipeline) normalizeNodata(ds *raster.Dataset) (*raster.Dataset, error) {
	z, nx, ny, err := readWhole(ds)
	if err != nil {
		return nil, err
	}
	target := p.opts.NodataValue
	src := p.opts.SourceNodata
	for i, v := range z {
		if v == src || v != v {
			z[i] = target
		}
	}
	g := p.gridOf(ds)
	_ = nx
	_ = ny
	return writeWhole(p.stagePath("01-nodata.tif"), g, z, target)
}

// resample warps ds onto a grid with the configured sample increments.
func (p *Pipeline) resample(ds *raster.Dataset) (*raster.Dataset, error) {
	g := p.gridOf(ds)
	g.XInc, g.YInc = p.opts.SampleXInc, p.opts.SampleYInc
	r := p.opts.Resampler
	if r == "" || r == raster.AutoResample {
		srcGT := ds.GeoTransform()
		r = raster.AutoResampler(abs(srcGT.DX), p.opts.SampleXInc)
	}
	return ds.Warp(p.stagePath("03-resample.tif"), g, r, g.Region.SRS)
}

// cutToRegion crops ds to the configured final region via an identity warp.
func (p *Pipeline) cutToRegion(ds *raster.Dataset) (*raster.Dataset, error) {
	gt := ds.GeoTransform()
	g := raster.Grid{Region: p.opts.CutRegion, XInc: abs(gt.DX), YInc: abs(gt.DY), Node: region.NodeGrid}
	return ds.Warp(p.stagePath("05-cut.tif"), g, raster.Nearest, "")
}

// clamp bounds every known cell to [LowerLimit, UpperLimit].
func (p *Pipeline) clamp(ds *raster.Dataset) (*raster.Dataset, error) {
	z, _, _, err := readWhole(ds)
	if err != nil {
		return nil, err
	}
	nodata := p.opts.NodataValue
	for i, v := range z {
		if v == nodata {
			continue
		}
		if p.opts.HasLowerLimit && v < p.opts.LowerLimit {
			z[i] = p.opts.LowerLimit
		}
		if p.opts.HasUpperLimit && v > p.opts.UpperLimit {
			z[i] = p.opts.UpperLimit
		}
	}
	return writeWhole(p.stagePath("06-clamp.tif"), p.gridOf(ds), z, nodata)
}

// tagMetadata applies the SRS/metadata step in place (step 7).
func (p *Pipeline) tagMetadata(ds *raster.Dataset) error {
	if p.opts.SRS != "" {
		if err := ds.SetMetadata("SRS", p.opts.SRS); err != nil {
			return errs.Wrap(errs.IO, "postproc.tagMetadata", "", "set srs: %w", err)
		}
	}
	for k, v := range p.opts.Metadata {
		if err := ds.SetMetadata(k, v); err != nil {
			return errs.Wrap(errs.IO, "postproc.tagMetadata", "", "set %s: %w", k, err)
		}
	}
	if p.opts.CopyrightNotice != "" {
		if err := ds.SetMetadata("TIFFTAG_COPYRIGHT", p.opts.CopyrightNotice); err != nil {
			return err
		}
	}
	if p.opts.VerticalDatumNote != "" {
		if err := ds.SetMetadata("TIFFTAG_IMAGEDESCRIPTION", p.opts.VerticalDatumNote); err != nil {
			return err
		}
	}
	return nil
}

// convertFormat is the final GDAL Translate step to any supported driver.
func (p *Pipeline) convertFormat(ds *raster.Dataset) (*raster.Dataset, error) {
	ext := driverExt(p.opts.OutputDriver)
	return ds.Translate(p.stagePath(fmt.Sprintf("08-output%s", ext)), p.opts.OutputDriver, p.opts.OutputSwitches)
}

func driverExt(driver string) string {
	switch driver {
	case "GTiff":
		return ".tif"
	case "PNG":
		return ".png"
	case "netCDF":
		return ".nc"
	default:
		return ".out"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
