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

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// FilterKind names one link of the filter chain (spec §4.6 step 2).
type FilterKind int

const (
	FilterGaussian FilterKind = iota
	FilterGrdfilterPassthrough
	FilterOutlier
)

// FilterSpec configures one filter-chain link. SplitValue restricts the
// filter to cells with z below it; HasSplitValue false applies to every
// cell.
type FilterSpec struct {
	Kind FilterKind

	// Gaussian
	Sigma float64

	// GrdfilterPassthrough: an externally-gridded replacement raster path,
	// substituted in place of band 1 unchanged (the "passthrough" name in
	// spec §4.6 — CUDEM shells out to GMT grdfilter and reads its output
	// back rather than reimplementing its filter bank).
	GrdfilterPath string

	Outlier OutlierOptions

	HasSplitValue bool
	SplitValue    float64
}

func (p *Pipeline) applyFilter(ds *raster.Dataset, f FilterSpec) (*raster.Dataset, error) {
	switch f.Kind {
	case FilterGaussian:
		return p.gaussianFilter(ds, f)
	case FilterGrdfilterPassthrough:
		return p.grdfilterPassthrough(ds, f)
	case FilterOutlier:
		return p.outlierFilter(ds, f)
	default:
		return nil, errs.New(errs.Config, "postproc.applyFilter", "", fmt.Errorf("unknown filter kind %d", f.Kind))
	}
}

// grdfilterPassthrough reads back an externally-produced raster (GMT
// grdfilter's output) and carries it forward as the new band 1, restricted
// to the split-value mask when set.
func (p *Pipeline) grdfilterPassthrough(ds *raster.Dataset, f FilterSpec) (*raster.Dataset, error) {
	if f.GrdfilterPath == "" {
		return ds, nil
	}
	ext, err := raster.Open(f.GrdfilterPath)
	if err != nil {
		return nil, err
	}
	defer ext.Close()
	nx, ny := ext.Size()
	buf, err := ext.ReadBandF32(1, region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny})
	if err != nil {
		return nil, err
	}
	z, _, _, err := readWhole(ds)
	if err != nil {
		return nil, err
	}
	for i, v := range buf {
		if f.HasSplitValue && z[i] >= f.SplitValue {
			continue
		}
		z[i] = float64(v)
	}
	return writeWhole(p.stagePath("02-grdfilter.tif"), p.gridOf(ds), z, p.opts.NodataValue)
}
