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

// Package postproc runs the ordered, independently-skippable DEM cleanup
// pipeline (spec C9): nodata normalization, a filter chain, resample,
// clip, cut, clamp, metadata tagging and format conversion.
package postproc

import (
	"github.com/sirupsen/logrus"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// Clip describes a polygon clip step.
type Clip struct {
	Path   string // OGR vector path (shapefile); empty skips the step
	Invert bool
}

// Options configures the pipeline. Every field's zero value skips that
// step, matching spec §4.6's "each step idempotent and skippable".
type Options struct {
	NodataValue float64 // target sentinel; 0 with no filters set still runs the normalization pass if SourceNodata is set
	SourceNodata float64
	HasSourceNodata bool

	Filters []FilterSpec

	SampleXInc, SampleYInc float64 // 0 skips the resample step
	Resampler              raster.Resampler

	Clip Clip

	CutRegion region.Region // zero-value (Valid()==false) skips

	LowerLimit, UpperLimit float64
	HasLowerLimit, HasUpperLimit bool

	SRS                string // empty skips SetMetadata/SRS step
	Metadata           map[string]string
	CopyrightNotice    string
	VerticalDatumNote  string

	OutputDriver  string // empty skips the final format-convert step
	OutputSwitches []string

	Log logrus.FieldLogger
}

func (o Options) log() logrus.FieldLogger {
	if o.Log != nil {
		return o.Log
	}
	return logrus.StandardLogger()
}

// Pipeline runs Options' steps over a source raster in declaration order,
// each operating on band 1 (elevation) of a working copy.
type Pipeline struct {
	opts    Options
	workDir string
}

// New builds a Pipeline that stages intermediate rasters under workDir.
func New(opts Options, workDir string) *Pipeline {
	if workDir == "" {
		workDir = "."
	}
	return &Pipeline{opts: opts, workDir: workDir}
}

// Run executes every configured step over src and returns the final
// product, writing intermediates to workDir as it goes. Skipped steps
// pass the dataset through unchanged (band-for-band, no-op).
func (p *Pipeline) Run(src *raster.Dataset) (*raster.Dataset, error) {
	cur := src
	log := p.opts.log()

	if p.opts.HasSourceNodata {
		next, err := p.normalizeNodata(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	for _, f := range p.opts.Filters {
		next, err := p.applyFilter(cur, f)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if p.opts.SampleXInc > 0 && p.opts.SampleYInc > 0 {
		next, err := p.resample(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if p.opts.Clip.Path != "" {
		next, err := p.clipToPolygon(cur, p.opts.Clip)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if p.opts.CutRegion.Valid() {
		next, err := p.cutToRegion(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if p.opts.HasLowerLimit || p.opts.HasUpperLimit {
		next, err := p.clamp(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if p.opts.SRS != "" || len(p.opts.Metadata) > 0 || p.opts.CopyrightNotice != "" {
		if err := p.tagMetadata(cur); err != nil {
			return nil, err
		}
	}

	if p.opts.OutputDriver != "" {
		next, err := p.convertFormat(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	log.WithFields(logrus.Fields{"steps": p.stepCount()}).Debug("postproc: pipeline complete")
	return cur, nil
}

func (p *Pipeline) stepCount() int {
	n := 0
	if p.opts.HasSourceNodata {
		n++
	}
	n += len(p.opts.Filters)
	if p.opts.SampleXInc > 0 {
		n++
	}
	if p.opts.Clip.Path != "" {
		n++
	}
	if p.opts.CutRegion.Valid() {
		n++
	}
	if p.opts.HasLowerLimit || p.opts.HasUpperLimit {
		n++
	}
	if p.opts.OutputDriver != "" {
		n++
	}
	return n
}

func readWhole(ds *raster.Dataset) ([]float64, int, int, error) {
	nx, ny := ds.Size()
	buf, err := ds.ReadBandF32(1, region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny})
	if err != nil {
		return nil, 0, 0, errs.Wrap(errs.IO, "postproc.readWhole", "", "read band 1: %w", err)
	}
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nx, ny, nil
}

func writeWhole(path string, g raster.Grid, z []float64, nodata float64) (*raster.Dataset, error) {
	opts := raster.DefaultCreateOptions()
	opts.NoData = nodata
	opts.BandNames = []string{"z"}
	out, err := raster.Create(path, 1, g, opts)
	if err != nil {
		return nil, err
	}
	buf := make([]float32, len(z))
	for i, v := range z {
		buf[i] = float32(v)
	}
	nx, ny, _ := g.GeoTransform()
	if err := out.WriteBandF32(1, region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny}, buf); err != nil {
		return nil, err
	}
	return out, nil
}
