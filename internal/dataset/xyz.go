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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// delimCandidates is tried in order; the first one that splits a header
// line into >=2 fields wins, per spec §4.2's {whitespace, ',', '/', ':'}.
var delimCandidates = []string{" ", "\t", ",", "/", ":"}

// XYZOptions configures the ASCII XYZ variant (spec §4.2).
type XYZOptions struct {
	SkipLines int
	XCol      int // 0-indexed column positions, defaults 0,1,2
	YCol      int
	ZCol      int
	WCol      int // -1 means "no weight column"; per-point weight defaults to 1
	UCol      int // -1 means "no uncertainty column"
	XScale    float64
	XOffset   float64
	YScale    float64
	YOffset   float64
	ZScale    float64
	ZOffset   float64
	LonWrap   bool // normalize longitude into [-180,180)
	Delim     string
}

// DefaultXYZOptions returns the conventional 3-column x,y,z layout with
// unit scales.
func DefaultXYZOptions() XYZOptions {
	return XYZOptions{XCol: 0, YCol: 1, ZCol: 2, WCol: -1, UCol: -1, XScale: 1, YScale: 1, ZScale: 1}
}

// XYZDataset streams point records from a delimited ASCII file.
type XYZDataset struct {
	opts Options
}

// NewXYZ constructs an XYZ dataset from Options (Options.XYZ holds the
// variant-specific column layout).
func NewXYZ(o Options) *XYZDataset { return &XYZDataset{opts: o} }

func (d *XYZDataset) Options() Options { return d.opts }

func (d *XYZDataset) Valid() bool {
	st, err := os.Stat(d.opts.Path)
	return err == nil && st.Size() > 0
}

func detectDelim(line string, candidates []string) string {
	for _, c := range candidates {
		if len(strings.Split(line, c)) >= 2 {
			return c
		}
	}
	return " "
}

func splitFields(line, delim string) []string {
	if delim == " " || delim == "\t" {
		return strings.Fields(line)
	}
	parts := strings.Split(line, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func wrapLon(x float64) float64 {
	for x >= 180 {
		x -= 360
	}
	for x < -180 {
		x += 360
	}
	return x
}

type xyzIterator struct {
	f       *os.File
	sc      *bufio.Scanner
	opts    Options
	delim   string
	started bool
}

func (d *XYZDataset) YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error) {
	f, err := os.Open(d.opts.Path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "xyz.YieldPoints", d.opts.Path, "open: %w", err)
	}
	it := &xyzIterator{f: f, sc: bufio.NewScanner(f), opts: d.opts}
	it.sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for i := 0; i < d.opts.XYZ.SkipLines; i++ {
		if !it.sc.Scan() {
			break
		}
	}
	return &filteredPoints{inner: it, region: r, invert: invert, transform: t}, nil
}

func (it *xyzIterator) Next() (point.Point, bool, error) {
	xo := it.opts.XYZ
	for it.sc.Scan() {
		line := strings.TrimSpace(it.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !it.started {
			if xo.Delim != "" {
				it.delim = xo.Delim
			} else {
				it.delim = detectDelim(line, delimCandidates)
			}
			it.started = true
		}
		fields := splitFields(line, it.delim)
		need := maxInt(xo.XCol, xo.YCol, xo.ZCol) + 1
		if len(fields) < need {
			continue // malformed record: counted-and-skipped per spec §7
		}
		x, errx := strconv.ParseFloat(fields[xo.XCol], 64)
		y, erry := strconv.ParseFloat(fields[xo.YCol], 64)
		z, errz := strconv.ParseFloat(fields[xo.ZCol], 64)
		if errx != nil || erry != nil || errz != nil {
			continue
		}
		x = x*nz(xo.XScale, 1) + xo.XOffset
		y = y*nz(xo.YScale, 1) + xo.YOffset
		z = z*nz(xo.ZScale, 1) + xo.ZOffset
		if xo.LonWrap {
			x = wrapLon(x)
		}
		w := 1.0
		if xo.WCol >= 0 && xo.WCol < len(fields) {
			if v, err := strconv.ParseFloat(fields[xo.WCol], 64); err == nil {
				w = v
			}
		}
		u := 0.0
		if xo.UCol >= 0 && xo.UCol < len(fields) {
			if v, err := strconv.ParseFloat(fields[xo.UCol], 64); err == nil {
				u = v
			}
		}
		p := point.Point{X: x, Y: y, Z: z, W: w, U: u}
		if !p.Valid() {
			continue
		}
		return p, true, nil
	}
	if err := it.sc.Err(); err != nil && err != io.EOF {
		return point.Point{}, false, errs.Wrap(errs.Parse, "xyz.Next", it.opts.Path, "scan: %w", err)
	}
	return point.Point{}, false, nil
}

func (it *xyzIterator) Close() error { return it.f.Close() }

func nz(v, d float64) float64 {
	if v == 0 {
		return d
	}
	return v
}

func maxInt(vs ...int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func (d *XYZDataset) GenerateInf(checkHash bool) (inf.Inf, error) {
	h, err := inf.HashFile(d.opts.Path)
	if err != nil {
		return inf.Inf{}, err
	}
	if cached, ok := inf.Load(d.opts.Path); !inf.Stale(cached, ok, h, checkHash) {
		return cached, nil
	}
	it, err := d.YieldPoints(region.New2D(-1e18, 1e18, -1e18, 1e18), false, nil)
	if err != nil {
		return inf.Inf{}, err
	}
	defer it.Close()
	out := inf.Inf{Name: d.opts.Path, Format: int(FormatXYZ), Hash: h}
	out.MinMax = [6]float64{1e18, -1e18, 1e18, -1e18, 1e18, -1e18}
	for {
		p, ok, err := it.Next()
		if err != nil {
			return inf.Inf{}, err
		}
		if !ok {
			break
		}
		out.NumPts++
		out.MinMax[0] = math.Min(out.MinMax[0], p.X)
		out.MinMax[1] = math.Max(out.MinMax[1], p.X)
		out.MinMax[2] = math.Min(out.MinMax[2], p.Y)
		out.MinMax[3] = math.Max(out.MinMax[3], p.Y)
		out.MinMax[4] = math.Min(out.MinMax[4], p.Z)
		out.MinMax[5] = math.Max(out.MinMax[5], p.Z)
	}
	inf.Save(d.opts.Path, out)
	return out, nil
}

func (d *XYZDataset) YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error) {
	pts, err := d.YieldPoints(g.Region, false, t)
	if err != nil {
		return nil, err
	}
	return blockPoints(pts, g, nil, g.Region, false)
}

// filteredPoints wraps a raw PointIterator, applying a transform and a
// region (or inverse-region) filter, per spec §4.2: "Points must be
// filtered to region AFTER applying transform."
type filteredPoints struct {
	inner     PointIterator
	region    region.Region
	invert    bool
	transform point.Transform
}

func (f *filteredPoints) Next() (point.Point, bool, error) {
	for {
		p, ok, err := f.inner.Next()
		if err != nil || !ok {
			return p, ok, err
		}
		if err := p.Apply(f.transform); err != nil {
			continue
		}
		if !p.InRegion(f.region, f.invert) {
			continue
		}
		return p, true, nil
	}
}

func (f *filteredPoints) Close() error { return f.inner.Close() }

var _ fmt.Stringer = (*XYZDataset)(nil)

func (d *XYZDataset) String() string { return fmt.Sprintf("xyz:%s", d.opts.Path) }
