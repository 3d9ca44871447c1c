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
	"os"
	"strconv"
	"strings"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// MBSOptions configures the MB-System swath/multibeam variant.
type MBSOptions struct {
	// MBFormat is the MB-System numeric format id (e.g. 88 for simple
	// text fbt, not to be confused with the datalist Format). The reader
	// below does not read it: every file goes through the generic
	// whitespace-delimited reader, whatever its value.
	MBFormat int
}

// MBSDataset reads a processed MB-System swath file. Full MB-System I/O
// lives outside this module's reach (it is the teacher's ExternalGridder
// pattern — shelling out to mbsystem binaries), so this variant covers
// the common case actually exercised by the pipeline: MB-System's
// whitespace-delimited ASCII xyz export, the same record layout as the
// plain XYZ variant, paired with its own .inf sidecar parser.
type MBSDataset struct {
	opts Options
}

func NewMBSystem(o Options) *MBSDataset { return &MBSDataset{opts: o} }

func (d *MBSDataset) Options() Options { return d.opts }

func (d *MBSDataset) Valid() bool {
	st, err := os.Stat(d.opts.Path)
	return err == nil && !st.IsDir()
}

// GenerateInf prefers the source's native MB-System .inf sidecar (written
// by mbdatalist) over a full rescan, falling back to a scan-and-cache
// path identical to XYZ's when no .inf exists.
func (d *MBSDataset) GenerateInf(checkHash bool) (inf.Inf, error) {
	if data, err := os.ReadFile(inf.SidecarPath(d.opts.Path)); err == nil {
		if parsed, perr := inf.ParseMBSInf(data); perr == nil {
			parsed.Name = d.opts.Path
			parsed.Format = int(FormatMBSystem)
			return parsed, nil
		}
	}
	h, err := inf.HashFile(d.opts.Path)
	if err != nil {
		return inf.Inf{}, err
	}
	if cached, ok := inf.Load(d.opts.Path); !inf.Stale(cached, ok, h, checkHash) {
		return cached, nil
	}
	it, err := d.openRaw()
	if err != nil {
		return inf.Inf{}, err
	}
	defer it.Close()
	out := inf.Inf{Name: d.opts.Path, Format: int(FormatMBSystem), Hash: h}
	out.MinMax = [6]float64{1e308, -1e308, 1e308, -1e308, 1e308, -1e308}
	for {
		p, ok, err := it.Next()
		if err != nil {
			return inf.Inf{}, err
		}
		if !ok {
			break
		}
		out.NumPts++
		if p.X < out.MinMax[0] {
			out.MinMax[0] = p.X
		}
		if p.X > out.MinMax[1] {
			out.MinMax[1] = p.X
		}
		if p.Y < out.MinMax[2] {
			out.MinMax[2] = p.Y
		}
		if p.Y > out.MinMax[3] {
			out.MinMax[3] = p.Y
		}
		if p.Z < out.MinMax[4] {
			out.MinMax[4] = p.Z
		}
		if p.Z > out.MinMax[5] {
			out.MinMax[5] = p.Z
		}
	}
	inf.Save(d.opts.Path, out)
	return out, nil
}

type mbsIterator struct {
	f  *os.File
	sc *bufio.Scanner
}

func (d *MBSDataset) openRaw() (*mbsIterator, error) {
	f, err := os.Open(d.opts.Path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "mbs.open", d.opts.Path, "open: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &mbsIterator{f: f, sc: sc}, nil
}

func (it *mbsIterator) Next() (point.Point, bool, error) {
	for it.sc.Scan() {
		line := strings.TrimSpace(it.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		z, errZ := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil || errZ != nil {
			continue
		}
		return point.New(x, y, z), true, nil
	}
	if err := it.sc.Err(); err != nil {
		return point.Point{}, false, err
	}
	return point.Point{}, false, nil
}

func (it *mbsIterator) Close() error { return it.f.Close() }

func (d *MBSDataset) YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error) {
	it, err := d.openRaw()
	if err != nil {
		return nil, err
	}
	return &filteredPoints{inner: it, region: r, invert: invert, transform: t}, nil
}

func (d *MBSDataset) YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error) {
	pts, err := d.YieldPoints(g.Region, false, t)
	if err != nil {
		return nil, err
	}
	return blockPoints(pts, g, nil, g.Region, false)
}
