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

	"github.com/sirupsen/logrus"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// Entry is one parsed datalist line (spec §6):
//
//	path format weight uncertainty [name title source date data_type resolution hdatum vdatum url]
//
// with an optional trailing "format:key=val:key=val" option suffix.
type Entry struct {
	Path        string
	Format      Format
	Weight      float64
	Uncertainty float64
	Meta        Metadata
	ModOpts     map[string]string
}

// ParseEntry tokenizes one datalist line, honoring "..."-quoted fields and
// the per-format ":key=val:..." option suffix carried from
// `cudem/dlim.py`.
func ParseEntry(line string) (Entry, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false, nil
	}
	fields := tokenize(line)
	if len(fields) < 1 {
		return Entry{}, false, errs.New(errs.Parse, "dataset.ParseEntry", "", strErr("empty datalist line"))
	}
	e := Entry{Weight: 1, Uncertainty: 0}
	e.Path = fields[0]
	if len(fields) < 2 {
		return Entry{}, false, errs.New(errs.Parse, "dataset.ParseEntry", e.Path, strErr("missing format field"))
	}
	fmtTok := fields[1]
	fmtParts := strings.Split(fmtTok, ":")
	fcode, err := strconv.Atoi(fmtParts[0])
	if err != nil {
		return Entry{}, false, errs.Wrap(errs.Config, "dataset.ParseEntry", e.Path, "parse format id %q: %w", fmtTok, err)
	}
	e.Format = Format(fcode)
	if len(fmtParts) > 1 {
		e.ModOpts = make(map[string]string)
		for _, kv := range fmtParts[1:] {
			kvParts := strings.SplitN(kv, "=", 2)
			if len(kvParts) == 2 {
				e.ModOpts[kvParts[0]] = kvParts[1]
			}
		}
	}
	if len(fields) > 2 {
		if w, err := strconv.ParseFloat(fields[2], 64); err == nil {
			e.Weight = w
		}
	}
	if len(fields) > 3 {
		if u, err := strconv.ParseFloat(fields[3], 64); err == nil {
			e.Uncertainty = u
		}
	}
	metaFields := []*string{&e.Meta.Name, &e.Meta.Title, &e.Meta.Source, &e.Meta.Date,
		&e.Meta.DataType, &e.Meta.Resolution, &e.Meta.HDatum, &e.Meta.VDatum, &e.Meta.URL}
	for i, mf := range metaFields {
		idx := 4 + i
		if idx < len(fields) {
			*mf = fields[idx]
		}
	}
	return e, true, nil
}

type strErr string

func (s strErr) Error() string { return string(s) }

// tokenize splits a line on whitespace, respecting "..." quoting.
func tokenize(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' || r == '\t':
			if inQuote {
				cur.WriteRune(r)
			} else if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// DatalistDataset is the recursive container variant (format -1).
type DatalistDataset struct {
	opts    Options
	open    func(Entry, Inheritance) (Dataset, error)
	entries []Entry
}

// NewDatalist constructs a Datalist over opts.Path, using open to build a
// Dataset for each child entry (the factory closes the dependency on
// Factory without creating an import cycle).
func NewDatalist(o Options, open func(Entry, Inheritance) (Dataset, error)) (*DatalistDataset, error) {
	entries, err := readEntries(o.Path)
	if err != nil {
		return nil, err
	}
	return &DatalistDataset{opts: o, open: open, entries: entries}, nil
}

func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "datalist.readEntries", path, "open: %w", err)
	}
	defer f.Close()
	var out []Entry
	malformed := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		e, ok, err := ParseEntry(sc.Text())
		if err != nil {
			malformed++
			continue // malformed line counted-and-skipped per spec §7
		}
		if ok {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.Parse, "datalist.readEntries", path, "scan: %w", err)
	}
	if malformed > 0 {
		logrus.WithFields(logrus.Fields{"path": path, "skipped": malformed}).
			Warn("datalist: malformed lines skipped")
	}
	return out, nil
}

func (d *DatalistDataset) Options() Options { return d.opts }

func (d *DatalistDataset) Valid() bool {
	st, err := os.Stat(d.opts.Path)
	return err == nil && st.Size() > 0
}

// children builds a Dataset for each entry with its composed Inheritance,
// per spec §4.2's weight-multiplies/uncertainty-in-quadrature rule and the
// §9 redesign note ("Inheritance context carried down, never mutated").
func (d *DatalistDataset) children() ([]Dataset, error) {
	parent := d.opts.Parent.Compose(d.opts.Weight, d.opts.Uncertainty, d.opts.Meta)
	out := make([]Dataset, 0, len(d.entries))
	for _, e := range d.entries {
		ds, err := d.open(e, parent)
		if err != nil {
			logrus.WithFields(logrus.Fields{"path": e.Path, "error": err.Error()}).
				Warn("datalist: entry skipped")
			continue // "dataset whose header cannot be parsed is skipped with a warning" (spec §7)
		}
		out = append(out, ds)
	}
	return out, nil
}

func (d *DatalistDataset) GenerateInf(checkHash bool) (inf.Inf, error) {
	kids, err := d.children()
	if err != nil {
		return inf.Inf{}, err
	}
	out := inf.Inf{Name: d.opts.Path, Format: int(FormatDatalist)}
	for _, k := range kids {
		ki, err := k.GenerateInf(checkHash)
		if err != nil {
			continue
		}
		out = inf.Union(out, ki)
	}
	return out, nil
}

// datalistPoints chains each child's point iterator, depth-first, per
// spec §5 ("datalist is traversed depth-first, parent before children").
type datalistPoints struct {
	kids []Dataset
	i    int
	cur  PointIterator
	r    region.Region
	inv  bool
	t    point.Transform
}

func (it *datalistPoints) Next() (point.Point, bool, error) {
	for {
		if it.cur == nil {
			if it.i >= len(it.kids) {
				return point.Point{}, false, nil
			}
			var err error
			it.cur, err = it.kids[it.i].YieldPoints(it.r, it.inv, it.t)
			it.i++
			if err != nil {
				it.cur = nil
				continue
			}
		}
		p, ok, err := it.cur.Next()
		if err != nil {
			return point.Point{}, false, err
		}
		if !ok {
			it.cur.Close()
			it.cur = nil
			continue
		}
		return p, true, nil
	}
}

func (it *datalistPoints) Close() error {
	if it.cur != nil {
		return it.cur.Close()
	}
	return nil
}

func (d *DatalistDataset) YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error) {
	kids, err := d.children()
	if err != nil {
		return nil, err
	}
	return &datalistPoints{kids: kids, r: r, inv: invert, t: t}, nil
}

// datalistTiles chains child tile iterators the same way datalistPoints
// chains point iterators.
type datalistTiles struct {
	kids []Dataset
	i    int
	cur  TileIterator
	g    raster.Grid
	t    point.Transform
}

func (it *datalistTiles) Next() (Tile, bool, error) {
	for {
		if it.cur == nil {
			if it.i >= len(it.kids) {
				return Tile{}, false, nil
			}
			var err error
			it.cur, err = it.kids[it.i].YieldTiles(it.g, it.t)
			it.i++
			if err != nil {
				it.cur = nil
				continue
			}
		}
		tile, ok, err := it.cur.Next()
		if err != nil {
			return Tile{}, false, err
		}
		if !ok {
			it.cur.Close()
			it.cur = nil
			continue
		}
		return tile, true, nil
	}
}

func (it *datalistTiles) Close() error {
	if it.cur != nil {
		return it.cur.Close()
	}
	return nil
}

func (d *DatalistDataset) YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error) {
	kids, err := d.children()
	if err != nil {
		return nil, err
	}
	return &datalistTiles{kids: kids, g: g, t: t}, nil
}
