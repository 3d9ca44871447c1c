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
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// ZipOptions configures the zip-container variant.
type ZipOptions struct {
	// MemberFormat is the Format each extracted member should be opened
	// as; zero lets ZipMemberFormatFor guess it from the extension.
	MemberFormat Format
}

// ZipDataset extracts a zip archive into a per-open scratch directory and
// treats its members as a flat collection of child datasets, the
// container analog of Datalist (format -2, spec §6).
type ZipDataset struct {
	opts Options
	open func(Entry, Inheritance) (Dataset, error)
}

// NewZip constructs a Zip variant. open closes the Factory dependency the
// same way Datalist's does.
func NewZip(o Options, open func(Entry, Inheritance) (Dataset, error)) *ZipDataset {
	return &ZipDataset{opts: o, open: open}
}

func (d *ZipDataset) Options() Options { return d.opts }

func (d *ZipDataset) Valid() bool {
	r, err := zip.OpenReader(d.opts.Path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

// extract unpacks every regular-file member into a fresh scratch
// directory under os.TempDir, named with a random uuid to keep concurrent
// opens of the same archive from colliding.
func (d *ZipDataset) extract() (string, []string, error) {
	r, err := zip.OpenReader(d.opts.Path)
	if err != nil {
		return "", nil, errs.Wrap(errs.IO, "zip.extract", d.opts.Path, "open: %w", err)
	}
	defer r.Close()

	scratch := filepath.Join(os.TempDir(), "cudem-zip-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", nil, errs.Wrap(errs.IO, "zip.extract", d.opts.Path, "mkdir scratch: %w", err)
	}
	var members []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		dst := filepath.Join(scratch, filepath.Base(f.Name))
		if err := extractOne(f, dst); err != nil {
			return "", nil, errs.Wrap(errs.IO, "zip.extract", d.opts.Path, "extract %s: %w", f.Name, err)
		}
		members = append(members, dst)
	}
	return scratch, members, nil
}

func extractOne(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, rc)
	return err
}

func (d *ZipDataset) children() ([]Dataset, error) {
	_, members, err := d.extract()
	if err != nil {
		return nil, err
	}
	parent := d.opts.Parent.Compose(d.opts.Weight, d.opts.Uncertainty, d.opts.Meta)
	out := make([]Dataset, 0, len(members))
	for _, m := range members {
		e := Entry{Path: m, Format: d.opts.ZipMemberFormatFor(m), Weight: 1, Uncertainty: 0}
		ds, err := d.open(e, parent)
		if err != nil {
			continue
		}
		out = append(out, ds)
	}
	return out, nil
}

// ZipMemberFormatFor resolves a member's Format: the configured
// MemberFormat override if set, else a guess from its extension.
func (o Options) ZipMemberFormatFor(path string) Format {
	if o.Zip.MemberFormat != 0 {
		return o.Zip.MemberFormat
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff", ".img", ".vrt", ".bag":
		return FormatGDAL
	case ".laz", ".las":
		return FormatLAS
	case ".shp":
		return FormatOGR
	case ".datalist", ".mb-1":
		return FormatDatalist
	default:
		return FormatXYZ
	}
}

func (d *ZipDataset) GenerateInf(checkHash bool) (inf.Inf, error) {
	kids, err := d.children()
	if err != nil {
		return inf.Inf{}, err
	}
	out := inf.Inf{Name: d.opts.Path, Format: int(FormatZip)}
	for _, k := range kids {
		ki, err := k.GenerateInf(checkHash)
		if err != nil {
			continue
		}
		out = inf.Union(out, ki)
	}
	return out, nil
}

func (d *ZipDataset) YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error) {
	kids, err := d.children()
	if err != nil {
		return nil, err
	}
	return &datalistPoints{kids: kids, r: r, inv: invert, t: t}, nil
}

func (d *ZipDataset) YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error) {
	kids, err := d.children()
	if err != nil {
		return nil, err
	}
	return &datalistTiles{kids: kids, g: g, t: t}, nil
}
