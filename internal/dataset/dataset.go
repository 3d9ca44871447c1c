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

// Package dataset implements the closed tagged-variant Dataset
// abstraction (spec C5): XYZ, LAS/LAZ, GDAL raster, BAG, OGR vector,
// MB-System, recursive Datalist, Zip container and Fetch variants, each
// behind one {generate_inf, yield_points, yield_tiles, valid} contract.
package dataset

import (
	"math"

	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// Format is the datalist format-id, per spec §6.
type Format int

const (
	FormatXYZ      Format = 168
	FormatGDAL     Format = 200
	FormatBAG      Format = 201
	FormatLAS      Format = 300
	FormatMBSystem Format = 301
	FormatOGR      Format = 302
	FormatDatalist Format = -1
	FormatZip      Format = -2
	FormatMemList  Format = -3
	FormatFetch    Format = -4
)

// IsContainer reports whether a format id recurses into child entries
// (negative format ids per spec §6).
func (f Format) IsContainer() bool { return f < 0 }

// Metadata carries the optional trailing fields of a datalist entry
// (spec §3/§6), inherited down a recursive container unless overridden.
type Metadata struct {
	Name       string
	Title      string
	Source     string
	Date       string
	DataType   string
	Resolution string
	HDatum     string
	VDatum     string
	URL        string
}

// Inheritance is the immutable context a recursive Datalist threads down
// to its children, per the §9 redesign note replacing back-references
// from child to parent with a one-way context. Children never mutate it.
type Inheritance struct {
	Weight      float64
	Uncertainty float64
	Meta        Metadata
}

// Compose folds a child's own weight/uncertainty/metadata into an
// inherited context, per spec §4.2: child weight multiplies, child
// uncertainty composes in quadrature, metadata fields inherit unless the
// child sets its own.
func (in Inheritance) Compose(childWeight, childUncertainty float64, childMeta Metadata) Inheritance {
	out := Inheritance{
		Weight:      point.CombineWeight(childWeight, in.Weight),
		Uncertainty: point.CombineUncertainty(childUncertainty, in.Uncertainty),
		Meta:        mergeMeta(in.Meta, childMeta),
	}
	return out
}

func mergeMeta(parent, child Metadata) Metadata {
	out := child
	if out.Title == "" {
		out.Title = parent.Title
	}
	if out.Source == "" {
		out.Source = parent.Source
	}
	if out.Date == "" {
		out.Date = parent.Date
	}
	if out.DataType == "" {
		out.DataType = parent.DataType
	}
	if out.Resolution == "" {
		out.Resolution = parent.Resolution
	}
	if out.HDatum == "" {
		out.HDatum = parent.HDatum
	}
	if out.VDatum == "" {
		out.VDatum = parent.VDatum
	}
	if out.URL == "" {
		out.URL = parent.URL
	}
	return out
}

// RootInheritance is the identity context: weight 1, uncertainty 0, for
// the top-level datalist entry with no ancestor.
func RootInheritance() Inheritance {
	return Inheritance{Weight: 1, Uncertainty: 0}
}

// Options is the explicit per-dataset configuration struct threaded
// through construction, per the §9 redesign note replacing deep kwargs
// passthroughs. Per-variant options live in their own substruct so the
// common fields stay format-agnostic.
type Options struct {
	Path        string
	Format      Format
	Weight      float64
	Uncertainty float64
	Meta        Metadata
	Parent      Inheritance

	XYZ      XYZOptions
	LAS      LASOptions
	GDAL     GDALOptions
	BAG      BAGOptions
	OGR      OGROptions
	MBSystem MBSOptions
	Fetch    FetchOptions
	Zip      ZipOptions
}

// EffectiveWeight is this dataset's weight as seen at the stacker
// boundary: its own weight composed with its inherited ancestor weight.
func (o Options) EffectiveWeight() float64 {
	return point.CombineWeight(o.Weight, o.Parent.Weight)
}

// EffectiveUncertainty composes this dataset's own uncertainty with its
// inherited ancestor uncertainty.
func (o Options) EffectiveUncertainty() float64 {
	return point.CombineUncertainty(o.Uncertainty, o.Parent.Uncertainty)
}

// TileArrays is the named bundle of equal-shape bands a tile carries,
// per spec §3. NaN marks "no data" internally; conversion to a persisted
// sentinel happens only at the Stacker's finalization boundary (§9).
type TileArrays struct {
	Z           []float64
	Count       []float64
	Weight      []float64
	Uncertainty []float64
}

// Tile is the (arrays, srcwin, gt) triple of spec §3, aligned to the
// *source* pixel grid (spec §4.2).
type Tile struct {
	Arrays TileArrays
	Window region.Srcwin
	GT     region.GeoTransform
}

// PointIterator yields Points one at a time. It is finite and
// non-restartable: once exhausted, reusing it requires reopening the
// source dataset, per the §9 redesign note on generators/coroutines.
type PointIterator interface {
	Next() (point.Point, bool, error)
	Close() error
}

// TileIterator yields Tiles one at a time under the same non-restartable
// contract as PointIterator.
type TileIterator interface {
	Next() (Tile, bool, error)
	Close() error
}

// Dataset is the common trait every variant implements (spec §4.2).
type Dataset interface {
	// GenerateInf scans the source once to compute its Inf summary.
	GenerateInf(checkHash bool) (inf.Inf, error)
	// YieldPoints opens a point stream filtered to region r (or its
	// complement when invert is true), after applying transform t.
	YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error)
	// YieldTiles opens a tile stream aligned to g's source pixel grid.
	YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error)
	// Valid reports whether the dataset has a usable backing source.
	Valid() bool
	// Options returns the dataset's configuration, for factories and the
	// stacker boundary (weight/uncertainty composition).
	Options() Options
}

// blockPoints buffers points into per-cell accumulators and emits 1x1
// tiles for occupied cells, the default "block to target grid" tile
// strategy of spec §4.2 shared by every point-yielding variant.
func blockPoints(pts PointIterator, g raster.Grid, t point.Transform, r region.Region, zStdDev bool) (TileIterator, error) {
	nx, ny, gt := g.GeoTransform()
	acc := newCellAccumulator(nx, ny)
	acc.zStdDev = zStdDev
	for {
		p, ok, err := pts.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := p.Apply(t); err != nil {
			continue
		}
		if !p.InRegion(r, false) {
			continue
		}
		col, row := gt.Pixel(p.X, p.Y)
		ci, ri := int(math.Floor(col)), int(math.Floor(row))
		// A point exactly on the region's max-x or min-y edge floors to an
		// index one past the last cell (e.g. col==nx); that edge still
		// belongs to the last cell, not the next (nonexistent) one.
		if ci == nx {
			ci = nx - 1
		}
		if ri == ny {
			ri = ny - 1
		}
		if ci < 0 || ci >= nx || ri < 0 || ri >= ny {
			continue
		}
		acc.add(ci, ri, p)
	}
	if err := pts.Close(); err != nil {
		return nil, err
	}
	return acc.iterator(gt), nil
}
