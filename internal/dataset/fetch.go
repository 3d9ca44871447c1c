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
	"context"

	"github.com/jph6366/cudem-sub000/internal/inf"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// FetchModule is the capability contract a remote-source backend
// implements: resolve a URI to a local scratch path, downloading on
// first access and reusing the cached copy thereafter.
type FetchModule interface {
	// Fetch retrieves uri into a file under scratchDir, returning the
	// local path. A module may skip the download if a matching file
	// already exists in scratchDir.
	Fetch(ctx context.Context, uri string, scratchDir string) (string, error)
}

// FetchOptions configures the Fetch variant.
type FetchOptions struct {
	URI        string
	ScratchDir string
	// InnerFormat is the Format the fetched file should be opened as
	// once downloaded (e.g. FormatGDAL for a fetched DEM tile).
	InnerFormat Format
}

// FetchDataset resolves a remote URI to a local file via a FetchModule,
// then defers every other Dataset method to the Factory-built dataset for
// InnerFormat over that local file.
type FetchDataset struct {
	opts    Options
	module  FetchModule
	open    func(Entry, Inheritance) (Dataset, error)
	local   string
	resolved Dataset
}

// NewFetch constructs a Fetch variant. open closes the dependency on
// Factory the same way Datalist's open callback does, avoiding an import
// cycle between dataset and its factory.
func NewFetch(o Options, module FetchModule, open func(Entry, Inheritance) (Dataset, error)) *FetchDataset {
	return &FetchDataset{opts: o, module: module, open: open}
}

func (d *FetchDataset) ensure() (Dataset, error) {
	if d.resolved != nil {
		return d.resolved, nil
	}
	scratch := d.opts.Fetch.ScratchDir
	if scratch == "" {
		scratch = "."
	}
	local, err := d.module.Fetch(context.Background(), d.opts.Path, scratch)
	if err != nil {
		return nil, err
	}
	d.local = local
	entry := Entry{Path: local, Format: d.opts.Fetch.InnerFormat, Weight: d.opts.Weight, Uncertainty: d.opts.Uncertainty, Meta: d.opts.Meta}
	ds, err := d.open(entry, d.opts.Parent)
	if err != nil {
		return nil, err
	}
	d.resolved = ds
	return ds, nil
}

func (d *FetchDataset) Options() Options { return d.opts }

func (d *FetchDataset) Valid() bool {
	ds, err := d.ensure()
	if err != nil {
		return false
	}
	return ds.Valid()
}

func (d *FetchDataset) GenerateInf(checkHash bool) (inf.Inf, error) {
	ds, err := d.ensure()
	if err != nil {
		return inf.Inf{}, err
	}
	return ds.GenerateInf(checkHash)
}

func (d *FetchDataset) YieldPoints(r region.Region, invert bool, t point.Transform) (PointIterator, error) {
	ds, err := d.ensure()
	if err != nil {
		return nil, err
	}
	return ds.YieldPoints(r, invert, t)
}

func (d *FetchDataset) YieldTiles(g raster.Grid, t point.Transform) (TileIterator, error) {
	ds, err := d.ensure()
	if err != nil {
		return nil, err
	}
	return ds.YieldTiles(g, t)
}
