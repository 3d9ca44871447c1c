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

// Package config loads the JSON run manifest the CLI front end accepts:
// the region/grid to produce, the datalist to stack, the conflict
// policy, the interpolator choice, and the optional post-processing,
// uncertainty, and coastline stages. Parsing itself is explicitly
// delegated out of the core pipeline; this is a thin loader, not a
// validation or defaulting framework.
package config

import (
	"encoding/json"
	"os"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// Manifest is the top-level shape of a run's JSON config file.
type Manifest struct {
	Region region.Region `json:"region"`
	XInc   float64       `json:"x_inc"`
	YInc   float64       `json:"y_inc"`
	Node   string        `json:"node,omitempty"` // "pixel" or "grid", defaults to "grid"

	Datalist string  `json:"datalist"`
	Policy   string  `json:"policy"` // "weighted_mean" or "supercede"
	NoData   float64 `json:"nodata"`
	Workers  int     `json:"workers,omitempty"`

	Interpolator Interpolator `json:"interpolator"`
	PostProc     *PostProc    `json:"postproc,omitempty"`
	Uncertainty  *Uncertainty `json:"uncertainty,omitempty"`
	Coastline    *Coastline   `json:"coastline,omitempty"`

	Output string `json:"output"`

	CacheDir   string            `json:"cache_dir,omitempty"`
	GDALConfig map[string]string `json:"gdal_config,omitempty"`
	LogLevel   string            `json:"log_level,omitempty"`
}

// Interpolator selects and parameterizes the interpolation stage.
type Interpolator struct {
	Kind      string  `json:"kind"` // "idw" or "triangulated"
	Power     float64 `json:"power,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	MinPoints int     `json:"min_points,omitempty"`
	Kernel    string  `json:"kernel,omitempty"` // "nearest", "linear", "cubic"
	ChunkSize int     `json:"chunk_size,omitempty"`
}

// PostProc mirrors the subset of postproc.Options a manifest can set.
type PostProc struct {
	Filters      []Filter `json:"filters,omitempty"`
	ClipPath     string   `json:"clip_path,omitempty"`
	ClipInvert   bool     `json:"clip_invert,omitempty"`
	LowerLimit   *float64 `json:"lower_limit,omitempty"`
	UpperLimit   *float64 `json:"upper_limit,omitempty"`
	SampleXInc   float64  `json:"sample_x_inc,omitempty"`
	SampleYInc   float64  `json:"sample_y_inc,omitempty"`
	OutputDriver string   `json:"output_driver,omitempty"`
}

// Filter mirrors postproc.FilterSpec.
type Filter struct {
	Kind       string  `json:"kind"` // "gaussian", "grdfilter", "outlier"
	Sigma      float64 `json:"sigma,omitempty"`
	Aggressive bool    `json:"aggressive,omitempty"`
	Replace    bool    `json:"replace,omitempty"`
}

// Uncertainty mirrors the subset of uncertainty.Options a manifest can set.
type Uncertainty struct {
	TargetPercentile float64 `json:"target_percentile,omitempty"`
	MaxSims          int     `json:"max_sims,omitempty"`
	MinSampleCount   int     `json:"min_sample_count,omitempty"`
	HoldBackFraction float64 `json:"hold_back_fraction,omitempty"`
}

// Coastline mirrors coastline.Options.
type Coastline struct {
	BackgroundDEM string   `json:"background_dem"`
	Layers        []string `json:"layers,omitempty"`
	Invert        bool     `json:"invert,omitempty"`
	Polygonize    bool     `json:"polygonize,omitempty"`
	TopN          int      `json:"top_n,omitempty"`
}

// Load reads and parses a manifest from path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errs.Wrap(errs.IO, "config.Load", path, "read: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errs.Wrap(errs.Parse, "config.Load", path, "unmarshal: %w", err)
	}
	if m.Node == "" {
		m.Node = "grid"
	}
	return m, nil
}
