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

// Package srs resolves a combined horizontal+vertical CRS spec into a
// composed CoordinateTransform, wrapping godal's SpatialRef/Transform
// (spec C4).
package srs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"

	"github.com/jph6366/cudem-sub000/internal/errs"
	"github.com/jph6366/cudem-sub000/internal/point"
)

// Spec is a parsed horizontal[:vertical] CRS spec, per spec §4.2's
// "hdatum:vdatum" grammar carried from the datalist entry.
type Spec struct {
	Horizontal string // "EPSG:4326", a WKT blob, or a proj4 string
	Vertical   string // optional vertical datum name, e.g. "NAVD88"
}

// ParseSpec splits a "hdatum" or "hdatum:vdatum" token into a Spec.
func ParseSpec(s string) Spec {
	if idx := strings.Index(s, ":"); idx >= 0 && !strings.HasPrefix(s, "EPSG:") {
		return Spec{Horizontal: s[:idx], Vertical: s[idx+1:]}
	}
	if strings.Count(s, ":") == 2 && strings.HasPrefix(s, "EPSG:") {
		parts := strings.SplitN(s, ":", 3)
		return Spec{Horizontal: parts[0] + ":" + parts[1], Vertical: parts[2]}
	}
	return Spec{Horizontal: s}
}

func open(spec string) (*godal.SpatialRef, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "EPSG:") {
		code, err := strconv.Atoi(strings.TrimPrefix(spec, "EPSG:"))
		if err != nil {
			return nil, fmt.Errorf("parse EPSG code %q: %w", spec, err)
		}
		return godal.NewSpatialRefFromEPSG(code)
	}
	if strings.Contains(spec, "+proj=") {
		return godal.NewSpatialRefFromProj4(spec)
	}
	return godal.NewSpatialRefFromWKT(spec)
}

// Resolver composes a source->target CoordinateTransform, falling back
// from authority lookup to a raw proj4 string the way spec §4.2's LAS
// variant resolves its VLR WKT.
type Resolver struct {
	target *godal.SpatialRef
}

// NewResolver builds a Resolver targeting the given horizontal CRS spec.
func NewResolver(targetSpec string) (*Resolver, error) {
	sr, err := open(targetSpec)
	if err != nil {
		return nil, errs.Wrap(errs.Transform, "srs.NewResolver", targetSpec, "open target srs: %w", err)
	}
	return &Resolver{target: sr}, nil
}

// Close releases the target SpatialRef.
func (r *Resolver) Close() { r.target.Close() }

// Transform builds a point.Transform from srcSpec to this Resolver's
// target CRS. srcSpec.Vertical is not read; a vertical adjustment comes
// only from verticalShift which, when non-nil, is evaluated at each
// transformed (x,y) and added to z.
func (r *Resolver) Transform(srcSpec Spec, verticalShift func(x, y float64) (float64, error)) (point.Transform, error) {
	src, err := open(srcSpec.Horizontal)
	if err != nil {
		return nil, errs.Wrap(errs.Transform, "srs.Transform", srcSpec.Horizontal, "open source srs: %w", err)
	}
	if src.IsSame(r.target) && verticalShift == nil {
		src.Close()
		return func(x, y, z float64) (float64, float64, float64, error) { return x, y, z, nil }, nil
	}
	tr, err := godal.NewTransform(src, r.target)
	if err != nil {
		src.Close()
		return nil, errs.Wrap(errs.Transform, "srs.Transform", srcSpec.Horizontal, "build transform: %w", err)
	}
	return func(x, y, z float64) (float64, float64, float64, error) {
		xs, ys, zs := []float64{x}, []float64{y}, []float64{z}
		ok := make([]bool, 1)
		if err := tr.TransformEx(xs, ys, zs, ok); err != nil {
			return 0, 0, 0, errs.Wrap(errs.Transform, "srs.Transform", srcSpec.Horizontal, "apply: %w", err)
		}
		if !ok[0] {
			return 0, 0, 0, errs.New(errs.Transform, "srs.Transform", srcSpec.Horizontal, fmt.Errorf("point (%v,%v) did not reproject", x, y))
		}
		nz := zs[0]
		if verticalShift != nil {
			shift, err := verticalShift(xs[0], ys[0])
			if err != nil {
				return 0, 0, 0, err
			}
			nz += shift
		}
		return xs[0], ys[0], nz, nil
	}, nil
}
