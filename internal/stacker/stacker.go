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

// Package stacker implements the streaming 5-band tile accumulator (spec
// C7): z, count, weight-sum, uncertainty and source-uncertainty, merged
// from any number of dataset tile streams under a weighted-mean or
// supercede conflict policy.
package stacker

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jph6366/cudem-sub000/internal/dataset"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
)

// Policy selects the conflict-resolution rule applied when more than one
// tile covers the same cell.
type Policy int

const (
	WeightedMean Policy = iota
	Supercede
)

// Band indices of the output raster, in write order.
const (
	BandZ           = 1
	BandCount       = 2
	BandWeight      = 3
	BandUncertainty = 4
	BandSourceUncertainty = 5
)

// Stacker accumulates tiles into five parallel per-cell arrays over a
// fixed grid. Apply serializes tile merges under a single mutex, the
// simplest correct design the contract allows ("tiles may be produced on
// worker threads but must be applied to the accumulator under exclusion
// per cell range").
type Stacker struct {
	grid   raster.Grid
	policy Policy
	nodata float64
	nx, ny int
	gt     region.GeoTransform

	mu sync.Mutex
	z  []float64
	n  []float64
	w  []float64
	u  []float64
	su []float64

	finalized bool
	log       logrus.FieldLogger
}

// New allocates a Stacker over g, zeroed (spec's NaN-internal discipline
// starts accumulation from 0, the additive identity for every band here).
func New(g raster.Grid, policy Policy, nodata float64, log logrus.FieldLogger) *Stacker {
	nx, ny, gt := g.GeoTransform()
	n := nx * ny
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Stacker{
		grid: g, policy: policy, nodata: nodata, nx: nx, ny: ny, gt: gt,
		z: make([]float64, n), n: make([]float64, n), w: make([]float64, n),
		u: make([]float64, n), su: make([]float64, n), log: log,
	}
}

// Apply merges one tile into the accumulator per spec §4.4's per-cell
// algorithm. A malformed tile (window outside the grid, mismatched array
// lengths) is logged and skipped rather than failing the whole run,
// matching "a failing tile is logged and skipped; the stack remains
// consistent."
func (s *Stacker) Apply(t dataset.Tile) {
	win := t.Window
	if win.XSize <= 0 || win.YSize <= 0 {
		return
	}
	if win.XOff < 0 || win.YOff < 0 || win.XOff+win.XSize > s.nx || win.YOff+win.YSize > s.ny {
		s.log.WithFields(logrus.Fields{"xoff": win.XOff, "yoff": win.YOff, "xsize": win.XSize, "ysize": win.YSize}).
			Warn("stacker: tile window outside grid, skipped")
		return
	}
	area := win.XSize * win.YSize
	if len(t.Arrays.Z) != area || len(t.Arrays.Count) != area || len(t.Arrays.Weight) != area || len(t.Arrays.Uncertainty) != area {
		s.log.Warn("stacker: tile array length mismatch, skipped")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ty := 0; ty < win.YSize; ty++ {
		gy := win.YOff + ty
		for tx := 0; tx < win.XSize; tx++ {
			gx := win.XOff + tx
			li := ty*win.XSize + tx
			gi := gy*s.nx + gx

			c := t.Arrays.Count[li]
			z := t.Arrays.Z[li]
			w := t.Arrays.Weight[li]
			u := t.Arrays.Uncertainty[li]
			if math.IsNaN(z) {
				z = 0
			}
			if math.IsNaN(w) {
				w = 0
			}
			if math.IsNaN(u) {
				u = 0
			}

			s.n[gi] += c
			switch s.policy {
			case Supercede:
				if w > s.w[gi] {
					s.z[gi] = z
					s.su[gi] = u
					s.w[gi] = w
					s.u[gi] = s.su[gi]
				}
			default: // WeightedMean
				s.z[gi] += z * w
				s.su[gi] += u * w
				s.w[gi] += w
				if s.w[gi] > 0 {
					diff := z - s.z[gi]/s.w[gi]
					s.u[gi] += w * diff * diff
				}
			}
		}
	}
}

// Finalize runs the weighted-mean division pass (§4.4), converting
// running sums into the true weighted mean / combined uncertainty.
// Supercede cells need no division; Finalize still marks every N=0 cell
// NODATA in every band so both policies share one persistence path.
func (s *Stacker) Finalize() {
	if s.finalized {
		return
	}
	s.finalized = true
	for i := range s.n {
		if s.n[i] == 0 {
			s.z[i], s.n[i], s.w[i], s.u[i], s.su[i] = s.nodata, s.nodata, s.nodata, s.nodata, s.nodata
			continue
		}
		if s.policy != WeightedMean {
			continue
		}
		if s.w[i] <= 0 {
			s.z[i], s.w[i], s.u[i], s.su[i] = s.nodata, s.nodata, s.nodata, s.nodata
			continue
		}
		w := s.w[i]
		suPrime := s.su[i] / w
		zPrime := s.z[i] / w
		uPrime := math.Sqrt(s.u[i] / w)
		uPrime = math.Sqrt(suPrime*suPrime + uPrime*uPrime)
		s.z[i] = zPrime
		s.w[i] = w
		s.u[i] = uPrime
		s.su[i] = suPrime
	}
}

// WriteTo persists the finalized accumulator as a 5-band float32 raster
// at path, calling Finalize first if it has not already run.
func (s *Stacker) WriteTo(path string, opts raster.CreateOptions) (*raster.Dataset, error) {
	s.Finalize()
	opts.NoData = s.nodata
	ds, err := raster.Create(path, 5, s.grid, opts)
	if err != nil {
		return nil, err
	}
	names := []string{"z", "count", "weight", "uncertainty", "source_uncertainty"}
	bands := [][]float64{s.z, s.n, s.w, s.u, s.su}
	win := region.Srcwin{XOff: 0, YOff: 0, XSize: s.nx, YSize: s.ny}
	for i, band := range bands {
		buf := make([]float32, len(band))
		for j, v := range band {
			buf[j] = float32(v)
		}
		if err := ds.WriteBandF32(i+1, win, buf); err != nil {
			ds.Close()
			return nil, fmt.Errorf("stacker.WriteTo: write band %d: %w", i+1, err)
		}
		if err := ds.SetBandDescription(i+1, names[i]); err != nil {
			ds.Close()
			return nil, fmt.Errorf("stacker.WriteTo: describe band %d: %w", i+1, err)
		}
	}
	return ds, nil
}

// GeoTransform returns the stacker's grid geo-transform.
func (s *Stacker) GeoTransform() region.GeoTransform { return s.gt }

// Size returns (nx, ny).
func (s *Stacker) Size() (int, int) { return s.nx, s.ny }
