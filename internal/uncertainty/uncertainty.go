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

// Package uncertainty attaches a split-sample interpolation-uncertainty
// band to a DEM produced by any interp.Interpolator (spec C10).
package uncertainty

import (
	"context"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/jph6366/cudem-sub000/internal/interp"
)

// Options configures one uncertainty run.
type Options struct {
	Base interp.Interpolator

	TargetPercentile float64 // percentile of proximity used to size chunks
	MaxSims          int
	MinSampleCount   int
	HoldBackFraction float64 // "perc" in spec §4.9 step 6; default 0.5

	Rand *rand.Rand // nil uses a new source with the fixed seed 1
	Log  logrus.FieldLogger
}

func (o Options) holdBack() float64 {
	if o.HoldBackFraction <= 0 || o.HoldBackFraction >= 1 {
		return 0.5
	}
	return o.HoldBackFraction
}

func (o Options) log() logrus.FieldLogger {
	if o.Log != nil {
		return o.Log
	}
	return logrus.StandardLogger()
}

// Fit is the learned ŷ = a + b·xᶜ curve relating a cell's proximity (in
// pixels to the nearest known point) to its expected interpolation error.
type Fit struct {
	A, B, C float64
	Samples int
}

// Apply evaluates new_uncertainty = source_uncertainty + b·proximityᶜ for
// every cell, spec §4.9 step 9.
func (f Fit) Apply(sourceUncertainty []float64, proximity []float64) []float64 {
	out := make([]float64, len(sourceUncertainty))
	for i := range out {
		out[i] = sourceUncertainty[i] + f.B*math.Pow(proximity[i], f.C)
	}
	return out
}

// Run executes the full split-sample training procedure of spec §4.9 and
// returns the fitted curve.
func Run(ctx context.Context, surf interp.Surface, opts Options) (Fit, error) {
	log := opts.log()
	proximity := proximityRaster(surf)
	slope := slopeRaster(surf)

	chunkSize := chunkSizeFromPercentile(proximity, opts.TargetPercentile)
	chunks := chunkRegion(surf.NX, surf.NY, chunkSize)
	zones := binByZone(chunks, surf, proximity, slope)
	training := trainingChunks(zones)

	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	r.Shuffle(len(training), func(i, j int) { training[i], training[j] = training[j], training[i] })

	var residuals []residualSample
	fit := Fit{A: 0, B: 0.1, C: 0.2}
	sims := 0
	for _, ch := range training {
		if sims >= opts.MaxSims && opts.MaxSims > 0 {
			break
		}
		select {
		case <-ctx.Done():
			return fit, ctx.Err()
		default:
		}
		samples, err := splitSampleOne(ctx, surf, proximity, ch, opts, r)
		if err != nil {
			log.WithFields(logrus.Fields{"error": err.Error()}).Warn("uncertainty: split-sample chunk failed, skipped")
			sims++
			continue
		}
		residuals = append(residuals, samples...)
		sims++

		if len(residuals) >= opts.MinSampleCount && opts.MinSampleCount > 0 {
			next, err := fitCurve(residuals, fit)
			if err != nil {
				log.WithFields(logrus.Fields{"error": err.Error()}).Warn("uncertainty: fit failed, keeping previous")
				continue
			}
			if next == fit {
				// degenerate fit: fitCurve handed back the warm start, so
				// retry with more residuals next round.
				continue
			}
			if math.Abs(next.C-fit.C) < 0.01 {
				fit = next
				break
			}
			fit = next
		}
	}
	if len(residuals) > 0 {
		if next, err := fitCurve(residuals, fit); err == nil {
			fit = next
		}
	}
	fit.Samples = len(residuals)
	return fit, nil
}

type residualSample struct {
	distance float64
	residual float64
}
