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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jph6366/cudem-sub000/internal/config"
	"github.com/jph6366/cudem-sub000/internal/interp"
	"github.com/jph6366/cudem-sub000/internal/logging"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
	"github.com/jph6366/cudem-sub000/internal/stacker"
	"github.com/jph6366/cudem-sub000/internal/uncertainty"
)

var uncertaintySource string

func init() {
	uncertaintyCmd.Flags().StringVar(&uncertaintySource, "source", "", "filled surface to assess (defaults to the manifest output)")
}

var uncertaintyCmd = &cobra.Command{
	Use:   "uncertainty",
	Short: "fit a proximity/slope split-sample interpolation-uncertainty curve",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		if m.Uncertainty == nil {
			return fmt.Errorf("uncertainty: manifest has no uncertainty section")
		}
		log, err := logging.New(logLevel, nil)
		if err != nil {
			return err
		}

		src := uncertaintySource
		if src == "" {
			src = m.Output
		}
		ds, err := raster.Open(src)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer ds.Close()

		nx, ny := ds.Size()
		win := region.Srcwin{XOff: 0, YOff: 0, XSize: nx, YSize: ny}
		z, err := ds.ReadBandF32(stacker.BandZ, win)
		if err != nil {
			return fmt.Errorf("read z band: %w", err)
		}
		surf := interp.Surface{NX: nx, NY: ny, Z: toF64(z), NoData: m.NoData}

		base := interp.IDW{MinPoints: m.Interpolator.MinPoints, Radius: m.Interpolator.Radius, Power: m.Interpolator.Power}
		opts := uncertainty.Options{
			Base:             base,
			TargetPercentile: m.Uncertainty.TargetPercentile,
			MaxSims:          m.Uncertainty.MaxSims,
			MinSampleCount:   m.Uncertainty.MinSampleCount,
			HoldBackFraction: m.Uncertainty.HoldBackFraction,
			Log:              log,
		}
		fit, err := uncertainty.Run(cmd.Context(), surf, opts)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}

		log.WithFields(map[string]interface{}{
			"a": fit.A, "b": fit.B, "c": fit.C, "samples": fit.Samples,
		}).Info("cudem uncertainty: fit complete")
		return nil
	},
}
