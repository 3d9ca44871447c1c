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
)

var interpolateSource string

func init() {
	interpolateCmd.Flags().StringVar(&interpolateSource, "source", "", "stack raster to fill (defaults to the manifest output)")
}

var interpolateCmd = &cobra.Command{
	Use:   "interpolate",
	Short: "fill a stack raster's unknown cells with IDW or a triangulated kernel",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		log, err := logging.New(logLevel, nil)
		if err != nil {
			return err
		}

		src := interpolateSource
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
		weight, err := ds.ReadBandF32(stacker.BandWeight, win)
		if err != nil {
			return fmt.Errorf("read weight band: %w", err)
		}
		uncert, err := ds.ReadBandF32(stacker.BandUncertainty, win)
		if err != nil {
			return fmt.Errorf("read uncertainty band: %w", err)
		}

		surf := interp.Surface{
			NX: nx, NY: ny,
			Z:           toF64(z),
			Weight:      toF64(weight),
			Uncertainty: toF64(uncert),
			NoData:      m.NoData,
		}

		var kernel interp.Interpolator
		switch m.Interpolator.Kind {
		case "triangulated":
			k := interp.Linear
			switch m.Interpolator.Kernel {
			case "nearest":
				k = interp.Nearest
			case "cubic":
				k = interp.Cubic
			}
			chunk := m.Interpolator.ChunkSize
			if chunk <= 0 {
				chunk = 64
			}
			kernel = interp.Triangulated{KernelName: k, ChunkSize: chunk}
		default:
			minPoints := m.Interpolator.MinPoints
			if minPoints <= 0 {
				minPoints = 12
			}
			kernel = interp.IDW{MinPoints: minPoints, Radius: m.Interpolator.Radius, Power: m.Interpolator.Power}
		}

		filled, err := kernel.Interpolate(cmd.Context(), surf)
		if err != nil {
			return fmt.Errorf("interpolate: %w", err)
		}

		gt := ds.GeoTransform()
		grid := raster.Grid{Region: ds.Region(), XInc: gt.DX, YInc: -gt.DY, Node: region.NodeGrid}

		opts := raster.DefaultCreateOptions()
		opts.NoData = m.NoData
		out, err := raster.Create(m.Output, 1, grid, opts)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()
		buf := make([]float32, len(filled))
		for i, v := range filled {
			buf[i] = float32(v)
		}
		if err := out.WriteBandF32(1, win, buf); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		log.WithField("output", m.Output).Info("cudem interpolate: filled surface")
		return nil
	},
}

func toF64(buf []float32) []float64 {
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out
}
