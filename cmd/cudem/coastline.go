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

	"github.com/jph6366/cudem-sub000/internal/coastline"
	"github.com/jph6366/cudem-sub000/internal/config"
	"github.com/jph6366/cudem-sub000/internal/logging"
)

var coastlineOutput string

func init() {
	coastlineCmd.Flags().StringVar(&coastlineOutput, "out", "", "coastline mask output path (defaults to the manifest output)")
}

var coastlineCmd = &cobra.Command{
	Use:   "coastline",
	Short: "synthesize a land/water mask from a background DEM and vector layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		if m.Coastline == nil {
			return fmt.Errorf("coastline: manifest has no coastline section")
		}
		log, err := logging.New(logLevel, nil)
		if err != nil {
			return err
		}

		var layers []coastline.VectorLayer
		for _, path := range m.Coastline.Layers {
			layers = append(layers, coastline.VectorLayer{Path: path, Sign: -1})
		}

		mask, err := coastline.Build(coastline.Options{
			BackgroundDEM: m.Coastline.BackgroundDEM,
			Layers:        layers,
			Invert:        m.Coastline.Invert,
			Polygonize:    m.Coastline.Polygonize,
			TopN:          m.Coastline.TopN,
		})
		if err != nil {
			return fmt.Errorf("build: %w", err)
		}

		out := coastlineOutput
		if out == "" {
			out = m.Output
		}
		ds, err := mask.WriteTo(out)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		defer ds.Close()

		if m.Coastline.Polygonize {
			polys := mask.Polygonize(m.Coastline.TopN)
			log.WithField("count", len(polys)).Info("cudem coastline: polygonized land components")
		}

		log.WithField("output", out).Info("cudem coastline: wrote mask")
		return nil
	},
}
