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

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/jph6366/cudem-sub000/internal/config"
	"github.com/jph6366/cudem-sub000/internal/dataset"
	"github.com/jph6366/cudem-sub000/internal/logging"
	"github.com/jph6366/cudem-sub000/internal/point"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/region"
	"github.com/jph6366/cudem-sub000/internal/session"
	"github.com/jph6366/cudem-sub000/internal/stacker"
)

var stackWorkers int

func init() {
	stackCmd.Flags().IntVar(&stackWorkers, "workers", 0, "parallel tile ingest workers (0 uses the manifest value, default 1)")
}

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "ingest a datalist and produce a 5-band stack raster",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		log, err := logging.New(logLevel, nil)
		if err != nil {
			return err
		}

		sess, err := session.Open(session.Options{CacheDir: m.CacheDir, GDALConfig: m.GDALConfig, Log: log})
		if err != nil {
			return err
		}
		defer sess.Close()

		grid := gridFromManifest(m)

		fetchModules := map[string]dataset.FetchModule{}
		if stcl, err := storage.NewClient(cmd.Context()); err == nil {
			fetchModules["gs"] = dataset.NewGCSFetchModule(stcl)
		} else {
			log.WithField("error", err.Error()).Debug("cudem: gcs fetch module unavailable, gs:// entries will fail")
		}
		factory := dataset.NewFactory(fetchModules, sess.CacheDir())

		root, err := factory.Open(dataset.Options{
			Path:   m.Datalist,
			Format: dataset.FormatDatalist,
			Parent: dataset.RootInheritance(),
		})
		if err != nil {
			return fmt.Errorf("open datalist: %w", err)
		}

		policy := stacker.WeightedMean
		if m.Policy == "supercede" {
			policy = stacker.Supercede
		}
		s := stacker.New(grid, policy, m.NoData, log)

		workers := stackWorkers
		if workers <= 0 {
			workers = m.Workers
		}
		if err := s.Ingest(cmd.Context(), []dataset.Dataset{root}, point.Transform(nil), workers); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		opts := raster.DefaultCreateOptions()
		ds, err := s.WriteTo(m.Output, opts)
		if err != nil {
			return fmt.Errorf("write stack: %w", err)
		}
		defer ds.Close()

		log.WithField("output", m.Output).Info("cudem stack: wrote 5-band stack raster")
		return nil
	},
}

func gridFromManifest(m config.Manifest) raster.Grid {
	node := region.NodeGrid
	if m.Node == "pixel" {
		node = region.NodePixel
	}
	return raster.Grid{Region: m.Region, XInc: m.XInc, YInc: m.YInc, Node: node}
}
