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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jph6366/cudem-sub000/internal/config"
	"github.com/jph6366/cudem-sub000/internal/logging"
	"github.com/jph6366/cudem-sub000/internal/postproc"
	"github.com/jph6366/cudem-sub000/internal/raster"
	"github.com/jph6366/cudem-sub000/internal/session"
)

var postprocSource, postprocWorkDir string

func init() {
	postprocCmd.Flags().StringVar(&postprocSource, "source", "", "raster to clean up (defaults to the manifest output)")
	postprocCmd.Flags().StringVar(&postprocWorkDir, "workdir", "", "directory for staged intermediate rasters")
}

var postprocCmd = &cobra.Command{
	Use:   "postproc",
	Short: "run the nodata/filter/resample/clip/cut/clamp/tag/convert pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		if m.PostProc == nil {
			return fmt.Errorf("postproc: manifest has no postproc section")
		}
		log, err := logging.New(logLevel, nil)
		if err != nil {
			return err
		}

		sess, err := session.Open(session.Options{CacheDir: m.CacheDir, Log: log})
		if err != nil {
			return err
		}
		defer sess.Close()

		workDir := postprocWorkDir
		if workDir == "" {
			workDir = sess.CacheDir()
		}

		src := postprocSource
		if src == "" {
			src = m.Output
		}
		ds, err := raster.Open(src)
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer ds.Close()

		opts := buildPostprocOptions(*m.PostProc, m.NoData, log)
		pipeline := postproc.New(opts, workDir)
		out, err := pipeline.Run(ds)
		if err != nil {
			return fmt.Errorf("run pipeline: %w", err)
		}
		defer out.Close()

		log.WithField("source", src).Info("cudem postproc: pipeline complete")
		return nil
	},
}

func buildPostprocOptions(c config.PostProc, nodata float64, log logrus.FieldLogger) postproc.Options {
	opts := postproc.Options{
		NodataValue:  nodata,
		SampleXInc:   c.SampleXInc,
		SampleYInc:   c.SampleYInc,
		Resampler:    raster.AutoResampler(1, 1),
		Clip:         postproc.Clip{Path: c.ClipPath, Invert: c.ClipInvert},
		OutputDriver: c.OutputDriver,
		Log:          log,
	}
	if c.LowerLimit != nil {
		opts.LowerLimit, opts.HasLowerLimit = *c.LowerLimit, true
	}
	if c.UpperLimit != nil {
		opts.UpperLimit, opts.HasUpperLimit = *c.UpperLimit, true
	}
	for _, f := range c.Filters {
		spec := postproc.FilterSpec{}
		switch f.Kind {
		case "grdfilter":
			spec.Kind = postproc.FilterGrdfilterPassthrough
		case "outlier":
			spec.Kind = postproc.FilterOutlier
			spec.Outlier = postproc.OutlierOptions{Aggressive: f.Aggressive, Replace: f.Replace}
		default:
			spec.Kind = postproc.FilterGaussian
			spec.Sigma = f.Sigma
		}
		opts.Filters = append(opts.Filters, spec)
	}
	return opts
}
