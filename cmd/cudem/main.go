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

// Command cudem is the thin CLI front end over the ingest/stack/
// interpolate/postproc/uncertainty/coastline pipeline: argument parsing
// and manifest loading only, no business logic of its own.
package main

import (
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/spf13/cobra"
)

var manifestPath string
var logLevel string

func main() {
	godal.RegisterAll()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cudem",
	Short: "DEM ingest, stacking, interpolation and post-processing toolchain",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "config", "c", "", "run manifest JSON path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(stackCmd, interpolateCmd, postprocCmd, uncertaintyCmd, coastlineCmd)
}
