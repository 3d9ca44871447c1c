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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	body := `{
		"region": {"XMin": 0, "XMax": 10, "YMin": 0, "YMax": 10},
		"x_inc": 1, "y_inc": 1,
		"datalist": "sources.datalist",
		"policy": "weighted_mean",
		"nodata": -9999,
		"interpolator": {"kind": "idw", "power": 2},
		"output": "out.tif"
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Region.XMax != 10 || m.XInc != 1 {
		t.Fatalf("region/grid not parsed: %+v", m)
	}
	if m.Interpolator.Kind != "idw" || m.Interpolator.Power != 2 {
		t.Fatalf("interpolator not parsed: %+v", m.Interpolator)
	}
	if m.Node != "grid" {
		t.Fatalf("Node default = %q, want grid", m.Node)
	}
}

func TestLoadMissingFileIsIOError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedJSONIsParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed json")
	}
}
