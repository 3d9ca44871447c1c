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

// Package inf implements the per-source JSON sidecar cache (spec C6):
// bounding box, point count, hash and SRS summary, regenerated only when
// missing or stale.
package inf

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/jph6366/cudem-sub000/internal/errs"
)

// Inf is the JSON sidecar schema of spec §3/§6.
type Inf struct {
	Name    string     `json:"name"`
	Hash    string     `json:"hash"`
	NumPts  int64      `json:"numpts"`
	Format  int        `json:"format"`
	MinMax  [6]float64 `json:"minmax"` // xmin,xmax,ymin,ymax,zmin,zmax
	SrcSRS  string     `json:"src_srs"`
	WKT     string     `json:"wkt,omitempty"`
}

// SidecarPath returns the conventional sidecar path for a source file.
func SidecarPath(sourcePath string) string { return sourcePath + ".inf" }

// HashFile computes the sha256 hex digest of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.IO, "inf.HashFile", path, "open: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errs.Wrap(errs.IO, "inf.HashFile", path, "read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load reads and parses the sidecar beside sourcePath. It first tries the
// CUDEM JSON schema; on parse failure it falls back to the MB-System .inf
// parser, per spec §4.3, and returns ok=false if both fail (the caller
// must then regenerate).
func Load(sourcePath string) (i Inf, ok bool) {
	data, err := os.ReadFile(SidecarPath(sourcePath))
	if err != nil {
		return Inf{}, false
	}
	if err := json.Unmarshal(data, &i); err == nil && i.Hash != "" {
		return i, true
	}
	if mi, err := ParseMBSInf(data); err == nil {
		return mi, true
	}
	return Inf{}, false
}

// Stale reports whether the cached Inf should be regenerated: sidecar
// missing (ok==false), or hash mismatch when checkHash is requested, or
// required fields are zero-valued.
func Stale(cached Inf, ok bool, currentHash string, checkHash bool) bool {
	if !ok {
		return true
	}
	if cached.NumPts == 0 && cached.MinMax == ([6]float64{}) {
		return true
	}
	if checkHash && cached.Hash != currentHash {
		return true
	}
	return false
}

// Save best-effort writes the sidecar; failures are swallowed per spec
// §4.3 ("Write is best-effort (silent on failure)").
func Save(sourcePath string, i Inf) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(SidecarPath(sourcePath), data, 0o644)
}

// Union merges a parent Inf's minmax/numpts/hash-independent fields with
// a child's, per spec §4.2's "recursive containers union child infs" and
// the "Datalist recursion: union of child infs equals parent inf"
// testable property.
func Union(a, b Inf) Inf {
	if a.NumPts == 0 && a.MinMax == ([6]float64{}) {
		return b
	}
	if b.NumPts == 0 && b.MinMax == ([6]float64{}) {
		return a
	}
	out := a
	out.NumPts = a.NumPts + b.NumPts
	out.MinMax[0] = minf(a.MinMax[0], b.MinMax[0])
	out.MinMax[1] = maxf(a.MinMax[1], b.MinMax[1])
	out.MinMax[2] = minf(a.MinMax[2], b.MinMax[2])
	out.MinMax[3] = maxf(a.MinMax[3], b.MinMax[3])
	out.MinMax[4] = minf(a.MinMax[4], b.MinMax[4])
	out.MinMax[5] = maxf(a.MinMax[5], b.MinMax[5])
	return out
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ErrNotMBSInf is returned by ParseMBSInf when the buffer isn't a
// recognizable MB-System .inf block.
var ErrNotMBSInf = errors.New("inf: not an MB-System .inf file")
