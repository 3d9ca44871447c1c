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

package dataset

import (
	"fmt"
)

// Factory dispatches a datalist Entry (or a top-level Options) to the
// concrete Dataset constructor for its Format, the format-id switch of
// spec §6. It is the single place that knows about every variant, so
// Datalist/Zip/Fetch depend on it through a constructor-shaped func value
// instead of importing it directly, avoiding an import cycle back into
// this package.
type Factory struct {
	// FetchModules resolves a URI scheme (e.g. "gs") to the FetchModule
	// that can retrieve it. An entry whose scheme has no registered
	// module is not fetched: it is opened as a plain path under the
	// entry's own format.
	FetchModules map[string]FetchModule
	// DefaultScratchDir is where Fetch/Zip variants stage downloaded or
	// extracted files when an entry does not name its own.
	DefaultScratchDir string
}

// NewFactory builds a Factory with the given fetch modules keyed by URI
// scheme (without "://").
func NewFactory(fetchModules map[string]FetchModule, scratchDir string) *Factory {
	return &Factory{FetchModules: fetchModules, DefaultScratchDir: scratchDir}
}

// Open builds a Dataset for opts per opts.Format, per spec §6's format-id
// dispatch table.
func (f *Factory) Open(opts Options) (Dataset, error) {
	switch opts.Format {
	case FormatXYZ:
		return NewXYZ(opts), nil
	case FormatLAS:
		return NewLAS(opts), nil
	case FormatGDAL:
		return NewGDAL(opts), nil
	case FormatBAG:
		return NewBAG(opts), nil
	case FormatOGR:
		return NewOGR(opts), nil
	case FormatMBSystem:
		return NewMBSystem(opts), nil
	case FormatDatalist:
		return NewDatalist(opts, f.openEntry)
	case FormatZip:
		return NewZip(opts, f.openEntry), nil
	default:
		return nil, fmt.Errorf("dataset.Factory.Open: unrecognized format id %d for %s", opts.Format, opts.Path)
	}
}

// openEntry adapts a datalist/zip Entry plus its composed Inheritance
// into an Options and builds the child Dataset, the func value passed to
// NewDatalist/NewZip.
func (f *Factory) openEntry(e Entry, parent Inheritance) (Dataset, error) {
	if scheme, uri, ok := splitScheme(e.Path); ok {
		if module, found := f.FetchModules[scheme]; found {
			opts := Options{
				Path:   uri,
				Format: FormatFetch,
				Weight: e.Weight, Uncertainty: e.Uncertainty, Meta: e.Meta,
				Parent: parent,
				Fetch:  FetchOptions{URI: uri, ScratchDir: f.DefaultScratchDir, InnerFormat: e.Format},
			}
			return NewFetch(opts, module, f.openEntry), nil
		}
	}
	opts := Options{
		Path: e.Path, Format: e.Format,
		Weight: e.Weight, Uncertainty: e.Uncertainty, Meta: e.Meta,
		Parent: parent,
	}
	applyModOpts(&opts, e.ModOpts)
	return f.Open(opts)
}

func splitScheme(path string) (scheme, rest string, ok bool) {
	for i := 0; i < len(path)-2; i++ {
		if path[i] == ':' && path[i+1] == '/' && path[i+2] == '/' {
			return path[:i], path, true
		}
	}
	return "", "", false
}

// applyModOpts folds a datalist entry's "format:key=val:..." suffix into
// the variant-specific option substruct, per spec §6's option grammar.
func applyModOpts(opts *Options, mod map[string]string) {
	if len(mod) == 0 {
		return
	}
	switch opts.Format {
	case FormatXYZ:
		x := DefaultXYZOptions()
		if v, ok := mod["delim"]; ok {
			x.Delim = v
		}
		opts.XYZ = x
	case FormatLAS:
		if v, ok := mod["classes"]; ok {
			opts.LAS.Classifications = parseClassList(v)
		}
	case FormatGDAL:
		if v, ok := mod["band"]; ok {
			opts.GDAL.Band = atoiOr(v, 1)
		}
		if v, ok := mod["weight_band"]; ok {
			opts.GDAL.WeightBand = atoiOr(v, 0)
		}
		if v, ok := mod["uncertainty_band"]; ok {
			opts.GDAL.UncertaintyBand = atoiOr(v, 0)
		}
	case FormatOGR:
		if v, ok := mod["zfield"]; ok {
			opts.OGR.ZField = v
		}
		if v, ok := mod["negate_z"]; ok && v == "true" {
			opts.OGR.NegateZ = true
		}
	}
}

func atoiOr(s string, def int) int {
	n := 0
	neg := false
	if s == "" {
		return def
	}
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func parseClassList(v string) map[uint8]bool {
	out := make(map[uint8]bool)
	n := 0
	has := false
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if has {
				out[uint8(n)] = true
			}
			n, has = 0, false
			continue
		}
		c := v[i]
		if c < '0' || c > '9' {
			continue
		}
		n = n*10 + int(c-'0')
		has = true
	}
	return out
}
