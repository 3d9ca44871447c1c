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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/jph6366/cudem-sub000/internal/errs"
)

// GCSFetchModule downloads gs:// objects into the scratch directory,
// grounded on godal's gcs handler (bucket/object parsing, NewReader over
// a ranged client) but plain-copying to disk instead of registering a
// GDAL VSI block-cache handler; the local copy is then opened by path
// through its inner format's reader (GDAL-backed for raster and BAG).
type GCSFetchModule struct {
	Client *storage.Client
}

// NewGCSFetchModule constructs a module around an existing storage
// client (callers own its lifecycle).
func NewGCSFetchModule(client *storage.Client) *GCSFetchModule {
	return &GCSFetchModule{Client: client}
}

func gcsParse(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	idx := strings.Index(trimmed, "/")
	if idx < 0 {
		return "", "", fmt.Errorf("gs uri %q missing object path", uri)
	}
	return trimmed[:idx], trimmed[idx+1:], nil
}

// Fetch implements FetchModule.
func (m *GCSFetchModule) Fetch(ctx context.Context, uri string, scratchDir string) (string, error) {
	bucket, object, err := gcsParse(uri)
	if err != nil {
		return "", errs.Wrap(errs.Config, "fetch.gcs", uri, "parse: %w", err)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return "", errs.Wrap(errs.IO, "fetch.gcs", uri, "mkdir scratch: %w", err)
	}
	local := filepath.Join(scratchDir, bucket+"-"+strings.ReplaceAll(object, "/", "_"))
	if st, err := os.Stat(local); err == nil && st.Size() > 0 {
		return local, nil
	}
	r, err := m.Client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", errs.Wrap(errs.IO, "fetch.gcs", uri, "new reader: %w", err)
	}
	defer r.Close()
	f, err := os.Create(local)
	if err != nil {
		return "", errs.Wrap(errs.IO, "fetch.gcs", uri, "create local: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", errs.Wrap(errs.IO, "fetch.gcs", uri, "copy: %w", err)
	}
	return local, nil
}
