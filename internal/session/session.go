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

// Package session scopes the global process state a run touches --
// GDAL config options and the working directory -- and restores it on
// Close, and owns the scratch-file cache directory that external tool
// invocations (ExternalGridder, grdfilter passthrough, zip/GCS fetch)
// acquire temp files from.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jph6366/cudem-sub000/internal/errs"
)

// Options configures one Session.
type Options struct {
	// WorkDir, if set, becomes the process working directory for the
	// session's lifetime. Empty leaves the current directory untouched.
	WorkDir string
	// CacheDir holds scratch files acquired via AcquireTemp. Empty
	// creates and owns an ephemeral directory, removed on Close.
	CacheDir string
	// GDALConfig sets GDAL/OGR configuration options for the session's
	// lifetime via the process environment (GDAL reads most options
	// from either CPLSetConfigOption or the matching env var; env vars
	// are the only lever this package can restore on Close without
	// threading a config-option list through every godal call site).
	GDALConfig map[string]string
	Log        logrus.FieldLogger
}

// Session holds the prior state Close restores and the cache directory
// in-flight temp-file acquisitions draw from.
type Session struct {
	mu         sync.Mutex
	prevWD     string
	chdir      bool
	prevEnv    map[string]*string // nil value means "was unset"
	cacheDir   string
	ownsCache  bool
	log        logrus.FieldLogger
	closed     bool
}

// Open captures the current process state, applies opts, and returns a
// Session. Exactly one of Close's exit paths must run to restore it.
func Open(opts Options) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Session{prevEnv: map[string]*string{}, log: log}

	if opts.WorkDir != "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errs.Wrap(errs.IO, "session.Open", opts.WorkDir, "getwd: %w", err)
		}
		if err := os.Chdir(opts.WorkDir); err != nil {
			return nil, errs.Wrap(errs.IO, "session.Open", opts.WorkDir, "chdir: %w", err)
		}
		s.prevWD, s.chdir = wd, true
	}

	for k, v := range opts.GDALConfig {
		if prev, ok := os.LookupEnv(k); ok {
			p := prev
			s.prevEnv[k] = &p
		} else {
			s.prevEnv[k] = nil
		}
		if err := os.Setenv(k, v); err != nil {
			s.restore()
			return nil, errs.Wrap(errs.Config, "session.Open", k, "setenv: %w", err)
		}
	}

	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			s.restore()
			return nil, errs.Wrap(errs.IO, "session.Open", opts.CacheDir, "mkdir: %w", err)
		}
		s.cacheDir = opts.CacheDir
	} else {
		dir, err := os.MkdirTemp("", "cudem-session-")
		if err != nil {
			s.restore()
			return nil, errs.Wrap(errs.IO, "session.Open", "", "mkdirtemp: %w", err)
		}
		s.cacheDir, s.ownsCache = dir, true
	}

	return s, nil
}

// CacheDir is the directory AcquireTemp names scratch files under.
func (s *Session) CacheDir() string { return s.cacheDir }

// AcquireTemp reserves a uniquely named scratch path under the
// session's cache directory and returns a release func that removes it.
// The caller must call release on every exit path ("restore-on-close"
// applied per acquisition, not just at session scope).
func (s *Session) AcquireTemp(prefix, ext string) (path string, release func(), err error) {
	name := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), ext)
	path = filepath.Join(s.cacheDir, name)
	return path, func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.WithFields(logrus.Fields{"path": path, "error": rmErr.Error()}).
				Warn("session: failed to release scratch file")
		}
	}, nil
}

// Close restores the working directory and GDAL config env vars this
// Session changed, and removes the cache directory if the Session
// created it itself.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.restore()
	if s.ownsCache {
		if err := os.RemoveAll(s.cacheDir); err != nil {
			return errs.Wrap(errs.IO, "session.Close", s.cacheDir, "removeall: %w", err)
		}
	}
	return nil
}

func (s *Session) restore() {
	if s.chdir {
		if err := os.Chdir(s.prevWD); err != nil {
			s.log.WithFields(logrus.Fields{"dir": s.prevWD, "error": err.Error()}).
				Warn("session: failed to restore working directory")
		}
	}
	for k, v := range s.prevEnv {
		if v == nil {
			os.Unsetenv(k)
		} else {
			os.Setenv(k, *v)
		}
	}
}
