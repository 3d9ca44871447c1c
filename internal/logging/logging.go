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

// Package logging wires a logrus.FieldLogger for the ingest/stack/
// interpolate/postproc/uncertainty/coastline pipeline and exposes the
// line-buffered progress channel the CLI front end streams to a
// terminal or a caller-supplied io.Writer.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger at the given level ("debug", "info",
// "warn", "error"; anything else defaults to "info") writing to w. A
// nil w defaults to os.Stderr via logrus's own default.
func New(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log := logrus.New()
	log.SetLevel(lvl)
	if w != nil {
		log.SetOutput(w)
	}
	return log, nil
}

// ProgressLogger is a logrus.Hook that renders every log entry as one
// line on a status channel -- "Progress via a line-buffered status
// channel" -- in addition to whatever the attached logger already does.
// It also satisfies io.Writer so a caller that wants raw progress text
// rather than a hook can use it directly.
type ProgressLogger struct {
	w      io.Writer
	levels []logrus.Level
}

// NewProgressLogger returns a ProgressLogger writing one line per entry
// to w at or below level (the usual logrus severity ordering).
func NewProgressLogger(w io.Writer, level logrus.Level) *ProgressLogger {
	levels := make([]logrus.Level, 0, level+1)
	for l := logrus.PanicLevel; l <= level; l++ {
		levels = append(levels, l)
	}
	return &ProgressLogger{w: w, levels: levels}
}

// Levels implements logrus.Hook.
func (p *ProgressLogger) Levels() []logrus.Level { return p.levels }

// Fire implements logrus.Hook, writing one buffered line per entry.
func (p *ProgressLogger) Fire(e *logrus.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Level, e.Message)
	for k, v := range e.Data {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Write implements io.Writer by forwarding raw bytes to the underlying
// writer, for callers that attach ProgressLogger directly rather than
// as a logrus.Hook.
func (p *ProgressLogger) Write(b []byte) (int, error) { return p.w.Write(b) }

// Attach registers a ProgressLogger as an additional hook on log,
// leaving log's own output destination untouched.
func Attach(log *logrus.Logger, p *ProgressLogger) {
	log.AddHook(p)
}
