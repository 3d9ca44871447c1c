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

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewParsesLevel(t *testing.T) {
	log, err := New("warn", nil)
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level = %v, want warn", log.GetLevel())
	}
}

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	log, err := New("bogus", nil)
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", log.GetLevel())
	}
}

func TestProgressLoggerFireWritesLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressLogger(&buf, logrus.InfoLevel)
	entry := &logrus.Entry{Level: logrus.InfoLevel, Message: "stacking tile", Data: logrus.Fields{"band": 1}}
	if err := p.Fire(entry); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "stacking tile") || !strings.Contains(out, "band=1") {
		t.Fatalf("progress line = %q, missing expected fields", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("progress line should be newline-terminated, got %q", out)
	}
}

func TestProgressLoggerLevelsExcludesAboveThreshold(t *testing.T) {
	p := NewProgressLogger(&bytes.Buffer{}, logrus.WarnLevel)
	for _, l := range p.Levels() {
		if l > logrus.WarnLevel {
			t.Fatalf("Levels() included %v above threshold warn", l)
		}
	}
	if len(p.Levels()) == 0 {
		t.Fatal("Levels() should not be empty")
	}
}

func TestAttachRegistersHook(t *testing.T) {
	log := logrus.New()
	var buf bytes.Buffer
	p := NewProgressLogger(&buf, logrus.InfoLevel)
	Attach(log, p)
	log.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("attached hook did not receive entry, buf = %q", buf.String())
	}
}
