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

package session

import (
	"os"
	"testing"
)

func TestOpenCloseRestoresEnv(t *testing.T) {
	const key = "CUDEM_SESSION_TEST_OPT"
	os.Setenv(key, "before")
	defer os.Unsetenv(key)

	s, err := Open(Options{GDALConfig: map[string]string{key: "after"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(key); got != "after" {
		t.Fatalf("env during session = %q, want after", got)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(key); got != "before" {
		t.Fatalf("env after close = %q, want before", got)
	}
}

func TestOpenCloseRestoresUnsetEnv(t *testing.T) {
	const key = "CUDEM_SESSION_TEST_UNSET"
	os.Unsetenv(key)

	s, err := Open(Options{GDALConfig: map[string]string{key: "set"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := os.LookupEnv(key); ok {
		t.Fatalf("env %s should be unset after close", key)
	}
}

func TestAcquireTempReleaseRemovesFile(t *testing.T) {
	s, err := Open(Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	path, release, err := s.AcquireTemp("scratch", ".tmp")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed after release, stat err = %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}
