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

// Package errs defines the categorized error kinds shared across the
// ingest, stacking and interpolation pipeline.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error for callers that branch on failure class
// rather than on message text.
type Kind int

const (
	// Config marks an invalid region spec, unknown format id, or missing
	// required field.
	Config Kind = iota
	// IO marks a source not found, empty file, or unreadable raster.
	IO
	// Parse marks a malformed datalist line, inf JSON, or corrupt header.
	Parse
	// Transform marks a CRS transform that could not be constructed or applied.
	Transform
	// ExternalTool marks a non-zero exit from a shelled-out gridding tool.
	ExternalTool
	// Convergence marks an uncertainty fit that did not stabilize.
	Convergence
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case IO:
		return "io"
	case Parse:
		return "parse"
	case Transform:
		return "transform"
	case ExternalTool:
		return "external_tool"
	case Convergence:
		return "convergence"
	default:
		return "unknown"
	}
}

// Error is a categorized, path/operation-annotated error. §7 requires
// errors to include source path and operation; warnings are categorized
// but not numbered, which Kind satisfies without a registry.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a categorized Error.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Wrap is New with fmt.Errorf-style message formatting for the wrapped cause.
func Wrap(kind Kind, op, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
