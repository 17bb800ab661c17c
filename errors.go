// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package eztimeline

import "github.com/pkg/errors"

var (
	// ErrToolFailed is returned when a parser exits with a non-zero status or
	// cannot be started.
	ErrToolFailed = errors.New("tool failed")
	// ErrNoResults marks a missing, empty or header-only output file.
	ErrNoResults = errors.New("no results generated")
	// ErrParse marks an output file that cannot be read as CSV.
	ErrParse = errors.New("could not parse output")
	// ErrMissingColumn marks a tool output without a column a summary needs.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidArgument marks an invocation argument that cannot be passed to a process.
	ErrInvalidArgument = errors.New("invalid argument")
)
