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

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/eztimeline/logger"
)

const timeFormat = "2006-01-02T15:04:05.000Z"

// Invocation is a parameterized process call. Args are passed to the process
// as they are, no shell is involved.
type Invocation struct {
	Binary string
	Args   []string
}

// Validate rejects invocations that cannot be passed to a process.
func (inv Invocation) Validate() error {
	if strings.TrimSpace(inv.Binary) == "" {
		return errors.Wrap(ErrInvalidArgument, "empty binary")
	}
	for _, arg := range append([]string{inv.Binary}, inv.Args...) {
		if strings.ContainsRune(arg, 0) {
			return errors.Wrapf(ErrInvalidArgument, "NUL byte in %q", arg)
		}
	}
	return nil
}

// String renders the command line for logs, quoting arguments with spaces.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	for _, p := range append([]string{inv.Binary}, inv.Args...) {
		if strings.ContainsAny(p, " \t\"") {
			p = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// Process records one tool invocation as a STIX 2.1 Process Object. Fields
// outside the STIX vocabulary are custom properties with an x_ prefix.
type Process struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	CommandLine string   `json:"command_line,omitempty"`
	CreatedTime string   `json:"created_time,omitempty"`
	Tool        string   `json:"x_tool"`
	Name        string   `json:"x_name,omitempty"`
	EndTime     string   `json:"x_end_time,omitempty"`
	ReturnCode  int      `json:"x_return_code"`
	OutputPath  string   `json:"x_output_path,omitempty"`
	Rows        int      `json:"x_rows"`
	Status      string   `json:"x_status"`
	Stderr      string   `json:"x_stderr,omitempty"`
	Errors      []string `json:"x_errors,omitempty"`
}

// NewProcess creates a Process record for a tool invocation.
func NewProcess(tool string, inv Invocation) *Process {
	return &Process{
		ID:          "process--" + uuid.New().String(),
		Type:        "process",
		Tool:        tool,
		Name:        inv.Binary,
		CommandLine: inv.String(),
		CreatedTime: time.Now().UTC().Format(timeFormat),
	}
}

// AddError adds an error string to a Process and returns this Process.
func (p *Process) AddError(err string) *Process {
	logger.Debug().Str("tool", p.Tool).Msg(err)
	p.Errors = append(p.Errors, err)
	return p
}

func (p *Process) finish(status ToolStatus) {
	p.Status = string(status)
	p.EndTime = time.Now().UTC().Format(timeFormat)
}
