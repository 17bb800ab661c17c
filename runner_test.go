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
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner writes canned CSV output to the file named by --csv/--csvf.
type fakeRunner struct {
	fs      afero.Fs
	outputs map[string]string // csvf name -> content
	exit    map[string]int    // csvf name -> exit code
	fail    map[string]error  // csvf name -> start error
	calls   []Invocation
}

func newFakeRunner(fs afero.Fs) *fakeRunner {
	return &fakeRunner{fs: fs, outputs: map[string]string{}, exit: map[string]int{}, fail: map[string]error{}}
}

func (r *fakeRunner) Run(_ context.Context, inv Invocation, stdout, stderr io.Writer) (int, error) {
	r.calls = append(r.calls, inv)
	var dir, name string
	for i := 0; i+1 < len(inv.Args); i++ {
		switch inv.Args[i] {
		case "--csv":
			dir = inv.Args[i+1]
		case "--csvf":
			name = inv.Args[i+1]
		}
	}
	if err := r.fail[name]; err != nil {
		return -1, err
	}
	if code := r.exit[name]; code != 0 {
		io.WriteString(stderr, "something went wrong") // nolint:errcheck
		return code, nil
	}
	io.WriteString(stdout, "processed") // nolint:errcheck
	if content, ok := r.outputs[name]; ok {
		if err := afero.WriteFile(r.fs, filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return -1, err
		}
	}
	return 0, nil
}

func testTool(out string) ToolSpec {
	return ToolSpec{
		Name:       "MFTECmd",
		Family:     MFTECmd,
		Requires:   MFT,
		Invocation: Invocation{Binary: "MFTECmd.exe", Args: []string{"-f", "$MFT", "--csv", out, "--csvf", "MFTECmd_Results.csv"}},
		OutputFile: filepath.Join(out, "MFTECmd_Results.csv"),
	}
}

func TestToolRunner_Run(t *testing.T) {
	out := filepath.Join("/case", "out")
	tests := []struct {
		name       string
		prepare    func(r *fakeRunner)
		tool       func() ToolSpec
		wantRows   int
		wantStatus ToolStatus
		wantAgg    int
	}{
		{"ok", func(r *fakeRunner) {
			r.outputs["MFTECmd_Results.csv"] = "FileName,Created\na.txt,2021\nb.txt,2022\n"
		}, func() ToolSpec { return testTool(out) }, 2, StatusOK, 1},
		{"non-zero exit", func(r *fakeRunner) {
			r.outputs["MFTECmd_Results.csv"] = "FileName\na.txt\n"
			r.exit["MFTECmd_Results.csv"] = 3
		}, func() ToolSpec { return testTool(out) }, 0, StatusFailed, 0},
		{"start error", func(r *fakeRunner) {
			r.fail["MFTECmd_Results.csv"] = errors.New("executable file not found")
		}, func() ToolSpec { return testTool(out) }, 0, StatusFailed, 0},
		{"missing output", func(r *fakeRunner) {}, func() ToolSpec { return testTool(out) }, 0, StatusNoResults, 0},
		{"empty output", func(r *fakeRunner) {
			r.outputs["MFTECmd_Results.csv"] = ""
		}, func() ToolSpec { return testTool(out) }, 0, StatusNoResults, 0},
		{"header only", func(r *fakeRunner) {
			r.outputs["MFTECmd_Results.csv"] = "FileName,Created\n"
		}, func() ToolSpec { return testTool(out) }, 0, StatusNoResults, 0},
		{"malformed output", func(r *fakeRunner) {
			r.outputs["MFTECmd_Results.csv"] = "FileName\na,b\n"
		}, func() ToolSpec { return testTool(out) }, 0, StatusNoResults, 0},
		{"empty binary", func(r *fakeRunner) {}, func() ToolSpec {
			tool := testTool(out)
			tool.Invocation.Binary = ""
			return tool
		}, 0, StatusFailed, 0},
		{"fragment", func(r *fakeRunner) {
			r.outputs["MFTECmd_Results.csv"] = "FileName\na.txt\n"
		}, func() ToolSpec {
			tool := testTool(out)
			tool.Fragment = true
			return tool
		}, 1, StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll(out, 0755))
			commands := newFakeRunner(fs)
			tt.prepare(commands)
			agg := NewAggregator()

			runner := &ToolRunner{Fs: fs, Commands: commands, SpoolDir: t.TempDir()}
			table, proc := runner.Run(context.Background(), tt.tool(), agg)

			assert.Equal(t, tt.wantRows, table.Len())
			assert.Equal(t, string(tt.wantStatus), proc.Status)
			assert.Equal(t, tt.wantAgg, agg.Len())
			assert.NotEmpty(t, proc.EndTime)
			if tt.wantStatus == StatusOK {
				assert.Equal(t, []string{"MFTECmd"}, unique(table.Column(ToolColumn)))
				assert.Equal(t, tt.wantRows, proc.Rows)
			} else {
				assert.Nil(t, table)
				assert.NotEmpty(t, proc.Errors)
			}
		})
	}
}

func TestToolRunner_FailureKeepsStderr(t *testing.T) {
	fs := afero.NewMemMapFs()
	commands := newFakeRunner(fs)
	commands.exit["MFTECmd_Results.csv"] = 2

	runner := &ToolRunner{Fs: fs, Commands: commands, SpoolDir: t.TempDir()}
	_, proc := runner.Run(context.Background(), testTool("/out"), NewAggregator())
	assert.Equal(t, 2, proc.ReturnCode)
	assert.Equal(t, "something went wrong", proc.Stderr)
	assert.Contains(t, proc.Errors[0], "exit code 2")
}

func TestLoadResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/ok.csv", []byte("A\n1\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/empty.csv", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/header.csv", []byte("A,B\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/bad.csv", []byte("A\n1,2\n"), 0644))

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{"ok", "/out/ok.csv", nil},
		{"missing", "/out/missing.csv", ErrNoResults},
		{"empty", "/out/empty.csv", ErrNoResults},
		{"header only", "/out/header.csv", ErrNoResults},
		{"malformed", "/out/bad.csv", ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := LoadResult(fs, tt.file)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, table)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 1, table.Len())
		})
	}
}

func unique(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
