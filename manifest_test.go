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
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := Layout{EvidenceRoot: "/case/ev", OutputDir: out}
	m := NewManifest("run-3", layout)
	m.Artifacts = Locate(fs, layout.EvidenceRoot)
	m.skip("RECmd", "Registry not found, skipping")

	proc := NewProcess("MFTECmd", Invocation{Binary: "MFTECmd.exe"})
	proc.ReturnCode = 1
	proc.AddError("exit code 1").finish(StatusFailed)
	m.process(proc)
	m.combined("JLECmd", nil)
	m.finish(&Outcome{State: StateNoResults})

	name := filepath.Join(out, ManifestFileName)
	require.NoError(t, WriteManifest(fs, name, m))

	got, err := ReadManifest(fs, name)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Equal(t, []ToolRecord{
		{Name: "RECmd", Status: StatusSkipped, Reason: "Registry not found, skipping"},
		{Name: "MFTECmd", Status: StatusFailed, ExitCode: 1, Reason: "exit code 1", ProcessID: proc.ID},
		{Name: "JLECmd", Status: StatusNoResults, Reason: "no fragments"},
	}, got.Tools)

	b, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	state, err := ManifestState(b)
	require.NoError(t, err)
	assert.Equal(t, StateNoResults, state)

	status, ok := ManifestTool(b, "MFTECmd")
	assert.True(t, ok)
	assert.Equal(t, StatusFailed, status)
	_, ok = ManifestTool(b, "EvtxECmd")
	assert.False(t, ok)
}

func TestManifestState(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    State
		wantErr bool
	}{
		{"produced", `{"state": "report produced"}`, StateReportProduced, false},
		{"no state", `{"run_id": "x"}`, "", true},
		{"invalid", `{"state": `, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ManifestState([]byte(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadManifest_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/run.json", []byte("{"), 0644))
	_, err := ReadManifest(fs, "/run.json")
	assert.ErrorIs(t, err, ErrParse)
}
