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
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// ToolRecord is the manifest entry of one planned tool run or combine step.
type ToolRecord struct {
	Name      string     `json:"name"`
	Status    ToolStatus `json:"status"`
	Rows      int        `json:"rows"`
	ExitCode  int        `json:"exit_code"`
	Reason    string     `json:"reason,omitempty"`
	ProcessID string     `json:"process_id,omitempty"`
}

// Manifest is the machine readable record of a run, written to run.json.
type Manifest struct {
	RunID        string       `json:"run_id"`
	Started      string       `json:"started"`
	Ended        string       `json:"ended,omitempty"`
	State        State        `json:"state,omitempty"`
	EvidenceRoot string       `json:"evidence_root"`
	OutputDir    string       `json:"output_dir"`
	Artifacts    ArtifactSet  `json:"artifacts"`
	Tools        []ToolRecord `json:"tools"`
	Rows         int          `json:"rows"`
	Findings     int          `json:"findings"`
	Files        []string     `json:"files,omitempty"`
}

// NewManifest starts the manifest of a run.
func NewManifest(runID string, layout Layout) *Manifest {
	return &Manifest{
		RunID:        runID,
		Started:      time.Now().UTC().Format(timeFormat),
		EvidenceRoot: layout.EvidenceRoot,
		OutputDir:    layout.OutputDir,
		Tools:        []ToolRecord{},
	}
}

func (m *Manifest) skip(name, reason string) {
	m.Tools = append(m.Tools, ToolRecord{Name: name, Status: StatusSkipped, Reason: reason})
}

func (m *Manifest) process(proc *Process) {
	record := ToolRecord{
		Name:      proc.Tool,
		Status:    ToolStatus(proc.Status),
		Rows:      proc.Rows,
		ExitCode:  proc.ReturnCode,
		ProcessID: proc.ID,
	}
	if len(proc.Errors) > 0 {
		record.Reason = proc.Errors[len(proc.Errors)-1]
	}
	m.Tools = append(m.Tools, record)
}

func (m *Manifest) combined(name string, t *Table) {
	record := ToolRecord{Name: name, Status: StatusCombined, Rows: t.Len()}
	if t == nil {
		record.Status = StatusNoResults
		record.Reason = "no fragments"
	}
	m.Tools = append(m.Tools, record)
}

func (m *Manifest) finish(outcome *Outcome) {
	m.Ended = time.Now().UTC().Format(timeFormat)
	m.State = outcome.State
	m.Rows = outcome.Rows
	m.Findings = len(outcome.Findings)
	for _, name := range []string{outcome.ConsolidatedPath, outcome.SummaryPath, outcome.SqlarPath, outcome.StorePath} {
		if name != "" {
			m.Files = append(m.Files, name)
		}
	}
	m.Files = append(m.Files, outcome.ArchivedPaths...)
}

// WriteManifest stores m as indented json.
func WriteManifest(fs afero.Fs, name string, m *Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, name, b, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(fs afero.Fs, name string) (*Manifest, error) {
	b, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := json.Unmarshal(b, m); err != nil {
		return nil, errors.Wrapf(ErrParse, "%s: %s", name, err)
	}
	return m, nil
}

// ManifestState extracts the terminal state from raw manifest json.
func ManifestState(b []byte) (State, error) {
	if !gjson.ValidBytes(b) {
		return "", errors.Wrap(ErrParse, "invalid manifest json")
	}
	state := gjson.GetBytes(b, "state")
	if !state.Exists() {
		return "", errors.Wrap(ErrParse, "manifest has no state")
	}
	return State(state.String()), nil
}

// ManifestTool returns the status of a tool from raw manifest json.
func ManifestTool(b []byte, name string) (ToolStatus, bool) {
	result := gjson.GetBytes(b, `tools.#(name=="`+name+`").status`)
	return ToolStatus(result.String()), result.Exists()
}
