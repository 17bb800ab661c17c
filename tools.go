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
)

// File names of the output directory.
const (
	ConsolidatedFileName = "System_Behavior_Review.csv"
	SummaryFileName      = "Summary_Report.csv"
	ToolOutputsDirName   = "Tool_Outputs"
	ManifestFileName     = "run.json"
	StoreFileName        = "timeline.db"
	SqlarFileName        = "Tool_Outputs.sqlar"
)

// ToolStatus is the outcome of a single tool in a run.
type ToolStatus string

// Tool outcomes.
const (
	StatusSkipped   ToolStatus = "skipped"
	StatusFailed    ToolStatus = "failed"
	StatusNoResults ToolStatus = "no_results"
	StatusOK        ToolStatus = "ok"
	StatusCombined  ToolStatus = "combined"
)

// Layout fixes where a run reads evidence and writes results.
type Layout struct {
	EvidenceRoot string
	OutputDir    string
	BatchFile    string
}

func (l Layout) output(name string) string {
	return filepath.Join(l.OutputDir, name)
}

// ConsolidatedFile is the merged report of all tools.
func (l Layout) ConsolidatedFile() string { return l.output(ConsolidatedFileName) }

// SummaryFile holds the key findings.
func (l Layout) SummaryFile() string { return l.output(SummaryFileName) }

// ToolOutputsDir receives the per-tool result files after a run.
func (l Layout) ToolOutputsDir() string { return l.output(ToolOutputsDirName) }

// ManifestFile describes the last run.
func (l Layout) ManifestFile() string { return l.output(ManifestFileName) }

// StoreFile is the sqlite timeline database.
func (l Layout) StoreFile() string { return l.output(StoreFileName) }

// SqlarFile is the SQLite archive of the per-tool result files.
func (l Layout) SqlarFile() string { return l.output(SqlarFileName) }

// ResultFile is the per-tool consolidated file of a family.
func (l Layout) ResultFile(f Family) string { return l.output(f.ResultFile) }

// Binaries locates the parser executables.
type Binaries struct {
	RECmd   string
	JLECmd  string
	MFTECmd string
}

// Family groups the runs of one parser program. Multi-output families list the
// markers that identify their fragment files.
type Family struct {
	Name            string
	ResultFile      string
	Markers         []string
	RequiredColumns []string
	summarize       func(t *Table) []SummaryEntry
}

// Jump list fragment markers.
const (
	AutomaticDestinations = "AutomaticDestinations"
	CustomDestinations    = "CustomDestinations"
)

// The supported parser families.
var (
	RECmd = Family{ // nolint:gochecknoglobals
		Name:       "RECmd",
		ResultFile: "RECmd_Results.csv",
		summarize:  summarizeRegistry,
	}
	JLECmd = Family{ // nolint:gochecknoglobals
		Name:            "JLECmd",
		ResultFile:      "JLECmd_Results.csv",
		Markers:         []string{AutomaticDestinations, CustomDestinations},
		RequiredColumns: []string{"Path"},
		summarize:       summarizeJumpLists,
	}
	MFTECmd = Family{ // nolint:gochecknoglobals
		Name:            "MFTECmd",
		ResultFile:      "MFTECmd_Results.csv",
		RequiredColumns: []string{"FileName"},
		summarize:       summarizeMFT,
	}
)

// Families returns all families in pipeline order.
func Families() []Family {
	return []Family{RECmd, JLECmd, MFTECmd}
}

// ToolSpec is one planned parser run.
type ToolSpec struct {
	Name       string
	Family     Family
	Requires   Category
	Invocation Invocation
	OutputFile string
	// Fragment results are also folded into one family file by the combiner.
	Fragment bool
	// Needs lists additional input files that must exist.
	Needs []string
}

// Plan returns the tool runs in their fixed order: RECmd, the JLECmd runs per
// fragment marker, MFTECmd.
func Plan(layout Layout, bins Binaries) []ToolSpec {
	out := layout.OutputDir
	registry := filepath.Join(layout.EvidenceRoot, "Registry")
	jumpLists := filepath.Join(layout.EvidenceRoot, "JumpLists")
	mft := filepath.Join(layout.EvidenceRoot, "FileSystem", "$MFT")

	specs := []ToolSpec{{
		Name:     RECmd.Name,
		Family:   RECmd,
		Requires: Registry,
		Invocation: Invocation{Binary: bins.RECmd, Args: []string{
			"-d", registry, "--bn", layout.BatchFile, "--csv", out, "--csvf", RECmd.ResultFile,
		}},
		OutputFile: layout.ResultFile(RECmd),
		Needs:      []string{layout.BatchFile},
	}}

	for _, marker := range JLECmd.Markers {
		name := "JumpLists_" + marker + ".csv"
		specs = append(specs, ToolSpec{
			Name:     JLECmd.Name + " (" + marker + ")",
			Family:   JLECmd,
			Requires: JumpLists,
			Invocation: Invocation{Binary: bins.JLECmd, Args: []string{
				"-d", jumpLists, "--csv", out, "--csvf", name,
			}},
			OutputFile: filepath.Join(out, name),
			Fragment:   true,
		})
	}

	specs = append(specs, ToolSpec{
		Name:     MFTECmd.Name,
		Family:   MFTECmd,
		Requires: MFT,
		Invocation: Invocation{Binary: bins.MFTECmd, Args: []string{
			"-f", mft, "--csv", out, "--csvf", MFTECmd.ResultFile,
		}},
		OutputFile: layout.ResultFile(MFTECmd),
	})
	return specs
}
