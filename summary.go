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
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/qri-io/jsonschema"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/eztimeline/logger"
)

const (
	// KeyFindingColumn is the second column of the summary report.
	KeyFindingColumn = "Key Finding"
	maxFindings      = 5
)

// SummaryEntry is one human readable fact derived from a tool's results.
type SummaryEntry struct {
	Tool       string `json:"tool"`
	KeyFinding string `json:"key_finding"`
}

// Summarize reads the per-tool result files in outputDir and derives the key
// findings of every family in order. A family whose file is missing is
// skipped, a family whose file cannot be read or lacks required columns is
// logged and skipped.
func Summarize(fs afero.Fs, outputDir string, families []Family) []SummaryEntry {
	var entries []SummaryEntry
	for _, family := range families {
		name := filepath.Join(outputDir, family.ResultFile)
		if exists, _ := afero.Exists(fs, name); !exists {
			continue
		}
		found, err := SummarizeFamily(fs, name, family)
		if err != nil {
			logger.Error().Str("tool", family.Name).Str("file", filepath.Base(name)).Err(err).Msg("failed to summarize results")
			continue
		}
		entries = append(entries, found...)
	}
	return entries
}

// SummarizeFamily derives the key findings from a single result file.
func SummarizeFamily(fs afero.Fs, name string, family Family) ([]SummaryEntry, error) {
	t, err := ReadTable(fs, name)
	if err != nil {
		return nil, err
	}
	if err := ValidateColumns(t, family.RequiredColumns); err != nil {
		return nil, errors.Wrap(err, family.Name)
	}
	if family.summarize == nil {
		return nil, nil
	}
	return family.summarize(t), nil
}

// ValidateColumns checks the header of t against a JSON schema that requires
// the given columns.
func ValidateColumns(t *Table, required []string) error {
	if len(required) == 0 {
		return nil
	}
	schema, err := columnSchema(required)
	if err != nil {
		return err
	}

	header := make(map[string]string, len(t.Columns))
	for _, column := range t.Columns {
		header[column] = ""
	}
	b, err := json.Marshal(header)
	if err != nil {
		return err
	}

	keyErrs, err := schema.ValidateBytes(context.Background(), b)
	if err != nil {
		return err
	}
	if len(keyErrs) > 0 {
		return errors.Wrap(ErrMissingColumn, keyErrs[0].Error())
	}
	return nil
}

func columnSchema(required []string) (*jsonschema.Schema, error) {
	b, err := json.Marshal(map[string]interface{}{
		"type":     "object",
		"required": required,
	})
	if err != nil {
		return nil, err
	}
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(b, schema); err != nil {
		return nil, errors.Wrap(err, "could not build column schema")
	}
	return schema, nil
}

func summarizeRegistry(t *Table) []SummaryEntry {
	if t.Len() == 0 {
		return nil
	}
	return []SummaryEntry{{
		Tool:       "RECmd",
		KeyFinding: fmt.Sprintf("%d registry-related events detected.", t.Len()),
	}}
}

// summarizeJumpLists counts accesses per path. Ties keep the order in which
// the paths first appear; rows without a path are not counted.
func summarizeJumpLists(t *Table) []SummaryEntry {
	counts := map[string]int{}
	var paths []string
	for _, p := range t.Column("Path") {
		if p == "" {
			continue
		}
		if _, ok := counts[p]; !ok {
			paths = append(paths, p)
		}
		counts[p]++
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return counts[paths[i]] > counts[paths[j]]
	})
	if len(paths) > maxFindings {
		paths = paths[:maxFindings]
	}

	entries := make([]SummaryEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, SummaryEntry{
			Tool:       "JLECmd",
			KeyFinding: fmt.Sprintf("File '%s' accessed %d times.", p, counts[p]),
		})
	}
	return entries
}

func summarizeMFT(t *Table) []SummaryEntry {
	records := t.Records
	if len(records) > maxFindings {
		records = records[:maxFindings]
	}
	entries := make([]SummaryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, SummaryEntry{
			Tool:       "MFTECmd",
			KeyFinding: fmt.Sprintf("File '%s' was recently created, modified, or deleted.", r.Get("FileName")),
		})
	}
	return entries
}

// SummaryTable converts findings into the two column summary report.
func SummaryTable(entries []SummaryEntry) *Table {
	t := &Table{Columns: []string{ToolColumn, KeyFindingColumn}}
	for _, e := range entries {
		r := NewRecord()
		r.Set(ToolColumn, e.Tool)
		r.Set(KeyFindingColumn, e.KeyFinding)
		t.Records = append(t.Records, r)
	}
	return t
}
