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
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/eztimeline/logger"
	"github.com/forensicanalysis/eztimeline/sqlar"
	"github.com/forensicanalysis/eztimeline/timelinestore"
)

// State is the terminal state of a run.
type State string

// Terminal states.
const (
	StateReportProduced State = "report produced"
	StateNoResults      State = "no results generated"
)

// Store tables used for run metadata.
const (
	FindingsTable    = "findings"
	InvocationsTable = "invocations"
	RunsTable        = "runs"
)

// Outcome describes what a run left in the output directory.
type Outcome struct {
	RunID            string
	State            State
	ConsolidatedPath string
	SummaryPath      string
	ArchivedPaths    []string
	SqlarPath        string
	StorePath        string
	Uploaded         []string
	Rows             int
	Findings         []SummaryEntry
	Processes        []*Process
}

// Uploader stores finalized files remotely.
type Uploader interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
}

// Finalizer persists the aggregated results of a run.
type Finalizer struct {
	Fs       afero.Fs
	Layout   Layout
	Families []Family
	RunID    string

	// Sqlar packs the archived tool outputs into a sqlite archive. The archive
	// and the store are sqlite files and are always created on the OS
	// filesystem at the layout's paths.
	Sqlar bool
	// Store writes rows, findings and invocations to the timeline database.
	Store bool
	// Uploader receives the report files when set.
	Uploader Uploader
}

type runRecord struct {
	RunID    string
	State    string
	Ended    string
	Rows     int
	Findings int
}

// Finalize writes the consolidated report and the summary and archives the
// per-tool files. An empty aggregator writes nothing.
func (f *Finalizer) Finalize(ctx context.Context, agg *Aggregator, procs []*Process) *Outcome {
	outcome := &Outcome{RunID: f.RunID, State: StateNoResults, Processes: procs}

	report, ok := agg.Flatten()
	if !ok {
		logger.Warn().Msg("no results generated")
		return outcome
	}

	consolidated := f.Layout.ConsolidatedFile()
	if err := WriteTable(f.Fs, consolidated, report); err != nil {
		logger.Error().Err(err).Str("file", consolidated).Msg("could not write consolidated report")
		return outcome
	}
	outcome.State = StateReportProduced
	outcome.ConsolidatedPath = consolidated
	outcome.Rows = report.Len()
	logger.Info().Str("file", consolidated).Int("rows", report.Len()).Msg("consolidated report written")

	f.summarize(outcome)
	f.archive(outcome)

	if f.Sqlar {
		f.pack(outcome)
	}
	if f.Store {
		f.store(agg, outcome)
	}
	if f.Uploader != nil {
		f.upload(ctx, outcome)
	}
	return outcome
}

func (f *Finalizer) families() []Family {
	if f.Families == nil {
		return Families()
	}
	return f.Families
}

func (f *Finalizer) summarize(outcome *Outcome) {
	entries := Summarize(f.Fs, f.Layout.OutputDir, f.families())
	outcome.Findings = entries
	if len(entries) == 0 {
		logger.Info().Msg("no key findings")
		return
	}

	summary := f.Layout.SummaryFile()
	if err := WriteTable(f.Fs, summary, SummaryTable(entries)); err != nil {
		logger.Error().Err(err).Str("file", summary).Msg("could not write summary")
		return
	}
	outcome.SummaryPath = summary
	logger.Info().Str("file", summary).Int("findings", len(entries)).Msg("summary written")
}

// archive moves every existing per-tool file into the tool outputs directory.
func (f *Finalizer) archive(outcome *Outcome) {
	dir := f.Layout.ToolOutputsDir()
	if err := f.Fs.MkdirAll(dir, 0750); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("could not create tool outputs directory")
	}

	for _, family := range f.families() {
		src := f.Layout.ResultFile(family)
		if exists, _ := afero.Exists(f.Fs, src); !exists {
			continue
		}
		dst := filepath.Join(dir, family.ResultFile)
		if err := f.Fs.Rename(src, dst); err != nil {
			logger.Error().Err(err).Str("file", src).Msg("could not move tool output")
			continue
		}
		outcome.ArchivedPaths = append(outcome.ArchivedPaths, dst)
		logger.Debug().Str("file", dst).Msg("tool output archived")
	}
}

func (f *Finalizer) pack(outcome *Outcome) {
	if len(outcome.ArchivedPaths) == 0 {
		return
	}
	url := f.Layout.SqlarFile()
	if err := os.MkdirAll(filepath.Dir(url), 0750); err != nil {
		logger.Error().Err(err).Str("file", url).Msg("could not create archive")
		return
	}
	archive, err := sqlar.Open(url)
	if err != nil {
		logger.Error().Err(err).Str("file", url).Msg("could not create archive")
		return
	}
	defer archive.Close()

	for _, p := range outcome.ArchivedPaths {
		name := path.Join(ToolOutputsDirName, filepath.Base(p))
		if err := archive.AddFile(f.Fs, p, name); err != nil {
			logger.Error().Err(err).Str("file", p).Msg("could not pack tool output")
			return
		}
	}
	outcome.SqlarPath = url
	logger.Info().Str("file", url).Int("files", len(outcome.ArchivedPaths)).Msg("tool outputs packed")
}

func (f *Finalizer) store(agg *Aggregator, outcome *Outcome) {
	url := f.Layout.StoreFile()
	store, err := timelinestore.New(url)
	if err != nil {
		logger.Error().Err(err).Str("file", url).Msg("could not open timeline store")
		return
	}
	defer store.Close()

	if err := insertRun(store, agg, outcome); err != nil {
		logger.Error().Err(err).Str("file", url).Msg("could not write timeline store")
		return
	}
	outcome.StorePath = url
	logger.Info().Str("file", url).Msg("timeline store written")
}

func insertRun(store *timelinestore.Store, agg *Aggregator, outcome *Outcome) error {
	for _, t := range agg.Tables() {
		tool := t.Records[0].Tool
		items := make([]timelinestore.Item, 0, t.Len())
		for _, r := range t.Records {
			item := r.Map(t.Columns)
			if outcome.RunID != "" {
				item["run_id"] = outcome.RunID
			}
			items = append(items, item)
		}
		if _, err := store.InsertBatch(tool, items); err != nil {
			return errors.Wrapf(err, "insert %s", tool)
		}
	}

	findings := make([]interface{}, 0, len(outcome.Findings))
	for _, entry := range outcome.Findings {
		findings = append(findings, entry)
	}
	if _, err := store.InsertStructBatch(FindingsTable, findings); err != nil {
		return errors.Wrap(err, "insert findings")
	}

	procs := make([]interface{}, 0, len(outcome.Processes))
	for _, proc := range outcome.Processes {
		validateProcess(proc)
		procs = append(procs, *proc)
	}
	if _, err := store.InsertStructBatch(InvocationsTable, procs); err != nil {
		return errors.Wrap(err, "insert invocations")
	}

	_, err := store.InsertStruct(RunsTable, runRecord{
		RunID:    outcome.RunID,
		State:    string(outcome.State),
		Ended:    time.Now().UTC().Format(timeFormat),
		Rows:     outcome.Rows,
		Findings: len(outcome.Findings),
	})
	return errors.Wrap(err, "insert run")
}

// validateProcess logs STIX schema flaws of an invocation record. Flawed
// records are stored anyway.
func validateProcess(proc *Process) {
	flaws, err := proc.Validate()
	if err != nil {
		logger.Error().Str("tool", proc.Tool).Err(err).Msg("could not validate invocation")
		return
	}
	for _, flaw := range flaws {
		logger.Warn().Str("tool", proc.Tool).Str("id", proc.ID).Msg(flaw)
	}
}

func (f *Finalizer) upload(ctx context.Context, outcome *Outcome) {
	files := []string{outcome.ConsolidatedPath}
	if outcome.SummaryPath != "" {
		files = append(files, outcome.SummaryPath)
	}
	files = append(files, outcome.ArchivedPaths...)

	for _, name := range files {
		rel, err := filepath.Rel(f.Layout.OutputDir, name)
		if err != nil {
			rel = filepath.Base(name)
		}
		key := path.Join(outcome.RunID, filepath.ToSlash(rel))
		if err := f.put(ctx, name, key); err != nil {
			logger.Error().Err(err).Str("file", name).Msg("upload failed")
			continue
		}
		outcome.Uploaded = append(outcome.Uploaded, key)
	}
	logger.Info().Int("files", len(outcome.Uploaded)).Msg("results uploaded")
}

func (f *Finalizer) put(ctx context.Context, name, key string) error {
	file, err := f.Fs.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	return f.Uploader.Put(ctx, key, file, info.Size())
}
