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
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/eztimeline/sqlar"
	"github.com/forensicanalysis/eztimeline/timelinestore"
)

type memUploader struct {
	objects map[string][]byte
}

func (u *memUploader) Put(_ context.Context, key string, r io.Reader, size int64) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return io.ErrShortWrite
	}
	u.objects[key] = b
	return nil
}

func filledAggregator(t *testing.T, fs afero.Fs, dir string) *Aggregator {
	t.Helper()
	agg := NewAggregator()

	registry := table(t, "HivePath,Description\nNTUSER.DAT,run key\nSYSTEM,service\n")
	require.NoError(t, WriteTable(fs, filepath.Join(dir, RECmd.ResultFile), registry))
	registry.Stamp(ToolColumn, "RECmd")
	agg.Append(registry)

	mft := table(t, "FileName,Created\nevil.exe,2021\n")
	require.NoError(t, WriteTable(fs, filepath.Join(dir, MFTECmd.ResultFile), mft))
	mft.Stamp(ToolColumn, "MFTECmd")
	agg.Append(mft)
	return agg
}

func TestFinalize_NoResults(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := &Finalizer{Fs: fs, Layout: Layout{OutputDir: out}, Store: true, Sqlar: true}

	outcome := f.Finalize(context.Background(), NewAggregator(), nil)
	assert.Equal(t, StateNoResults, outcome.State)
	assert.Empty(t, outcome.ConsolidatedPath)

	for _, name := range []string{ConsolidatedFileName, SummaryFileName, ToolOutputsDirName} {
		exists, _ := afero.Exists(fs, filepath.Join(out, name))
		assert.False(t, exists, name)
	}
}

func TestFinalize(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := Layout{OutputDir: out}
	agg := filledAggregator(t, fs, out)
	uploader := &memUploader{objects: map[string][]byte{}}

	f := &Finalizer{Fs: fs, Layout: layout, RunID: "run-1", Uploader: uploader}
	outcome := f.Finalize(context.Background(), agg, nil)

	assert.Equal(t, StateReportProduced, outcome.State)
	assert.Equal(t, 3, outcome.Rows)
	assert.Equal(t, layout.ConsolidatedFile(), outcome.ConsolidatedPath)
	assert.Equal(t, layout.SummaryFile(), outcome.SummaryPath)
	assert.Equal(t, []SummaryEntry{
		{Tool: "RECmd", KeyFinding: "2 registry-related events detected."},
		{Tool: "MFTECmd", KeyFinding: "File 'evil.exe' was recently created, modified, or deleted."},
	}, outcome.Findings)

	report, err := ReadTable(fs, layout.ConsolidatedFile())
	require.NoError(t, err)
	assert.Equal(t, []string{"HivePath", "Description", ToolColumn, "FileName", "Created"}, report.Columns)
	assert.Equal(t, []string{"RECmd", "RECmd", "MFTECmd"}, report.Column(ToolColumn))

	assert.Equal(t, []string{
		filepath.Join(out, ToolOutputsDirName, RECmd.ResultFile),
		filepath.Join(out, ToolOutputsDirName, MFTECmd.ResultFile),
	}, outcome.ArchivedPaths)
	for _, family := range []Family{RECmd, MFTECmd} {
		exists, _ := afero.Exists(fs, layout.ResultFile(family))
		assert.False(t, exists, family.Name)
	}

	assert.Len(t, uploader.objects, 4)
	assert.Contains(t, uploader.objects, "run-1/System_Behavior_Review.csv")
	assert.Contains(t, uploader.objects, "run-1/Tool_Outputs/RECmd_Results.csv")
	assert.Len(t, outcome.Uploaded, 4)
}

func TestFinalize_NoFindings(t *testing.T) {
	fs := afero.NewMemMapFs()
	agg := NewAggregator()
	jump := table(t, "TargetPath\nx\n")
	jump.Stamp(ToolColumn, "JLECmd")
	agg.Append(jump)
	require.NoError(t, WriteTable(fs, filepath.Join(out, JLECmd.ResultFile), table(t, "TargetPath\nx\n")))

	f := &Finalizer{Fs: fs, Layout: Layout{OutputDir: out}}
	outcome := f.Finalize(context.Background(), agg, nil)
	assert.Equal(t, StateReportProduced, outcome.State)
	assert.Empty(t, outcome.SummaryPath)
	exists, _ := afero.Exists(fs, filepath.Join(out, SummaryFileName))
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, filepath.Join(out, ToolOutputsDirName, JLECmd.ResultFile))
	assert.True(t, exists)
}

func TestFinalize_SqlarAndStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := t.TempDir()
	layout := Layout{OutputDir: dir}
	agg := filledAggregator(t, fs, dir)
	proc := NewProcess("RECmd", Invocation{Binary: "RECmd.exe", Args: []string{"-d", "Registry"}})
	proc.Rows = 2
	proc.finish(StatusOK)

	f := &Finalizer{Fs: fs, Layout: layout, RunID: "run-2", Sqlar: true, Store: true}
	outcome := f.Finalize(context.Background(), agg, []*Process{proc})
	require.Equal(t, layout.SqlarFile(), outcome.SqlarPath)
	require.Equal(t, layout.StoreFile(), outcome.StorePath)

	archive, err := sqlar.Open(outcome.SqlarPath)
	require.NoError(t, err)
	defer archive.Close()
	b, err := archive.ReadFile("Tool_Outputs/RECmd_Results.csv")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("HivePath,Description\n")))

	store, err := timelinestore.New(outcome.StorePath)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, []string{"MFTECmd", "RECmd", FindingsTable, InvocationsTable, RunsTable}, store.Tables())

	n, err := store.Count("RECmd")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := store.Select("RECmd", map[string]string{"HivePath": "SYSTEM"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "service", rows[0]["Description"])
	assert.Equal(t, "run-2", rows[0]["run_id"])

	invocations, err := store.Select(InvocationsTable, nil)
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, "RECmd.exe -d Registry", invocations[0]["command_line"])
	assert.Equal(t, "ok", invocations[0]["status"])

	runs, err := store.Select(RunsTable, nil)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, string(StateReportProduced), runs[0]["state"])
}
