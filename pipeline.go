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

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/eztimeline/logger"
)

// Pipeline runs the parser families against an evidence root and finalizes
// their results.
type Pipeline struct {
	Fs       afero.Fs
	Commands CommandRunner
	Layout   Layout
	Binaries Binaries

	// Optional finalizer features.
	Sqlar    bool
	Store    bool
	Uploader Uploader

	// SpoolDir receives spill files of large tool output.
	SpoolDir string
}

// Run executes one pipeline run. Tool failures never fail the run; only an
// unusable output directory does.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	if p.Layout.OutputDir == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "output directory not set")
	}
	if err := p.Fs.MkdirAll(p.Layout.OutputDir, 0750); err != nil {
		return nil, errors.Wrapf(err, "could not create output directory %s", p.Layout.OutputDir)
	}

	runID := uuid.New().String()
	manifest := NewManifest(runID, p.Layout)
	logger.Info().Str("run", runID).Str("evidence", p.Layout.EvidenceRoot).Str("output", p.Layout.OutputDir).Msg("starting run")

	artifacts := Locate(p.Fs, p.Layout.EvidenceRoot)
	manifest.Artifacts = artifacts
	for _, c := range Categories {
		logger.Debug().Str("category", string(c)).Str("path", artifacts.Path(c)).Bool("present", artifacts.Present(c)).Msg("artifact")
	}
	if !artifacts.Any() {
		logger.Warn().Str("evidence", p.Layout.EvidenceRoot).Msg("no artifacts found")
	}

	agg := NewAggregator()
	runner := &ToolRunner{Fs: p.Fs, Commands: p.Commands, SpoolDir: p.SpoolDir}
	var procs []*Process

	specs := Plan(p.Layout, p.Binaries)
	for i, spec := range specs {
		if reason, ok := p.gate(spec, artifacts); !ok {
			logger.Info().Str("tool", spec.Name).Msg(reason)
			manifest.skip(spec.Name, reason)
		} else {
			_, proc := runner.Run(ctx, spec, agg)
			procs = append(procs, proc)
			manifest.process(proc)
		}

		if lastFragment(specs, i) && artifacts.Present(spec.Requires) {
			table := CombineFamily(p.Fs, p.Layout.OutputDir, spec.Family, agg)
			manifest.combined(spec.Family.Name, table)
		}
	}

	finalizer := &Finalizer{
		Fs:       p.Fs,
		Layout:   p.Layout,
		RunID:    runID,
		Sqlar:    p.Sqlar,
		Store:    p.Store,
		Uploader: p.Uploader,
	}
	outcome := finalizer.Finalize(ctx, agg, procs)

	manifest.finish(outcome)
	if err := WriteManifest(p.Fs, p.Layout.ManifestFile(), manifest); err != nil {
		logger.Error().Err(err).Msg("could not write run manifest")
	}
	logger.Info().Str("run", runID).Str("state", string(outcome.State)).Int("rows", outcome.Rows).Msg("run finished")
	return outcome, nil
}

// gate decides whether a tool may run and gives the reason if not.
func (p *Pipeline) gate(spec ToolSpec, artifacts ArtifactSet) (string, bool) {
	if !artifacts.Present(spec.Requires) {
		return string(spec.Requires) + " not found, skipping", false
	}
	for _, need := range spec.Needs {
		if exists, _ := afero.Exists(p.Fs, need); !exists {
			return need + " not found, skipping", false
		}
	}
	return "", true
}

// lastFragment reports whether specs[i] is the final fragment run of its family.
func lastFragment(specs []ToolSpec, i int) bool {
	if !specs[i].Fragment {
		return false
	}
	return i+1 == len(specs) || !specs[i+1].Fragment || specs[i+1].Family.Name != specs[i].Family.Name
}
