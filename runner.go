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
	"os/exec"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/eztimeline/logger"
	"github.com/forensicanalysis/eztimeline/spooled"
)

const (
	defaultSpoolSize = 1 << 20
	stderrTail       = 4096
)

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, inv Invocation, stdout, stderr io.Writer) (exitCode int, err error)
}

// ExecRunner starts real processes.
type ExecRunner struct {
	WorkDir string
}

// Run executes the invocation and waits for it to exit. A non-zero exit code
// is not an error; err is only set if the process could not be run.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...) // #nosec
	cmd.Dir = r.WorkDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// ToolRunner runs single parser invocations and loads their output.
type ToolRunner struct {
	Fs       afero.Fs
	Commands CommandRunner
	// SpoolDir receives spill files for large process output.
	SpoolDir string
	// SpoolSize is the in-memory limit for captured output.
	SpoolSize int64
}

// Run executes the tool and loads its output file. Every failure resolves to a
// nil table; the returned Process describes what happened. Successful results
// are appended to agg.
func (r *ToolRunner) Run(ctx context.Context, tool ToolSpec, agg *Aggregator) (*Table, *Process) {
	proc := NewProcess(tool.Name, tool.Invocation)
	proc.OutputPath = tool.OutputFile
	logger.Info().Str("tool", tool.Name).Msg("running")

	if err := tool.Invocation.Validate(); err != nil {
		logger.Error().Str("tool", tool.Name).Err(err).Msg("invalid invocation")
		proc.AddError(err.Error()).finish(StatusFailed)
		return nil, proc
	}

	size := r.SpoolSize
	if size <= 0 {
		size = defaultSpoolSize
	}
	stdout := spooled.New(size, r.SpoolDir)
	defer stdout.Close() // nolint:errcheck
	stderr := spooled.New(size, r.SpoolDir)
	defer stderr.Close() // nolint:errcheck

	code, err := r.Commands.Run(ctx, tool.Invocation, stdout, stderr)
	proc.ReturnCode = code
	proc.Stderr, _ = stderr.Tail(stderrTail)
	if err != nil {
		err = errors.Wrap(ErrToolFailed, err.Error())
		logger.Error().Str("tool", tool.Name).Err(err).Msg("tool failed")
		proc.AddError(err.Error()).finish(StatusFailed)
		return nil, proc
	}
	if code != 0 {
		err = errors.Wrapf(ErrToolFailed, "exit code %d", code)
		logger.Error().Str("tool", tool.Name).Int("exit_code", code).Str("stderr", proc.Stderr).Msg("tool failed")
		proc.AddError(err.Error()).finish(StatusFailed)
		return nil, proc
	}
	if out, _ := stdout.Tail(stderrTail); out != "" {
		logger.Debug().Str("tool", tool.Name).Str("stdout", out).Msg("tool output")
	}

	table, err := LoadResult(r.Fs, tool.OutputFile)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			logger.Warn().Str("tool", tool.Name).Str("file", tool.OutputFile).Msg("generated no results")
		} else {
			logger.Error().Str("tool", tool.Name).Err(err).Msg("could not load results")
		}
		proc.AddError(err.Error()).finish(StatusNoResults)
		return nil, proc
	}

	table.Stamp(ToolColumn, tool.Name)
	if agg != nil {
		agg.Append(table)
	}
	proc.Rows = table.Len()
	proc.finish(StatusOK)
	logger.Info().Str("tool", tool.Name).Str("file", tool.OutputFile).Int("rows", table.Len()).Msg("results captured")
	return table, proc
}

// LoadResult reads a tool output file. Missing, zero byte and header-only
// files yield ErrNoResults, unreadable files ErrParse.
func LoadResult(fs afero.Fs, name string) (*Table, error) {
	info, err := fs.Stat(name)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNoResults, "%s does not exist", name)
	}
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, errors.Wrapf(ErrNoResults, "%s is empty", name)
	}

	table, err := ReadTable(fs, name)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, errors.Wrapf(ErrNoResults, "%s has no rows", name)
	}
	return table, nil
}
