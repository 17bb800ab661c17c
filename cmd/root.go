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

// Package cmd provides the subcommands of the eztimeline command line tool.
package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/eztimeline"
	"github.com/forensicanalysis/eztimeline/config"
	"github.com/forensicanalysis/eztimeline/logger"
)

// AddGlobalFlags registers the flags every subcommand understands.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "config file (default ./eztimeline.yaml)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringP("output", "o", "", "output directory")
}

// loadConfig reads the configuration, applies the global flags and sets up
// logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug, _ = cmd.Flags().GetBool("debug")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output")
	}
	logger.Init(cmd.ErrOrStderr(), cfg.LogLevel, cfg.Debug)
	return cfg, nil
}

func layout(cfg *config.Config) eztimeline.Layout {
	return eztimeline.Layout{
		EvidenceRoot: cfg.EvidenceDir,
		OutputDir:    cfg.OutputDir,
		BatchFile:    cfg.BatchFile,
	}
}

// resultDir returns the directory holding the per-tool files of a finished
// run, or the output directory itself before finalization.
func resultDir(l eztimeline.Layout) string {
	if info, err := os.Stat(l.ToolOutputsDir()); err == nil && info.IsDir() {
		return l.ToolOutputsDir()
	}
	return l.OutputDir
}

func newTable(w io.Writer, header ...interface{}) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}

func printFindings(w io.Writer, entries []eztimeline.SummaryEntry) {
	tw := newTable(w, "Tool", eztimeline.KeyFindingColumn)
	for _, entry := range entries {
		tw.AppendRow(table.Row{entry.Tool, entry.KeyFinding})
	}
	tw.Render()
}

func relative(base, name string) string {
	if rel, err := filepath.Rel(base, name); err == nil {
		return rel
	}
	return name
}
