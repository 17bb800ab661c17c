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

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/eztimeline"
	"github.com/forensicanalysis/eztimeline/upload"
)

const lockFileName = ".eztimeline.lock"

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

// Run is the eztimeline run commandline subcommand.
func Run() *cobra.Command {
	var evidence, batch, recmd, jlecmd, mftecmd string
	var pack, noStore bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the parsers and build the consolidated timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("evidence") {
				cfg.EvidenceDir = evidence
			}
			if flags.Changed("batch") {
				cfg.BatchFile = batch
			}
			if flags.Changed("recmd") {
				cfg.Tools.RECmd = recmd
			}
			if flags.Changed("jlecmd") {
				cfg.Tools.JLECmd = jlecmd
			}
			if flags.Changed("mftecmd") {
				cfg.Tools.MFTECmd = mftecmd
			}
			if flags.Changed("sqlar") {
				cfg.Archive.Sqlar = pack
			}
			if noStore {
				cfg.Store.Enabled = false
			}

			if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
				return err
			}
			unlock, err := lockOutput(cfg.OutputDir)
			if err != nil {
				return err
			}
			defer unlock()

			pipeline := &eztimeline.Pipeline{
				Fs:       afero.NewOsFs(),
				Commands: &eztimeline.ExecRunner{},
				Layout:   layout(cfg),
				Binaries: eztimeline.Binaries{
					RECmd:   cfg.Tools.RECmd,
					JLECmd:  cfg.Tools.JLECmd,
					MFTECmd: cfg.Tools.MFTECmd,
				},
				Sqlar: cfg.Archive.Sqlar,
				Store: cfg.Store.Enabled,
			}
			if cfg.Upload.Enabled() {
				store, err := upload.New(cfg.Upload)
				if err != nil {
					return err
				}
				pipeline.Uploader = store
			}

			outcome, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), cfg.OutputDir, outcome)
			return nil
		},
	}
	runCmd.Flags().StringVarP(&evidence, "evidence", "e", "", "evidence root directory")
	runCmd.Flags().StringVar(&batch, "batch", "", "RECmd batch file")
	runCmd.Flags().StringVar(&recmd, "recmd", "", "RECmd executable")
	runCmd.Flags().StringVar(&jlecmd, "jlecmd", "", "JLECmd executable")
	runCmd.Flags().StringVar(&mftecmd, "mftecmd", "", "MFTECmd executable")
	runCmd.Flags().BoolVar(&pack, "sqlar", false, "pack tool outputs into a sqlite archive")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not write the timeline database")
	return runCmd
}

// lockOutput takes the run lock of an output directory without blocking.
func lockOutput(dir string) (func(), error) {
	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "could not lock %s", dir)
	}
	if !locked {
		return nil, errors.Wrap(ErrLocked, dir)
	}
	return func() { lock.Unlock() }, nil // nolint:errcheck
}

func printOutcome(w io.Writer, outputDir string, outcome *eztimeline.Outcome) {
	fmt.Fprintf(w, "run %s: %s\n", outcome.RunID, outcome.State)
	if outcome.State != eztimeline.StateReportProduced {
		return
	}
	fmt.Fprintf(w, "%d rows in %s\n", outcome.Rows, relative(outputDir, outcome.ConsolidatedPath))
	if len(outcome.Findings) > 0 {
		printFindings(w, outcome.Findings)
	}
}
