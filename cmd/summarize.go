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

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/eztimeline"
	"github.com/forensicanalysis/eztimeline/logger"
)

// Summarize is the eztimeline summarize commandline subcommand. It derives
// the key findings from the tool outputs of an earlier run.
func Summarize() *cobra.Command {
	var write bool
	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Derive key findings from existing tool outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			l := layout(cfg)
			fs := afero.NewOsFs()

			entries := eztimeline.Summarize(fs, resultDir(l), eztimeline.Families())
			if len(entries) == 0 {
				logger.Info().Msg("no key findings")
				return nil
			}
			printFindings(cmd.OutOrStdout(), entries)

			if write {
				if err := eztimeline.WriteTable(fs, l.SummaryFile(), eztimeline.SummaryTable(entries)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", l.SummaryFile())
			}
			return nil
		},
	}
	summarizeCmd.Flags().BoolVarP(&write, "write", "w", false, "write "+eztimeline.SummaryFileName)
	return summarizeCmd
}
