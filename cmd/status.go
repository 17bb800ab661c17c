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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/eztimeline"
)

// Status is the eztimeline status commandline subcommand. It prints the run
// manifest of an output directory.
func Status() *cobra.Command {
	var raw bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the result of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			b, err := afero.ReadFile(afero.NewOsFs(), layout(cfg).ManifestFile())
			if err != nil {
				return err
			}
			if raw {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}

			state, err := eztimeline.ManifestState(b)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run %s: %s\n", gjson.GetBytes(b, "run_id").String(), state)
			fmt.Fprintf(w, "started %s, ended %s\n", gjson.GetBytes(b, "started").String(), gjson.GetBytes(b, "ended").String())

			tw := newTable(w, "Tool", "Status", "Rows", "Exit Code", "Reason")
			gjson.GetBytes(b, "tools").ForEach(func(_, tool gjson.Result) bool {
				tw.AppendRow(table.Row{
					tool.Get("name").String(),
					tool.Get("status").String(),
					tool.Get("rows").Int(),
					tool.Get("exit_code").Int(),
					tool.Get("reason").String(),
				})
				return true
			})
			tw.AppendFooter(table.Row{"", "", gjson.GetBytes(b, "rows").Int(), "", fmt.Sprintf("%d findings", gjson.GetBytes(b, "findings").Int())})
			tw.Render()
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&raw, "json", false, "print the raw manifest")
	return statusCmd
}
