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
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/eztimeline/timelinestore"
)

// Query is the eztimeline query commandline subcommand. Without --tool it
// lists the tables of the timeline store.
func Query() *cobra.Command {
	var tool string
	var where map[string]string
	var limit int
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Print rows from the timeline store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			url := layout(cfg).StoreFile()
			if _, err := os.Stat(url); err != nil {
				return err
			}
			store, err := timelinestore.New(url)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if tool == "" {
				tw := newTable(w, "Table", "Rows")
				for _, name := range store.Tables() {
					n, err := store.Count(name)
					if err != nil {
						return err
					}
					tw.AppendRow(table.Row{name, n})
				}
				tw.Render()
				return nil
			}

			items, err := store.Select(tool, where)
			if err != nil {
				return err
			}
			columns := store.Columns(tool)
			header := make(table.Row, 0, len(columns))
			for _, column := range columns {
				header = append(header, column)
			}
			shown := items
			if limit > 0 && len(items) > limit {
				shown = items[:limit]
			}
			tw := newTable(w, header...)
			for _, item := range shown {
				row := make(table.Row, 0, len(columns))
				for _, column := range columns {
					row = append(row, item[column])
				}
				tw.AppendRow(row)
			}
			tw.Render()
			fmt.Fprintf(w, "%d of %d rows\n", len(shown), len(items))
			return nil
		},
	}
	queryCmd.Flags().StringVarP(&tool, "tool", "t", "", "table to print, e.g. RECmd")
	queryCmd.Flags().StringToStringVar(&where, "where", nil, "column=value filters")
	queryCmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum rows to print, 0 for all")
	return queryCmd
}
