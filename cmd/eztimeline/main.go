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

// Package main implements the eztimeline command line tool.
//     run        Run the parsers and build the consolidated timeline
//     summarize  Derive key findings from existing tool outputs
//     status     Show the result of the last run
//     query      Print rows from the timeline store
//     archive    Inspect the packed tool outputs (ls, unpack)
//     config     Manage the configuration file (init, show)
//
// Usage
//
// Process an evidence folder
//     eztimeline run --evidence Forensic_Evidence --output Forensics_Results
// Inspect the result
//     eztimeline status -o Forensics_Results
//     eztimeline query -o Forensics_Results --tool JLECmd --where Source=AutomaticDestinations
// Extract archived tool outputs
//     eztimeline archive unpack Forensics_Results/Tool_Outputs.sqlar --mode compact
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/eztimeline/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "eztimeline",
		Short:        "Build a timeline from Eric Zimmerman tool outputs",
		SilenceUsage: true,
	}
	cmd.AddGlobalFlags(rootCmd)
	rootCmd.AddCommand(cmd.Run(), cmd.Summarize(), cmd.Status(), cmd.Query(), cmd.Archive(), cmd.Config())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
