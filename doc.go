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

// Package eztimeline runs the Eric Zimmerman parser families RECmd, JLECmd
// and MFTECmd against collected Windows evidence, merges their CSV outputs
// into one timeline and derives a short list of key findings.
//
// Evidence layout
//
// The evidence root is expected to look like this. Missing parts only skip
// the parsers that need them:
//     Forensic_Evidence/
//     ├── Registry/          registry hives
//     ├── JumpLists/         *.automaticDestinations-ms, *.customDestinations-ms
//     └── FileSystem/
//         └── $MFT
//
// Output layout
//
// A run that produced results leaves:
//     Forensics_Results/
//     ├── System_Behavior_Review.csv   all tool rows, outer union of columns
//     ├── Summary_Report.csv           Tool, Key Finding
//     ├── Tool_Outputs/
//     │   ├── RECmd_Results.csv
//     │   ├── JLECmd_Results.csv
//     │   └── MFTECmd_Results.csv
//     ├── Tool_Outputs.sqlar           optional
//     ├── timeline.db                  optional
//     └── run.json
//
// Every row of the consolidated report carries a Tool column. Jump list rows
// appear twice: once per fragment run, tagged with the run name, and once in
// the combined JLECmd table, which carries a Source column naming the fragment.
//
// Building
//
// The sqlar archive (crawshaw.io/sqlite) and the timeline store
// (github.com/mattn/go-sqlite3) both compile the SQLite amalgamation, which
// fails to link with duplicate sqlite3_* symbols. Build and test with the
// libsqlite3 tag so go-sqlite3 links the system library instead:
//     go build -tags libsqlite3 ./...
//     go test -tags libsqlite3 ./...
package eztimeline
