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
	"path/filepath"
	"sort"

	"github.com/forensicanalysis/fsdoublestar"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/eztimeline/logger"
)

// CombineFamily folds the fragment files of a multi-output family into the
// family result file. Fragments are discovered per marker in declaration order
// and tagged with their marker in the Source column. On success the combined
// table is written, tagged with the family name, appended to agg and the
// fragment files are removed. Without fragments nothing happens and nil is
// returned, so repeated calls are no-ops.
func CombineFamily(fs afero.Fs, outputDir string, family Family, agg *Aggregator) *Table {
	var fragments []*Table
	var files []string
	seen := map[string]bool{}

	for _, marker := range family.Markers {
		names, err := DiscoverFragments(fs, outputDir, marker)
		if err != nil {
			logger.Warn().Str("tool", family.Name).Err(err).Msg("could not list fragments")
			continue
		}
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			files = append(files, name)

			t, err := ReadTable(fs, name)
			if err != nil {
				logger.Error().Str("tool", family.Name).Str("file", filepath.Base(name)).Err(err).Msg("failed to read fragment")
				continue
			}
			t.Stamp(SourceColumn, marker)
			fragments = append(fragments, t)
		}
	}

	if len(fragments) == 0 {
		logger.Warn().Str("tool", family.Name).Msg("no valid outputs to combine")
		return nil
	}

	combined := Concat(fragments...)
	resultFile := filepath.Join(outputDir, family.ResultFile)
	if err := WriteTable(fs, resultFile, combined); err != nil {
		logger.Error().Str("tool", family.Name).Str("file", resultFile).Err(err).Msg("could not write combined results")
		return nil
	}
	logger.Info().Str("tool", family.Name).Str("file", resultFile).Int("rows", combined.Len()).Msg("results combined")

	combined.Stamp(ToolColumn, family.Name)
	agg.Append(combined)

	for _, name := range files {
		if err := fs.Remove(name); err != nil {
			logger.Warn().Str("file", filepath.Base(name)).Err(err).Msg("failed to remove fragment")
		}
	}
	return combined
}

// DiscoverFragments lists the CSV files directly in dir whose name contains
// marker, in lexical order.
func DiscoverFragments(fs afero.Fs, dir, marker string) ([]string, error) {
	if ok, _ := afero.DirExists(fs, dir); !ok {
		return nil, nil
	}
	iofs := afero.NewIOFS(afero.NewBasePathFs(fs, dir))
	matches, err := fsdoublestar.Glob(iofs, "*"+marker+"*.csv")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Join(dir, filepath.FromSlash(match)))
	}
	return names, nil
}
