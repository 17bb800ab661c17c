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
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ReadTable loads a comma separated file with a header row.
func ReadTable(fs afero.Fs, name string) (*Table, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := DecodeTable(f)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%s: %s", filepath.Base(name), err)
	}
	return t, nil
}

// DecodeTable parses CSV data with a header row. Short rows are padded with
// empty cells, rows longer than the header are an error.
func DecodeTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("no header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = uniqueColumns(header)

	t := &Table{Columns: header}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) > len(header) {
			return nil, errors.Errorf("line %d has %d fields, header has %d", line, len(row), len(header))
		}

		record := NewRecord()
		for i, column := range header {
			if i < len(row) {
				record.Set(column, row[i])
			}
		}
		t.Records = append(t.Records, record)
	}
	return t, nil
}

// uniqueColumns renames repeated header names to name.1, name.2 and so on,
// skipping names already taken by other columns.
func uniqueColumns(header []string) []string {
	taken := make(map[string]bool, len(header))
	for _, column := range header {
		taken[column] = true
	}
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for _, column := range header {
		if !used[column] {
			used[column] = true
			columns = append(columns, column)
			continue
		}
		name := column
		for taken[name] {
			suffix[column]++
			name = column + "." + strconv.Itoa(suffix[column])
		}
		taken[name] = true
		used[name] = true
		columns = append(columns, name)
	}
	return columns
}

// WriteTable stores the table as comma separated values with a header row.
func WriteTable(fs afero.Fs, name string, t *Table) error {
	if err := fs.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	f, err := fs.Create(name)
	if err != nil {
		return err
	}
	if err := EncodeTable(f, t); err != nil {
		f.Close() // nolint:errcheck
		return errors.Wrapf(err, "could not write %s", name)
	}
	return f.Close()
}

// EncodeTable writes the header and all records.
func EncodeTable(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	row := make([]string, len(t.Columns))
	for _, record := range t.Records {
		for i, column := range t.Columns {
			row[i] = record.Get(column)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
