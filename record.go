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

const (
	// ToolColumn is the provenance column stamped on every row of a tool result.
	ToolColumn = "Tool"
	// SourceColumn tags family fragments with their sub-source.
	SourceColumn = "Source"
)

// Record is a single row of tool output. Tool and Source are kept as typed
// fields; every other column lives in Fields.
type Record struct {
	Tool   string
	Source string
	Fields map[string]string
}

// NewRecord creates an empty Record.
func NewRecord() Record {
	return Record{Fields: map[string]string{}}
}

// Get returns the value of a column or the empty string.
func (r Record) Get(column string) string {
	switch column {
	case ToolColumn:
		return r.Tool
	case SourceColumn:
		return r.Source
	default:
		return r.Fields[column]
	}
}

// Set assigns a column value.
func (r *Record) Set(column, value string) {
	switch column {
	case ToolColumn:
		r.Tool = value
	case SourceColumn:
		r.Source = value
	default:
		if r.Fields == nil {
			r.Fields = map[string]string{}
		}
		r.Fields[column] = value
	}
}

// Map returns all columns of the record.
func (r Record) Map(columns []string) map[string]interface{} {
	m := make(map[string]interface{}, len(columns))
	for _, column := range columns {
		m[column] = r.Get(column)
	}
	return m
}

// Table is an ordered set of records with an ordered column list. Records may
// lack some of the columns; missing cells read as the empty string.
type Table struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the column is part of the table.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Stamp sets column to value on every record and appends the column if it is new.
func (t *Table) Stamp(column, value string) {
	if !t.HasColumn(column) {
		t.Columns = append(t.Columns, column)
	}
	for i := range t.Records {
		t.Records[i].Set(column, value)
	}
}

// Column returns all values of a column in record order.
func (t *Table) Column(column string) []string {
	values := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		values = append(values, r.Get(column))
	}
	return values
}

// Concat joins tables row-wise. Columns are merged by name in order of first
// appearance, records keep table order then row order.
func Concat(tables ...*Table) *Table {
	result := &Table{}
	seen := map[string]bool{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				result.Columns = append(result.Columns, c)
			}
		}
		result.Records = append(result.Records, t.Records...)
	}
	return result
}
