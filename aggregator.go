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

// Aggregator collects tool results of one pipeline run in append order.
// It is owned by the run and passed explicitly to every step.
type Aggregator struct {
	tables []*Table
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append adds a tool result. Nil and empty tables are ignored.
func (a *Aggregator) Append(t *Table) {
	if t.Len() == 0 {
		return
	}
	a.tables = append(a.tables, t)
}

// Len returns the number of collected tables.
func (a *Aggregator) Len() int {
	return len(a.tables)
}

// Rows returns the total number of collected records.
func (a *Aggregator) Rows() int {
	n := 0
	for _, t := range a.tables {
		n += t.Len()
	}
	return n
}

// Tables returns the collected tables in append order.
func (a *Aggregator) Tables() []*Table {
	return append([]*Table(nil), a.tables...)
}

// Flatten builds the consolidated report. It returns false if nothing was
// collected.
func (a *Aggregator) Flatten() (*Table, bool) {
	if len(a.tables) == 0 {
		return nil, false
	}
	return Concat(a.tables...), true
}
