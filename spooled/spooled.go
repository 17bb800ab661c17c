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

// Package spooled provides a write buffer that keeps small outputs in memory
// and rolls over to a temporary file once a size limit is exceeded.
package spooled

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Buffer collects process output of unknown size.
type Buffer struct {
	maxSize int64
	size    int64
	dir     string
	mem     bytes.Buffer
	file    *os.File
}

// New creates a Buffer that stays in memory up to maxSize bytes. Spill files
// are created in dir, or the default temp directory if dir is empty.
func New(maxSize int64, dir string) *Buffer {
	return &Buffer{maxSize: maxSize, dir: dir}
}

// Write appends p and rolls over to disk when the limit is crossed.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.file == nil && b.size+int64(len(p)) > b.maxSize {
		if err := b.rollover(); err != nil {
			return 0, err
		}
	}
	var n int
	var err error
	if b.file != nil {
		n, err = b.file.Write(p)
	} else {
		n, err = b.mem.Write(p)
	}
	b.size += int64(n)
	return n, err
}

func (b *Buffer) rollover() (err error) {
	b.file, err = os.CreateTemp(b.dir, "spool-*")
	if err != nil {
		return fmt.Errorf("could not create spool file: %w", err)
	}
	if _, err = io.Copy(b.file, &b.mem); err != nil {
		return fmt.Errorf("could not fill spool file: %w", err)
	}
	b.mem.Reset()
	return nil
}

// Size returns the number of bytes written so far.
func (b *Buffer) Size() int64 {
	return b.size
}

// RolledOver reports whether the content lives in a temporary file.
func (b *Buffer) RolledOver() bool {
	return b.file != nil
}

// Tail returns at most the last n bytes written.
func (b *Buffer) Tail(n int64) (string, error) {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return "", nil
	}
	if b.file == nil {
		data := b.mem.Bytes()
		return string(data[int64(len(data))-n:]), nil
	}
	p := make([]byte, n)
	if _, err := b.file.ReadAt(p, b.size-n); err != nil && err != io.EOF {
		return "", err
	}
	return string(p), nil
}

// Close discards the content and removes the spill file.
func (b *Buffer) Close() error {
	b.mem.Reset()
	if b.file == nil {
		return nil
	}
	name := b.file.Name()
	if err := b.file.Close(); err != nil {
		return err
	}
	b.file = nil
	return os.Remove(name)
}
