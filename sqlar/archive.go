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

// Package sqlar stores files in a sqlite archive. Archives follow the layout
// of the sqlite sqlar extension, so `sqlite3 -A` can list and extract them.
package sqlar

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const table = `CREATE TABLE IF NOT EXISTS sqlar(
  name TEXT PRIMARY KEY,  -- name of the file
  mode INT,               -- access permissions
  mtime INT,              -- last modification time
  sz INT,                 -- original file size
  data BLOB               -- compressed content
);`

var (
	// ErrNotExist is returned for names missing from the archive.
	ErrNotExist = os.ErrNotExist
	// ErrClosed is returned by operations on a closed archive.
	ErrClosed = errors.New("archive is closed")
)

// Entry describes a stored file.
type Entry struct {
	Name    string
	Mode    os.FileMode
	ModTime time.Time
	Size    int64
	Stored  int64
}

// IsDir reports whether the entry is a directory record.
func (e Entry) IsDir() bool {
	return e.Mode.IsDir() || e.Mode&0170000 == 0040000
}

// Archive is an open sqlar database.
type Archive struct {
	conn *sqlite.Conn
}

// Open opens or creates the archive at url.
func Open(url string) (*Archive, error) {
	conn, err := sqlite.OpenConn(url, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", url)
	}
	a := &Archive{conn: conn}
	if err := a.exec(table); err != nil {
		conn.Close() // nolint:errcheck
		return nil, err
	}
	return a, nil
}

// Add stores the content of r as name, replacing an existing entry.
func (a *Archive) Add(name string, r io.Reader, mode os.FileMode, mtime time.Time) error {
	if a.conn == nil {
		return ErrClosed
	}
	name = normalizeFilename(name)
	if name == "" {
		return errors.New("empty archive name")
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", name)
	}
	data, err := compress(raw)
	if err != nil {
		return err
	}

	stmt, err := a.conn.Prepare(`INSERT OR REPLACE INTO sqlar (name, mode, mtime, sz, data) VALUES ($name, $mode, $mtime, $sz, $data)`)
	if err != nil {
		return err
	}
	stmt.SetText("$name", name)
	stmt.SetInt64("$mode", int64(mode.Perm()))
	stmt.SetInt64("$mtime", mtime.Unix())
	stmt.SetInt64("$sz", int64(len(raw)))
	stmt.SetZeroBlob("$data", int64(len(data)))
	if err := step(stmt); err != nil {
		return errors.Wrapf(err, "could not insert %s", name)
	}

	blob, err := a.conn.OpenBlob("", "sqlar", "data", a.conn.LastInsertRowID(), true)
	if err != nil {
		return err
	}
	if _, err := io.Copy(blob, bytes.NewReader(data)); err != nil {
		blob.Close() // nolint:errcheck
		return err
	}
	return blob.Close()
}

// AddFile copies a file from fs into the archive.
func (a *Archive) AddFile(fs afero.Fs, src, name string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	f, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.Add(name, f, info.Mode(), info.ModTime())
}

// AddDir stores every regular file below dir, named relative to dir and
// prefixed with prefix.
func (a *Archive) AddDir(fs afero.Fs, dir, prefix string) (int, error) {
	count := 0
	err := afero.Walk(fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if err := a.AddFile(fs, p, path.Join(prefix, filepath.ToSlash(rel))); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// List returns all entries ordered by name.
func (a *Archive) List() ([]Entry, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}
	stmt, err := a.conn.Prepare(`SELECT name, mode, mtime, sz, length(data) AS stored FROM sqlar ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize() // nolint:errcheck

	var entries []Entry
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		entries = append(entries, Entry{
			Name:    stmt.GetText("name"),
			Mode:    os.FileMode(stmt.GetInt64("mode")),
			ModTime: time.Unix(stmt.GetInt64("mtime"), 0),
			Size:    stmt.GetInt64("sz"),
			Stored:  stmt.GetInt64("stored"),
		})
	}
	return entries, nil
}

// ReadFile returns the uncompressed content of name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if a.conn == nil {
		return nil, ErrClosed
	}
	name = normalizeFilename(name)

	stmt, err := a.conn.Prepare(`SELECT rowid, sz, length(data) AS stored FROM sqlar WHERE name = $name`)
	if err != nil {
		return nil, err
	}
	stmt.SetText("$name", name)
	hasRow, err := stmt.Step()
	if err != nil {
		stmt.Finalize() // nolint:errcheck
		return nil, err
	}
	if !hasRow {
		stmt.Finalize() // nolint:errcheck
		return nil, errors.Wrap(ErrNotExist, name)
	}
	id, size, stored := stmt.GetInt64("rowid"), stmt.GetInt64("sz"), stmt.GetInt64("stored")
	if err := stmt.Finalize(); err != nil {
		return nil, err
	}

	blob, err := a.conn.OpenBlob("", "sqlar", "data", id, false)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	if size == stored {
		return io.ReadAll(blob)
	}
	zr, err := zlib.NewReader(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decompress %s", name)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Extract writes every entry below dest on fs and returns the written paths.
// Names are cleaned so that no entry escapes dest.
func (a *Archive) Extract(fs afero.Fs, dest string) ([]string, error) {
	entries, err := a.List()
	if err != nil {
		return nil, err
	}

	var written []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := a.ReadFile(entry.Name)
		if err != nil {
			return written, err
		}
		target := filepath.Join(dest, filepath.FromSlash(CleanName(entry.Name)))
		if err := fs.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return written, err
		}
		mode := entry.Mode.Perm()
		if mode == 0 {
			mode = 0640
		}
		if err := afero.WriteFile(fs, target, data, mode); err != nil {
			return written, err
		}
		if err := fs.Chtimes(target, entry.ModTime, entry.ModTime); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

// Close closes the archive. Closing twice is a no-op.
func (a *Archive) Close() error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

func (a *Archive) exec(query string) error {
	stmt, err := a.conn.Prepare(query)
	if err != nil {
		return err
	}
	return step(stmt)
}

func step(stmt *sqlite.Stmt) error {
	if _, err := stmt.Step(); err != nil {
		stmt.Finalize() // nolint:errcheck
		return err
	}
	return stmt.Finalize()
}

// compress returns zlib data, or raw when compression does not pay off.
func compress(raw []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(raw) {
		return raw, nil
	}
	return buf.Bytes(), nil
}

// CleanName removes volume names, drive letters, leading slashes and parent
// references from an archive name.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if len(name) > 1 && name[1] == ':' {
		name = name[2:]
	}
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

func normalizeFilename(name string) string {
	return CleanName(filepath.ToSlash(name))
}
