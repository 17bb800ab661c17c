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

// Package timelinestore keeps tool results in a sqlite database with one table
// per tool. Rows are flat json objects; tables grow new columns whenever a row
// brings an unknown attribute, so heterogeneous tool outputs can share a store.
package timelinestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
	"github.com/pkg/errors"
	"github.com/stoewer/go-strcase"

	"github.com/forensicanalysis/eztimeline/goflatten"
)

// Item is a single row.
type Item = map[string]interface{}

const (
	integer = "INTEGER"
	numeric = "NUMERIC"
	text    = "TEXT"

	uidColumn = "uid"
)

var (
	// ErrInvalidTable is returned for table names that cannot be used.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrNotFound is returned by Get for unknown uids.
	ErrNotFound = errors.New("item not found")
)

// Store is a sqlite backed timeline database.
type Store struct {
	url    string
	cursor *sql.DB
	tables map[string]map[string]string
}

// New opens or creates the database at url.
func New(url string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(url), 0750); err != nil {
		return nil, err
	}

	cursor, err := sql.Open("sqlite3", url)
	if err != nil {
		return nil, err
	}
	cursor.SetMaxOpenConns(1)

	store := &Store{url: url, cursor: cursor}
	store.tables, err = store.getTables()
	if err != nil {
		cursor.Close() // nolint:errcheck
		return nil, errors.Wrap(err, "could not read tables")
	}
	return store, nil
}

// Insert adds a single item to table.
func (s *Store) Insert(table string, item Item) (string, error) {
	uids, err := s.InsertBatch(table, []Item{item})
	if err != nil {
		return "", err
	}
	return uids[0], nil
}

// InsertBatch adds items to table in a single transaction. Items without a uid
// get a generated one. Items do not need to share their attributes.
func (s *Store) InsertBatch(table string, items []Item) ([]string, error) { // nolint:funlen
	if len(items) == 0 {
		return nil, nil
	}
	if err := validTable(table); err != nil {
		return nil, err
	}

	flatItems := make([]Item, 0, len(items))
	all := Item{}
	for _, item := range items {
		flatItem, err := goflatten.Flatten(item)
		if err != nil {
			return nil, errors.Wrap(err, "could not flatten item")
		}
		if uid, ok := flatItem[uidColumn]; !ok || uid == "" {
			flatItem[uidColumn] = table + "--" + uuid.New().String()
		} else {
			flatItem[uidColumn] = fmt.Sprint(uid)
		}
		for k, v := range flatItem {
			if _, ok := all[k]; !ok {
				all[k] = v
			}
		}
		flatItems = append(flatItems, flatItem)
	}

	tx, err := s.cursor.Begin()
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(tx, table, all); err != nil {
		tx.Rollback() // nolint:errcheck
		return nil, errors.Wrap(err, "could not ensure table")
	}

	uids := make([]string, 0, len(flatItems))
	for _, flatItem := range flatItems {
		columns := make([]string, 0, len(flatItem))
		for k := range flatItem {
			columns = append(columns, k)
		}
		sort.Strings(columns)

		values := make([]interface{}, 0, len(columns))
		for _, column := range columns {
			values = append(values, flatItem[column])
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			quote(table), quoteAll(columns), strings.TrimSuffix(strings.Repeat("?,", len(columns)), ","),
		) // #nosec
		if _, err := tx.Exec(query, values...); err != nil {
			tx.Rollback() // nolint:errcheck
			return nil, errors.Wrapf(err, "could not exec statement %s", query)
		}
		uids = append(uids, flatItem[uidColumn].(string))
	}
	return uids, tx.Commit()
}

// InsertStruct converts a Go struct to a snake_case map and inserts it.
func (s *Store) InsertStruct(table string, item interface{}) (string, error) {
	ids, err := s.InsertStructBatch(table, []interface{}{item})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertStructBatch adds a list of structs to table.
func (s *Store) InsertStructBatch(table string, items []interface{}) ([]string, error) {
	ms := make([]Item, 0, len(items))
	for _, item := range items {
		ms = append(ms, lower(structs.Map(item)).(map[string]interface{}))
	}
	return s.InsertBatch(table, ms)
}

// Get returns a single row with its nested structure restored.
func (s *Store) Get(table, uid string) (Item, error) {
	items, err := s.Select(table, map[string]string{uidColumn: uid})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s in %s", uid, table)
	}
	return goflatten.Unflatten(items[0])
}

// Select returns the flat rows of a table in insertion order. Conditions are
// combined with AND and compared for equality. A missing table yields no rows.
func (s *Store) Select(table string, conditions map[string]string) ([]Item, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if _, ok := s.tables[table]; !ok {
		return []Item{}, nil
	}

	keys := make([]string, 0, len(conditions))
	for key := range conditions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	query := fmt.Sprintf("SELECT * FROM %s", quote(table)) // #nosec
	var args []interface{}
	if len(keys) > 0 {
		ands := make([]string, 0, len(keys))
		for _, key := range keys {
			ands = append(ands, quote(key)+" = ?")
			args = append(args, conditions[key])
		}
		query += " WHERE " + strings.Join(ands, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.cursor.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return rowsToItems(rows)
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) (int, error) {
	if err := validTable(table); err != nil {
		return 0, err
	}
	if _, ok := s.tables[table]; !ok {
		return 0, nil
	}
	var n int
	err := s.cursor.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(table))).Scan(&n) // #nosec
	return n, err
}

// Tables lists the table names in lexical order.
func (s *Store) Tables() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns lists the columns of a table in lexical order.
func (s *Store) Columns(table string) []string {
	columns := make([]string, 0, len(s.tables[table]))
	for column := range s.tables[table] {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// Close closes the database.
func (s *Store) Close() error {
	return s.cursor.Close()
}

func (s *Store) getTables() (map[string]map[string]string, error) {
	rows, err := s.cursor.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close() // nolint:errcheck
			return nil, err
		}
		if strings.HasPrefix(name, "sqlite") {
			continue
		}
		names = append(names, name)
	}
	rows.Close() // nolint:errcheck
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := map[string]map[string]string{}
	for _, name := range names {
		tables[name] = map[string]string{}
		columnRows, err := s.cursor.Query(fmt.Sprintf("PRAGMA table_info (%s)", quote(name)))
		if err != nil {
			return nil, err
		}
		for columnRows.Next() {
			var (
				cid       int
				column    string
				ctype     string
				notnull   bool
				dfltValue interface{}
				pk        int
			)
			if err := columnRows.Scan(&cid, &column, &ctype, &notnull, &dfltValue, &pk); err != nil {
				columnRows.Close() // nolint:errcheck
				return nil, err
			}
			tables[name][column] = ctype
		}
		columnRows.Close() // nolint:errcheck
		if err := columnRows.Err(); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (s *Store) ensureTable(tx *sql.Tx, table string, flatItem Item) error {
	columns, ok := s.tables[table]
	if !ok {
		defs := []string{quote(uidColumn) + " TEXT PRIMARY KEY"}
		columns = map[string]string{uidColumn: text}
		for _, name := range sortedKeys(flatItem) {
			if name == uidColumn {
				continue
			}
			sqlType := getSQLDataType(flatItem[name])
			columns[name] = sqlType
			defs = append(defs, quote(name)+" "+sqlType)
		}
		if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table), strings.Join(defs, ", "))); err != nil {
			return errors.Wrap(err, "create table failed")
		}
		s.tables[table] = columns
		return nil
	}

	for _, name := range sortedKeys(flatItem) {
		if _, ok := columns[name]; ok {
			continue
		}
		sqlType := getSQLDataType(flatItem[name])
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(table), quote(name), sqlType)); err != nil {
			return errors.Wrapf(err, "adding missing column %s failed", name)
		}
		columns[name] = sqlType
	}
	return nil
}

func rowsToItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	items := []Item{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		m := Item{}
		for i, column := range cols {
			switch v := values[i].(type) {
			case nil:
				continue
			case []byte:
				m[column] = string(v)
			case int64:
				m[column] = float64(v)
			default:
				m[column] = v
			}
		}

		items = append(items, m)
	}
	return items, rows.Err()
}

func getSQLDataType(value interface{}) string {
	switch value.(type) {
	case int, int16, int8, int32, int64, uint, uint16, uint8, uint32, uint64, bool:
		return integer
	case float32, float64:
		return numeric
	default:
		return text
	}
}

func sortedKeys(m Item) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validTable(name string) error {
	if name == "" || strings.HasPrefix(name, "sqlite") || strings.ContainsAny(name, "\"\x00") {
		return errors.Wrap(ErrInvalidTable, name)
	}
	return nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, quote(name))
	}
	return strings.Join(quoted, ", ")
}

// lower converts struct maps to snake_case keys and drops empty values.
func lower(f interface{}) interface{} {
	switch f := f.(type) {
	case []interface{}:
		for i := range f {
			f[i] = lower(f[i])
		}
		return f
	case map[string]interface{}:
		lf := make(map[string]interface{}, len(f))
		for k, v := range f {
			if !isEmptyValue(reflect.ValueOf(v)) {
				lf[strcase.SnakeCase(k)] = lower(v)
			}
		}
		return lf
	default:
		return f
	}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
