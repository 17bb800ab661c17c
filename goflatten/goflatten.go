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

// Package goflatten converts nested maps into single level maps with joined
// keys and back. Slices are flattened by index.
package goflatten

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/imdario/mergo"
)

// Delimiter joins the keys of nested levels.
const Delimiter = "."

// Flatten returns a one level deep copy of nested. Nil values and empty
// containers are dropped.
func Flatten(nested map[string]interface{}) (map[string]interface{}, error) {
	flat := map[string]interface{}{}
	if err := flattenInto(flat, "", nested); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenInto(flat map[string]interface{}, prefix string, value interface{}) error {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map:
		for _, k := range v.MapKeys() {
			if err := flattenInto(flat, join(prefix, fmt.Sprint(k.Interface())), v.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			flat[prefix] = value
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := flattenInto(flat, join(prefix, strconv.Itoa(i)), v.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Func, reflect.Chan:
		return fmt.Errorf("cannot flatten %s at %q", v.Kind(), prefix)
	default:
		if prefix == "" {
			return fmt.Errorf("cannot flatten top level %s", v.Kind())
		}
		flat[prefix] = value
	}
	return nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Delimiter + key
}

// Unflatten reverses Flatten. Levels whose keys are exactly 0..n-1 become
// slices.
func Unflatten(flat map[string]interface{}) (map[string]interface{}, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nested := map[string]interface{}{}
	for _, k := range keys {
		parts := strings.Split(k, Delimiter)
		var branch interface{} = flat[k]
		for i := len(parts) - 1; i >= 0; i-- {
			branch = map[string]interface{}{parts[i]: branch}
		}
		if err := mergo.Merge(&nested, branch.(map[string]interface{})); err != nil {
			return nil, err
		}
	}

	for k, v := range nested {
		nested[k] = listify(v)
	}
	return nested, nil
}

func listify(value interface{}) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	for k, v := range m {
		m[k] = listify(v)
	}

	list := make([]interface{}, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || strconv.Itoa(i) != k {
			return m
		}
		list[i] = v
	}
	return list
}
