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

	"github.com/spf13/afero"
)

// Category is a class of evidence artifacts.
type Category string

// The artifact categories the parser families consume.
const (
	Registry  Category = "Registry"
	JumpLists Category = "JumpLists"
	MFT       Category = "MFT"
)

// Categories lists all categories in pipeline order.
var Categories = []Category{Registry, JumpLists, MFT} // nolint:gochecknoglobals

// Artifact is the resolved location of one category.
type Artifact struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
}

// ArtifactSet maps every category to its location and availability.
type ArtifactSet map[Category]Artifact

// Present reports whether the category was found.
func (s ArtifactSet) Present(c Category) bool {
	return s[c].Present
}

// Path returns the location of a category, present or not.
func (s ArtifactSet) Path(c Category) string {
	return s[c].Path
}

// Any reports whether at least one category is present.
func (s ArtifactSet) Any() bool {
	for _, a := range s {
		if a.Present {
			return true
		}
	}
	return false
}

// Locate resolves the fixed artifact locations below an evidence root:
//     <root>/Registry/          directory of registry hives
//     <root>/JumpLists/         directory of *.automaticDestinations-ms / *.customDestinations-ms
//     <root>/FileSystem/$MFT    master file table
// Absence is not an error.
func Locate(fs afero.Fs, root string) ArtifactSet {
	set := ArtifactSet{
		Registry:  {Path: filepath.Join(root, "Registry")},
		JumpLists: {Path: filepath.Join(root, "JumpLists")},
		MFT:       {Path: filepath.Join(root, "FileSystem", "$MFT")},
	}
	for _, c := range []Category{Registry, JumpLists} {
		a := set[c]
		a.Present, _ = afero.DirExists(fs, a.Path)
		set[c] = a
	}

	mft := set[MFT]
	if info, err := fs.Stat(mft.Path); err == nil && !info.IsDir() {
		mft.Present = true
	}
	set[MFT] = mft
	return set
}
