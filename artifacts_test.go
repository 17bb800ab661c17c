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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	root := filepath.Join("/case", "Forensic_Evidence")
	tests := []struct {
		name    string
		prepare func(fs afero.Fs)
		want    map[Category]bool
	}{
		{"nothing", func(fs afero.Fs) {}, map[Category]bool{Registry: false, JumpLists: false, MFT: false}},
		{"all", func(fs afero.Fs) {
			require.NoError(t, fs.MkdirAll(filepath.Join(root, "Registry"), 0755))
			require.NoError(t, fs.MkdirAll(filepath.Join(root, "JumpLists"), 0755))
			require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "FileSystem", "$MFT"), []byte("FILE0"), 0644))
		}, map[Category]bool{Registry: true, JumpLists: true, MFT: true}},
		{"registry is a file", func(fs afero.Fs) {
			require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "Registry"), []byte{}, 0644))
		}, map[Category]bool{Registry: false, JumpLists: false, MFT: false}},
		{"mft is a directory", func(fs afero.Fs) {
			require.NoError(t, fs.MkdirAll(filepath.Join(root, "FileSystem", "$MFT"), 0755))
			require.NoError(t, fs.MkdirAll(filepath.Join(root, "JumpLists"), 0755))
		}, map[Category]bool{Registry: false, JumpLists: true, MFT: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			tt.prepare(fs)
			set := Locate(fs, root)
			for _, c := range Categories {
				assert.Equal(t, tt.want[c], set.Present(c), c)
			}
			assert.Equal(t, filepath.Join(root, "FileSystem", "$MFT"), set.Path(MFT))
		})
	}
}

func TestArtifactSet_Any(t *testing.T) {
	assert.False(t, ArtifactSet{}.Any())
	assert.False(t, ArtifactSet{MFT: {Path: "x"}}.Any())
	assert.True(t, ArtifactSet{MFT: {Path: "x", Present: true}}.Any())
}

func TestInvocation(t *testing.T) {
	tests := []struct {
		name    string
		inv     Invocation
		want    string
		wantErr bool
	}{
		{"plain", Invocation{Binary: "MFTECmd.exe", Args: []string{"-f", "$MFT"}}, "MFTECmd.exe -f $MFT", false},
		{"spaces", Invocation{Binary: "RECmd.exe", Args: []string{"-d", `C:\Case Files\Registry`}}, `RECmd.exe -d "C:\Case Files\Registry"`, false},
		{"empty binary", Invocation{Binary: " "}, `" "`, true},
		{"nul byte", Invocation{Binary: "JLECmd.exe", Args: []string{"-d", "a\x00b"}}, "JLECmd.exe -d a\x00b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inv.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, tt.inv.String())
		})
	}
}

func TestPlan(t *testing.T) {
	layout := Layout{EvidenceRoot: "ev", OutputDir: "out", BatchFile: "UserActivity.reb"}
	specs := Plan(layout, Binaries{RECmd: "RECmd.exe", JLECmd: "JLECmd.exe", MFTECmd: "MFTECmd.exe"})
	require.Len(t, specs, 4)

	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"RECmd", "JLECmd (AutomaticDestinations)", "JLECmd (CustomDestinations)", "MFTECmd"}, names)

	assert.Equal(t, []string{"-d", filepath.Join("ev", "Registry"), "--bn", "UserActivity.reb", "--csv", "out", "--csvf", "RECmd_Results.csv"}, specs[0].Invocation.Args)
	assert.Equal(t, []string{"UserActivity.reb"}, specs[0].Needs)
	assert.True(t, specs[1].Fragment)
	assert.Equal(t, filepath.Join("out", "JumpLists_CustomDestinations.csv"), specs[2].OutputFile)
	assert.Equal(t, []string{"-f", filepath.Join("ev", "FileSystem", "$MFT"), "--csv", "out", "--csvf", "MFTECmd_Results.csv"}, specs[3].Invocation.Args)

	assert.False(t, lastFragment(specs, 0))
	assert.False(t, lastFragment(specs, 1))
	assert.True(t, lastFragment(specs, 2))
	assert.False(t, lastFragment(specs, 3))
}
