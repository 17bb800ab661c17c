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

package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/eztimeline/sqlar"
)

func TestNormalizeFilePath(t *testing.T) {
	x32 := strings.Repeat("x", 32)
	longFileName := strings.Repeat("long_file_name_", 8)

	pathTests := []struct {
		name              string
		srcPath           string
		normalizedSrcPath string
	}{
		{"Tool output", `Tool_Outputs/RECmd_Results.csv`, `Tool_Outputs_RECmd_Results.csv`},
		{"Windows path", `/C/Users/user/NTUSER.DAT`, `C_Users_user_NTUSER.DAT`},
		{
			"Long path",
			`/C/Users/user/AppData/Local/Google/Chrome/User Data/Default/Extensions/` + x32 + `/1.11_1/_metadata/folder_` + x32 + `/` + longFileName + `.json`,
			`AppD_Loca_Goog_Chro_User_Defa_Exte_xxxx_1.11__met_fold_long.json`,
		},
	}

	for _, pt := range pathTests {
		t.Run(pt.name, func(t *testing.T) {
			assert.Equal(t, pt.normalizedSrcPath, normalizeFilePath(pt.srcPath))
		})
	}
}

func Test_last(t *testing.T) {
	type args struct {
		s string
		n int
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{"long", args{"abcdef", 2}, "ef"},
		{"short", args{"abc", 4}, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, last(tt.args.s, tt.args.n))
		})
	}
}

func TestDestinationPath(t *testing.T) {
	tests := []struct {
		mode    string
		want    string
		wantErr bool
	}{
		{"folder", "Tool_Outputs/MFTECmd_Results.csv", false},
		{"compact", "Tool_Outputs_MFTECmd_Results.csv", false},
		{"basename", "MFTECmd_Results.csv", false},
		{"tree", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got, err := destinationPath("/Tool_Outputs/MFTECmd_Results.csv", tt.mode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnpack(t *testing.T) {
	url := filepath.Join(t.TempDir(), "Tool_Outputs.sqlar")
	archive, err := sqlar.Open(url)
	require.NoError(t, err)
	defer archive.Close()
	require.NoError(t, archive.Add("Tool_Outputs/RECmd_Results.csv", strings.NewReader("Description\nrun key\n"), 0644, time.Now()))
	require.NoError(t, archive.Add("Tool_Outputs/MFTECmd_Results.csv", strings.NewReader("FileName\n$MFT\n"), 0644, time.Now()))

	tests := []struct {
		mode string
		want []string
	}{
		{"folder", []string{"/dest/Tool_Outputs/MFTECmd_Results.csv", "/dest/Tool_Outputs/RECmd_Results.csv"}},
		{"compact", []string{"/dest/Tool_Outputs_MFTECmd_Results.csv", "/dest/Tool_Outputs_RECmd_Results.csv"}},
		{"basename", []string{"/dest/MFTECmd_Results.csv", "/dest/RECmd_Results.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			out := &bytes.Buffer{}
			cmd := &cobra.Command{}
			cmd.SetOut(out)

			require.NoError(t, unpack(cmd, archive, fs, "/dest", tt.mode))
			for _, name := range tt.want {
				exists, err := afero.Exists(fs, filepath.FromSlash(name))
				assert.NoError(t, err)
				assert.True(t, exists, name)
			}
			b, err := afero.ReadFile(fs, filepath.FromSlash(tt.want[1]))
			require.NoError(t, err)
			assert.Equal(t, "Description\nrun key\n", string(b))
			assert.Contains(t, out.String(), "unpack")
		})
	}
}
