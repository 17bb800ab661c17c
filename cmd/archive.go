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
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/eztimeline/sqlar"
)

// Archive is the eztimeline archive commandline subcommand.
func Archive() *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the packed tool outputs",
	}
	archiveCmd.AddCommand(archiveList(), archiveUnpack())
	return archiveCmd
}

func archivePath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return layout(cfg).SqlarFile(), nil
}

func archiveList() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [archive]",
		Short: "List the files of the sqlite archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := archivePath(cmd, args)
			if err != nil {
				return err
			}
			archive, err := sqlar.Open(url)
			if err != nil {
				return err
			}
			defer archive.Close()

			entries, err := archive.List()
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "Name", "Size", "Stored", "Modified")
			for _, e := range entries {
				tw.AppendRow([]interface{}{e.Name, e.Size, e.Stored, e.ModTime.UTC().Format("2006-01-02 15:04:05")})
			}
			tw.Render()
			return nil
		},
	}
}

func archiveUnpack() *cobra.Command {
	var mode, dest string
	unpackCmd := &cobra.Command{
		Use:   "unpack [archive]",
		Short: "Extract files from the sqlite archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := archivePath(cmd, args)
			if err != nil {
				return err
			}
			archive, err := sqlar.Open(url)
			if err != nil {
				return err
			}
			defer archive.Close()
			return unpack(cmd, archive, afero.NewOsFs(), dest, mode)
		},
	}

	usage := `define the export filename and folder structure. can be one of:
folder (e.g. 'Tool_Outputs/JLECmd_Results.csv')
compact (e.g. 'Tool_Outputs_JLECmd_Results.csv')
basename (e.g. 'JLECmd_Results.csv')
`
	unpackCmd.Flags().StringVar(&mode, "mode", "folder", usage)
	unpackCmd.Flags().StringVarP(&dest, "dest", "d", ".", "destination directory")
	return unpackCmd
}

func unpack(cmd *cobra.Command, archive *sqlar.Archive, fs afero.Fs, dest, mode string) error {
	if mode == "folder" {
		written, err := archive.Extract(fs, dest)
		for _, name := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "unpack '%s'\n", name)
		}
		return err
	}

	entries, err := archive.List()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, err := destinationPath(entry.Name, mode)
		if err != nil {
			return err
		}
		data, err := archive.ReadFile(entry.Name)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if err := fs.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "unpack '%s' to '%s'\n", entry.Name, target)
		if err := afero.WriteFile(fs, target, data, 0640); err != nil {
			return err
		}
	}
	return nil
}

func destinationPath(name, mode string) (string, error) {
	name = sqlar.CleanName(name)
	switch mode {
	case "basename":
		return path.Base(name), nil
	case "folder":
		return name, nil
	case "compact":
		return normalizeFilePath(name), nil
	default:
		return "", errors.Errorf("unknown mode %q", mode)
	}
}

func first(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[:n]
}

func last(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[len(s)-n:]
}

func splitExt(filePath string) (nameOnly, ext string) {
	ext = path.Ext(filePath)
	nameOnly = strings.TrimSuffix(filePath, ext)
	return nameOnly, ext
}

// normalizeFilePath flattens a path into a single file name of at most 64
// characters. Directory names are shortened first, then the file name.
func normalizeFilePath(filePath string) string {
	maxLength := 64
	maxSegmentLength := 4
	filePath = strings.TrimLeft(filePath, "/")
	pathSegments := strings.Split(filePath, "/")
	normalizedFilePath := strings.Join(pathSegments, "_")

	for i := 0; i < len(pathSegments)-1 && len(normalizedFilePath) > maxLength; i++ {
		pathSegments[i] = first(pathSegments[i], maxSegmentLength)
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	if len(normalizedFilePath) > maxLength {
		nameOnly, ext := splitExt(pathSegments[len(pathSegments)-1])
		pathSegments[len(pathSegments)-1] = first(nameOnly, maxSegmentLength) + ext
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	return last(normalizedFilePath, maxLength)
}
