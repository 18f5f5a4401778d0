/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"
	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/importer"
)

var importFormat string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [flags] path",
	Short: "Import exported JSON, or a bundle directory or zip",
	Long: `Rebuild projects from earlier exports. JSON input may be a single
project or a bulk {"projects": [...]} file; bundle input is a directory
tree (or zip of one) with images, page/ XML files and a metadata.json
per project. Bad items inside a batch are skipped, not fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()
		ctx := cmd.Context()
		owner := application.Config.User

		var summary *importer.Summary
		switch importFormat {
		case "json":
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			summary, err = application.Importer.ImportJSON(ctx, data, owner)
			if err != nil {
				return err
			}
		case "bundle":
			fsys, err := bundleFilesystem(args[0])
			if err != nil {
				return err
			}
			summary, err = application.Importer.ImportBundle(ctx, fsys, owner)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported import format: %s", importFormat)
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"imported %d projects, %d documents, %d images, %d annotations, %d transcriptions\n",
			summary.Projects, summary.Documents, summary.Images, summary.Annotations, summary.Transcriptions)
		for _, reason := range summary.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", reason)
		}
		return nil
	},
}

// bundleFilesystem exposes a bundle directory, or the contents of a
// bundle zip unpacked into memory, as a filesystem.
func bundleFilesystem(inputPath string) (billy.Filesystem, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return osfs.New(inputPath), nil
	}

	reader, err := zip.OpenReader(inputPath)
	if err != nil {
		return nil, fmt.Errorf("while opening bundle archive '%s': %w", inputPath, err)
	}
	defer reader.Close()

	fsys := memfs.New()
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		src, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("while reading archive entry '%s': %w", entry.Name, err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("while reading archive entry '%s': %w", entry.Name, err)
		}
		name := path.Clean(filepath.ToSlash(entry.Name))
		if err := util.WriteFile(fsys, name, data, 0o644); err != nil {
			return nil, err
		}
	}
	return fsys, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "bundle", "Import format: json or bundle")
}
