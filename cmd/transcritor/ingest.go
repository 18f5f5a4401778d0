/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/app"
	"github.com/lewtec/transcritor/internal/domain"
	// Register the image decoders.
	_ "github.com/lewtec/transcritor/internal/geometry"
)

var (
	ingestProject  string
	ingestDocument string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [flags] directory",
	Short: "Ingest a directory of images into a project document",
	Long: `Ingest every decodable image file found in a directory as ordered pages
of one document, creating the project and document when needed.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return err
		}
		fileInfo, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() {
			return fmt.Errorf("'%s' must be a directory", args[0])
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()
		ctx := cmd.Context()
		owner := application.Config.User

		project, err := findOrCreateProject(ctx, application, owner, ingestProject)
		if err != nil {
			return err
		}
		document, err := application.Documents.Create(ctx, project.ID, ingestDocument, "")
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return err
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if !entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		order, err := application.Images.MaxOrder(ctx, document.ID)
		if err != nil {
			return err
		}
		ingested := 0
		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(args[0], name))
			if err != nil {
				application.Log.Warn("unreadable file, skipping", "file", name, "error", err)
				continue
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				application.Log.Warn("not a decodable image, skipping", "file", name, "error", err)
				continue
			}
			order++
			blobPath := path.Join("images", document.ID, name)
			if err := application.Blobs.Save(blobPath, data); err != nil {
				return err
			}
			img := &domain.Image{
				DocumentID:       document.ID,
				Name:             strings.TrimSuffix(name, path.Ext(name)),
				OriginalFilename: name,
				Path:             blobPath,
				FileSize:         int64(len(data)),
				Width:            cfg.Width,
				Height:           cfg.Height,
				Order:            order,
				IsProcessed:      true,
			}
			if err := application.Images.Create(ctx, img); err != nil {
				return err
			}
			ingested++
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", img.ID, name)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d images into document %s (project %s, owner %s)\n",
			ingested, document.ID, project.ID, owner)
		return nil
	},
}

// findOrCreateProject resolves the --project flag against the acting
// user's projects, creating a new one when no name matches.
func findOrCreateProject(ctx context.Context, application *app.App, owner, name string) (*domain.Project, error) {
	existing, err := application.Projects.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Name == name {
			return p, nil
		}
	}
	return application.Projects.Create(ctx, name, "", owner)
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestProject, "project", "p", "Default Project", "Project name")
	ingestCmd.Flags().StringVarP(&ingestDocument, "document", "d", "Default Document", "Document name")
}
