/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/domain"
)

var (
	queryImage      string
	queryAnnotation string
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [flags] [project_id]",
	Short: "Inspect projects and transcription history",
	Long: `Without arguments, list the acting user's projects. With a project id,
list its documents and images. With --image or --annotation, print the
full transcription version history for that target.

Examples:
  # List projects
  transcritor query

  # List the contents of one project
  transcritor query 4f1c...

  # Show the version history of an annotation's transcriptions
  transcritor query --annotation 9a27...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if queryImage != "" || queryAnnotation != "" {
			target := domain.Target{ImageID: queryImage, AnnotationID: queryAnnotation}
			if queryAnnotation != "" && queryImage == "" {
				ann, err := application.Annotations.GetByID(ctx, queryAnnotation)
				if err != nil {
					return err
				}
				if ann == nil {
					return fmt.Errorf("annotation %s: %w", queryAnnotation, domain.ErrNotFound)
				}
				target.ImageID = ann.ImageID
			}
			history, err := application.Ledger.History(ctx, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join([]string{"version", "current", "status", "endpoint", "text"}, "\t"))
			for _, t := range history {
				current := ""
				if t.IsCurrent {
					current = "*"
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\n",
					t.Version, current, t.Status, t.APIEndpoint, t.TextContent)
			}
			return nil
		}

		if len(args) == 0 {
			projects, err := application.Projects.ListByOwner(ctx, application.Config.User)
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintf(out, "%s\t%s\n", p.ID, p.Name)
			}
			return nil
		}

		documents, err := application.Documents.ListForProject(ctx, args[0])
		if err != nil {
			return err
		}
		for _, doc := range documents {
			fmt.Fprintf(out, "%s\t%s\n", doc.ID, doc.Name)
			images, err := application.Images.ListForDocument(ctx, doc.ID)
			if err != nil {
				return err
			}
			for _, img := range images {
				fmt.Fprintf(out, "  %s\t%d\t%s\t%dx%d\n", img.ID, img.Order, img.Name, img.Width, img.Height)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryImage, "image", "", "Show transcription history for this image")
	queryCmd.Flags().StringVar(&queryAnnotation, "annotation", "", "Show transcription history for this annotation")
}
