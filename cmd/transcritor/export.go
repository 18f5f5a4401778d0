/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/app"
	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/export"
	"github.com/lewtec/transcritor/internal/pagexml"
)

var (
	exportScope  string
	exportFormat string
	exportOut    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [flags] id",
	Short: "Export a project, document or image",
	Long: `Export a subtree as JSON, PageXML, a zip with the raw images, or the
bundle layout (images + page/ XML + metadata.json, zipped). The run is
tracked as an export job record.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()
		ctx := cmd.Context()

		job := &domain.ExportJob{
			Scope:       exportScope,
			Format:      exportFormat,
			Status:      domain.StatusProcessing,
			TargetID:    args[0],
			RequestedBy: application.Config.User,
		}
		if err := application.ExportJobs.Create(ctx, job); err != nil {
			return err
		}

		data, err := runExport(ctx, application, exportScope, exportFormat, args[0])
		if err != nil {
			application.ExportJobs.Finish(ctx, job.ID, domain.StatusFailed, "", 0, err.Error())
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			application.ExportJobs.Finish(ctx, job.ID, domain.StatusFailed, "", 0, err.Error())
			return err
		}
		if err := application.ExportJobs.Finish(ctx, job.ID, domain.StatusCompleted, exportOut, int64(len(data)), ""); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s %s to %s (%d bytes)\n", exportScope, args[0], exportOut, len(data))
		return nil
	},
}

func runExport(ctx context.Context, application *app.App, scope, format, targetID string) ([]byte, error) {
	now := time.Now()
	switch scope {
	case domain.ExportScopeImage:
		return exportImage(ctx, application, format, targetID, now)
	case domain.ExportScopeDocument:
		return exportDocument(ctx, application, format, targetID, now)
	case domain.ExportScopeProject:
		return exportProject(ctx, application, format, targetID, now)
	default:
		return nil, fmt.Errorf("unsupported export scope: %s", scope)
	}
}

func exportImage(ctx context.Context, application *app.App, format, imageID string, now time.Time) ([]byte, error) {
	snap, err := application.Loader.LoadImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	doc, err := application.Documents.GetByID(ctx, snap.Image.DocumentID)
	if err != nil {
		return nil, err
	}
	project, err := application.Projects.GetByID(ctx, doc.ProjectID)
	if err != nil {
		return nil, err
	}

	switch format {
	case domain.ExportFormatJSON:
		return export.MarshalImage(snap, doc, project, now)
	case domain.ExportFormatPageXML:
		page, err := export.BuildImagePage(snap, snap.Image.OriginalFilename, now)
		if err != nil {
			return nil, err
		}
		return pagexml.Marshal(page)
	case domain.ExportFormatZip:
		var buf bytes.Buffer
		if err := application.Bundles.WriteImageZip(&buf, snap, doc, project, now); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format for an image: %s", format)
	}
}

func exportDocument(ctx context.Context, application *app.App, format, documentID string, now time.Time) ([]byte, error) {
	snap, err := application.Loader.LoadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	project, err := application.Projects.GetByID(ctx, snap.Document.ProjectID)
	if err != nil {
		return nil, err
	}

	switch format {
	case domain.ExportFormatJSON:
		return export.MarshalDocument(snap, project, now)
	case domain.ExportFormatPageXML:
		doc, err := export.BuildDocumentPages(snap, now)
		if err != nil {
			return nil, err
		}
		return pagexml.Marshal(doc)
	case domain.ExportFormatZip:
		var buf bytes.Buffer
		if err := application.Bundles.WriteDocumentZip(&buf, snap, project, now); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format for a document: %s", format)
	}
}

func exportProject(ctx context.Context, application *app.App, format, projectID string, now time.Time) ([]byte, error) {
	snap, err := application.Loader.LoadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	switch format {
	case domain.ExportFormatJSON:
		return export.MarshalProject(snap, now)
	case domain.ExportFormatPageXML:
		return pagexml.Marshal(export.BuildProjectPages(snap, now))
	case domain.ExportFormatZip, domain.ExportFormatBundle:
		stage := memfs.New()
		if err := application.Bundles.WriteTree(stage, []*export.ProjectSnapshot{snap}, now); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := export.ZipTree(stage, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format for a project: %s", format)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportScope, "scope", "s", "project", "Export scope: image, document or project")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json, pagexml, zip or bundle")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "export.out", "Output file path")
}
