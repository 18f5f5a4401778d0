/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/detect"
	"github.com/lewtec/transcritor/internal/domain"
	"github.com/lewtec/transcritor/internal/ontology"
)

var detectImage string

// detectImportCmd represents the detect-import command
var detectImportCmd = &cobra.Command{
	Use:   "detect-import [flags] detections.json",
	Short: "Import object-detector output as annotations on an image",
	Long: `Normalize a detector's JSON response (center-coordinate boxes) into
annotations on an image: boxes are clipped to the image bounds and raw
class names resolved against the zone/line ontology using the acting
user's mappings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()
		ctx := cmd.Context()
		owner := application.Config.User

		img, err := application.Images.GetByID(ctx, detectImage)
		if err != nil {
			return err
		}
		if img == nil {
			return fmt.Errorf("image %s: %w", detectImage, domain.ErrNotFound)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		resp, err := detect.ParseResponse(data)
		if err != nil {
			return err
		}

		profile, err := application.Profiles.Get(ctx, owner)
		if err != nil {
			return err
		}
		user := ontology.UserContext{
			EnabledZoneTypes:        profile.EnabledZoneTypes,
			EnabledLineTypes:        profile.EnabledLineTypes,
			CustomDetectionMappings: profile.CustomDetectionMappings,
		}

		drafts := detect.Normalize(resp, float64(img.Width), float64(img.Height), user)
		for _, draft := range drafts {
			ann := &domain.Annotation{
				ImageID:        img.ID,
				Region:         draft.Region,
				Classification: draft.Classification,
				Label:          draft.Label,
				ReadingOrder:   draft.ReadingOrder,
				Metadata:       draft.Metadata,
				CreatedBy:      owner,
			}
			if err := application.Annotations.Create(ctx, ann); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ann.ID, ann.Classification)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d annotations on image %s\n", len(drafts), img.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectImportCmd)
	detectImportCmd.Flags().StringVar(&detectImage, "image", "", "Image id the detections belong to")
	detectImportCmd.MarkFlagRequired("image")
}
