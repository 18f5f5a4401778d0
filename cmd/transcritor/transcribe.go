/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/ocr"
)

var (
	transcribeImage      string
	transcribeAnnotation string
	transcribeBackend    string
	transcribeModel      string
	transcribePrompt     string
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Run OCR on a full image or a single annotation region",
	Long: `Send an image, or the cropped region of one annotation, to a configured
OCR backend. The result lands in the transcription history as the
target's new current version; failures are recorded too.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if (transcribeImage == "") == (transcribeAnnotation == "") {
			return fmt.Errorf("exactly one of --image or --annotation is required")
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

		backend, err := application.Config.Backend(transcribeBackend)
		if err != nil {
			return err
		}
		req := ocr.Request{Model: transcribeModel, Prompt: transcribePrompt}

		if transcribeImage != "" {
			transcription, err := application.OCR.TranscribeImage(ctx, transcribeImage, backend, req, application.Config.User)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "transcription %s (version %d)\n%s\n",
				transcription.ID, transcription.Version, transcription.TextContent)
			return nil
		}

		transcription, err := application.OCR.TranscribeAnnotation(ctx, transcribeAnnotation, backend, req, application.Config.User)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "transcription %s (version %d)\n%s\n",
			transcription.ID, transcription.Version, transcription.TextContent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVar(&transcribeImage, "image", "", "Image id to transcribe in full")
	transcribeCmd.Flags().StringVar(&transcribeAnnotation, "annotation", "", "Annotation id to transcribe")
	transcribeCmd.Flags().StringVarP(&transcribeBackend, "backend", "b", "", "Configured backend name (default: config default)")
	transcribeCmd.Flags().StringVarP(&transcribeModel, "model", "m", "", "Model override")
	transcribeCmd.Flags().StringVarP(&transcribePrompt, "prompt", "p", "", "Prompt override")
}
