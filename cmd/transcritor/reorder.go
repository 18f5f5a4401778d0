/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reorderCmd represents the reorder command
var reorderCmd = &cobra.Command{
	Use:   "reorder image_id annotation_id...",
	Short: "Rewrite an image's reading order in one batch",
	Long: `Assign reading orders 1..n to the listed annotations, in the order the
ids are given. All ids must belong to the image; the batch applies
atomically or not at all.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()

		imageID, orderedIDs := args[0], args[1:]
		if err := application.Annotations.Reorder(cmd.Context(), imageID, orderedIDs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reordered %d annotations on image %s\n",
			len(orderedIDs), imageID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reorderCmd)
}
