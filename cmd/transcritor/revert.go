/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// revertCmd represents the revert command
var revertCmd = &cobra.Command{
	Use:   "revert transcription_id",
	Short: "Make a historical transcription version current again",
	Long: `Append a new current version copying a historical record's content. The
history stays intact: nothing is overwritten, the copy points back at
the record it was reverted from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := openApp()
		if err != nil {
			return err
		}
		defer application.Close()

		transcription, err := application.Ledger.Revert(cmd.Context(), args[0], application.Config.User)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reverted to new version %d (transcription %s)\n",
			transcription.Version, transcription.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revertCmd)
}
