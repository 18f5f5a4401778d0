/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/transcritor/internal/app"
	"github.com/lewtec/transcritor/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transcritor",
	Short: "Annotate and transcribe scanned documents",
	Long: strings.TrimSpace(`
Manage projects of scanned document images: draw annotation regions,
transcribe them through OCR backends with full version history, and move
data in and out through JSON, PageXML and bundle exports.
    `),
}

var configFile string

// openApp loads the configuration and wires the application container.
func openApp() (*app.App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "transcritor.yaml", "Config file path")
}
