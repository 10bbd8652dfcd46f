// Package main is the entry point for the HUD relay server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hud-relay",
	Short: "HUD update relay",
	Long:  `hud-relay fans HUD update batches out between clients viewing the same subject and can dump the layout-file JSON schema.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(schemaCmd)
}
