package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BragginRites/bg3-hud-core-sub001/internal/layout"
)

var schemaOut string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Dump the layout-file JSON schema",
	Long:  `Generate the JSON schema validating exported HUD layout documents. Writes to stdout unless --out is given.`,
	RunE:  runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "path to write the schema instead of stdout")
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := layout.Schema()
	if err != nil {
		return err
	}
	if schemaOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	tmpPath := schemaOut + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, schemaOut); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
