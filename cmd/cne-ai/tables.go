// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cne-ai/internal/pipeline"
)

var tablesCmd = &cobra.Command{
	Use:   "tables <docx>",
	Short: "Write each table of a DOCX document as a CSV file",
	Long: `Tables reads every top-level table of a DOCX document and writes the
ones with data to the output directory as <basename>_1.csv, <basename>_2.csv,
and so on, numbered in document order. Merged cells repeat their text in
every grid column they cover.`,
	Args: cobra.ExactArgs(1),
	RunE: runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"extraction.output_dir": "output",
		"extraction.basename":   "basename",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := pipeline.ExtractDocument(context.Background(), args[0], cfg.Extraction)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d CSV files to %s\n", len(paths), cfg.Extraction.OutputDir)
	return nil
}

func init() {
	tablesCmd.Flags().String("output", "tables", "directory where CSV files are written")
	tablesCmd.Flags().String("basename", "table", "base name for the CSV files")

	rootCmd.AddCommand(tablesCmd)
}
