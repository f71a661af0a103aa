// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cne-ai/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export <docx...>",
	Short: "Export operator A and B outputs of DOCX documents",
	Long: `Export converts DOCX tables with the table operators and writes
Operador_A/ and Operador_B/ CSV folders under the output directory, or a
single ZIP archive with the same layout when --zip is set.

With several documents each one gets its own folder or archive named after
the document under the output directory. Documents whose output already
exists are skipped, and the run ends with a summary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"extraction.output_dir":  "output",
		"extraction.zip":         "zip",
		"extraction.concurrency": "concurrency",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ops, err := operators(cfg.Operators)
	if err != nil {
		return err
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		_, err := pipeline.ExportDocument(ctx, args[0], cfg.Extraction, ops, out)
		return err
	}

	result := pipeline.ExportBatch(ctx, args, cfg.Extraction, ops, out)
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed to export", result.Failed)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("output", "resultados_operadores", "destination directory, or the archive name with --zip")
	exportCmd.Flags().Bool("zip", false, "write a ZIP archive instead of folders")
	exportCmd.Flags().Int("concurrency", 4, "documents processed at once when exporting several")

	rootCmd.AddCommand(exportCmd)
}
