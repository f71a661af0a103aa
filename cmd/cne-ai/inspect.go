// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cne-ai/internal/docx"
	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/internal/pipeline"
	"github.com/pdiddy/cne-ai/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <docx>",
	Short: "Summarise the tables of a DOCX document",
	Long: `Inspect lists every top-level table of a DOCX document with its size,
header rows, and merged cells, including tables without data. With --grids
the compact (operator B) view of each table with data is included.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

type tableReport struct {
	Index      int        `json:"index" yaml:"index"`
	Rows       int        `json:"rows" yaml:"rows"`
	Cols       int        `json:"cols" yaml:"cols"`
	HeaderRows int        `json:"header_rows" yaml:"header_rows"`
	Merged     int        `json:"merged_cells" yaml:"merged_cells"`
	Empty      bool       `json:"empty" yaml:"empty"`
	Grid       types.Grid `json:"grid,omitempty" yaml:"grid,omitempty"`
}

type documentReport struct {
	Document string        `json:"document" yaml:"document"`
	Tables   []tableReport `json:"tables" yaml:"tables"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	withGrids, _ := cmd.Flags().GetBool("grids")

	r, err := docx.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := buildReport(context.Background(), filepath.Base(args[0]), r.Tables(), withGrids)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), report, format)
}

func buildReport(ctx context.Context, name string, tables []types.Table, withGrids bool) (documentReport, error) {
	report := documentReport{Document: name, Tables: []tableReport{}}
	var grids []types.Grid
	if withGrids {
		compact, err := operator.New(operator.NameB)
		if err != nil {
			return report, err
		}
		outputs, err := pipeline.Run(ctx, docx.NonEmpty(tables), []operator.Operator{compact})
		if err != nil {
			return report, err
		}
		grids = outputs[0].Grids
	}

	next := 0
	for _, t := range tables {
		tr := tableReport{Index: t.Index, Rows: len(t.Rows), Cols: t.Width(), Empty: t.IsEmpty()}
		for _, row := range t.Rows {
			if row.Header {
				tr.HeaderRows++
			}
			for _, c := range row.Cells {
				if c.Span() > 1 || c.VMerge != types.VMergeNone {
					tr.Merged++
				}
			}
		}
		if !tr.Empty && next < len(grids) {
			tr.Grid = grids[next]
			next++
		}
		report.Tables = append(report.Tables, tr)
	}
	return report, nil
}

func writeReport(w io.Writer, report documentReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		fmt.Fprintf(w, "%s: %d tables\n", report.Document, len(report.Tables))
		for _, t := range report.Tables {
			status := ""
			if t.Empty {
				status = " (empty)"
			}
			fmt.Fprintf(w, "  table %d: %d rows x %d cols, %d header rows, %d merged cells%s\n",
				t.Index, t.Rows, t.Cols, t.HeaderRows, t.Merged, status)
			for _, row := range t.Grid {
				fmt.Fprintf(w, "    | %s |\n", strings.Join(row, " | "))
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use text, yaml, or json)", format)
	}
}

func init() {
	inspectCmd.Flags().String("format", "text", "output format: text, yaml, or json")
	inspectCmd.Flags().Bool("grids", false, "include the compact grid of each table")

	rootCmd.AddCommand(inspectCmd)
}
