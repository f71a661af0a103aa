// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs documents through table extraction, the table
// operators, and CSV export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/cne-ai/internal/docx"
	"github.com/pdiddy/cne-ai/internal/export"
	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

var (
	// ErrNoTables is returned when a document has no table with data.
	ErrNoTables = errors.New("the document does not contain tables with data")

	// ErrDestinationIsFile is returned when a directory export targets an
	// existing regular file.
	ErrDestinationIsFile = errors.New("destination is a file; choose a directory or use --zip")

	// ErrOperatorPanic is returned when an operator panics on a table.
	ErrOperatorPanic = errors.New("operator panicked")
)

const defaultBasename = "table"

// Result holds the tables read from a document and every operator's output.
type Result struct {
	Tables  []types.Table
	Outputs []types.OperatorOutput
}

// CSVCount returns the number of CSV files the outputs produce.
func (r Result) CSVCount() int {
	n := 0
	for _, o := range r.Outputs {
		n += len(o.Grids)
	}
	return n
}

// Run applies every operator to tables. Operators run concurrently; outputs
// keep the order of ops. A panicking operator yields ErrOperatorPanic.
func Run(ctx context.Context, tables []types.Table, ops []operator.Operator) ([]types.OperatorOutput, error) {
	outputs := make([]types.OperatorOutput, len(ops))
	g, ctx := errgroup.WithContext(ctx)
	for i, op := range ops {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("operator %s: %w: %v", op.Name(), ErrOperatorPanic, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			outputs[i] = types.OperatorOutput{
				Operator: op.Name(),
				Basename: op.Basename(),
				Grids:    op.Apply(tables),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// ConvertDocument extracts the tables of the document at path and runs the
// operators over them. It returns ErrNoTables when no table has data.
func ConvertDocument(ctx context.Context, path string, ops []operator.Operator) (Result, error) {
	tables, err := docx.ExtractTables(path)
	if err != nil {
		return Result{}, err
	}
	if len(tables) == 0 {
		return Result{}, ErrNoTables
	}
	outputs, err := Run(ctx, tables, ops)
	if err != nil {
		return Result{}, err
	}
	return Result{Tables: tables, Outputs: outputs}, nil
}

// ExtractDocument writes the grid view of every table with data to
// cfg.OutputDir as <basename>_<n>.csv and returns the written paths.
func ExtractDocument(ctx context.Context, path string, cfg types.ExtractionConfig) ([]string, error) {
	tables, err := docx.ExtractTables(path)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	grid, err := operator.New(operator.NameA)
	if err != nil {
		return nil, err
	}
	outputs, err := Run(ctx, tables, []operator.Operator{grid})
	if err != nil {
		return nil, err
	}

	basename := cfg.Basename
	if basename == "" {
		basename = defaultBasename
	}
	return export.ExportTables(outputs[0].Grids, cfg.OutputDir, basename)
}

// ExportDocument converts the document at path and writes the operator
// outputs to cfg.OutputDir: a directory tree, or a ZIP archive when cfg.Zip
// is set (the path then gets a .zip suffix). It returns the written
// directory or archive path and prints a one-line report to w.
func ExportDocument(ctx context.Context, path string, cfg types.ExtractionConfig, ops []operator.Operator, w io.Writer) (string, error) {
	dest := cfg.OutputDir
	if !cfg.Zip {
		if info, err := os.Stat(dest); err == nil && !info.IsDir() {
			return "", fmt.Errorf("%s: %w", dest, ErrDestinationIsFile)
		}
	}

	res, err := ConvertDocument(ctx, path, ops)
	if err != nil {
		return "", err
	}

	if cfg.Zip {
		dest = export.ZipPath(dest)
		if err := export.WriteZipFile(dest, res.Outputs); err != nil {
			return "", err
		}
		fmt.Fprintf(w, "archive created: %s (%d CSV files)\n", dest, res.CSVCount())
		return dest, nil
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	paths, err := export.ExportOperators(res.Outputs, dest)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w, "export complete: %d CSV files in %s\n", len(paths), dest)
	return dest, nil
}
