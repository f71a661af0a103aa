// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes operator grids as CSV files, either into a
// directory tree or into a single ZIP archive.
//
// Layout, for both forms:
//
//	Operador_A/operator_a_table_1.csv
//	Operador_A/operator_a_table_2.csv
//	Operador_B/operator_b_table_1.csv
//	...
package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/cne-ai/pkg/types"
)

// ArchiveName is the file name offered for downloaded archives.
const ArchiveName = "operadores_csv.zip"

// now stamps archive entries.
var now = time.Now

// OperatorDir returns the directory name for an operator's CSV files.
func OperatorDir(operator string) string {
	return "Operador_" + operator
}

// FileName returns the CSV file name for the n-th grid (1-based).
func FileName(basename string, n int) string {
	return fmt.Sprintf("%s_%d.csv", basename, n)
}

// WriteCSV writes grid in the Excel dialect: comma separated, quoted only
// when needed, CRLF line endings.
func WriteCSV(w io.Writer, grid types.Grid) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.WriteAll(grid); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}

// ExportTables writes each grid to dir/<basename>_<n>.csv, creating dir as
// needed, and returns the written paths in order.
func ExportTables(grids []types.Grid, dir, basename string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(grids))
	for i, g := range grids {
		p := filepath.Join(dir, FileName(basename, i+1))
		if err := writeCSVFile(p, g); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeCSVFile(p string, g types.Grid) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("creating %s: %w", p, err)
	}
	if err := WriteCSV(f, g); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", p, err)
	}
	return f.Close()
}

// ExportOperators writes every operator's grids under dir/Operador_<X>/ and
// returns all written paths, operator by operator.
func ExportOperators(outputs []types.OperatorOutput, dir string) ([]string, error) {
	var paths []string
	for _, out := range outputs {
		p, err := ExportTables(out.Grids, filepath.Join(dir, OperatorDir(out.Operator)), out.Basename)
		paths = append(paths, p...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// WriteZip writes every operator's grids into a deflate-compressed ZIP
// archive on w. Entries carry the time of writing.
func WriteZip(w io.Writer, outputs []types.OperatorOutput) error {
	zw := zip.NewWriter(w)
	modified := now()
	for _, out := range outputs {
		for i, g := range out.Grids {
			name := path.Join(OperatorDir(out.Operator), FileName(out.Basename, i+1))
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     name,
				Method:   zip.Deflate,
				Modified: modified,
			})
			if err != nil {
				return fmt.Errorf("adding %s: %w", name, err)
			}
			if err := WriteCSV(fw, g); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// WriteZipFile writes the archive to p, creating parent directories.
func WriteZipFile(p string, outputs []types.OperatorOutput) error {
	if dir := filepath.Dir(p); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("creating %s: %w", p, err)
	}
	if err := WriteZip(f, outputs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ZipPath returns p with a .zip suffix, replacing any other extension.
// The comparison is case-sensitive, so "out.ZIP" becomes "out.zip".
func ZipPath(p string) string {
	ext := filepath.Ext(p)
	if ext == ".zip" {
		return p
	}
	return strings.TrimSuffix(p, ext) + ".zip"
}
