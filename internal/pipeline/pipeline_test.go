// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cne-ai/internal/docx"
	"github.com/pdiddy/cne-ai/internal/docx/docxtest"
	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

// resultsBody holds one empty table and two tables with data.
var resultsBody = docxtest.Table([]string{"", ""}) +
	docxtest.Paragraph("Results") +
	docxtest.Table(
		[]string{"Party", "Votes"},
		[]string{"PS", "1200"},
	) +
	docxtest.Table([]string{"Turnout", "51%"})

func writeDocument(t *testing.T, dir, name, body string) string {
	t.Helper()
	return docxtest.Write(t, dir, name, body)
}

func TestRun_KeepsOperatorOrder(t *testing.T) {
	tables := []types.Table{{Rows: []types.Row{{Cells: []types.Cell{{Text: "x", ColSpan: 1}}}}}}
	outputs, err := Run(context.Background(), tables, operator.Defaults())
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "A", outputs[0].Operator)
	assert.Equal(t, "operator_a_table", outputs[0].Basename)
	assert.Equal(t, "B", outputs[1].Operator)
	assert.Equal(t, types.Grid{{"x"}}, outputs[1].Grids[0])
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, nil, operator.Defaults())
	assert.ErrorIs(t, err, context.Canceled)
}

type panickingOperator struct{}

func (panickingOperator) Name() string     { return "P" }
func (panickingOperator) Basename() string { return "panicking_table" }
func (panickingOperator) Apply([]types.Table) []types.Grid {
	panic("index out of range")
}

func TestRun_RecoversOperatorPanic(t *testing.T) {
	ops := append(operator.Defaults(), panickingOperator{})
	_, err := Run(context.Background(), nil, ops)
	require.ErrorIs(t, err, ErrOperatorPanic)
	assert.Contains(t, err.Error(), "operator P")
}

func TestConvertDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "results.docx", resultsBody)

	res, err := ConvertDocument(context.Background(), path, operator.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Tables, 2)
	assert.Equal(t, 2, res.Tables[0].Index)
	assert.Equal(t, 4, res.CSVCount())
	assert.Equal(t, types.Grid{{"Party", "Votes"}, {"PS", "1200"}}, res.Outputs[0].Grids[0])
}

func TestConvertDocument_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("no tables", func(t *testing.T) {
		path := writeDocument(t, dir, "plain.docx", docxtest.Paragraph("text only"))
		_, err := ConvertDocument(context.Background(), path, operator.Defaults())
		assert.ErrorIs(t, err, ErrNoTables)
	})

	t.Run("only empty tables", func(t *testing.T) {
		path := writeDocument(t, dir, "empty.docx", docxtest.Table([]string{" "}))
		_, err := ConvertDocument(context.Background(), path, operator.Defaults())
		assert.ErrorIs(t, err, ErrNoTables)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ConvertDocument(context.Background(), filepath.Join(dir, "nope.docx"), operator.Defaults())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("not a docx", func(t *testing.T) {
		path := filepath.Join(dir, "fake.docx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
		_, err := ConvertDocument(context.Background(), path, operator.Defaults())
		assert.ErrorIs(t, err, docx.ErrInvalidDocument)
	})
}

func TestExtractDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "results.docx", resultsBody)
	out := filepath.Join(dir, "tables")

	paths, err := ExtractDocument(context.Background(), path, types.ExtractionConfig{OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "table_1.csv"),
		filepath.Join(out, "table_2.csv"),
	}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "Turnout,51%\r\n", string(data))
}

func TestExportDocument_Directory(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "results.docx", resultsBody)
	out := filepath.Join(dir, "resultados_operadores")

	var log bytes.Buffer
	dest, err := ExportDocument(context.Background(), path, types.ExtractionConfig{OutputDir: out}, operator.Defaults(), &log)
	require.NoError(t, err)
	assert.Equal(t, out, dest)
	assert.Contains(t, log.String(), "4 CSV files")

	for _, p := range []string{
		"Operador_A/operator_a_table_1.csv",
		"Operador_A/operator_a_table_2.csv",
		"Operador_B/operator_b_table_1.csv",
		"Operador_B/operator_b_table_2.csv",
	} {
		assert.FileExists(t, filepath.Join(out, p))
	}
}

func TestExportDocument_Zip(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "results.docx", resultsBody)

	var log bytes.Buffer
	dest, err := ExportDocument(context.Background(), path,
		types.ExtractionConfig{OutputDir: filepath.Join(dir, "out", "resultados"), Zip: true},
		operator.Defaults(), &log)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "resultados.zip"), dest)
	assert.Contains(t, log.String(), "archive created")

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 4)
}

func TestExportDocument_DestinationIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "results.docx", resultsBody)
	dest := filepath.Join(dir, "taken")
	require.NoError(t, os.WriteFile(dest, []byte("x"), 0o644))

	_, err := ExportDocument(context.Background(), path, types.ExtractionConfig{OutputDir: dest}, operator.Defaults(), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrDestinationIsFile)
}

func TestExportBatch(t *testing.T) {
	dir := t.TempDir()
	good := writeDocument(t, dir, "good.docx", resultsBody)
	again := writeDocument(t, dir, "again.docx", resultsBody)
	plain := writeDocument(t, dir, "plain.docx", docxtest.Paragraph("nothing"))
	broken := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o644))

	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "again"), 0o755))

	var log bytes.Buffer
	cfg := types.ExtractionConfig{OutputDir: out, Concurrency: 2}
	result := ExportBatch(context.Background(), []string{good, again, plain, broken}, cfg, operator.Defaults(), &log)

	assert.Equal(t, BatchResult{Exported: 1, Skipped: 2, Failed: 1}, result)
	assert.Equal(t, 4, result.Total())
	assert.True(t, result.HasFailures())

	output := log.String()
	assert.Contains(t, output, "exported: good")
	assert.Contains(t, output, "skipped: again (already exists)")
	assert.Contains(t, output, "skipped: plain (no tables with data)")
	assert.Contains(t, output, "failed:  broken")
	assert.True(t, strings.HasSuffix(output, "Batch summary: 1 exported, 2 skipped, 1 failed (total: 4)\n"))
	assert.FileExists(t, filepath.Join(out, "good", "Operador_B", "operator_b_table_2.csv"))
}

func TestExportBatch_Zip(t *testing.T) {
	dir := t.TempDir()
	path := writeDocument(t, dir, "report.v2.docx", resultsBody)
	out := filepath.Join(dir, "zips")

	result := ExportBatch(context.Background(), []string{path}, types.ExtractionConfig{OutputDir: out, Zip: true}, operator.Defaults(), &bytes.Buffer{})
	assert.Equal(t, 1, result.Exported)
	assert.FileExists(t, filepath.Join(out, "report.v2.zip"))
}

func TestTargetNames(t *testing.T) {
	got := TargetNames([]string{
		"a/report.docx",
		"b/report.docx",
		"c/Report.docx",
		"report_2.docx",
		"other.docx",
	})
	assert.Equal(t, []string{"report", "report_2", "Report_3", "report_2_2", "other"}, got)
}

func TestExportBatch_DuplicateStems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	first := writeDocument(t, filepath.Join(dir, "a"), "report.docx", resultsBody)
	second := writeDocument(t, filepath.Join(dir, "b"), "report.docx", resultsBody)
	out := filepath.Join(dir, "out")

	for _, concurrency := range []int{1, 2} {
		var log bytes.Buffer
		cfg := types.ExtractionConfig{OutputDir: filepath.Join(out, fmt.Sprint(concurrency)), Zip: true, Concurrency: concurrency}
		result := ExportBatch(context.Background(), []string{first, second}, cfg, operator.Defaults(), &log)

		assert.Equal(t, BatchResult{Exported: 2}, result, log.String())
		assert.Contains(t, log.String(), "exported: report\n")
		assert.Contains(t, log.String(), "exported: report_2\n")
		assert.FileExists(t, filepath.Join(cfg.OutputDir, "report.zip"))
		assert.FileExists(t, filepath.Join(cfg.OutputDir, "report_2.zip"))
	}
}
