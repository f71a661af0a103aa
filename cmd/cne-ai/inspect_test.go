// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

func inspectTables() []types.Table {
	return []types.Table{
		{Index: 1, GridCols: 1, Rows: []types.Row{{Cells: []types.Cell{{Text: "", ColSpan: 1}}}}},
		{Index: 2, GridCols: 2, Rows: []types.Row{
			{Header: true, Cells: []types.Cell{{Text: "Party", ColSpan: 2}}},
			{Cells: []types.Cell{{Text: "PS", ColSpan: 1, VMerge: types.VMergeRestart}, {Text: "1200", ColSpan: 1}}},
			{Cells: []types.Cell{{Text: "", ColSpan: 1, VMerge: types.VMergeContinue}, {Text: "900", ColSpan: 1}}},
		}},
	}
}

func TestBuildReport(t *testing.T) {
	report, err := buildReport(context.Background(), "mapa.docx", inspectTables(), true)
	require.NoError(t, err)

	require.Len(t, report.Tables, 2)
	assert.True(t, report.Tables[0].Empty)
	assert.Nil(t, report.Tables[0].Grid)

	second := report.Tables[1]
	assert.Equal(t, 3, second.Rows)
	assert.Equal(t, 2, second.Cols)
	assert.Equal(t, 1, second.HeaderRows)
	assert.Equal(t, 3, second.Merged)
	assert.NotEmpty(t, second.Grid)
}

func TestWriteReport(t *testing.T) {
	report, err := buildReport(context.Background(), "mapa.docx", inspectTables(), false)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, report, "text"))
		assert.Contains(t, buf.String(), "mapa.docx: 2 tables")
		assert.Contains(t, buf.String(), "table 1: 1 rows x 1 cols, 0 header rows, 0 merged cells (empty)")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, report, "json"))
		var got documentReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, report, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, report, "yaml"))
		var got documentReport
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, report, got)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeReport(&bytes.Buffer{}, report, "xml"))
	})
}

func TestOperators(t *testing.T) {
	ops, err := operators(types.OperatorConfig{})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, operator.NameA, ops[0].Name())

	ops, err = operators(types.OperatorConfig{Enabled: []string{"b"}})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, operator.NameB, ops[0].Name())

	_, err = operators(types.OperatorConfig{Enabled: []string{"C"}})
	assert.ErrorIs(t, err, operator.ErrUnknownOperator)

	_, err = operators(types.OperatorConfig{Entities: types.EntityConfig{PatternsPath: "missing.jsonl"}})
	assert.Error(t, err)
}
