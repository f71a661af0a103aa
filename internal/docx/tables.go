// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"strings"

	"github.com/pdiddy/cne-ai/pkg/types"
)

func buildTable(tx tableXML, index int) types.Table {
	t := types.Table{
		Index:    index,
		GridCols: len(tx.Grid.Cols),
		Rows:     make([]types.Row, 0, len(tx.Rows)),
	}
	for _, rx := range tx.Rows {
		row := types.Row{
			GridBefore: max(rx.Properties.GridBefore.intVal(0), 0),
			GridAfter:  max(rx.Properties.GridAfter.intVal(0), 0),
			Header:     rx.Properties.Header.onOff(),
			Cells:      make([]types.Cell, 0, len(rx.Cells)),
		}
		for _, cx := range rx.Cells {
			row.Cells = append(row.Cells, buildCell(cx))
		}
		t.Rows = append(t.Rows, clampRow(row, max(t.GridCols, len(row.Cells))))
	}
	return t
}

// clampRow bounds the row's grid offsets and spans so that it covers at
// most limit columns. Every cell keeps at least one column; columns beyond
// that are handed out left to right.
func clampRow(row types.Row, limit int) types.Row {
	room := limit - len(row.Cells)
	row.GridBefore = min(row.GridBefore, room)
	room -= row.GridBefore
	for i, c := range row.Cells {
		extra := min(c.Span()-1, room)
		row.Cells[i].ColSpan = 1 + extra
		room -= extra
	}
	row.GridAfter = min(row.GridAfter, room)
	return row
}

func buildCell(cx cellXML) types.Cell {
	c := types.Cell{
		Text:    cellText(cx.Paragraphs),
		ColSpan: max(cx.Properties.GridSpan.intVal(1), 1),
	}
	if vm := cx.Properties.VMerge; vm != nil {
		if strings.EqualFold(strings.TrimSpace(vm.Val), "restart") {
			c.VMerge = types.VMergeRestart
		} else {
			c.VMerge = types.VMergeContinue
		}
	}
	return c
}

// cellText joins paragraph texts with newlines and normalises the result.
func cellText(paras []paragraphXML) string {
	parts := make([]string, len(paras))
	for i, p := range paras {
		parts[i] = p.Text
	}
	return NormaliseCell(strings.Join(parts, "\n"))
}

// NormaliseCell converts CRLF line endings to LF and trims surrounding
// whitespace.
func NormaliseCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
