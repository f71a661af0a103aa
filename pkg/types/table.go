// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VMerge describes a cell's role in a vertical merge.
type VMerge int

const (
	// VMergeNone marks a cell that is not part of a vertical merge.
	VMergeNone VMerge = iota
	// VMergeRestart marks the first cell of a vertically merged area.
	VMergeRestart
	// VMergeContinue marks a cell that continues the merge started above it.
	VMergeContinue
)

// String returns the name used for VMerge in YAML and JSON output.
func (v VMerge) String() string {
	switch v {
	case VMergeRestart:
		return "restart"
	case VMergeContinue:
		return "continue"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v VMerge) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Cell is a single physical cell as it appears in the document.
type Cell struct {
	// Text is the normalised cell text: paragraphs joined with "\n",
	// surrounding whitespace removed.
	Text string `json:"text" yaml:"text"`

	// ColSpan is the number of grid columns the cell covers (at least 1).
	ColSpan int `json:"col_span" yaml:"col_span"`

	VMerge VMerge `json:"vmerge,omitempty" yaml:"vmerge,omitempty"`
}

// Span returns ColSpan clamped to at least one grid column.
func (c Cell) Span() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// Row is an ordered list of cells. GridBefore and GridAfter count grid
// columns skipped before the first cell and after the last cell.
type Row struct {
	Cells      []Cell `json:"cells" yaml:"cells"`
	GridBefore int    `json:"grid_before,omitempty" yaml:"grid_before,omitempty"`
	GridAfter  int    `json:"grid_after,omitempty" yaml:"grid_after,omitempty"`
	Header     bool   `json:"header,omitempty" yaml:"header,omitempty"`
}

// Width returns the number of grid columns the row occupies, including
// skipped columns on either side.
func (r Row) Width() int {
	w := r.GridBefore + r.GridAfter
	for _, c := range r.Cells {
		w += c.Span()
	}
	return w
}

// Table is a table read from the body of a document.
type Table struct {
	// Index is the 1-based position of the table among all body tables,
	// counted before empty tables are dropped.
	Index int `json:"index" yaml:"index"`

	// GridCols is the number of columns declared by the table grid.
	GridCols int `json:"grid_cols" yaml:"grid_cols"`

	Rows []Row `json:"rows" yaml:"rows"`
}

// IsEmpty reports whether every cell of the table has empty text.
func (t Table) IsEmpty() bool {
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			if c.Text != "" {
				return false
			}
		}
	}
	return true
}

// Width returns the widest row width, or GridCols when that is larger.
func (t Table) Width() int {
	w := t.GridCols
	for _, r := range t.Rows {
		w = max(w, r.Width())
	}
	return w
}

// Grid is the rectangular text form an operator produces for one table.
// Rows may have different lengths.
type Grid [][]string

// OperatorOutput is everything one operator produced for a document.
type OperatorOutput struct {
	// Operator is the operator's short name ("A" or "B").
	Operator string `json:"operator" yaml:"operator"`

	// Basename prefixes every CSV file name, e.g. "operator_a_table".
	Basename string `json:"basename" yaml:"basename"`

	Grids []Grid `json:"grids" yaml:"grids"`
}
