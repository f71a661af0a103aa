// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package operator turns parsed document tables into text grids.
//
// Two operators exist. Operator A is the grid view: every grid column gets
// the text of the cell covering it, so spanned and vertically merged text
// repeats. Operator B is the compact view: merged areas are written once,
// whitespace is collapsed, and empty rows and columns are dropped. B can
// also append an entities column produced by a Recognizer.
package operator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/cne-ai/internal/entity"
	"github.com/pdiddy/cne-ai/pkg/types"
)

// Operator names in output order.
const (
	NameA = "A"
	NameB = "B"
)

// ErrUnknownOperator is returned for operator names other than A and B.
var ErrUnknownOperator = errors.New("unknown operator")

// Operator converts tables into grids, one grid per table.
type Operator interface {
	// Name returns the short operator name ("A" or "B").
	Name() string
	// Basename returns the CSV file name prefix, e.g. "operator_a_table".
	Basename() string
	// Apply returns one grid per table, in table order.
	Apply(tables []types.Table) []types.Grid
}

// Recognizer finds entities in a batch of texts. *entity.Ruler implements it.
type Recognizer interface {
	Pipe(texts []string) [][]entity.Entity
}

type options struct {
	recognizer Recognizer
}

// Option configures operators built by New, Select, and Defaults.
type Option func(*options)

// WithRecognizer enables operator B's entities column.
func WithRecognizer(r Recognizer) Option {
	return func(o *options) {
		o.recognizer = r
	}
}

// New returns the operator with the given name. Names are case-insensitive.
func New(name string, opts ...Option) (Operator, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case NameA:
		return gridOperator{}, nil
	case NameB:
		return compactOperator{recognizer: o.recognizer}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, name)
	}
}

// Defaults returns operators A and B.
func Defaults(opts ...Option) []Operator {
	ops, _ := Select(nil, opts...)
	return ops
}

// Select returns the named operators in the fixed order A, B. Duplicate
// names are ignored; an empty list selects every operator.
func Select(names []string, opts ...Option) ([]Operator, error) {
	if len(names) == 0 {
		names = []string{NameA, NameB}
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		key := strings.ToUpper(strings.TrimSpace(n))
		if key != NameA && key != NameB {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, n)
		}
		want[key] = true
	}

	var ops []Operator
	for _, n := range []string{NameA, NameB} {
		if !want[n] {
			continue
		}
		op, err := New(n, opts...)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// slot is one grid position of a laid-out row.
type slot struct {
	text string
	// origin marks the first grid column of a cell that starts its own
	// content (not a vertical continuation).
	origin bool
}

// layout places every cell of t on the table grid. Spanned cells fill each
// covered column with their text; vertical continuations take the text of
// the cell above in the same grid column. Columns skipped by gridBefore and
// gridAfter hold empty slots.
func layout(t types.Table) [][]slot {
	above := make(map[int]string)
	rows := make([][]slot, 0, len(t.Rows))
	for _, r := range t.Rows {
		slots := make([]slot, r.Width())
		col := r.GridBefore
		for _, c := range r.Cells {
			text := c.Text
			cont := false
			if c.VMerge == types.VMergeContinue {
				if v, ok := above[col]; ok {
					text = v
					cont = true
				}
			}
			for k := range c.Span() {
				slots[col+k] = slot{text: text, origin: k == 0 && !cont}
				above[col+k] = text
			}
			col += c.Span()
		}
		rows = append(rows, slots)
	}
	return rows
}
