// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package operator

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/cne-ai/pkg/types"
)

// EntitiesHeader heads the column operator B appends when a Recognizer is set.
const EntitiesHeader = "entities"

// compactOperator is operator B.
type compactOperator struct {
	recognizer Recognizer
}

func (compactOperator) Name() string     { return NameB }
func (compactOperator) Basename() string { return "operator_b_table" }

func (o compactOperator) Apply(tables []types.Table) []types.Grid {
	grids := make([]types.Grid, 0, len(tables))
	for _, t := range tables {
		g := compact(layout(t))
		if o.recognizer != nil {
			g = o.appendEntities(g)
		}
		grids = append(grids, g)
	}
	return grids
}

// compact writes each cell once at its origin, pads rows to a common width,
// and removes rows and columns with no text.
func compact(rows [][]slot) types.Grid {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	g := make(types.Grid, 0, len(rows))
	for _, r := range rows {
		row := make([]string, width)
		empty := true
		for j, s := range r {
			if !s.origin {
				continue
			}
			row[j] = Clean(s.text)
			if row[j] != "" {
				empty = false
			}
		}
		if !empty {
			g = append(g, row)
		}
	}
	return dropEmptyColumns(g, width)
}

func dropEmptyColumns(g types.Grid, width int) types.Grid {
	keep := make([]int, 0, width)
	for j := range width {
		for _, row := range g {
			if row[j] != "" {
				keep = append(keep, j)
				break
			}
		}
	}
	if len(keep) == width {
		return g
	}
	for i, row := range g {
		out := make([]string, len(keep))
		for k, j := range keep {
			out[k] = row[j]
		}
		g[i] = out
	}
	return g
}

// appendEntities adds the entities column. The first row is the header.
func (o compactOperator) appendEntities(g types.Grid) types.Grid {
	for i, row := range g {
		if i == 0 {
			g[i] = append(row, EntitiesHeader)
			continue
		}
		var found []string
		for _, ents := range o.recognizer.Pipe(row) {
			for _, e := range ents {
				found = append(found, e.Label+":"+e.Text)
			}
		}
		g[i] = append(row, strings.Join(found, "; "))
	}
	return g
}

// Clean collapses runs of whitespace to a single space, trims the ends, and
// applies Unicode NFC normalisation.
func Clean(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
