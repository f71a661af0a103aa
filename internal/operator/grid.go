// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package operator

import "github.com/pdiddy/cne-ai/pkg/types"

// gridOperator is operator A.
type gridOperator struct{}

func (gridOperator) Name() string     { return NameA }
func (gridOperator) Basename() string { return "operator_a_table" }

// Apply writes one value per grid column. Rows keep their natural width.
func (gridOperator) Apply(tables []types.Table) []types.Grid {
	grids := make([]types.Grid, 0, len(tables))
	for _, t := range tables {
		rows := layout(t)
		g := make(types.Grid, len(rows))
		for i, slots := range rows {
			g[i] = make([]string, len(slots))
			for j, s := range slots {
				g[i][j] = s.text
			}
		}
		grids = append(grids, g)
	}
	return grids
}
