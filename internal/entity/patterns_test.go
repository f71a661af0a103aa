// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPatterns_Formats(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		wantCount int
	}{
		{
			name:      "json list",
			file:      "patterns.json",
			content:   `[{"label": "ORG", "pattern": "Comissão Nacional de Eleições"}, {"label": "YEAR", "pattern": [{"IS_DIGIT": true, "LENGTH": 4}]}]`,
			wantCount: 2,
		},
		{
			name:      "json single object",
			file:      "patterns.json",
			content:   `{"label": "ORG", "pattern": "CNE"}`,
			wantCount: 1,
		},
		{
			name:      "jsonl with blank lines",
			file:      "patterns.jsonl",
			content:   "{\"label\": \"ORG\", \"pattern\": \"CNE\"}\n\n{\"label\": \"GPE\", \"pattern\": \"Lisboa\"}\n",
			wantCount: 2,
		},
		{
			name: "yaml list",
			file: "patterns.yaml",
			content: `- label: ORG
  pattern: CNE
- label: YEAR
  id: year
  pattern:
    - IS_DIGIT: true
      LENGTH: 4
`,
			wantCount: 2,
		},
		{
			name:      "empty file",
			file:      "patterns.jsonl",
			content:   "  \n",
			wantCount: 0,
		},
		{
			name:      "unknown extension read as json",
			file:      "patterns.txt",
			content:   `[{"label": "ORG", "pattern": "CNE"}]`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			patterns, err := LoadPatterns(path)
			require.NoError(t, err)
			assert.Len(t, patterns, tt.wantCount)
		})
	}
}

func TestLoadPatterns_YAMLTokens(t *testing.T) {
	path := writeFile(t, t.TempDir(), "p.yml", "label: YEAR\nid: y\npattern:\n  - LENGTH: 4\n")
	patterns, err := LoadPatterns(path)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "YEAR", patterns[0].Label)
	assert.Equal(t, "y", patterns[0].ID)
	require.Len(t, patterns[0].Tokens, 1)

	r := NewRuler("en")
	require.NoError(t, r.AddPatterns(patterns))
	ents := r.Entities("in 2024 and 99")
	require.Len(t, ents, 1)
	assert.Equal(t, "2024", ents[0].Text)
}

func TestLoadPatterns_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantMsg string
	}{
		{name: "bad jsonl line", file: "p.jsonl", content: "{\"label\": \"A\", \"pattern\": \"x\"}\n{oops\n", wantMsg: "line 2"},
		{name: "bad json", file: "p.json", content: "[{", wantMsg: "invalid JSON"},
		{name: "scalar document", file: "p.json", content: "42", wantMsg: "object or a list"},
		{name: "missing label", file: "p.json", content: `[{"pattern": "x"}]`, wantMsg: "missing label"},
		{name: "bad pattern type", file: "p.json", content: `[{"label": "A", "pattern": 3}]`, wantMsg: "string or a list"},
		{name: "non-object entry", file: "p.json", content: `["x"]`, wantMsg: "entry 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadPatterns(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadPatterns_MissingFile(t *testing.T) {
	_, err := LoadPatterns("/nonexistent/patterns.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
