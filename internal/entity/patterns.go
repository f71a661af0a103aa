// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entity

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrInvalidPattern is returned for pattern records that cannot be compiled.
var ErrInvalidPattern = errors.New("invalid entity pattern")

// Pattern is one ruler rule. Phrase holds an exact token sequence to
// match; Tokens holds per-token attribute specs. Exactly one is set.
type Pattern struct {
	Label  string           `json:"label" yaml:"label"`
	ID     string           `json:"id,omitempty" yaml:"id,omitempty"`
	Phrase string           `json:"-" yaml:"-"`
	Tokens []map[string]any `json:"-" yaml:"-"`
}

// LoadPatterns reads ruler patterns from path. A .jsonl file holds one JSON
// object per line; .yaml and .yml files and any other extension (read as
// JSON) hold a single object or a list of objects. Blank files and blank
// JSONL lines are ignored.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patterns file not found: %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return parseJSONLines(data, path)
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
		return patternsFromDocument(doc, path)
	default:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
		return patternsFromDocument(doc, path)
	}
}

func parseJSONLines(data []byte, path string) ([]Pattern, error) {
	var patterns []Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d of %s: %w", line, path, err)
		}
		p, err := ParsePattern(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d of %s: %w", line, path, err)
		}
		patterns = append(patterns, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return patterns, nil
}

func patternsFromDocument(doc any, path string) ([]Pattern, error) {
	switch v := doc.(type) {
	case map[string]any:
		p, err := ParsePattern(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []Pattern{p}, nil
	case []any:
		patterns := make([]Pattern, 0, len(v))
		for i, item := range v {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: entry %d: %w: expected an object", path, i+1, ErrInvalidPattern)
			}
			p, err := ParsePattern(rec)
			if err != nil {
				return nil, fmt.Errorf("%s: entry %d: %w", path, i+1, err)
			}
			patterns = append(patterns, p)
		}
		return patterns, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%s: %w: expected an object or a list of objects", path, ErrInvalidPattern)
	}
}

// ParsePattern converts a decoded {"label", "pattern", "id"} record.
func ParsePattern(rec map[string]any) (Pattern, error) {
	label, _ := rec["label"].(string)
	if strings.TrimSpace(label) == "" {
		return Pattern{}, fmt.Errorf("%w: missing label", ErrInvalidPattern)
	}
	p := Pattern{Label: label}
	if id, ok := rec["id"]; ok && id != nil {
		p.ID = fmt.Sprint(id)
	}

	switch v := rec["pattern"].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return Pattern{}, fmt.Errorf("%w: empty phrase for label %s", ErrInvalidPattern, label)
		}
		p.Phrase = v
	case []any:
		if len(v) == 0 {
			return Pattern{}, fmt.Errorf("%w: empty token pattern for label %s", ErrInvalidPattern, label)
		}
		for i, item := range v {
			spec, ok := item.(map[string]any)
			if !ok {
				return Pattern{}, fmt.Errorf("%w: token %d of label %s is not an object", ErrInvalidPattern, i+1, label)
			}
			p.Tokens = append(p.Tokens, spec)
		}
	default:
		return Pattern{}, fmt.Errorf("%w: pattern for label %s must be a string or a list", ErrInvalidPattern, label)
	}
	return p, nil
}
