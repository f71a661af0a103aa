// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entity implements a rule-based entity ruler. Rules are phrases
// or token patterns with attribute tests and quantifiers, loaded from
// JSON, JSON Lines, or YAML files. Matches that overlap are resolved in
// favour of the longest, then the earliest.
//
// A Ruler is safe for concurrent use once its patterns are added.
package entity

import (
	"fmt"
	"sort"

	"github.com/pdiddy/cne-ai/pkg/types"
)

// Entity is a labelled span of text. Start and End are byte offsets.
type Entity struct {
	Text  string `json:"text" yaml:"text"`
	Label string `json:"label" yaml:"label"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Ruler matches compiled patterns against text.
type Ruler struct {
	lang  string
	rules []rule
}

// NewRuler returns an empty ruler for lang. The language selects the
// number words LIKE_NUM recognises.
func NewRuler(lang string) *Ruler {
	if lang == "" {
		lang = DefaultLanguage
	}
	return &Ruler{lang: lang}
}

// Load builds a ruler from cfg. The language comes from cfg.ConfigPath
// when set, otherwise DefaultLanguage.
func Load(cfg types.EntityConfig) (*Ruler, error) {
	lang := DefaultLanguage
	if cfg.ConfigPath != "" {
		c, err := LoadConfig(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		lang = c.Language
	}

	r := NewRuler(lang)
	if cfg.PatternsPath == "" {
		return r, nil
	}
	patterns, err := LoadPatterns(cfg.PatternsPath)
	if err != nil {
		return nil, err
	}
	if err := r.AddPatterns(patterns); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.PatternsPath, err)
	}
	return r, nil
}

// Language returns the ruler's language code.
func (r *Ruler) Language() string {
	return r.lang
}

// Len returns the number of patterns added.
func (r *Ruler) Len() int {
	return len(r.rules)
}

// AddPatterns compiles and adds patterns. Nothing is added when any
// pattern fails to compile.
func (r *Ruler) AddPatterns(patterns []Pattern) error {
	compiled := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		var (
			ru  rule
			err error
		)
		if p.Phrase != "" {
			ru, err = compilePhrase(p)
		} else {
			ru, err = compileTokens(p, r.lang)
		}
		if err != nil {
			return err
		}
		if len(ru.specs) == 0 {
			return fmt.Errorf("%w: empty pattern for label %s", ErrInvalidPattern, p.Label)
		}
		compiled = append(compiled, ru)
	}
	r.rules = append(r.rules, compiled...)
	return nil
}

type span struct {
	start, end int // token indexes, end exclusive
	rule       int
}

// Entities returns the entities found in text, in text order.
func (r *Ruler) Entities(text string) []Entity {
	toks := Tokenize(text)
	if len(toks) == 0 || len(r.rules) == 0 {
		return nil
	}

	var spans []span
	for ri, ru := range r.rules {
		for start := range toks {
			for _, end := range ru.ends(toks, start) {
				if end > start {
					spans = append(spans, span{start: start, end: end, rule: ri})
				}
			}
		}
	}

	// Longest first, then earliest, then pattern order.
	sort.SliceStable(spans, func(i, j int) bool {
		li, lj := spans[i].end-spans[i].start, spans[j].end-spans[j].start
		if li != lj {
			return li > lj
		}
		return spans[i].start < spans[j].start
	})

	taken := make([]bool, len(toks))
	var kept []span
	for _, s := range spans {
		free := true
		for k := s.start; k < s.end; k++ {
			if taken[k] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for k := s.start; k < s.end; k++ {
			taken[k] = true
		}
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })

	ents := make([]Entity, len(kept))
	for i, s := range kept {
		start, end := toks[s.start].Start, toks[s.end-1].End
		ents[i] = Entity{
			Text:  text[start:end],
			Label: r.rules[s.rule].label,
			ID:    r.rules[s.rule].id,
			Start: start,
			End:   end,
		}
	}
	return ents
}

// Pipe runs Entities over each text.
func (r *Ruler) Pipe(texts []string) [][]Entity {
	out := make([][]Entity, len(texts))
	for i, t := range texts {
		out[i] = r.Entities(t)
	}
	return out
}
