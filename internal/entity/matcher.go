// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type quantifier int

const (
	opOne quantifier = iota
	opNot
	opOptional
	opZeroOrMore
	opOneOrMore
)

// tokenSpec matches one token position of a pattern.
type tokenSpec struct {
	op    quantifier
	preds []func(Token) bool
}

func (s tokenSpec) matches(tok Token) bool {
	for _, p := range s.preds {
		if !p(tok) {
			return false
		}
	}
	return true
}

// rule is a compiled Pattern.
type rule struct {
	label string
	id    string
	specs []tokenSpec
}

func compilePhrase(p Pattern) (rule, error) {
	toks := Tokenize(p.Phrase)
	if len(toks) == 0 {
		return rule{}, fmt.Errorf("%w: phrase for label %s has no tokens", ErrInvalidPattern, p.Label)
	}
	r := rule{label: p.Label, id: p.ID}
	for _, tok := range toks {
		text := tok.Text
		r.specs = append(r.specs, tokenSpec{preds: []func(Token) bool{
			func(t Token) bool { return t.Text == text },
		}})
	}
	return r, nil
}

func compileTokens(p Pattern, lang string) (rule, error) {
	r := rule{label: p.Label, id: p.ID}
	for i, raw := range p.Tokens {
		spec, err := compileSpec(raw, lang)
		if err != nil {
			return rule{}, fmt.Errorf("%w: token %d of label %s: %v", ErrInvalidPattern, i+1, p.Label, err)
		}
		r.specs = append(r.specs, spec)
	}
	return r, nil
}

func compileSpec(raw map[string]any, lang string) (tokenSpec, error) {
	var spec tokenSpec
	for key, val := range raw {
		attr := strings.ToUpper(key)
		if attr == "OP" {
			op, err := parseOp(val)
			if err != nil {
				return tokenSpec{}, err
			}
			spec.op = op
			continue
		}
		pred, err := compileAttr(attr, val, lang)
		if err != nil {
			return tokenSpec{}, err
		}
		spec.preds = append(spec.preds, pred)
	}
	return spec, nil
}

func parseOp(v any) (quantifier, error) {
	s, _ := v.(string)
	switch s {
	case "", "1":
		return opOne, nil
	case "!":
		return opNot, nil
	case "?":
		return opOptional, nil
	case "*":
		return opZeroOrMore, nil
	case "+":
		return opOneOrMore, nil
	}
	return 0, fmt.Errorf("unsupported OP %v", v)
}

var (
	stringAttrs = map[string]func(Token) string{
		"ORTH":  func(t Token) string { return t.Text },
		"TEXT":  func(t Token) string { return t.Text },
		"LOWER": func(t Token) string { return strings.ToLower(t.Text) },
		"NORM":  func(t Token) string { return strings.ToLower(t.Text) },
	}
	flagAttrs = map[string]func(Token) bool{
		"IS_ALPHA": func(t Token) bool { return isAlpha(t.Text) },
		"IS_DIGIT": func(t Token) bool { return isDigit(t.Text) },
		"IS_PUNCT": func(t Token) bool { return isPunct(t.Text) },
		"IS_UPPER": func(t Token) bool { return isUpper(t.Text) },
		"IS_LOWER": func(t Token) bool { return isLower(t.Text) },
		"IS_TITLE": func(t Token) bool { return isTitle(t.Text) },
	}
)

func compileAttr(attr string, val any, lang string) (func(Token) bool, error) {
	if get, ok := stringAttrs[attr]; ok {
		return compileString(attr, get, val)
	}
	if get, ok := flagAttrs[attr]; ok {
		want, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("%s expects true or false", attr)
		}
		return func(t Token) bool { return get(t) == want }, nil
	}
	switch attr {
	case "LIKE_NUM":
		want, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("%s expects true or false", attr)
		}
		return func(t Token) bool { return likeNum(t.Text, lang) == want }, nil
	case "LENGTH":
		return compileLength(val)
	}
	return nil, fmt.Errorf("unsupported attribute %s", attr)
}

func compileString(attr string, get func(Token) string, val any) (func(Token) bool, error) {
	switch v := val.(type) {
	case string:
		return func(t Token) bool { return get(t) == v }, nil
	case map[string]any:
		var preds []func(Token) bool
		for k, arg := range v {
			switch strings.ToUpper(k) {
			case "IN", "NOT_IN":
				set, err := stringSet(arg)
				if err != nil {
					return nil, fmt.Errorf("%s %s: %v", attr, k, err)
				}
				in := strings.ToUpper(k) == "IN"
				preds = append(preds, func(t Token) bool { return set[get(t)] == in })
			case "REGEX":
				expr, ok := arg.(string)
				if !ok {
					return nil, fmt.Errorf("%s REGEX expects a string", attr)
				}
				re, err := regexp.Compile(expr)
				if err != nil {
					return nil, fmt.Errorf("%s REGEX: %v", attr, err)
				}
				preds = append(preds, func(t Token) bool { return re.MatchString(get(t)) })
			default:
				return nil, fmt.Errorf("%s: unsupported operator %s", attr, k)
			}
		}
		return all(preds), nil
	}
	return nil, fmt.Errorf("%s expects a string or an operator object", attr)
}

func compileLength(val any) (func(Token) bool, error) {
	length := func(t Token) int { return utf8.RuneCountInString(t.Text) }
	if n, ok := toInt(val); ok {
		return func(t Token) bool { return length(t) == n }, nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("LENGTH expects a number or an operator object")
	}
	var preds []func(Token) bool
	for k, arg := range m {
		op := strings.ToUpper(k)
		if op == "IN" || op == "NOT_IN" {
			list, ok := arg.([]any)
			if !ok {
				return nil, fmt.Errorf("LENGTH %s expects a list", k)
			}
			set := make(map[int]bool, len(list))
			for _, item := range list {
				n, ok := toInt(item)
				if !ok {
					return nil, fmt.Errorf("LENGTH %s expects numbers", k)
				}
				set[n] = true
			}
			in := op == "IN"
			preds = append(preds, func(t Token) bool { return set[length(t)] == in })
			continue
		}
		n, ok := toInt(arg)
		if !ok {
			return nil, fmt.Errorf("LENGTH %s expects a number", k)
		}
		var cmp func(int) bool
		switch op {
		case "==":
			cmp = func(l int) bool { return l == n }
		case "!=":
			cmp = func(l int) bool { return l != n }
		case ">=":
			cmp = func(l int) bool { return l >= n }
		case "<=":
			cmp = func(l int) bool { return l <= n }
		case ">":
			cmp = func(l int) bool { return l > n }
		case "<":
			cmp = func(l int) bool { return l < n }
		default:
			return nil, fmt.Errorf("LENGTH: unsupported operator %s", k)
		}
		preds = append(preds, func(t Token) bool { return cmp(length(t)) })
	}
	return all(preds), nil
}

func all(preds []func(Token) bool) func(Token) bool {
	return func(t Token) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

func stringSet(v any) (map[string]bool, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expects a list")
	}
	set := make(map[string]bool, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expects a list of strings")
		}
		set[s] = true
	}
	return set, nil
}

// toInt accepts JSON (float64) and YAML (int) numbers.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// ends returns every token index at which specs, starting at token ti,
// can finish matching. Each (spec, token) state is expanded at most once,
// so the walk is bounded by len(specs)*len(toks) whatever the quantifiers.
func (r rule) ends(toks []Token, ti int) []int {
	var out []int
	width := len(toks) + 1
	seen := make([]bool, width)
	walked := make([]bool, (len(r.specs)+1)*width)
	repeated := make([]bool, len(r.specs)*width)

	var walk func(si, ti int)
	var repeat func(si, ti int)
	walk = func(si, ti int) {
		if walked[si*width+ti] {
			return
		}
		walked[si*width+ti] = true
		if si == len(r.specs) {
			if !seen[ti] {
				seen[ti] = true
				out = append(out, ti)
			}
			return
		}
		sp := r.specs[si]
		has := ti < len(toks)
		switch sp.op {
		case opOne:
			if has && sp.matches(toks[ti]) {
				walk(si+1, ti+1)
			}
		case opNot:
			if has && !sp.matches(toks[ti]) {
				walk(si+1, ti+1)
			}
		case opOptional:
			walk(si+1, ti)
			if has && sp.matches(toks[ti]) {
				walk(si+1, ti+1)
			}
		case opZeroOrMore:
			repeat(si, ti)
		case opOneOrMore:
			if has && sp.matches(toks[ti]) {
				repeat(si, ti+1)
			}
		}
	}
	repeat = func(si, ti int) {
		for ; ; ti++ {
			if repeated[si*width+ti] {
				return
			}
			repeated[si*width+ti] = true
			walk(si+1, ti)
			if ti >= len(toks) || !r.specs[si].matches(toks[ti]) {
				return
			}
		}
	}
	walk(0, ti)
	return out
}
