// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entity

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a word or punctuation mark with its byte offsets in the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize splits text into words and punctuation. A word is a run of
// letters, digits, and combining marks; '.', ',', '/', and apostrophes stay
// inside a word when letters or digits follow them, so "3.5", "1,000", and
// "d'Ávila" are single tokens. Any other non-space rune is its own token.
func Tokenize(text string) []Token {
	var toks []Token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case isWordRune(r):
			start := i
			i += size
			for i < len(text) {
				r, size := utf8.DecodeRuneInString(text[i:])
				if isWordRune(r) {
					i += size
					continue
				}
				if isJoiner(r) && i+size < len(text) {
					next, _ := utf8.DecodeRuneInString(text[i+size:])
					if isWordRune(next) {
						i += size
						continue
					}
				}
				break
			}
			toks = append(toks, Token{Text: text[start:i], Start: start, End: i})
		default:
			toks = append(toks, Token{Text: text[i : i+size], Start: i, End: i + size})
			i += size
		}
	}
	return toks
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isJoiner(r rune) bool {
	switch r {
	case '.', ',', '/', '\'', '’':
		return true
	}
	return false
}

func isAlpha(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsMark(r) }) < 0
}

func isDigit(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}

func isPunct(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsPunct(r) }) < 0
}

// isUpper reports whether s has a cased letter and no lowercase letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// isLower reports whether s has a cased letter and no uppercase letters.
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

// isTitle reports whether every letter run in s starts with an uppercase
// letter followed only by lowercase letters.
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

var numberWords = map[string]map[string]bool{
	"en": setOf("zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "twenty", "thirty", "forty", "fifty", "hundred", "thousand", "million", "billion"),
	"pt": setOf("zero", "um", "uma", "dois", "duas", "três", "quatro", "cinco", "seis", "sete", "oito", "nove", "dez",
		"onze", "doze", "vinte", "trinta", "quarenta", "cinquenta", "cem", "cento", "mil", "milhão", "milhões", "bilhão"),
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// likeNum reports whether s looks like a number: digits with optional sign,
// thousands and decimal separators, a simple fraction, or a number word in
// the ruler's language.
func likeNum(s, lang string) bool {
	t := strings.TrimLeft(s, "+-±~")
	t = strings.NewReplacer(",", "", ".", "").Replace(t)
	if isDigit(t) {
		return true
	}
	if num, den, ok := strings.Cut(t, "/"); ok && isDigit(num) && isDigit(den) {
		return true
	}
	return numberWords[lang][strings.ToLower(s)]
}
