package analysis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// urlPattern matches scheme URLs, www. hosts and bare domains followed
	// by a path. A dotted word without a path ("Node.js") is not a URL.
	urlPattern = regexp.MustCompile(`(?i)(?:[a-z][a-z0-9+.\-]*://|www\.)[^\s<>"'()]+|\b(?:[a-z0-9](?:[a-z0-9\-]*[a-z0-9])?\.)+[a-z]{2,24}/[^\s<>"'()]*`)

	// wordPattern matches alphanumeric runs with optional internal hyphens.
	wordPattern = regexp.MustCompile(`[\pL\pN\pM]+(?:-[\pL\pN\pM]+)*`)
)

// Tokenizer turns raw channel text into normalized terms.
type Tokenizer struct {
	phrases   []rewriteRule
	variants  []rewriteRule
	lookup    map[string]string
	aliases   map[string][]string
	stopwords map[string]struct{}
	minLen    int
}

// NewTokenizer builds a tokenizer from the normalization tables in cfg and
// a stopword set (already the union of every configured language).
func NewTokenizer(cfg Config, stopwords map[string]struct{}) *Tokenizer {
	t := &Tokenizer{
		phrases:   compileRules(cfg.Phrases),
		variants:  compileRules(cfg.Variants),
		lookup:    make(map[string]string),
		aliases:   make(map[string][]string),
		stopwords: make(map[string]struct{}, len(stopwords)),
		minLen:    cfg.minTokenLength(),
	}
	for w := range stopwords {
		t.stopwords[strings.ToLower(w)] = struct{}{}
	}
	for _, r := range t.variants {
		t.lookup[r.from] = r.to
	}
	for _, rules := range [][]rewriteRule{t.phrases, t.variants} {
		for _, r := range rules {
			t.aliases[r.to] = append(t.aliases[r.to], r.from)
		}
	}
	return t
}

// Tokenize returns the normalized token sequence for text on channel ch.
// Tag text is treated as a single atomic value.
func (t *Tokenizer) Tokenize(text string, ch Channel) []Token {
	if ch.atomic() {
		if tok, ok := TagToken(text); ok {
			return []Token{tok}
		}
		return []Token{}
	}

	tokens := []Token{}
	if strings.TrimSpace(text) == "" {
		return tokens
	}

	text = urlPattern.ReplaceAllString(text, " ")

	for _, seg := range t.normalizePhrases(text) {
		words := wordPattern.FindAllString(seg.text, -1)
		for _, surface := range words {
			term := strings.ToLower(surface)
			if seg.rewritten && len(words) == 1 {
				surface = seg.surface
			}
			if t.isStopword(term) {
				continue
			}
			if strings.Contains(term, "-") {
				term = strings.ReplaceAll(term, "-", "")
			}
			if canonical, ok := t.lookup[term]; ok {
				term = canonical
			}
			if !t.keep(term) {
				continue
			}
			tokens = append(tokens, Token{Term: term, Surface: surface})
		}
	}
	return tokens
}

// TagToken case-folds a tag into its term; blank tags yield false.
func TagToken(tag string) (Token, bool) {
	surface := strings.TrimSpace(tag)
	if surface == "" {
		return Token{}, false
	}
	return Token{Term: strings.ToLower(surface), Surface: surface}, true
}

// Aliases returns the table spellings that normalize to term.
func (t *Tokenizer) Aliases(term string) []string {
	return t.aliases[term]
}

// normalizePhrases splits text into plain runs and table rewrites, phrases
// first, then variants.
func (t *Tokenizer) normalizePhrases(text string) []segment {
	segs := []segment{{text: text}}
	for _, r := range t.phrases {
		segs = rewriteSegments(segs, r)
	}
	for _, r := range t.variants {
		segs = rewriteSegments(segs, r)
	}
	return segs
}

func (t *Tokenizer) isStopword(term string) bool {
	_, ok := t.stopwords[term]
	return ok
}

func (t *Tokenizer) keep(term string) bool {
	if utf8.RuneCountInString(term) < t.minLen {
		return false
	}
	if t.isStopword(term) {
		return false
	}
	return strings.IndexFunc(term, unicode.IsLetter) >= 0
}
