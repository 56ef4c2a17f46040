package analysis

import (
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// Member is an item that contains a common term.
type Member struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Provenance maps a common term to the items containing it.
type Provenance map[string][]Member

// Span is a run of text, highlighted when it matched a shared term.
type Span struct {
	Text       string   `json:"text"`
	Highlight  bool     `json:"highlight,omitempty"`
	Provenance []string `json:"provenance,omitempty"`
}

// AnnotatedText is the original text cut into plain and highlighted spans.
type AnnotatedText []Span

// Plain concatenates the spans, reproducing the input byte for byte.
func (a AnnotatedText) Plain() string {
	var b strings.Builder
	for _, s := range a {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Markup renders highlighted spans as
// <highlight provenance="...">text</highlight>.
func (a AnnotatedText) Markup() string {
	var b strings.Builder
	for _, s := range a {
		if !s.Highlight {
			b.WriteString(s.Text)
			continue
		}
		b.WriteString(`<highlight provenance="`)
		b.WriteString(html.EscapeString(strings.Join(s.Provenance, ", ")))
		b.WriteString(`">`)
		b.WriteString(s.Text)
		b.WriteString(`</highlight>`)
	}
	return b.String()
}

// Highlighted counts the highlighted spans.
func (a AnnotatedText) Highlighted() int {
	n := 0
	for _, s := range a {
		if s.Highlight {
			n++
		}
	}
	return n
}

// Highlighter marks occurrences of common terms in original text.
type Highlighter struct {
	aliases func(term string) []string
}

// NewHighlighter returns a highlighter. aliases supplies alternative
// spellings that normalize to a term and may be nil.
func NewHighlighter(aliases func(term string) []string) *Highlighter {
	if aliases == nil {
		aliases = func(string) []string { return nil }
	}
	return &Highlighter{aliases: aliases}
}

type candidate struct {
	pattern string
	labels  []string
}

type placeholderMatch struct {
	text   string
	labels []string
}

// Annotate wraps every qualifying occurrence of a provenance term in text.
// Free-text channels match whole words; tags match the whole field. The
// current item is left out of each provenance list and terms nobody else
// shares are not highlighted.
func (h *Highlighter) Annotate(text string, ch Channel, prov Provenance, currentID string) AnnotatedText {
	if text == "" {
		return AnnotatedText{}
	}
	cands := h.candidates(text, ch, prov, currentID)
	if len(cands) == 0 {
		return AnnotatedText{{Text: text}}
	}

	ph, ok := newPlaceholders(text, cands)
	if !ok {
		return AnnotatedText{{Text: text}}
	}

	var matches []placeholderMatch
	for _, c := range cands {
		for from := 0; ; {
			start, end, found := findCandidate(text, c.pattern, from, ch)
			if !found {
				break
			}
			token := ph.token(len(matches))
			matches = append(matches, placeholderMatch{text: text[start:end], labels: c.labels})
			text = text[:start] + token + text[end:]
			from = start + len(token)
		}
	}
	return ph.expand(text, matches)
}

// candidates lists the spellings to search for, longest first, skipping
// any the text cannot contain. Tags are never rewritten by the tables, so
// only free text gets alias spellings.
func (h *Highlighter) candidates(text string, ch Channel, prov Provenance, currentID string) []candidate {
	var cands []candidate
	seen := make(map[string]struct{})
	terms := make([]string, 0, len(prov))
	for term := range prov {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		members := prov[term]
		labels := make([]string, 0, len(members))
		for _, m := range members {
			if m.ID == currentID {
				continue
			}
			labels = append(labels, m.Label)
		}
		if len(labels) == 0 {
			continue
		}
		spellings := []string{term}
		if !ch.atomic() {
			spellings = append(spellings, h.aliases(term)...)
		}
		for _, p := range spellings {
			p = strings.ToLower(p)
			if p == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			cands = append(cands, candidate{pattern: p, labels: labels})
		}
	}
	if len(cands) == 0 {
		return nil
	}

	patterns := make([]string, len(cands))
	for i, c := range cands {
		patterns[i] = c.pattern
	}
	hits := make(map[int]struct{})
	for _, i := range ahocorasick.NewStringMatcher(patterns).Match([]byte(strings.ToLower(text))) {
		hits[i] = struct{}{}
	}
	present := cands[:0]
	for i, c := range cands {
		if _, ok := hits[i]; ok {
			present = append(present, c)
		}
	}

	sort.Slice(present, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(present[i].pattern), utf8.RuneCountInString(present[j].pattern)
		if li != lj {
			return li > lj
		}
		return present[i].pattern < present[j].pattern
	})
	return present
}

func findCandidate(text, pattern string, from int, ch Channel) (int, int, bool) {
	if !ch.atomic() {
		return indexFoldWord(text, pattern, from)
	}
	if from > 0 {
		return -1, -1, false
	}
	trimmed := strings.TrimSpace(text)
	start := strings.Index(text, trimmed)
	end, ok := matchFoldAt(text, pattern, start)
	if !ok || end != start+len(trimmed) {
		return -1, -1, false
	}
	return start, end, true
}

// placeholders encodes match indexes with private-use runes that occur in
// neither the text nor any pattern, so a placeholder can never be matched
// or mistaken for real text.
type placeholders struct {
	open, close rune
	digit0      rune
}

const placeholderBase = 16

func newPlaceholders(text string, cands []candidate) (placeholders, bool) {
	used := make(map[rune]struct{})
	mark := func(s string) {
		for _, r := range s {
			if isPrivateUse(r) {
				used[r] = struct{}{}
			}
		}
	}
	mark(text)
	for _, c := range cands {
		mark(c.pattern)
	}

	const width = placeholderBase + 2
	ranges := [][2]rune{{0xE000, 0xF8FF}, {0xF0000, 0xFFFFD}, {0x100000, 0x10FFFD}}
	for _, rg := range ranges {
	block:
		for base := rg[0]; base+width-1 <= rg[1]; base += width {
			for r := base; r < base+width; r++ {
				if _, taken := used[r]; taken {
					continue block
				}
			}
			return placeholders{open: base, close: base + 1, digit0: base + 2}, true
		}
	}
	return placeholders{}, false
}

func isPrivateUse(r rune) bool {
	return (r >= 0xE000 && r <= 0xF8FF) || r >= 0xF0000
}

func (p placeholders) token(n int) string {
	var digits []rune
	for {
		digits = append(digits, p.digit0+rune(n%placeholderBase))
		n /= placeholderBase
		if n == 0 {
			break
		}
	}
	var b strings.Builder
	b.WriteRune(p.open)
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteRune(digits[i])
	}
	b.WriteRune(p.close)
	return b.String()
}

// expand substitutes every placeholder with its highlighted span.
func (p placeholders) expand(text string, matches []placeholderMatch) AnnotatedText {
	out := AnnotatedText{}
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out = append(out, Span{Text: plain.String()})
			plain.Reset()
		}
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != p.open {
			plain.WriteString(text[i : i+size])
			i += size
			continue
		}
		n := 0
		j := i + size
		for j < len(text) {
			d, dsize := utf8.DecodeRuneInString(text[j:])
			j += dsize
			if d == p.close {
				break
			}
			n = n*placeholderBase + int(d-p.digit0)
		}
		flush()
		m := matches[n]
		out = append(out, Span{Text: m.text, Highlight: true, Provenance: m.labels})
		i = j
	}
	flush()
	return out
}
