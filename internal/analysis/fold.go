package analysis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// isWordRune mirrors the \w class: letters, digits, marks and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

// matchFoldAt reports whether pattern occurs in s at byte offset i under
// simple case folding, returning the end offset of the match.
func matchFoldAt(s, pattern string, i int) (int, bool) {
	j := i
	for _, pr := range pattern {
		if j >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[j:])
		if !equalFoldRune(sr, pr) {
			return 0, false
		}
		j += size
	}
	return j, true
}

// atWordBoundary reports whether s[start:end] is not glued to word runes.
func atWordBoundary(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// indexFoldWord returns the byte range of the first case-insensitive,
// whole-word occurrence of pattern in s at or after from.
func indexFoldWord(s, pattern string, from int) (int, int, bool) {
	if pattern == "" {
		return -1, -1, false
	}
	for i := from; i < len(s); {
		if end, ok := matchFoldAt(s, pattern, i); ok && atWordBoundary(s, i, end) {
			return i, end, true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1, -1, false
}

// segment is a run of text; rewritten runs hold the normalized form of a
// table entry and keep the matched source text as surface.
type segment struct {
	text      string
	surface   string
	rewritten bool
}

// rewriteSegments applies r to every whole-word match inside the plain
// segments. Rewritten segments are never matched again.
func rewriteSegments(segs []segment, r rewriteRule) []segment {
	out := make([]segment, 0, len(segs))
	for _, seg := range segs {
		if seg.rewritten {
			out = append(out, seg)
			continue
		}
		last := 0
		for from := 0; ; {
			start, end, ok := indexFoldWord(seg.text, r.from, from)
			if !ok {
				break
			}
			if start > last {
				out = append(out, segment{text: seg.text[last:start]})
			}
			out = append(out, segment{text: r.to, surface: seg.text[start:end], rewritten: true})
			last, from = end, end
		}
		if last < len(seg.text) {
			out = append(out, segment{text: seg.text[last:]})
		}
	}
	return out
}

// rewriteRule maps one spelling onto its normalized form.
type rewriteRule struct {
	from string
	to   string
}

// compileRules lower-cases a table and orders it longest first so that a
// short entry never pre-empts a longer one sharing its words.
func compileRules(table map[string]string) []rewriteRule {
	rules := make([]rewriteRule, 0, len(table))
	for from, to := range table {
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.ToLower(strings.TrimSpace(to))
		if from == "" || to == "" || from == to {
			continue
		}
		rules = append(rules, rewriteRule{from: from, to: to})
	}
	sort.Slice(rules, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(rules[i].from), utf8.RuneCountInString(rules[j].from)
		if li != lj {
			return li > lj
		}
		return rules[i].from < rules[j].from
	})
	return rules
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
