// Package lexicon provides the language resources the analysis core
// consumes: stopword lists and phrase/variant normalization tables.
package lexicon

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

// ErrUnknownLanguage is returned for a language with no stopword list.
var ErrUnknownLanguage = errors.New("unknown stopword language")

// Source supplies stopword lists by language.
type Source interface {
	Stopwords(lang string) ([]string, error)
	Languages() []string
}

// Set is a stopword set.
type Set map[string]struct{}

// Contains reports whether w (case-insensitive) is a stopword.
func (s Set) Contains(w string) bool {
	_, ok := s[strings.ToLower(w)]
	return ok
}

var languageAliases = map[string]string{
	"en":      "english",
	"eng":     "english",
	"english": "english",
	"ru":      "russian",
	"rus":     "russian",
	"russian": "russian",
}

// CanonicalLanguage maps a language code or name to its list name.
func CanonicalLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if name, ok := languageAliases[lang]; ok {
		return name
	}
	return lang
}

// Embedded serves the stopword lists compiled into the binary.
type Embedded struct{}

// Stopwords returns the list for lang.
func (Embedded) Stopwords(lang string) ([]string, error) {
	name := CanonicalLanguage(lang)
	f, err := stopwordFiles.Open("stopwords/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s stopwords: %w", name, err)
	}
	return words, nil
}

// Languages lists the embedded languages.
func (Embedded) Languages() []string {
	entries, err := stopwordFiles.ReadDir("stopwords")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(langs)
	return langs
}

// Union merges the stopword lists of every language in langs. Languages
// that fail to load are skipped and reported together in the error; the
// returned set is always usable.
func Union(src Source, langs []string) (Set, error) {
	set := make(Set)
	var errs []error
	for _, lang := range langs {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		words, err := src.Stopwords(lang)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, w := range words {
			set[strings.ToLower(w)] = struct{}{}
		}
	}
	return set, errors.Join(errs...)
}
