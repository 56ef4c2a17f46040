// Package analysis compares the titles, tags and descriptions of a small set
// of items and reports which vocabulary they share.
//
// A run is a pure function of the item list and configuration: items are
// tokenized per channel, aggregated into a cross-item index, split into
// common and unique terms, highlighted with provenance and ranked by how
// much of their vocabulary is shared. Nothing here fails; malformed or
// missing input collapses into empty results.
package analysis

import (
	"fmt"
	"strings"
)

// Analyzer runs the overlap pipeline with a fixed configuration.
type Analyzer struct {
	cfg         Config
	tokenizer   *Tokenizer
	highlighter *Highlighter
}

// NewAnalyzer creates an analyzer. stopwords is the union of the stopword
// lists of every configured language.
func NewAnalyzer(cfg Config, stopwords map[string]struct{}) *Analyzer {
	tok := NewTokenizer(cfg, stopwords)
	return &Analyzer{
		cfg:         cfg,
		tokenizer:   tok,
		highlighter: NewHighlighter(tok.Aliases),
	}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Tokenizer exposes the channel tokenizer.
func (a *Analyzer) Tokenizer() *Tokenizer {
	return a.tokenizer
}

// Analyze compares items and returns the overlap report.
func (a *Analyzer) Analyze(items []Item) *Result {
	items = assignIDs(items)
	total := len(items)
	threshold := a.cfg.threshold(total)

	display := DisplayForms{}
	vocabs := make([]Vocabulary, total)
	labels := make(map[string]string, total)
	for i, item := range items {
		vocabs[i] = a.tokenizer.BuildVocabulary(item, display)
		labels[item.ID] = item.Label()
	}

	res := &Result{TotalItems: total, Threshold: threshold}
	provenance := make(map[Channel]Provenance, len(Channels))
	for _, c := range Channels {
		cr := Classify(BuildIndex(c, vocabs), threshold, display)
		*res.Channel(c) = cr

		prov := make(Provenance, len(cr.Common))
		for _, ct := range cr.Common {
			members := make([]Member, len(ct.Items))
			for i, id := range ct.Items {
				members[i] = Member{ID: id, Label: labels[id]}
			}
			prov[ct.Term] = members
		}
		provenance[c] = prov
	}

	common := commonSets(&res.Title, &res.Tags, &res.Description)
	res.Items = make([]ItemResult, total)
	for i, item := range items {
		ir := ItemResult{
			ID:          item.ID,
			Label:       item.Label(),
			Score:       MatchScore(vocabs[i], common),
			Title:       a.highlighter.Annotate(item.Title, ChannelTitle, provenance[ChannelTitle], item.ID),
			Tags:        make([]AnnotatedText, len(item.Tags)),
			Description: a.highlighter.Annotate(item.Description, ChannelDescription, provenance[ChannelDescription], item.ID),
		}
		for j, tag := range item.Tags {
			ir.Tags[j] = a.highlighter.Annotate(tag, ChannelTags, provenance[ChannelTags], item.ID)
		}
		res.Items[i] = ir
	}
	res.Ranking = Rank(items, vocabs, &res.Title, &res.Tags, &res.Description)
	return res
}

// assignIDs copies items, filling blank IDs and disambiguating duplicates
// so membership counts distinct items.
func assignIDs(items []Item) []Item {
	out := make([]Item, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = fmt.Sprintf("item-%d", i+1)
		}
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s#%d", id, n)
		}
		item.ID = id
		out[i] = item
	}
	return out
}
