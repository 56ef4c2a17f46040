package analysis

// Vocabulary is the per-channel term set of one item. Terms keep the order
// in which they first appeared and are listed once per item.
type Vocabulary struct {
	ItemID string
	terms  map[Channel][]string
}

// Terms returns the item's distinct terms on channel c.
func (v Vocabulary) Terms(c Channel) []string {
	return v.terms[c]
}

// Has reports whether the item uses term on channel c.
func (v Vocabulary) Has(c Channel, term string) bool {
	for _, t := range v.terms[c] {
		if t == term {
			return true
		}
	}
	return false
}

// DisplayForms remembers, per channel, the first original-case surface seen
// for every term during one run.
type DisplayForms map[Channel]map[string]string

func (d DisplayForms) record(c Channel, tok Token) {
	forms, ok := d[c]
	if !ok {
		forms = make(map[string]string)
		d[c] = forms
	}
	if _, seen := forms[tok.Term]; !seen {
		forms[tok.Term] = tok.Surface
	}
}

// Lookup returns the display form of term, falling back to the term itself.
func (d DisplayForms) Lookup(c Channel, term string) string {
	if form, ok := d[c][term]; ok && form != "" {
		return form
	}
	return term
}

// BuildVocabulary tokenizes every channel of item and records surfaces in
// display.
func (t *Tokenizer) BuildVocabulary(item Item, display DisplayForms) Vocabulary {
	v := Vocabulary{ItemID: item.ID, terms: make(map[Channel][]string, len(Channels))}

	collect := func(c Channel, tokens []Token) {
		seen := make(map[string]struct{}, len(v.terms[c])+len(tokens))
		for _, term := range v.terms[c] {
			seen[term] = struct{}{}
		}
		for _, tok := range tokens {
			if display != nil {
				display.record(c, tok)
			}
			if _, dup := seen[tok.Term]; dup {
				continue
			}
			seen[tok.Term] = struct{}{}
			v.terms[c] = append(v.terms[c], tok.Term)
		}
	}

	collect(ChannelTitle, t.Tokenize(item.Title, ChannelTitle))
	for _, tag := range item.Tags {
		collect(ChannelTags, t.Tokenize(tag, ChannelTags))
	}
	collect(ChannelDescription, t.Tokenize(item.Description, ChannelDescription))
	return v
}
