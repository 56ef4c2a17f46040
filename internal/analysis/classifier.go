package analysis

import (
	"sort"
	"strings"
)

// Index maps every term of one channel to the distinct items containing it.
type Index struct {
	Channel Channel
	Total   int
	members map[string][]string
}

// BuildIndex unions the channel vocabularies of all items. An item counts
// once per term however often the term repeats in its text.
func BuildIndex(c Channel, vocabs []Vocabulary) *Index {
	ix := &Index{Channel: c, Total: len(vocabs), members: make(map[string][]string)}
	for _, v := range vocabs {
		for _, term := range v.Terms(c) {
			ids := ix.members[term]
			if len(ids) > 0 && ids[len(ids)-1] == v.ItemID {
				continue
			}
			ix.members[term] = append(ids, v.ItemID)
		}
	}
	return ix
}

// Members returns the IDs of the items containing term, in input order.
func (ix *Index) Members(term string) []string {
	return ix.members[term]
}

// Count is the membership count of term.
func (ix *Index) Count(term string) int {
	return len(ix.members[term])
}

// Terms returns the distinct-term universe sorted alphabetically.
func (ix *Index) Terms() []string {
	terms := make([]string, 0, len(ix.members))
	for t := range ix.members {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Classify splits the index into common and unique terms. With fewer than
// two items nothing is comparable and both collections stay empty.
func Classify(ix *Index, threshold int, display DisplayForms) ChannelResult {
	res := ChannelResult{
		Channel:       ix.Channel,
		Common:        []CommonTerm{},
		Unique:        map[string]string{},
		DistinctTerms: len(ix.members),
	}
	if ix.Total < 2 {
		return res
	}
	if threshold < DefaultCommonThreshold {
		threshold = DefaultCommonThreshold
	}

	for _, term := range ix.Terms() {
		ids := ix.members[term]
		switch {
		case len(ids) >= threshold:
			res.Common = append(res.Common, CommonTerm{
				Term:    term,
				Display: display.Lookup(ix.Channel, term),
				Members: len(ids),
				Total:   ix.Total,
				Items:   append([]string(nil), ids...),
			})
		case len(ids) == 1:
			res.Unique[term] = ids[0]
		}
	}

	sortCommon(res.Common)
	res.Percentage = Percentage(len(res.Common), res.DistinctTerms)
	return res
}

// Percentage is 100 * common / distinct, or 0 for an empty universe.
func Percentage(common, distinct int) float64 {
	if distinct <= 0 {
		return 0
	}
	return 100 * float64(common) / float64(distinct)
}

// sortCommon orders by membership, then display form, then term.
func sortCommon(terms []CommonTerm) {
	sort.SliceStable(terms, func(i, j int) bool {
		a, b := terms[i], terms[j]
		if a.Members != b.Members {
			return a.Members > b.Members
		}
		da, db := strings.ToLower(a.Display), strings.ToLower(b.Display)
		if da != db {
			return da < db
		}
		return a.Term < b.Term
	})
}
