package analysis

import "sort"

// commonSets indexes each channel's common terms for membership tests.
func commonSets(results ...*ChannelResult) map[Channel]map[string]struct{} {
	sets := make(map[Channel]map[string]struct{}, len(results))
	for _, r := range results {
		set := make(map[string]struct{}, len(r.Common))
		for _, c := range r.Common {
			set[c.Term] = struct{}{}
		}
		sets[r.Channel] = set
	}
	return sets
}

// MatchScore counts the item's terms that are common, summed over channels.
func MatchScore(v Vocabulary, common map[Channel]map[string]struct{}) int {
	score := 0
	for _, c := range Channels {
		set := common[c]
		for _, term := range v.Terms(c) {
			if _, ok := set[term]; ok {
				score++
			}
		}
	}
	return score
}

// Rank orders items by match score, highest first. Equal scores keep their
// input order.
func Rank(items []Item, vocabs []Vocabulary, results ...*ChannelResult) []RankedItem {
	common := commonSets(results...)
	ranked := make([]RankedItem, len(items))
	for i, item := range items {
		ranked[i] = RankedItem{ID: item.ID, Label: item.Label(), Score: MatchScore(vocabs[i], common)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
