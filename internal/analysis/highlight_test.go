package analysis_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/vidlex/internal/analysis"
)

var markupTag = regexp.MustCompile(`<highlight provenance="[^"]*">|</highlight>`)

func stripMarkup(s string) string {
	return markupTag.ReplaceAllString(s, "")
}

func members(ids ...string) []analysis.Member {
	out := make([]analysis.Member, len(ids))
	for i, id := range ids {
		out[i] = analysis.Member{ID: id, Label: "Video " + id}
	}
	return out
}

func highlighted(a analysis.AnnotatedText) []string {
	var out []string
	for _, s := range a {
		if s.Highlight {
			out = append(out, s.Text)
		}
	}
	return out
}

func TestAnnotate_PreservesCaseAndExcludesCurrentItem(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	prov := analysis.Provenance{"cat": members("A", "B", "C")}

	out := h.Annotate("My CAT video", analysis.ChannelTitle, prov, "A")

	require.Len(t, out, 3)
	assert.Equal(t, analysis.Span{Text: "My "}, out[0])
	assert.Equal(t, analysis.Span{Text: "CAT", Highlight: true, Provenance: []string{"Video B", "Video C"}}, out[1])
	assert.Equal(t, analysis.Span{Text: " video"}, out[2])
	assert.Equal(t, `My <highlight provenance="Video B, Video C">CAT</highlight> video`, out.Markup())
}

func TestAnnotate_RespectsWordBoundaries(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	prov := analysis.Provenance{"cat": members("A", "B")}

	out := h.Annotate("concatenate the cat, Cat-lover and cats", analysis.ChannelDescription, prov, "A")

	assert.Equal(t, []string{"cat", "Cat"}, highlighted(out))
}

func TestAnnotate_LongestTermWins(t *testing.T) {
	aliases := func(term string) []string {
		if term == "hiphop" {
			return []string{"hip hop"}
		}
		return nil
	}
	h := analysis.NewHighlighter(aliases)
	prov := analysis.Provenance{
		"hip":    members("A", "B"),
		"hiphop": members("A", "C"),
	}

	out := h.Annotate("Hip Hop and hip beats", analysis.ChannelDescription, prov, "A")

	require.Equal(t, []string{"Hip Hop", "hip"}, highlighted(out))
	for _, s := range out {
		if s.Text == "Hip Hop" {
			assert.Equal(t, []string{"Video C"}, s.Provenance)
		}
	}
	assert.Equal(t, "Hip Hop and hip beats", out.Plain())
}

func TestAnnotate_OverlappingTermsNeverNest(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	prov := analysis.Provenance{
		"new york":      members("A", "B"),
		"new york city": members("A", "C"),
		"york":          members("A", "D"),
	}

	out := h.Annotate("New York City beats New York and york", analysis.ChannelDescription, prov, "A")

	assert.Equal(t, []string{"New York City", "New York", "york"}, highlighted(out))
	assert.NotContains(t, stripMarkup(out.Markup()), "<highlight")
	assert.Equal(t, "New York City beats New York and york", stripMarkup(out.Markup()))
}

func TestAnnotate_TagsMatchWholeField(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	prov := analysis.Provenance{"funny": members("A", "B")}

	whole := h.Annotate(" Funny ", analysis.ChannelTags, prov, "A")
	assert.Equal(t, []string{"Funny"}, highlighted(whole))
	assert.Equal(t, " Funny ", whole.Plain())

	partial := h.Annotate("funny cats", analysis.ChannelTags, prov, "A")
	assert.Empty(t, highlighted(partial))
	assert.Equal(t, "funny cats", partial.Plain())
}

func TestAnnotate_NoProvenanceIsNoop(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	text := "Amazing cat video"

	for _, prov := range []analysis.Provenance{nil, {}, {"cat": members("A")}, {"cat": nil}} {
		out := h.Annotate(text, analysis.ChannelTitle, prov, "A")
		assert.Equal(t, analysis.AnnotatedText{{Text: text}}, out)
		assert.Equal(t, text, out.Markup())
	}

	assert.Empty(t, h.Annotate("", analysis.ChannelTitle, analysis.Provenance{"cat": members("B")}, "A"))
}

func TestAnnotate_RoundTrip(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	prov := analysis.Provenance{
		"cat":      members("A", "B"),
		"video":    members("A", "B"),
		"кошка":    members("A", "B"),
		"\uE000x1": members("A", "B"),
	}

	texts := []string{
		"",
		"cat",
		"Cat video, cat VIDEO; catvideo",
		"Кошка и КОШКА — кошками",
		"private use \uE000\uE001\uE002 cat \uE000x1 video \U000F0000",
		"cat\ncat\tcat",
		"emoji 🐱 cat 🐱",
	}
	for _, text := range texts {
		out := h.Annotate(text, analysis.ChannelDescription, prov, "A")
		assert.Equal(t, text, out.Plain())
		if text != "" {
			assert.NotEmpty(t, out)
		}
	}

	out := h.Annotate("Кошка и КОШКА — кошками", analysis.ChannelDescription, prov, "A")
	assert.Equal(t, []string{"Кошка", "КОШКА"}, highlighted(out))
}

func TestAnnotate_EscapesProvenanceInMarkup(t *testing.T) {
	h := analysis.NewHighlighter(nil)
	prov := analysis.Provenance{"cat": {{ID: "A"}, {ID: "B", Label: `Cats & "Dogs"`}}}

	out := h.Annotate("cat", analysis.ChannelTitle, prov, "A")

	assert.Equal(t, `<highlight provenance="Cats &amp; &#34;Dogs&#34;">cat</highlight>`, out.Markup())
	assert.Equal(t, 1, out.Highlighted())
}
