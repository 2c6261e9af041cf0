package search

import (
	"testing"

	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movies(titles ...string) []domain.Movie {
	out := make([]domain.Movie, len(titles))
	for i, t := range titles {
		out[i] = domain.Movie{ID: i + 1, Title: t}
	}
	return out
}

func TestFilter(t *testing.T) {
	list := movies("The Dark Knight", "Batman Begins", "Inception", "The Batman")

	matches := Filter("batman", list)
	require.Len(t, matches, 2)

	var got []int
	for _, m := range matches {
		got = append(got, m.Index)
	}
	assert.ElementsMatch(t, []int{1, 3}, got)
	for _, m := range matches {
		assert.Len(t, m.MatchedIndexes, 6)
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	matches := Filter("INCEP", movies("Inception"))
	require.Len(t, matches, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, matches[0].MatchedIndexes)
}

func TestFilterEmpty(t *testing.T) {
	assert.Nil(t, Filter("", movies("Heat")))
	assert.Nil(t, Filter("   ", movies("Heat")))
	assert.Nil(t, Filter("heat", nil))
	assert.Empty(t, Filter("zzz", movies("Heat")))
}

func TestFilterMultibyteTitle(t *testing.T) {
	matches := Filter("amé", movies("Amélie"))
	require.Len(t, matches, 1)
	assert.Equal(t, []int{0, 1, 2}, matches[0].MatchedIndexes)
}

func TestSuggest(t *testing.T) {
	recent := []string{"the matrix", "batman begins", "matrix reloaded", "heat"}

	got := Suggest(recent, "matrix", 0)
	assert.ElementsMatch(t, []string{"the matrix", "matrix reloaded"}, got)

	assert.Len(t, Suggest(recent, "matrix", 1), 1)
	assert.Nil(t, Suggest(recent, "", 5))
	assert.Nil(t, Suggest(nil, "heat", 5))
}

func TestSuggestSkipsExactInput(t *testing.T) {
	got := Suggest([]string{"Heat", "heat 2"}, "heat", 0)
	assert.Equal(t, []string{"heat 2"}, got)
}

func TestHighlight(t *testing.T) {
	segs := Highlight("Heat", []int{0, 1})
	assert.Equal(t, []Segment{
		{Text: "He", Matched: true},
		{Text: "at", Matched: false},
	}, segs)

	assert.Equal(t, []Segment{{Text: "Heat"}}, Highlight("Heat", nil))
	assert.Nil(t, Highlight("", []int{0}))
}
