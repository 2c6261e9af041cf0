// Package search provides local matching over data already on screen:
// narrowing the loaded grid by title and suggesting recent queries.
package search

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/moviesearch/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Match is a movie that survived the local filter
type Match struct {
	Index          int   // position in the unfiltered slice
	MatchedIndexes []int // rune positions in the title, for highlighting
	Score          int
}

// titleIndex implements sahilm/fuzzy.Source over pre-lowered titles
type titleIndex struct {
	lower []string
}

func (idx *titleIndex) String(i int) string { return idx.lower[i] }

func (idx *titleIndex) Len() int { return len(idx.lower) }

func newTitleIndex(movies []domain.Movie) *titleIndex {
	idx := &titleIndex{lower: make([]string, len(movies))}
	for i, m := range movies {
		idx.lower[i] = strings.ToLower(m.Title)
	}
	return idx
}

// Filter narrows movies to those whose title fuzzy-matches q, best
// match first. An empty q matches nothing; callers show the full list.
func Filter(q string, movies []domain.Movie) []Match {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" || len(movies) == 0 {
		return nil
	}

	idx := newTitleIndex(movies)
	found := sfuzzy.FindFrom(q, idx)

	matches := make([]Match, len(found))
	for i, f := range found {
		matches[i] = Match{
			Index:          f.Index,
			MatchedIndexes: runePositions(f.Str, f.MatchedIndexes),
			Score:          f.Score,
		}
	}
	return matches
}

// runePositions converts byte offsets in s to rune offsets
func runePositions(s string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return nil
	}
	out := make([]int, 0, len(byteIdx))
	for _, b := range byteIdx {
		if b > len(s) {
			continue
		}
		out = append(out, utf8.RuneCountInString(s[:b]))
	}
	return out
}

// Suggest returns recent queries that fuzzy-match input, closest first.
// The input itself is never suggested.
func Suggest(recent []string, input string, limit int) []string {
	input = strings.TrimSpace(input)
	if input == "" || len(recent) == 0 {
		return nil
	}

	ranks := fuzzy.RankFindFold(input, recent)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})

	var out []string
	for _, r := range ranks {
		if strings.EqualFold(r.Target, input) {
			continue
		}
		out = append(out, r.Target)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Highlight splits title into runs, marking which runs matched. It is
// the shape the grid renderer styles segment by segment.
func Highlight(title string, matched []int) []Segment {
	if title == "" {
		return nil
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var segs []Segment
	var cur strings.Builder
	curHit := false
	i := 0
	for _, r := range title {
		h := hit[i]
		if cur.Len() > 0 && h != curHit {
			segs = append(segs, Segment{Text: cur.String(), Matched: curHit})
			cur.Reset()
		}
		curHit = h
		cur.WriteRune(r)
		i++
	}
	if cur.Len() > 0 {
		segs = append(segs, Segment{Text: cur.String(), Matched: curHit})
	}
	return segs
}

// Segment is a run of a title that either matched the filter or did not
type Segment struct {
	Text    string
	Matched bool
}
