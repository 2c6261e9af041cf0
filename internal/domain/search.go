package domain

// SearchResultPage is one page of a paginated movie listing
type SearchResultPage struct {
	Page         int     `json:"page"` // 1-based
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// HasNextPage reports whether another page exists after this one
func (p SearchResultPage) HasNextPage() bool {
	return p.Page < p.TotalPages
}

// NextPage returns the page number following this one
func (p SearchResultPage) NextPage() int {
	return p.Page + 1
}

// FlattenPages concatenates results of all pages in page order.
// Duplicates across pages are kept.
func FlattenPages(pages []SearchResultPage) []Movie {
	n := 0
	for _, p := range pages {
		n += len(p.Results)
	}
	movies := make([]Movie, 0, n)
	for _, p := range pages {
		movies = append(movies, p.Results...)
	}
	return movies
}
