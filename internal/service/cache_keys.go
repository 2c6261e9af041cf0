package service

import "github.com/mmcdole/moviesearch/internal/query"

// Query keys. Every movie key lives under the "movies" root so a full
// refresh can invalidate them together.
var (
	// KeyRoot is the parent of every movie key
	KeyRoot = query.Key{"movies"}

	// KeySearchRoot is the parent of all search keys (single and infinite)
	KeySearchRoot = query.Key{"movies", "search"}

	// KeyPopular is the popular movies listing
	KeyPopular = query.Key{"movies", "popular"}
)

// SearchKey is the key of the first-page search for q (movies/search/{q})
func SearchKey(q string) query.Key {
	return query.Key{"movies", "search", q}
}

// InfiniteSearchKey is the key of the paginated search for q
func InfiniteSearchKey(q string) query.Key {
	return query.Key{"movies", "search", "infinite", q}
}

// DetailsKey is the key of one movie's details (movies/details/{id})
func DetailsKey(id int) query.Key {
	return query.Key{"movies", "details", id}
}
