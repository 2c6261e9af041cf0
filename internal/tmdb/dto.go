package tmdb

// movieDTO is a movie summary as returned by list endpoints
type movieDTO struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
}

// pageDTO is a paginated list response
type pageDTO struct {
	Page         int        `json:"page"`
	Results      []movieDTO `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

type namedDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// detailsDTO is the /movie/{id} response
type detailsDTO struct {
	movieDTO
	Runtime             *int       `json:"runtime"`
	Tagline             string     `json:"tagline"`
	Genres              []namedDTO `json:"genres"`
	ProductionCompanies []namedDTO `json:"production_companies"`
	Budget              int64      `json:"budget"`
	Revenue             int64      `json:"revenue"`
}
