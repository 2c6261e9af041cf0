package tmdb

import "github.com/mmcdole/moviesearch/internal/domain"

func mapMovie(m movieDTO) domain.Movie {
	movie := domain.Movie{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Overview:    m.Overview,
		VoteAverage: m.VoteAverage,
	}
	if m.PosterPath != nil {
		movie.PosterPath = *m.PosterPath
	}
	return movie
}

func mapPage(p pageDTO) *domain.SearchResultPage {
	results := make([]domain.Movie, 0, len(p.Results))
	for _, m := range p.Results {
		results = append(results, mapMovie(m))
	}
	return &domain.SearchResultPage{
		Page:         p.Page,
		Results:      results,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
	}
}

func mapDetails(d detailsDTO) *domain.MovieDetails {
	details := &domain.MovieDetails{
		Movie:   mapMovie(d.movieDTO),
		Tagline: d.Tagline,
		Budget:  max(d.Budget, 0),
		Revenue: max(d.Revenue, 0),
	}
	if d.Runtime != nil {
		details.Runtime = *d.Runtime
	}
	for _, g := range d.Genres {
		details.Genres = append(details.Genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	for _, pc := range d.ProductionCompanies {
		details.ProductionCompanies = append(details.ProductionCompanies, domain.Company{ID: pc.ID, Name: pc.Name})
	}
	return details
}
