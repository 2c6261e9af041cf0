package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// releaseDateLayout is the date format TMDB uses for release dates
const releaseDateLayout = "2006-01-02"

// Movie is the summary record returned by search and popular listings
type Movie struct {
	ID          int     `json:"id"`           // TMDB movie identifier
	Title       string  `json:"title"`        // Display title
	PosterPath  string  `json:"poster_path"`  // Relative poster path, empty when absent
	ReleaseDate string  `json:"release_date"` // YYYY-MM-DD, empty when absent
	Overview    string  `json:"overview"`     // Plot synopsis
	VoteAverage float64 `json:"vote_average"` // Audience rating (0-10)
}

// ReleaseYear returns the four digit release year, or "N/A"
func (m Movie) ReleaseYear() string {
	if m.ReleaseDate == "" {
		return "N/A"
	}
	t, err := time.Parse(releaseDateLayout, m.ReleaseDate)
	if err != nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", t.Year())
}

// HasRating reports whether the movie has a non-zero vote average
func (m Movie) HasRating() bool {
	return m.VoteAverage > 0
}

// FormattedRating returns the vote average with one decimal place
func (m Movie) FormattedRating() string {
	return fmt.Sprintf("%.1f", m.VoteAverage)
}

// HasPoster reports whether a poster path is present
func (m Movie) HasPoster() bool {
	return m.PosterPath != ""
}

// Genre is a named genre tag
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company credit
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record for a single movie, loaded lazily
type MovieDetails struct {
	Movie

	Runtime             int       `json:"runtime"` // Minutes, 0 = unknown
	Tagline             string    `json:"tagline"`
	Genres              []Genre   `json:"genres"`
	ProductionCompanies []Company `json:"production_companies"`
	Budget              int64     `json:"budget"`  // USD, 0 = unreported
	Revenue             int64     `json:"revenue"` // USD, 0 = unreported
}

// MergeSummary overlays the details on top of an already-known summary.
// Summary fields that are set win, so the overlay never blanks what the
// grid was already showing.
func (d MovieDetails) MergeSummary(summary Movie) MovieDetails {
	merged := d
	if summary.ID != 0 {
		merged.ID = summary.ID
	}
	if summary.Title != "" {
		merged.Title = summary.Title
	}
	if summary.PosterPath != "" {
		merged.PosterPath = summary.PosterPath
	}
	if summary.ReleaseDate != "" {
		merged.ReleaseDate = summary.ReleaseDate
	}
	if summary.Overview != "" {
		merged.Overview = summary.Overview
	}
	if summary.VoteAverage > 0 {
		merged.VoteAverage = summary.VoteAverage
	}
	return merged
}

// FormattedRuntime returns e.g. "142 min", or "" when unknown
func (d MovieDetails) FormattedRuntime() string {
	if d.Runtime <= 0 {
		return ""
	}
	return fmt.Sprintf("%d min", d.Runtime)
}

// HasBudget reports whether a budget was reported
func (d MovieDetails) HasBudget() bool {
	return d.Budget > 0
}

// HasRevenue reports whether revenue was reported
func (d MovieDetails) HasRevenue() bool {
	return d.Revenue > 0
}

// GenreNames returns the genre names in order
func (d MovieDetails) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// CompanyNames returns the production company names joined by ", "
func (d MovieDetails) CompanyNames() string {
	names := make([]string, 0, len(d.ProductionCompanies))
	for _, c := range d.ProductionCompanies {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// FormatMoney renders a dollar amount with thousands separators: $5,000,000
func FormatMoney(amount int64) string {
	return "$" + humanize.Comma(amount)
}
