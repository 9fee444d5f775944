// Package movies turns extracted preferences into at most five enriched TMDB
// records and renders them for the conversation.
package movies

import (
	"strings"

	"github.com/comigor/movieagent/internal/tmdb"
)

// MaxResults caps how many search hits are enriched per turn.
const MaxResults = 5

// Record is one movie as shown to the user.
type Record struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Year         string   `json:"year"`
	Description  string   `json:"description"`
	Rating       float64  `json:"rating"`
	Genres       []string `json:"genres"`
	PosterPath   string   `json:"poster_path"`
	BackdropPath string   `json:"backdrop_path"`
}

func recordFromDetails(d *tmdb.MovieDetails) Record {
	year := "N/A"
	if y, _, _ := strings.Cut(strings.TrimSpace(d.ReleaseDate), "-"); y != "" {
		year = y
	}
	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}
	return Record{
		ID:           d.ID,
		Title:        d.Title,
		Year:         year,
		Description:  d.Overview,
		Rating:       d.VoteAverage,
		Genres:       genres,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
	}
}
