package movies

import (
	"context"
	"fmt"

	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/internal/preferences"
	"github.com/comigor/movieagent/internal/tmdb"
)

// Lookup resolves preferences to movie records through TMDB.
type Lookup struct {
	searcher tmdb.Searcher
}

// NewLookup creates a Lookup backed by searcher.
func NewLookup(searcher tmdb.Searcher) *Lookup {
	return &Lookup{searcher: searcher}
}

// Find searches TMDB with the preferences' query and enriches the first
// MaxResults hits in order. Any failure is logged and yields no records at all.
func (l *Lookup) Find(ctx context.Context, prefs preferences.Preferences) []Record {
	query := prefs.Query()
	if query == "" {
		logger.L.Warn("movie lookup skipped: empty query")
		return []Record{}
	}

	logger.L.Debug("movie lookup", "query", query,
		"genres", prefs.Genres(), "keywords", prefs.Keywords(), "years", prefs.YearRange())

	records, err := l.find(ctx, query)
	if err != nil {
		logger.L.Error("Error fetching movie recommendations", "query", query, "error", err)
		return []Record{}
	}
	logger.L.Debug("movie lookup finished", "query", query, "count", len(records))
	return records
}

func (l *Lookup) find(ctx context.Context, query string) ([]Record, error) {
	resp, err := l.searcher.SearchMovie(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("search %q: empty response", query)
	}

	hits := resp.Results
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}

	records := make([]Record, 0, len(hits))
	for _, hit := range hits {
		details, err := l.searcher.GetMovieDetails(ctx, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("details for %d: %w", hit.ID, err)
		}
		if details == nil {
			return nil, fmt.Errorf("details for %d: empty response", hit.ID)
		}
		records = append(records, recordFromDetails(details))
	}
	return records, nil
}
