package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"

	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/internal/movies"
	"github.com/comigor/movieagent/internal/preferences"
)

// Finder resolves preferences to movie records.
type Finder interface {
	Find(ctx context.Context, prefs preferences.Preferences) []movies.Record
}

// Extractor turns a free-text message into preferences.
type Extractor interface {
	Extract(ctx context.Context, message string) preferences.Preferences
}

// RecommendTool searches TMDB and returns the formatted recommendations.
type RecommendTool struct {
	finder Finder
}

// NewRecommendTool creates a RecommendTool
func NewRecommendTool(finder Finder) *RecommendTool {
	return &RecommendTool{finder: finder}
}

// Name returns the name of the tool
func (t *RecommendTool) Name() string { return "recommend_movies" }

// Description returns the description of the tool
func (t *RecommendTool) Description() string {
	return "Searches The Movie Database and returns up to five matching movies with year, rating, synopsis and genres."
}

// Params lists the accepted arguments
func (t *RecommendTool) Params() []Param {
	return []Param{{Name: "query", Description: "Free-text title or topic to search for, e.g. \"space adventure\".", Required: true}}
}

// Run runs the tool
func (t *RecommendTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}
	query := strings.TrimSpace(toolArgs.Query)
	if query == "" {
		return "", errors.New("query is required")
	}
	logger.L.Info("recommend tool invoked", "query", query)
	return movies.Format(t.finder.Find(ctx, preferences.FromQuery(query))), nil
}

// PreferencesTool exposes preference extraction on its own.
type PreferencesTool struct {
	extractor Extractor
}

// NewPreferencesTool creates a PreferencesTool
func NewPreferencesTool(extractor Extractor) *PreferencesTool {
	return &PreferencesTool{extractor: extractor}
}

// Name returns the name of the tool
func (t *PreferencesTool) Name() string { return "extract_movie_preferences" }

// Description returns the description of the tool
func (t *PreferencesTool) Description() string {
	return "Extracts genres, year range and keywords from a free-text movie request and returns them as JSON."
}

// Params lists the accepted arguments
func (t *PreferencesTool) Params() []Param {
	return []Param{{Name: "message", Description: "The user's request in their own words.", Required: true}}
}

// Run runs the tool
func (t *PreferencesTool) Run(ctx context.Context, args string) (string, error) {
	var toolArgs struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(args), &toolArgs); err != nil {
		return "", err
	}
	if strings.TrimSpace(toolArgs.Message) == "" {
		return "", errors.New("message is required")
	}
	b, err := json.Marshal(t.extractor.Extract(ctx, toolArgs.Message))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
