// Package preferences extracts loosely-typed movie filter hints from a user
// message with a single low-temperature LLM call.
package preferences

import (
	"fmt"
	"strings"
)

// Recognised keys. Extra keys returned by the model are kept as-is.
const (
	KeyQuery     = "query"
	KeyGenres    = "genres"
	KeyYearRange = "year_range"
	KeyKeywords  = "keywords"
)

// Preferences is the free-form mapping produced for one turn.
type Preferences map[string]any

// FromQuery is the fallback used whenever extraction fails.
func FromQuery(message string) Preferences {
	return Preferences{KeyQuery: message}
}

// Query returns the search query, or "" when absent or not a string.
func (p Preferences) Query() string {
	s, _ := p[KeyQuery].(string)
	return strings.TrimSpace(s)
}

// Genres returns the genre hints as strings.
func (p Preferences) Genres() []string {
	return stringList(p[KeyGenres])
}

// Keywords returns the keyword hints as strings.
func (p Preferences) Keywords() []string {
	return stringList(p[KeyKeywords])
}

// YearRange renders the year hint, which models return as a string, a number,
// a two-element list or an object.
func (p Preferences) YearRange() string {
	switch v := p[KeyYearRange].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	case []any:
		parts := stringList(v)
		return strings.Join(parts, "-")
	case map[string]any:
		from, to := scalar(v["start"]), scalar(v["end"])
		if from == "" && to == "" {
			from, to = scalar(v["from"]), scalar(v["to"])
		}
		return strings.Trim(from+"-"+to, "-")
	default:
		return fmt.Sprint(v)
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
