package movies

import (
	"strconv"
	"strings"
)

const (
	// NoMatchesMessage is rendered for an empty record list.
	NoMatchesMessage = "I couldn't find any movies matching your preferences."

	formatHeader      = "Here are some movies you might enjoy:\n\n"
	descriptionLimit  = 200
	descriptionSuffix = "..."
)

// Format renders records as one fixed-template block each, in input order.
func Format(records []Record) string {
	if len(records) == 0 {
		return NoMatchesMessage
	}

	var b strings.Builder
	b.WriteString(formatHeader)
	for _, r := range records {
		b.WriteString("🎬 " + r.Title + " (" + r.Year + ")\n")
		b.WriteString("⭐ Rating: " + strconv.FormatFloat(r.Rating, 'f', -1, 64) + "/10\n")
		b.WriteString("📝 " + truncate(r.Description, descriptionLimit) + descriptionSuffix + "\n")
		b.WriteString("🎭 Genres: " + strings.Join(r.Genres, ", ") + "\n\n")
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
