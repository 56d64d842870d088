package models

import "strings"

// SourceTag identifies which upstream produced a record.
type SourceTag string

const (
	// SourcePrimary is the scraped Royal Road catalog.
	SourcePrimary SourceTag = "royalroad"
	// SourceSecondary is the Google Books fallback API.
	SourceSecondary SourceTag = "google"
)

// Listing is the lightweight catalog summary every adapter must produce.
// It is transient: never stored as its own row, always projected into/out
// of the novels table.
type Listing struct {
	ExternalID string    `json:"id"`
	Title      string    `json:"title"`
	CoverURL   string    `json:"image,omitempty"`
	Author     string    `json:"author"`
	RatingText string    `json:"rating"`
	Summary    string    `json:"summary,omitempty"`
	Source     SourceTag `json:"source"`
}

// UnknownAuthor is the sentinel used when an upstream omits the author.
const UnknownAuthor = "Unknown"

// DefaultRating is the neutral display rating used when upstream gives none.
const DefaultRating = "4.5"

// Valid reports whether the listing may be emitted. Producers must drop
// invalid candidates instead of returning an error for the whole batch.
func (l Listing) Valid() bool {
	return strings.TrimSpace(l.Title) != "" && strings.TrimSpace(l.ExternalID) != ""
}

// IsPrimaryID reports whether an external identifier belongs to the primary
// source. Primary ids are path fragments ("/fiction/12345/slug"); secondary
// ids are opaque API tokens.
func IsPrimaryID(externalID string) bool {
	return strings.Contains(externalID, "/fiction/")
}

// SecureURL rewrites a cover URL to https. Upstreams occasionally hand out
// plain http image links.
func SecureURL(u string) string {
	return strings.Replace(u, "http://", "https://", 1)
}

// TruncateRating trims a raw upstream rating to display text. Rating formats
// are heterogeneous across sources, so ratings are carried as text, never
// parsed into a float.
func TruncateRating(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultRating
	}
	// truncate by runes: upstream rating titles are free text and may carry
	// multibyte characters a byte slice would cut mid-rune
	if r := []rune(raw); len(r) > 3 {
		return string(r[:3])
	}
	return raw
}
