package search

import "trusti/places"

// Filter narrows which places a search returns.
type Filter string

const (
	// FilterAll shows provider results merged with local signals.
	FilterAll Filter = "all"
	// FilterReviewed shows only places with rating events, ranked by score.
	FilterReviewed Filter = "reviewedOnly"
	// FilterBookmarked shows only the user's bookmarked places.
	FilterBookmarked Filter = "bookmarkedOnly"
)

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	return f == FilterAll || f == FilterReviewed || f == FilterBookmarked
}

// Request is one search context. A fresh value is threaded through every
// search cycle; callbacks never read ambient mutable state.
type Request struct {
	UserID  string        `json:"user_id"`
	Bounds  places.Bounds `json:"bounds"`
	Keyword string        `json:"keyword,omitempty"`
	Filter  Filter        `json:"filter"`
}
