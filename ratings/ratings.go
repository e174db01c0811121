package ratings

import (
	"sort"
	"time"
)

// Category is a trust rating category.
type Category string

const (
	Positive Category = "positive"
	Neutral  Category = "neutral"
	Negative Category = "negative"
)

// Categories lists the rating categories in fixed enumeration order.
// The order doubles as the tie-break priority for Dominant.
var Categories = []Category{Positive, Neutral, Negative}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == Positive || c == Neutral || c == Negative
}

// Event is a single rating posted by a user for a place. A user may post
// many events for the same place over time; only the latest one counts.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Counts holds deduplicated per-category vote counts for one place.
type Counts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Get returns the count for a category.
func (c Counts) Get(cat Category) int {
	switch cat {
	case Positive:
		return c.Positive
	case Neutral:
		return c.Neutral
	case Negative:
		return c.Negative
	}
	return 0
}

// Total returns the total number of deduplicated votes.
func (c Counts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// HasAny reports whether any category has votes.
func (c Counts) HasAny() bool {
	return c.Total() > 0
}

// Active returns the categories with a nonzero count, in enumeration order.
func (c Counts) Active() []Category {
	var active []Category
	for _, cat := range Categories {
		if c.Get(cat) > 0 {
			active = append(active, cat)
		}
	}
	return active
}

// Aggregate folds rating events into per-category counts, counting each
// user exactly once. Events are replayed in createdAt order so a user's
// latest rating overwrites their earlier ones.
func Aggregate(events []Event) Counts {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	latest := make(map[string]Category, len(sorted))
	for _, e := range sorted {
		if e.UserID == "" || !e.Category.Valid() {
			continue
		}
		latest[e.UserID] = e.Category
	}

	var counts Counts
	for _, cat := range latest {
		switch cat {
		case Positive:
			counts.Positive++
		case Neutral:
			counts.Neutral++
		case Negative:
			counts.Negative++
		}
	}
	return counts
}

// Dominant returns the category with the highest count. Ties break by
// fixed priority: positive, then neutral, then negative.
func Dominant(c Counts) Category {
	best := Categories[0]
	for _, cat := range Categories[1:] {
		if c.Get(cat) > c.Get(best) {
			best = cat
		}
	}
	return best
}
