package search

import (
	"trusti/places"
	"trusti/ratings"
	"trusti/signals"
)

// AnnotatedPlace is a place joined with its deduplicated rating counts
// and the requesting user's bookmark and intent membership. It is derived
// per search cycle and never persisted.
type AnnotatedPlace struct {
	Place          *places.Place    `json:"place"`
	Counts         ratings.Counts   `json:"counts"`
	Dominant       ratings.Category `json:"dominant"`
	Bookmarked     bool             `json:"bookmarked"`
	KeywordMatched bool             `json:"keyword_matched"`
	Intent         string           `json:"intent,omitempty"`
}

// HasRatings reports whether the place has at least one deduplicated vote.
func (a *AnnotatedPlace) HasRatings() bool {
	return a.Counts.HasAny()
}

// Score is the weighted rating score used by the reviewed filter.
// The 3/2/1 weighting is a product decision carried over as given.
func (a *AnnotatedPlace) Score() int {
	return 3*a.Counts.Positive + 2*a.Counts.Neutral + a.Counts.Negative
}

// annotate joins each place with its signal data. Keyword matching is
// naive token containment on the place name, case-insensitive.
func annotate(list []*places.Place, sig *signals.Snapshot, tokens []string) []*AnnotatedPlace {
	annotated := make([]*AnnotatedPlace, 0, len(list))
	for _, p := range list {
		a := &AnnotatedPlace{
			Place:          p,
			Counts:         ratings.Aggregate(sig.Events[p.ID]),
			Bookmarked:     sig.Bookmarked[p.ID],
			KeywordMatched: len(tokens) > 0 && places.MatchesKeyword(p.Name, tokens),
		}
		a.Dominant = ratings.Dominant(a.Counts)
		if in := sig.Intents[p.ID]; in != nil {
			a.Intent = string(in.Kind)
		}
		annotated = append(annotated, a)
	}
	return annotated
}
