package search

import (
	"trusti/places"
	"trusti/signals"
)

// unionProvider unions the keyword and nearby result sets by place ID.
// Keyword results take precedence on conflict and keep their position.
func unionProvider(keyword, nearby []*places.Place) []*places.Place {
	merged := make([]*places.Place, 0, len(keyword)+len(nearby))
	seen := make(map[string]bool, len(keyword))
	for _, p := range keyword {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	for _, p := range nearby {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	return merged
}

// mergeLocal appends locally signalled places absent from the provider
// set. A signalled place already present contributes only its signal data
// to the provider entry, which happens later at annotation time; the
// provider's richer display data wins here.
func mergeLocal(provider []*places.Place, sig *signals.Snapshot) []*places.Place {
	seen := make(map[string]bool, len(provider))
	for _, p := range provider {
		seen[p.ID] = true
	}
	merged := provider
	for _, p := range sig.Places {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	return merged
}
