package search

import (
	"trusti/marker"
	"trusti/places"
)

// Snapshot is one committed search result. Icons is parallel to Places.
// Consumers (map surface, list UI, stream) re-render from it wholesale;
// a snapshot is never patched in place.
type Snapshot struct {
	Generation uint64            `json:"generation"`
	Request    Request           `json:"request"`
	Places     []*AnnotatedPlace `json:"places"`
	Icons      []marker.Icon     `json:"icons"`
	// Advisory is a short user-facing message for degraded searches, for
	// example a provider failure or an unresolvable postal code.
	Advisory string `json:"advisory,omitempty"`
	// Recenter is set when the search resolved a postal-code keyword to a
	// new location. The camera owner should pan there with suppression.
	Recenter *places.LatLng `json:"recenter,omitempty"`
}
