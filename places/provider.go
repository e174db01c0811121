package places

import "context"

// Provider searches an external place index. Implementations return an
// empty result (not an error) on quota or zero-result conditions; errors
// are reserved for transport failures the caller may want to log.
type Provider interface {
	// SearchKeyword finds places matching a free-text query, constrained
	// to the given viewport bounds.
	SearchKeyword(ctx context.Context, bounds Bounds, query string) ([]*Place, error)

	// SearchNearby finds points of interest inside the viewport bounds.
	SearchNearby(ctx context.Context, bounds Bounds) ([]*Place, error)
}

// Geocoder resolves a free-text location (an address or postal code) to
// coordinates. A miss is (nil, nil), not an error.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (*LatLng, error)
}
