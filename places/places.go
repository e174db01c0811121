package places

import (
	"math"
	"net/http"
	"time"
)

// httpClient is the shared HTTP client with timeout
var httpClient = &http.Client{Timeout: 15 * time.Second}

// Place is an immutable snapshot of a geographic place for one search
// cycle. The ID is the external provider's identifier and is the stable
// join key between provider results and locally held signals.
type Place struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	HasCoords  bool     `json:"has_coords"` // a place may be list-only when the provider omits geometry
	Categories []string `json:"categories,omitempty"`
	PriceTier  int      `json:"price_tier,omitempty"`
	PhotoRef   string   `json:"photo_ref,omitempty"`
	Rating     float64  `json:"rating,omitempty"` // provider star rating, informational only
}

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the rectangular geographic region currently visible.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether the point lies inside the bounds.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// Recenter returns the same-sized bounds moved to a new center.
func (b Bounds) Recenter(c LatLng) Bounds {
	halfLat := (b.MaxLat - b.MinLat) / 2
	halfLng := (b.MaxLng - b.MinLng) / 2
	return Bounds{
		MinLat: c.Lat - halfLat, MaxLat: c.Lat + halfLat,
		MinLng: c.Lng - halfLng, MaxLng: c.Lng + halfLng,
	}
}

// RadiusM approximates the bounds as a radius in metres from its center,
// for providers that take a point and radius instead of a rectangle.
func (b Bounds) RadiusM() int {
	c := b.Center()
	r := Haversine(c.Lat, c.Lng, b.MaxLat, b.MaxLng)
	if r < 100 {
		r = 100
	}
	if r > 50000 {
		r = 50000
	}
	return int(r)
}

// BoundsAround returns bounds spanning radiusM metres around a center.
func BoundsAround(c LatLng, radiusM float64) Bounds {
	latDelta := radiusM / 111000.0
	lngDelta := radiusM / (111000.0 * math.Cos(c.Lat*math.Pi/180))
	return Bounds{
		MinLat: c.Lat - latDelta, MaxLat: c.Lat + latDelta,
		MinLng: c.Lng - lngDelta, MaxLng: c.Lng + lngDelta,
	}
}

// Extend grows the bounds to include the point. A zero Bounds extends to
// exactly the point.
func (b Bounds) Extend(lat, lng float64) Bounds {
	if b == (Bounds{}) {
		return Bounds{MinLat: lat, MaxLat: lat, MinLng: lng, MaxLng: lng}
	}
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	if lng < b.MinLng {
		b.MinLng = lng
	}
	if lng > b.MaxLng {
		b.MaxLng = lng
	}
	return b
}

// Haversine returns the great-circle distance in metres between two lat/lng points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000 // Earth radius in metres
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
