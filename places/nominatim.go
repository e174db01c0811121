package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const geocodeCacheTTL = 1 * time.Hour

// NominatimGeocoder resolves free-text locations using the Nominatim API.
type NominatimGeocoder struct {
	mu        sync.RWMutex
	cache     map[string]*LatLng
	cacheTime map[string]time.Time
}

// NewNominatimGeocoder returns a Nominatim backed geocoder.
func NewNominatimGeocoder() *NominatimGeocoder {
	return &NominatimGeocoder{
		cache:     map[string]*LatLng{},
		cacheTime: map[string]time.Time{},
	}
}

// nominatimResult represents a result from the Nominatim API
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve geocodes a location string. A miss returns (nil, nil).
func (g *NominatimGeocoder) Resolve(ctx context.Context, location string) (*LatLng, error) {
	// Check cache
	g.mu.RLock()
	if loc, ok := g.cache[location]; ok {
		if time.Since(g.cacheTime[location]) < geocodeCacheTTL {
			g.mu.RUnlock()
			return loc, nil
		}
	}
	g.mu.RUnlock()

	apiURL := fmt.Sprintf(
		"https://nominatim.openstreetmap.org/search?q=%s&format=json&limit=1",
		url.QueryEscape(location),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Trusti/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, err
	}

	var loc *LatLng
	if len(results) > 0 {
		lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
		lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
		if latErr == nil && lngErr == nil {
			loc = &LatLng{Lat: lat, Lng: lng}
		}
	}

	// Store in cache, misses included
	g.mu.Lock()
	g.cache[location] = loc
	g.cacheTime[location] = time.Now()
	g.mu.Unlock()

	return loc, nil
}
