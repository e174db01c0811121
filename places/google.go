package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// nearbyKeyword biases default browsing towards food and drink, matching
// the product's focus.
const nearbyKeyword = "restaurant | cafe | bar | coffee | bakery | food"

// GoogleProvider implements Provider against the Google Places API.
// With no API key configured every search returns empty, leaving local
// signal data as the only source.
type GoogleProvider struct{}

// NewGoogleProvider returns a Google Places backed provider.
func NewGoogleProvider() *GoogleProvider {
	return &GoogleProvider{}
}

func googleAPIKey() string {
	return os.Getenv("GOOGLE_API_KEY")
}

// googlePlacesResult represents a single place from the Google Places API.
type googlePlacesResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Types            []string `json:"types"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating     float64 `json:"rating,omitempty"`
	PriceLevel int     `json:"price_level,omitempty"`
	Photos     []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos,omitempty"`
}

type googlePlacesResponse struct {
	Results []googlePlacesResult `json:"results"`
	Status  string               `json:"status"`
}

// SearchKeyword uses the Text Search API constrained to the viewport.
func (g *GoogleProvider) SearchKeyword(ctx context.Context, bounds Bounds, query string) ([]*Place, error) {
	key := googleAPIKey()
	if key == "" {
		return nil, nil
	}
	c := bounds.Center()
	apiURL := fmt.Sprintf(
		"%s/textsearch/json?query=%s&location=%f,%f&radius=%d&key=%s",
		googlePlacesBaseURL, url.QueryEscape(query), c.Lat, c.Lng, bounds.RadiusM(), url.QueryEscape(key),
	)
	results, err := googleDo(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	return filterToBounds(results, bounds), nil
}

// SearchNearby uses the Nearby Search API constrained to the viewport.
func (g *GoogleProvider) SearchNearby(ctx context.Context, bounds Bounds) ([]*Place, error) {
	key := googleAPIKey()
	if key == "" {
		return nil, nil
	}
	c := bounds.Center()
	apiURL := fmt.Sprintf(
		"%s/nearbysearch/json?location=%f,%f&radius=%d&keyword=%s&key=%s",
		googlePlacesBaseURL, c.Lat, c.Lng, bounds.RadiusM(), url.QueryEscape(nearbyKeyword), url.QueryEscape(key),
	)
	results, err := googleDo(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	return filterToBounds(results, bounds), nil
}

// filterToBounds drops results outside the visible viewport. The API takes
// a point and radius, so the circle can overhang the rectangle.
func filterToBounds(results []*Place, bounds Bounds) []*Place {
	filtered := make([]*Place, 0, len(results))
	for _, p := range results {
		if !p.HasCoords {
			continue
		}
		if bounds.Contains(p.Lat, p.Lng) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// googleDo executes a Google Places API GET request and returns parsed places.
func googleDo(ctx context.Context, apiURL string) ([]*Place, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google places returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var gResp googlePlacesResponse
	if err := json.Unmarshal(body, &gResp); err != nil {
		return nil, err
	}

	if gResp.Status != "OK" && gResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google places API error: %s", gResp.Status)
	}

	return parseGooglePlaces(gResp.Results), nil
}

// parseGooglePlaces converts Google Places API results into Place structs.
func parseGooglePlaces(results []googlePlacesResult) []*Place {
	places := make([]*Place, 0, len(results))
	for _, r := range results {
		if r.Name == "" || r.PlaceID == "" {
			continue
		}
		lat := r.Geometry.Location.Lat
		lng := r.Geometry.Location.Lng

		var categories []string
		for _, t := range r.Types {
			// Filter out generic Google types to keep the specific ones
			if t != "point_of_interest" && t != "establishment" {
				categories = append(categories, strings.ReplaceAll(t, "_", " "))
			}
		}

		addr := r.FormattedAddress
		if addr == "" {
			addr = r.Vicinity
		}

		photoRef := ""
		if len(r.Photos) > 0 {
			photoRef = r.Photos[0].PhotoReference
		}

		places = append(places, &Place{
			ID:         r.PlaceID,
			Name:       r.Name,
			Address:    addr,
			Lat:        lat,
			Lng:        lng,
			HasCoords:  lat != 0 || lng != 0,
			Categories: categories,
			PriceTier:  r.PriceLevel,
			PhotoRef:   photoRef,
			Rating:     r.Rating,
		})
	}
	return places
}
