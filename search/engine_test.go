package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"trusti/places"
	"trusti/ratings"
	"trusti/signals"
)

var austin = places.Bounds{MinLat: 30.1, MinLng: -97.9, MaxLat: 30.4, MaxLng: -97.6}

type funcProvider struct {
	keywordFn func(context.Context, places.Bounds, string) ([]*places.Place, error)
	nearbyFn  func(context.Context, places.Bounds) ([]*places.Place, error)
}

func (f *funcProvider) SearchKeyword(ctx context.Context, b places.Bounds, q string) ([]*places.Place, error) {
	if f.keywordFn == nil {
		return nil, nil
	}
	return f.keywordFn(ctx, b, q)
}

func (f *funcProvider) SearchNearby(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
	if f.nearbyFn == nil {
		return nil, nil
	}
	return f.nearbyFn(ctx, b)
}

type fakeGeocoder struct {
	loc *places.LatLng
	err error
}

func (f *fakeGeocoder) Resolve(ctx context.Context, location string) (*places.LatLng, error) {
	return f.loc, f.err
}

func mapPlace(id, name string) *places.Place {
	return &places.Place{ID: id, Name: name, Lat: 30.26, Lng: -97.74, HasCoords: true}
}

func emptySignals(string, places.Bounds) (*signals.Snapshot, error) {
	return &signals.Snapshot{}, nil
}

func fixedSignals(sig *signals.Snapshot) func(string, places.Bounds) (*signals.Snapshot, error) {
	return func(string, places.Bounds) (*signals.Snapshot, error) {
		return sig, nil
	}
}

func newTestEngine(p places.Provider) *Engine {
	e := New(p, &fakeGeocoder{})
	e.ReadSignals = emptySignals
	return e
}

func TestGenerationDiscard(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				<-release
				return []*places.Place{mapPlace("stale", "Old Result")}, nil
			}
			return []*places.Place{mapPlace("fresh", "New Result")}, nil
		},
	}
	eng := newTestEngine(provider)

	req := Request{UserID: "alice", Bounds: austin, Filter: FilterAll}
	done := make(chan *Snapshot, 1)
	go func() { done <- eng.Search(context.Background(), req) }()

	// Wait until the first search is in flight before superseding it.
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	second := eng.Search(context.Background(), req)
	if second == nil {
		t.Fatal("second search should commit")
	}
	close(release)

	if first := <-done; first != nil {
		t.Errorf("superseded search should return nil, got generation %d", first.Generation)
	}
	committed := eng.Committed()
	if committed.Generation != second.Generation {
		t.Fatalf("committed generation = %d, want %d", committed.Generation, second.Generation)
	}
	if len(committed.Places) != 1 || committed.Places[0].Place.ID != "fresh" {
		t.Errorf("committed results should come from the newer search: %+v", committed.Places)
	}
}

func TestMergeUniqueness(t *testing.T) {
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			return []*places.Place{mapPlace("p1", "Veracruz All Natural")}, nil
		},
	}
	eng := New(provider, &fakeGeocoder{})
	eng.ReadSignals = fixedSignals(&signals.Snapshot{
		// Stale denormalized snapshot of the same place.
		Places:     []*places.Place{{ID: "p1", Name: "Veracruz"}},
		Bookmarked: map[string]bool{"p1": true},
		Events: map[string][]ratings.Event{
			"p1": {{ID: "e1", UserID: "bob", PlaceID: "p1", Category: ratings.Positive, CreatedAt: time.Now()}},
		},
	})

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterAll})
	if len(snap.Places) != 1 {
		t.Fatalf("expected exactly one entry per place ID, got %d", len(snap.Places))
	}
	a := snap.Places[0]
	if a.Place.Name != "Veracruz All Natural" {
		t.Errorf("provider display data should win: %q", a.Place.Name)
	}
	if !a.Bookmarked || a.Counts.Positive != 1 {
		t.Errorf("local signal data should be carried: %+v", a)
	}
}

func TestLocalOnlyPlaceAppended(t *testing.T) {
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			return []*places.Place{mapPlace("p1", "Veracruz")}, nil
		},
	}
	eng := New(provider, &fakeGeocoder{})
	eng.ReadSignals = fixedSignals(&signals.Snapshot{
		Places:     []*places.Place{mapPlace("p2", "Nixta Taqueria")},
		Bookmarked: map[string]bool{"p2": true},
	})

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterAll})
	if len(snap.Places) != 2 {
		t.Fatalf("local-only place should be appended, got %d entries", len(snap.Places))
	}
	if snap.Places[1].Place.ID != "p2" || !snap.Places[1].Bookmarked {
		t.Errorf("appended entry should use the denormalized snapshot: %+v", snap.Places[1])
	}
}

func TestProviderFailureDegrades(t *testing.T) {
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	eng := newTestEngine(provider)

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterAll})
	if snap == nil {
		t.Fatal("a failed provider query must still commit a result")
	}
	if len(snap.Places) != 0 {
		t.Errorf("degraded search should be empty, got %d places", len(snap.Places))
	}
	if snap.Advisory == "" {
		t.Error("degraded search should carry an advisory message")
	}
}

func TestPartialProviderFailure(t *testing.T) {
	provider := &funcProvider{
		keywordFn: func(ctx context.Context, b places.Bounds, q string) ([]*places.Place, error) {
			return nil, errors.New("quota exceeded")
		},
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			return []*places.Place{mapPlace("p1", "Veracruz")}, nil
		},
	}
	eng := newTestEngine(provider)

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Keyword: "tacos", Filter: FilterAll})
	if snap == nil {
		t.Fatal("one failed query must still commit a result")
	}
	if len(snap.Places) != 1 || snap.Places[0].Place.ID != "p1" {
		t.Fatalf("the surviving query's results should render, got %+v", snap.Places)
	}
	if snap.Advisory == "" {
		t.Error("a partial failure should carry an advisory message")
	}
}

func TestKeywordRunsBothQueries(t *testing.T) {
	var keywordCalled, nearbyCalled int32
	provider := &funcProvider{
		keywordFn: func(ctx context.Context, b places.Bounds, q string) ([]*places.Place, error) {
			atomic.AddInt32(&keywordCalled, 1)
			return []*places.Place{mapPlace("p1", "Torchy's Tacos")}, nil
		},
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			atomic.AddInt32(&nearbyCalled, 1)
			return []*places.Place{mapPlace("p1", "Duplicate Of Torchys"), mapPlace("p2", "Blue Bottle Coffee")}, nil
		},
	}
	eng := newTestEngine(provider)

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Keyword: "tacos", Filter: FilterAll})
	if keywordCalled != 1 || nearbyCalled != 1 {
		t.Fatalf("expected both queries to run, got keyword=%d nearby=%d", keywordCalled, nearbyCalled)
	}
	if len(snap.Places) != 2 {
		t.Fatalf("union should have 2 places, got %d", len(snap.Places))
	}
	// Keyword result wins the ID conflict and matches the token.
	if snap.Places[0].Place.Name != "Torchy's Tacos" || !snap.Places[0].KeywordMatched {
		t.Errorf("unexpected first result: %+v", snap.Places[0])
	}
	if snap.Places[1].KeywordMatched {
		t.Errorf("non-matching name should not be keyword-matched: %+v", snap.Places[1])
	}
}

func TestZipKeywordRecenters(t *testing.T) {
	var searchedBounds places.Bounds
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			searchedBounds = b
			return nil, nil
		},
	}
	loc := &places.LatLng{Lat: 40.75, Lng: -73.99}
	eng := New(provider, &fakeGeocoder{loc: loc})
	eng.ReadSignals = emptySignals

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Keyword: "10001", Filter: FilterAll})
	if snap.Recenter == nil || *snap.Recenter != *loc {
		t.Fatalf("zip keyword should resolve to a recenter, got %+v", snap.Recenter)
	}
	if !searchedBounds.Contains(loc.Lat, loc.Lng) {
		t.Errorf("nearby query should run at the resolved location, got %+v", searchedBounds)
	}
	if snap.Request.Keyword != "" {
		t.Error("a resolved zip code is a location, not a text query")
	}
}

func TestZipKeywordMissFallsBack(t *testing.T) {
	var searchedBounds places.Bounds
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			searchedBounds = b
			return nil, nil
		},
	}
	eng := New(provider, &fakeGeocoder{})
	eng.ReadSignals = emptySignals

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Keyword: "00000", Filter: FilterAll})
	if snap.Recenter != nil {
		t.Error("a geocoding miss should not move the camera")
	}
	if snap.Advisory == "" {
		t.Error("a geocoding miss should carry an advisory")
	}
	if searchedBounds != austin {
		t.Errorf("search should fall back to the current viewport, got %+v", searchedBounds)
	}
}

func TestLocalFiltersSkipProvider(t *testing.T) {
	var providerCalls int32
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			atomic.AddInt32(&providerCalls, 1)
			return nil, nil
		},
	}
	eng := New(provider, &fakeGeocoder{})
	eng.ReadSignals = fixedSignals(&signals.Snapshot{
		Places:     []*places.Place{mapPlace("reviewed", "Veracruz"), mapPlace("saved", "Nixta")},
		Bookmarked: map[string]bool{"saved": true},
		Events: map[string][]ratings.Event{
			"reviewed": {{ID: "e1", UserID: "bob", PlaceID: "reviewed", Category: ratings.Positive, CreatedAt: time.Now()}},
		},
	})

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterReviewed})
	if providerCalls != 0 {
		t.Fatal("local filters must not query the provider")
	}
	if len(snap.Places) != 1 || snap.Places[0].Place.ID != "reviewed" {
		t.Errorf("reviewed filter should keep only rated places: %+v", snap.Places)
	}

	snap = eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterBookmarked})
	if len(snap.Places) != 1 || snap.Places[0].Place.ID != "saved" {
		t.Errorf("bookmarked filter should keep only saved places: %+v", snap.Places)
	}
}

func TestIconsParallelToPlaces(t *testing.T) {
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			return []*places.Place{mapPlace("p1", "Veracruz"), mapPlace("p2", "Nixta")}, nil
		},
	}
	eng := New(provider, &fakeGeocoder{})
	eng.ReadSignals = fixedSignals(&signals.Snapshot{
		Bookmarked: map[string]bool{"p2": true},
	})

	snap := eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterAll})
	if len(snap.Icons) != len(snap.Places) {
		t.Fatalf("icons must parallel places: %d vs %d", len(snap.Icons), len(snap.Places))
	}
	if snap.Icons[0].Shape != "dot" {
		t.Errorf("unrated unsaved place should get the default dot, got %s", snap.Icons[0].Shape)
	}
	if snap.Icons[1].Shape != "star" {
		t.Errorf("bookmarked place should get the star, got %s", snap.Icons[1].Shape)
	}
}

func TestRefreshReusesLastRequest(t *testing.T) {
	provider := &funcProvider{}
	eng := newTestEngine(provider)

	var committed []*Snapshot
	eng.Subscribe(func(s *Snapshot) { committed = append(committed, s) })

	req := Request{UserID: "alice", Bounds: austin, Keyword: "tacos", Filter: FilterAll}
	eng.Search(context.Background(), req)
	eng.Refresh()

	if len(committed) != 2 {
		t.Fatalf("expected 2 committed snapshots, got %d", len(committed))
	}
	if committed[1].Generation <= committed[0].Generation {
		t.Error("refresh should mint a new generation")
	}
	if committed[1].Request.Keyword != "tacos" {
		t.Errorf("refresh should reuse the last request, got %+v", committed[1].Request)
	}
}

func TestSelect(t *testing.T) {
	provider := &funcProvider{
		nearbyFn: func(ctx context.Context, b places.Bounds) ([]*places.Place, error) {
			return []*places.Place{mapPlace("p1", "Veracruz")}, nil
		},
	}
	eng := newTestEngine(provider)

	var selected *AnnotatedPlace
	eng.SubscribeSelect(func(a *AnnotatedPlace) { selected = a })

	eng.Search(context.Background(), Request{UserID: "alice", Bounds: austin, Filter: FilterAll})
	if got := eng.Select("p1"); got == nil || got.Place.ID != "p1" {
		t.Fatalf("Select(p1) = %+v", got)
	}
	if selected == nil || selected.Place.ID != "p1" {
		t.Error("selection subscribers should be notified")
	}
	if eng.Select("missing") != nil {
		t.Error("selecting an unknown place should return nil")
	}
}
