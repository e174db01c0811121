package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trusti/app"
	"trusti/marker"
	"trusti/places"
	"trusti/signals"
)

const (
	advisoryProvider = "Some results may be missing right now."
	advisorySignals  = "Your saved places are temporarily unavailable."
	advisoryGeocode  = "Couldn't find that zip code, searching here instead."
)

// Engine coordinates one search at a time. Every call to Search mints a
// new generation; a result commits only if its generation is still the
// latest when it completes, otherwise it is silently dropped.
type Engine struct {
	provider places.Provider
	geocoder places.Geocoder

	// ReadSignals reads the local signal snapshot for one cycle. It is a
	// field so tests can substitute an in-memory source.
	ReadSignals func(userID string, b places.Bounds) (*signals.Snapshot, error)

	mu          sync.Mutex
	generation  uint64
	lastReq     *Request
	committed   *Snapshot
	subscribers []func(*Snapshot)
	selectSubs  []func(*AnnotatedPlace)
}

// New returns an engine backed by the given provider and geocoder,
// reading signals from the signals package.
func New(provider places.Provider, geocoder places.Geocoder) *Engine {
	return &Engine{
		provider:    provider,
		geocoder:    geocoder,
		ReadSignals: signals.Read,
	}
}

// Subscribe registers a callback invoked with every committed snapshot.
func (e *Engine) Subscribe(fn func(*Snapshot)) {
	e.mu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.mu.Unlock()
}

// Committed returns the latest committed snapshot, or nil before the
// first search completes.
func (e *Engine) Committed() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed
}

// Refresh re-runs the most recent search. Signal writes call this so a
// new rating or bookmark shows up without the user moving the map.
func (e *Engine) Refresh() {
	e.mu.Lock()
	req := e.lastReq
	e.mu.Unlock()
	if req == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	e.Search(ctx, *req)
}

// begin mints a new generation and records the request for Refresh.
func (e *Engine) begin(req Request) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	r := req
	e.lastReq = &r
	return e.generation
}

// commit applies snap only if its generation is still the latest. It
// returns false when the result was superseded.
func (e *Engine) commit(snap *Snapshot) bool {
	e.mu.Lock()
	if snap.Generation != e.generation {
		e.mu.Unlock()
		return false
	}
	e.committed = snap
	subs := make([]func(*Snapshot), len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// Search runs one full search cycle and returns the committed snapshot,
// or nil when a later search superseded this one. Failures never
// propagate; they degrade to an empty result with an advisory message.
func (e *Engine) Search(ctx context.Context, req Request) *Snapshot {
	if !req.Filter.Valid() {
		req.Filter = FilterAll
	}
	gen := e.begin(req)

	advisory := ""
	var recenter *places.LatLng

	// A bare zip code is a location, not a text query. Resolve it and
	// move the search there; on a miss keep searching where we are.
	if req.Filter == FilterAll && places.IsZipCode(req.Keyword) {
		loc, err := e.geocoder.Resolve(ctx, req.Keyword)
		if err != nil {
			app.Log("search", "geocode %q: %v", req.Keyword, err)
		}
		if loc != nil {
			req.Bounds = req.Bounds.Recenter(*loc)
			recenter = loc
		} else {
			advisory = advisoryGeocode
		}
		req.Keyword = ""
	}

	sig, err := e.ReadSignals(req.UserID, req.Bounds)
	if err != nil {
		app.Log("search", "signals read: %v", err)
		sig = &signals.Snapshot{}
		advisory = advisorySignals
	}

	var merged []*places.Place
	if req.Filter == FilterAll {
		provided, provAdvisory := e.queryProvider(ctx, req)
		if advisory == "" {
			advisory = provAdvisory
		}
		merged = mergeLocal(provided, sig)
	} else {
		// Local filters never hit the provider.
		merged = sig.Places
	}

	tokens := places.KeywordTokens(req.Keyword)
	annotated := annotate(merged, sig, tokens)

	switch req.Filter {
	case FilterReviewed:
		annotated = keep(annotated, (*AnnotatedPlace).HasRatings)
	case FilterBookmarked:
		annotated = keep(annotated, func(a *AnnotatedPlace) bool { return a.Bookmarked })
	}

	ranked := Rank(annotated, req)

	icons := make([]marker.Icon, len(ranked))
	for i, a := range ranked {
		icons[i] = marker.Synthesize(a.Counts, marker.Membership{
			Bookmarked:     a.Bookmarked,
			KeywordMatched: a.KeywordMatched,
			Intent:         a.Intent,
		})
	}

	snap := &Snapshot{
		Generation: gen,
		Request:    req,
		Places:     ranked,
		Icons:      icons,
		Advisory:   advisory,
		Recenter:   recenter,
	}
	if !e.commit(snap) {
		return nil
	}
	return snap
}

// queryProvider runs the provider queries for the all filter. With a
// keyword it issues the keyword and nearby queries concurrently so both
// matches and contextual dots come back in one cycle. A failed query
// degrades to an empty result instead of failing the search.
func (e *Engine) queryProvider(ctx context.Context, req Request) ([]*places.Place, string) {
	var keywordRes, nearbyRes []*places.Place

	// A plain group, not WithContext: one query failing must not cancel
	// the other, its partial result still renders.
	var g errgroup.Group
	if req.Keyword != "" {
		g.Go(func() error {
			res, err := e.provider.SearchKeyword(ctx, req.Bounds, req.Keyword)
			if err != nil {
				app.Log("search", "keyword query: %v", err)
				return err
			}
			keywordRes = res
			return nil
		})
	}
	g.Go(func() error {
		res, err := e.provider.SearchNearby(ctx, req.Bounds)
		if err != nil {
			app.Log("search", "nearby query: %v", err)
			return err
		}
		nearbyRes = res
		return nil
	})

	advisory := ""
	if err := g.Wait(); err != nil {
		advisory = advisoryProvider
	}
	return unionProvider(keywordRes, nearbyRes), advisory
}

func keep(list []*AnnotatedPlace, pred func(*AnnotatedPlace) bool) []*AnnotatedPlace {
	kept := list[:0]
	for _, a := range list {
		if pred(a) {
			kept = append(kept, a)
		}
	}
	return kept
}
