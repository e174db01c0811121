// Package signals holds the locally crowd-sourced trust signals for
// places: rating events, bookmarks and stated intents. It is the local
// side of the merge the search engine performs against provider results.
package signals

import (
	"strings"
	"sync"
	"time"

	"trusti/places"
	"trusti/ratings"
)

// Kind is the type of a stated intent.
type Kind string

const (
	WantToGo      Kind = "wantToGo"
	HeardNegative Kind = "heardNegative"
)

// Valid reports whether k is a known intent kind.
func (k Kind) Valid() bool {
	return k == WantToGo || k == HeardNegative
}

// Bookmark is a user's saved place. The place fields are a denormalized
// snapshot cached at save time; they may be stale or missing and are
// backfilled externally.
type Bookmark struct {
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	HasCoords bool      `json:"has_coords"`
	CreatedAt time.Time `json:"created_at"`
}

// Intent is a user's stated intent for a place. At most one is active per
// (user, place) pair; the latest one wins.
type Intent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Kind      Kind      `json:"kind"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a read-only view of local signals for one search cycle.
// Updates never mutate a snapshot; they trigger a fresh search instead.
type Snapshot struct {
	// Places holds the denormalized snapshot for every signalled place in
	// view, plus coordinate-less (list-only) signalled places.
	Places []*places.Place
	// Events maps placeID to its raw rating events, all users.
	Events map[string][]ratings.Event
	// Bookmarked holds the requesting user's bookmarked place IDs.
	Bookmarked map[string]bool
	// Intents maps placeID to the requesting user's active intent.
	Intents map[string]*Intent
}

var (
	subMu       sync.Mutex
	subNextID   int
	subscribers = map[int]func(){}
)

// Subscribe registers a callback invoked after any signal write. The
// search engine uses this to re-run the current search when data changes.
// The returned cancel func removes the subscription, so short-lived
// consumers (a websocket connection) do not accumulate.
func Subscribe(fn func()) (cancel func()) {
	subMu.Lock()
	subNextID++
	id := subNextID
	subscribers[id] = fn
	subMu.Unlock()
	return func() {
		subMu.Lock()
		delete(subscribers, id)
		subMu.Unlock()
	}
}

func notify() {
	subMu.Lock()
	subs := make([]func(), 0, len(subscribers))
	for _, fn := range subscribers {
		subs = append(subs, fn)
	}
	subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// normalizeNote trims and caps an intent note at 200 characters.
func normalizeNote(note string) string {
	note = strings.TrimSpace(note)
	if len(note) > 200 {
		note = note[:200]
	}
	return note
}
