// Package viewport owns the camera: center, zoom and visible bounds. It
// distinguishes user-driven movement from the engine's own programmatic
// moves, debounces movement-triggered searches, and emits camera
// commands for the rendering surface.
package viewport

import (
	"context"
	"sync"
	"time"

	"trusti/app"
	"trusti/data"
	"trusti/places"
	"trusti/search"
)

const (
	// SettleDelay is the trailing debounce applied to user movement.
	SettleDelay = 600 * time.Millisecond
	// MaxKeywordZoom caps how far a keyword result fit may zoom in, so a
	// single tight result never lands at street level.
	MaxKeywordZoom = 16
	// LocateZoom is used after a successful geolocation fix.
	LocateZoom = 15
	// DefaultZoom is the initial camera zoom.
	DefaultZoom = 13
)

// CommandKind identifies a camera command.
type CommandKind string

const (
	PanTo     CommandKind = "panTo"
	SetZoom   CommandKind = "setZoom"
	FitBounds CommandKind = "fitBounds"
)

// Command is a camera instruction for the rendering surface.
type Command struct {
	Kind   CommandKind    `json:"kind"`
	Center *places.LatLng `json:"center,omitempty"`
	Zoom   int            `json:"zoom,omitempty"`
	Bounds *places.Bounds `json:"bounds,omitempty"`
	// MaxZoom caps the zoom a fitBounds command may reach.
	MaxZoom int `json:"max_zoom,omitempty"`
}

// Controller drives the search engine from camera and input events.
type Controller struct {
	engine *search.Engine

	mu           sync.Mutex
	userID       string
	center       places.LatLng
	zoom         int
	bounds       places.Bounds
	keyword      string
	filter       search.Filter
	suppressNext bool
	settleDelay  time.Duration
	settleTimer  *time.Timer
	commandSubs  []func(Command)
}

// savedCamera is the camera state persisted between sessions.
type savedCamera struct {
	Center places.LatLng `json:"center"`
	Zoom   int           `json:"zoom"`
	Bounds places.Bounds `json:"bounds"`
}

// NewController returns a controller for one user's camera. It subscribes
// to the engine so a search that resolved a new location (a zip keyword)
// can move the camera without re-triggering itself.
func NewController(engine *search.Engine, userID string, start places.LatLng) *Controller {
	c := &Controller{
		engine:      engine,
		userID:      userID,
		center:      start,
		zoom:        DefaultZoom,
		bounds:      places.BoundsAround(start, 2000),
		filter:      search.FilterAll,
		settleDelay: SettleDelay,
	}

	// Resume where the user last left the map.
	var saved savedCamera
	if err := data.LoadJSON("camera-"+userID, &saved); err == nil && saved.Zoom > 0 {
		c.center = saved.Center
		c.zoom = saved.Zoom
		c.bounds = saved.Bounds
	}
	engine.Subscribe(func(snap *search.Snapshot) {
		if snap.Recenter != nil {
			c.Pan(*snap.Recenter)
			return
		}
		// A committed keyword search fits the camera to its matches.
		if snap.Request.Keyword == "" {
			return
		}
		var points []places.LatLng
		for _, a := range snap.Places {
			if a.KeywordMatched && a.Place.HasCoords {
				points = append(points, places.LatLng{Lat: a.Place.Lat, Lng: a.Place.Lng})
			}
		}
		c.FitResults(points)
	})
	return c
}

// SubscribeCommands registers a camera command consumer.
func (c *Controller) SubscribeCommands(fn func(Command)) {
	c.mu.Lock()
	c.commandSubs = append(c.commandSubs, fn)
	c.mu.Unlock()
}

func (c *Controller) emit(cmd Command) {
	c.mu.Lock()
	subs := make([]func(Command), len(c.commandSubs))
	copy(subs, c.commandSubs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(cmd)
	}
}

// Camera returns the current center, zoom and bounds.
func (c *Controller) Camera() (places.LatLng, int, places.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center, c.zoom, c.bounds
}

// Moved records a camera movement event from the rendering surface and
// restarts the settle timer. Rapid movement collapses into one search.
func (c *Controller) Moved(center places.LatLng, zoom int, bounds places.Bounds) {
	c.mu.Lock()
	c.center = center
	c.zoom = zoom
	c.bounds = bounds
	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.settleTimer = time.AfterFunc(c.settleDelay, c.Settled)
	c.mu.Unlock()
}

// Settled fires once movement has stopped. A pending suppress flag is
// consumed here, by exactly one settle event, and skips the search.
func (c *Controller) Settled() {
	c.persist()
	c.mu.Lock()
	if c.suppressNext {
		c.suppressNext = false
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.runSearch()
}

// persist saves the camera so the next session resumes in place.
func (c *Controller) persist() {
	c.mu.Lock()
	saved := savedCamera{Center: c.center, Zoom: c.zoom, Bounds: c.bounds}
	userID := c.userID
	c.mu.Unlock()
	if err := data.SaveJSON("camera-"+userID, saved); err != nil {
		app.Log("viewport", "save camera: %v", err)
	}
}

// SetKeyword updates the active keyword and searches immediately.
func (c *Controller) SetKeyword(keyword string) {
	c.mu.Lock()
	c.keyword = keyword
	c.mu.Unlock()
	c.runSearch()
}

// SetFilter updates the active filter and searches immediately.
func (c *Controller) SetFilter(filter search.Filter) {
	if !filter.Valid() {
		filter = search.FilterAll
	}
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	c.runSearch()
}

// Pan moves the camera programmatically. The move itself must not
// trigger a search, so the suppress flag is set before the command goes
// out.
func (c *Controller) Pan(center places.LatLng) {
	c.mu.Lock()
	c.suppressNext = true
	c.center = center
	c.bounds = c.bounds.Recenter(center)
	c.mu.Unlock()
	c.emit(Command{Kind: PanTo, Center: &center})
}

// FitResults fits the camera to a set of result coordinates, capped at
// MaxKeywordZoom so one tight match does not zoom to street level.
func (c *Controller) FitResults(points []places.LatLng) {
	if len(points) == 0 {
		return
	}
	var b places.Bounds
	for _, p := range points {
		b = b.Extend(p.Lat, p.Lng)
	}

	c.mu.Lock()
	c.suppressNext = true
	c.center = b.Center()
	if c.zoom > MaxKeywordZoom {
		c.zoom = MaxKeywordZoom
	}
	c.mu.Unlock()
	c.emit(Command{Kind: FitBounds, Bounds: &b, MaxZoom: MaxKeywordZoom})
}

// Located handles a successful geolocation fix: recenter on the user and
// search there.
func (c *Controller) Located(pos places.LatLng) {
	c.mu.Lock()
	c.suppressNext = true
	c.center = pos
	c.zoom = LocateZoom
	c.bounds = c.bounds.Recenter(pos)
	c.mu.Unlock()
	c.emit(Command{Kind: PanTo, Center: &pos, Zoom: LocateZoom})
	c.persist()
	c.runSearch()
}

// LocateFailed classifies a geolocation failure and returns the message
// to show. The camera stays where it is and no search is lost.
func (c *Controller) LocateFailed(code int) string {
	msg := ClassifyGeoError(code)
	app.Log("viewport", "geolocation failed: %s", msg)
	return msg
}

func (c *Controller) runSearch() {
	c.mu.Lock()
	req := search.Request{
		UserID:  c.userID,
		Bounds:  c.bounds,
		Keyword: c.keyword,
		Filter:  c.filter,
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	c.engine.Search(ctx, req)
}
