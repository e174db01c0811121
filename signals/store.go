package signals

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asim/quadtree"
	"github.com/google/uuid"
	"github.com/mrz1836/go-sanitize"

	"trusti/app"
	"trusti/places"
	"trusti/ratings"
)

var (
	mutex   sync.RWMutex
	qtree   *quadtree.QuadTree
	indexed map[string]bool
)

// Load initialises the signals package: opens the database and builds the
// in-memory quadtree of signalled places.
func Load() {
	if err := initDB(); err != nil {
		app.Log("signals", "Failed to init signals db: %v", err)
		return
	}
	initTree()
	n := loadSignalPlaces()
	app.Log("signals", "Signals loaded: %d places in quadtree", n)
}

// initTree creates the global quadtree covering the whole world.
func initTree() {
	center := quadtree.NewPoint(0, 0, nil)
	half := quadtree.NewPoint(90, 180, nil)
	boundary := quadtree.NewAABB(center, half)

	mutex.Lock()
	qtree = quadtree.New(boundary, 0, nil)
	indexed = map[string]bool{}
	mutex.Unlock()
}

// loadSignalPlaces reads the denormalized place snapshots from the
// database and inserts located ones into the quadtree.
func loadSignalPlaces() int {
	db, err := getDB()
	if err != nil {
		return 0
	}
	rows, err := db.Query(`SELECT place_id, name, address, lat, lng, has_coords FROM signal_places`)
	if err != nil {
		app.Log("signals", "load signal places: %v", err)
		return 0
	}
	defer rows.Close()

	loaded := 0
	mutex.Lock()
	defer mutex.Unlock()
	for rows.Next() {
		p := &places.Place{}
		var hasCoords int
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Lat, &p.Lng, &hasCoords); err != nil {
			continue
		}
		p.HasCoords = hasCoords == 1
		if p.HasCoords {
			qtree.Insert(quadtree.NewPoint(p.Lat, p.Lng, p))
			indexed[p.ID] = true
			loaded++
		}
	}
	return loaded
}

// upsertSignalPlace stores the denormalized snapshot for a signalled
// place, keeping existing coordinates when the incoming snapshot has none.
func upsertSignalPlace(p places.Place) error {
	db, err := getDB()
	if err != nil {
		return err
	}
	hasCoords := 0
	if p.HasCoords {
		hasCoords = 1
	}

	signalsDBMu.Lock()
	_, err = db.Exec(`
		INSERT INTO signal_places (place_id, name, address, lat, lng, has_coords, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(place_id) DO UPDATE SET
			name       = CASE WHEN excluded.name != '' THEN excluded.name ELSE signal_places.name END,
			address    = CASE WHEN excluded.address != '' THEN excluded.address ELSE signal_places.address END,
			lat        = CASE WHEN excluded.has_coords = 1 THEN excluded.lat ELSE signal_places.lat END,
			lng        = CASE WHEN excluded.has_coords = 1 THEN excluded.lng ELSE signal_places.lng END,
			has_coords = MAX(signal_places.has_coords, excluded.has_coords),
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Address, p.Lat, p.Lng, hasCoords, time.Now())
	signalsDBMu.Unlock()
	if err != nil {
		return fmt.Errorf("signal place upsert: %w", err)
	}

	if p.HasCoords {
		mutex.Lock()
		if qtree != nil && !indexed[p.ID] {
			pCopy := p
			qtree.Insert(quadtree.NewPoint(p.Lat, p.Lng, &pCopy))
			indexed[p.ID] = true
		}
		mutex.Unlock()
	}
	return nil
}

// AddRating appends a rating event for a place. Earlier ratings by the
// same user are kept as history; aggregation counts only the latest.
func AddRating(userID string, category ratings.Category, snap places.Place) (ratings.Event, error) {
	if userID == "" || snap.ID == "" {
		return ratings.Event{}, fmt.Errorf("user and place are required")
	}
	if !category.Valid() {
		return ratings.Event{}, fmt.Errorf("unknown rating category: %s", category)
	}
	db, err := getDB()
	if err != nil {
		return ratings.Event{}, err
	}

	ev := ratings.Event{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlaceID:   snap.ID,
		Category:  category,
		CreatedAt: time.Now(),
	}

	signalsDBMu.Lock()
	_, err = db.Exec(`INSERT INTO ratings (id, user_id, place_id, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.PlaceID, string(ev.Category), ev.CreatedAt)
	signalsDBMu.Unlock()
	if err != nil {
		return ratings.Event{}, fmt.Errorf("rating insert: %w", err)
	}

	if err := upsertSignalPlace(snap); err != nil {
		app.Log("signals", "rating place snapshot: %v", err)
	}
	notify()
	return ev, nil
}

// SetBookmark saves a place for a user with a denormalized snapshot.
func SetBookmark(userID string, snap places.Place) error {
	if userID == "" || snap.ID == "" {
		return fmt.Errorf("user and place are required")
	}
	db, err := getDB()
	if err != nil {
		return err
	}
	hasCoords := 0
	if snap.HasCoords {
		hasCoords = 1
	}

	signalsDBMu.Lock()
	_, err = db.Exec(`
		INSERT INTO bookmarks (user_id, place_id, name, address, lat, lng, has_coords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, place_id) DO UPDATE SET
			name = excluded.name, address = excluded.address,
			lat = excluded.lat, lng = excluded.lng, has_coords = excluded.has_coords`,
		userID, snap.ID, snap.Name, snap.Address, snap.Lat, snap.Lng, hasCoords, time.Now())
	signalsDBMu.Unlock()
	if err != nil {
		return fmt.Errorf("bookmark upsert: %w", err)
	}

	if err := upsertSignalPlace(snap); err != nil {
		app.Log("signals", "bookmark place snapshot: %v", err)
	}
	notify()
	return nil
}

// RemoveBookmark deletes a user's bookmark for a place.
func RemoveBookmark(userID, placeID string) error {
	db, err := getDB()
	if err != nil {
		return err
	}
	signalsDBMu.Lock()
	_, err = db.Exec(`DELETE FROM bookmarks WHERE user_id = ? AND place_id = ?`, userID, placeID)
	signalsDBMu.Unlock()
	if err != nil {
		return fmt.Errorf("bookmark delete: %w", err)
	}
	notify()
	return nil
}

// SetIntent records a user's intent for a place, replacing any earlier
// intent for the same pair. The note is scrubbed and capped.
func SetIntent(userID, placeID string, kind Kind, note string) (*Intent, error) {
	if userID == "" || placeID == "" {
		return nil, fmt.Errorf("user and place are required")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown intent kind: %s", kind)
	}
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	in := &Intent{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlaceID:   placeID,
		Kind:      kind,
		Note:      normalizeNote(sanitize.SingleLine(sanitize.XSS(note))),
		CreatedAt: time.Now(),
	}

	signalsDBMu.Lock()
	_, err = db.Exec(`
		INSERT INTO intents (user_id, place_id, id, kind, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, place_id) DO UPDATE SET
			id = excluded.id, kind = excluded.kind,
			note = excluded.note, created_at = excluded.created_at`,
		in.UserID, in.PlaceID, in.ID, string(in.Kind), in.Note, in.CreatedAt)
	signalsDBMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("intent upsert: %w", err)
	}
	notify()
	return in, nil
}

// ClearIntent removes a user's intent for a place.
func ClearIntent(userID, placeID string) error {
	db, err := getDB()
	if err != nil {
		return err
	}
	signalsDBMu.Lock()
	_, err = db.Exec(`DELETE FROM intents WHERE user_id = ? AND place_id = ?`, userID, placeID)
	signalsDBMu.Unlock()
	if err != nil {
		return fmt.Errorf("intent delete: %w", err)
	}
	notify()
	return nil
}

// queryTree returns signalled places whose coordinates fall inside b.
func queryTree(b places.Bounds) []*places.Place {
	mutex.RLock()
	defer mutex.RUnlock()

	if qtree == nil {
		return nil
	}

	c := b.Center()
	center := quadtree.NewPoint(c.Lat, c.Lng, nil)
	half := quadtree.NewPoint((b.MaxLat-b.MinLat)/2, (b.MaxLng-b.MinLng)/2, nil)
	boundary := quadtree.NewAABB(center, half)

	points := qtree.Search(boundary)
	results := make([]*places.Place, 0, len(points))
	for _, pt := range points {
		if p, ok := pt.Data().(*places.Place); ok {
			if !b.Contains(p.Lat, p.Lng) {
				continue // boundary search is approximate at the edges
			}
			results = append(results, p)
		}
	}
	return results
}

// Read builds the read-only signal snapshot used by one search cycle:
// signalled places inside the bounds, list-only (coordinate-less) places,
// their rating events, and the requesting user's bookmark and intent
// membership.
func Read(userID string, b places.Bounds) (*Snapshot, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Events:     map[string][]ratings.Event{},
		Bookmarked: map[string]bool{},
		Intents:    map[string]*Intent{},
	}

	seen := map[string]bool{}
	for _, p := range queryTree(b) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		snap.Places = append(snap.Places, p)
	}

	// List-only places: signalled but missing coordinates. They cannot be
	// drawn on the map but still surface in list views.
	rows, err := db.Query(`SELECT place_id, name, address FROM signal_places WHERE has_coords = 0`)
	if err != nil {
		return nil, fmt.Errorf("list-only places: %w", err)
	}
	for rows.Next() {
		p := &places.Place{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Address); err != nil {
			continue
		}
		if !seen[p.ID] {
			seen[p.ID] = true
			snap.Places = append(snap.Places, p)
		}
	}
	rows.Close()

	if err := readEvents(snap, seen); err != nil {
		return nil, err
	}

	rows, err = db.Query(`SELECT place_id FROM bookmarks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("bookmarks read: %w", err)
	}
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			snap.Bookmarked[id] = true
		}
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, place_id, kind, note, created_at FROM intents WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("intents read: %w", err)
	}
	for rows.Next() {
		in := &Intent{UserID: userID}
		var kind string
		if rows.Scan(&in.ID, &in.PlaceID, &kind, &in.Note, &in.CreatedAt) == nil {
			in.Kind = Kind(kind)
			snap.Intents[in.PlaceID] = in
		}
	}
	rows.Close()

	return snap, nil
}

// readEvents loads rating events for the snapshot's places.
func readEvents(snap *Snapshot, ids map[string]bool) error {
	if len(ids) == 0 {
		return nil
	}
	db, err := getDB()
	if err != nil {
		return err
	}

	args := make([]interface{}, 0, len(ids))
	for id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")

	rows, err := db.Query(
		`SELECT id, user_id, place_id, category, created_at FROM ratings WHERE place_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("ratings read: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ev ratings.Event
		var category string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.PlaceID, &category, &ev.CreatedAt); err != nil {
			continue
		}
		ev.Category = ratings.Category(category)
		snap.Events[ev.PlaceID] = append(snap.Events[ev.PlaceID], ev)
	}
	return nil
}
