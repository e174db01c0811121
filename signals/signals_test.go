package signals

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"trusti/places"
	"trusti/ratings"
)

var austin = places.Bounds{MinLat: 30.1, MinLng: -97.9, MaxLat: 30.4, MaxLng: -97.6}

func setupTestDB(t *testing.T) {
	t.Helper()
	os.Setenv("HOME", t.TempDir())
	if signalsDB != nil {
		signalsDB.Close()
	}
	signalsDB = nil
	signalsDBOne = sync.Once{}
	Load()
}

func testPlace(id, name string) places.Place {
	return places.Place{
		ID: id, Name: name, Address: "Austin, TX",
		Lat: 30.26, Lng: -97.74, HasCoords: true,
	}
}

func TestRatingRoundtrip(t *testing.T) {
	setupTestDB(t)

	ev, err := AddRating("alice", ratings.Positive, testPlace("p1", "Veracruz"))
	if err != nil {
		t.Fatalf("AddRating: %v", err)
	}
	if ev.ID == "" || ev.PlaceID != "p1" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	snap, err := Read("alice", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(snap.Places) != 1 || snap.Places[0].ID != "p1" {
		t.Fatalf("expected signalled place in view, got %+v", snap.Places)
	}
	counts := ratings.Aggregate(snap.Events["p1"])
	if counts.Positive != 1 || counts.Total() != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestRatingLatestWinsPerUser(t *testing.T) {
	setupTestDB(t)

	if _, err := AddRating("alice", ratings.Positive, testPlace("p1", "Veracruz")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := AddRating("alice", ratings.Negative, testPlace("p1", "Veracruz")); err != nil {
		t.Fatal(err)
	}

	snap, err := Read("alice", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(snap.Events["p1"]) != 2 {
		t.Fatalf("both events should be kept as history, got %d", len(snap.Events["p1"]))
	}
	counts := ratings.Aggregate(snap.Events["p1"])
	if counts.Total() != 1 || counts.Negative != 1 {
		t.Errorf("only the latest rating should count: %+v", counts)
	}
}

func TestAddRatingValidation(t *testing.T) {
	setupTestDB(t)

	if _, err := AddRating("", ratings.Positive, testPlace("p1", "x")); err == nil {
		t.Error("empty user should be rejected")
	}
	if _, err := AddRating("alice", ratings.Positive, places.Place{}); err == nil {
		t.Error("empty place should be rejected")
	}
	if _, err := AddRating("alice", ratings.Category("meh"), testPlace("p1", "x")); err == nil {
		t.Error("unknown category should be rejected")
	}
}

func TestBookmarkRoundtrip(t *testing.T) {
	setupTestDB(t)

	if err := SetBookmark("alice", testPlace("p1", "Veracruz")); err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}

	snap, err := Read("alice", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !snap.Bookmarked["p1"] {
		t.Error("p1 should be bookmarked for alice")
	}

	// Membership is per user.
	snap, err = Read("bob", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Bookmarked["p1"] {
		t.Error("p1 should not be bookmarked for bob")
	}
	if len(snap.Places) != 1 {
		t.Error("signalled place should still be visible to bob")
	}

	if err := RemoveBookmark("alice", "p1"); err != nil {
		t.Fatalf("RemoveBookmark: %v", err)
	}
	snap, _ = Read("alice", austin)
	if snap.Bookmarked["p1"] {
		t.Error("bookmark should be gone after removal")
	}
}

func TestIntentLatestWins(t *testing.T) {
	setupTestDB(t)

	if _, err := SetIntent("alice", "p1", WantToGo, "heard the migas are great"); err != nil {
		t.Fatalf("SetIntent: %v", err)
	}
	in, err := SetIntent("alice", "p1", HeardNegative, "friend got sick there")
	if err != nil {
		t.Fatalf("SetIntent: %v", err)
	}
	if in.Kind != HeardNegative {
		t.Errorf("kind = %s", in.Kind)
	}

	snap, err := Read("alice", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := snap.Intents["p1"]
	if got == nil || got.Kind != HeardNegative {
		t.Fatalf("latest intent should win, got %+v", got)
	}

	if err := ClearIntent("alice", "p1"); err != nil {
		t.Fatalf("ClearIntent: %v", err)
	}
	snap, _ = Read("alice", austin)
	if snap.Intents["p1"] != nil {
		t.Error("intent should be gone after clear")
	}
}

func TestIntentNoteScrubbed(t *testing.T) {
	setupTestDB(t)

	in, err := SetIntent("alice", "p1", WantToGo, "  <script>alert(1)</script>nice spot  ")
	if err != nil {
		t.Fatalf("SetIntent: %v", err)
	}
	if strings.Contains(in.Note, "<script>") {
		t.Errorf("markup should be scrubbed: %q", in.Note)
	}
	if strings.HasPrefix(in.Note, " ") || strings.HasSuffix(in.Note, " ") {
		t.Errorf("note should be trimmed: %q", in.Note)
	}

	long, err := SetIntent("alice", "p2", WantToGo, strings.Repeat("x", 300))
	if err != nil {
		t.Fatalf("SetIntent: %v", err)
	}
	if len(long.Note) != 200 {
		t.Errorf("note should be capped at 200 chars, got %d", len(long.Note))
	}

	if _, err := SetIntent("alice", "p1", Kind("maybe"), ""); err == nil {
		t.Error("unknown intent kind should be rejected")
	}
}

func TestReadBounds(t *testing.T) {
	setupTestDB(t)

	inView := testPlace("in", "Veracruz")
	outOfView := places.Place{ID: "out", Name: "Franklin", Lat: 41.0, Lng: -74.0, HasCoords: true}
	listOnly := places.Place{ID: "nocoords", Name: "Mystery Taqueria"}

	for _, p := range []places.Place{inView, outOfView, listOnly} {
		if _, err := AddRating("alice", ratings.Positive, p); err != nil {
			t.Fatalf("AddRating(%s): %v", p.ID, err)
		}
	}

	snap, err := Read("alice", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := map[string]bool{}
	for _, p := range snap.Places {
		got[p.ID] = true
	}
	if !got["in"] {
		t.Error("place inside the bounds should be returned")
	}
	if got["out"] {
		t.Error("place outside the bounds should be excluded")
	}
	if !got["nocoords"] {
		t.Error("coordinate-less place should surface as list-only")
	}
}

func TestTreeRebuildOnLoad(t *testing.T) {
	setupTestDB(t)

	if _, err := AddRating("alice", ratings.Positive, testPlace("p1", "Veracruz")); err != nil {
		t.Fatal(err)
	}

	// Simulate a restart: drop the in-memory index and rebuild from disk.
	initTree()
	if n := loadSignalPlaces(); n != 1 {
		t.Fatalf("expected 1 place rebuilt into quadtree, got %d", n)
	}
	snap, err := Read("alice", austin)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(snap.Places) != 1 {
		t.Errorf("rebuilt index should serve reads, got %d places", len(snap.Places))
	}
}

func TestSubscribeNotify(t *testing.T) {
	setupTestDB(t)

	fired := make(chan struct{}, 10)
	cancel := Subscribe(func() { fired <- struct{}{} })
	defer cancel()

	if _, err := AddRating("alice", ratings.Positive, testPlace("p1", "x")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	default:
		t.Error("rating write should notify subscribers")
	}
}

func TestSubscribeCancel(t *testing.T) {
	setupTestDB(t)

	fired := make(chan struct{}, 10)
	cancel := Subscribe(func() { fired <- struct{}{} })
	cancel()

	if _, err := AddRating("alice", ratings.Positive, testPlace("p1", "x")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
		t.Error("cancelled subscription should not fire")
	default:
	}
}
