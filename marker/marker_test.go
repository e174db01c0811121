package marker

import (
	"reflect"
	"testing"

	"trusti/ratings"
)

func TestSynthesizePriority(t *testing.T) {
	tests := []struct {
		name   string
		counts ratings.Counts
		m      Membership
		want   Shape
	}{
		{"ratings beat bookmark", ratings.Counts{Positive: 1}, Membership{Bookmarked: true}, ShapeSolid},
		{"bookmark beats keyword", ratings.Counts{}, Membership{Bookmarked: true, KeywordMatched: true}, ShapeStar},
		{"keyword beats default", ratings.Counts{}, Membership{KeywordMatched: true}, ShapePin},
		{"default dot", ratings.Counts{}, Membership{}, ShapeDot},
	}
	for _, tt := range tests {
		if got := Synthesize(tt.counts, tt.m); got.Shape != tt.want {
			t.Errorf("%s: got shape %q, want %q", tt.name, got.Shape, tt.want)
		}
	}
}

func TestSingleCategorySolid(t *testing.T) {
	icon := Synthesize(ratings.Counts{Negative: 3}, Membership{})
	if icon.Shape != ShapeSolid || icon.Fill != ColorNegative {
		t.Errorf("expected solid negative circle, got %+v", icon)
	}
	if len(icon.Segments) != 0 {
		t.Errorf("solid icon should have no segments, got %v", icon.Segments)
	}
}

func TestMajorityRing(t *testing.T) {
	// positive 5, neutral 2, negative 1: solid positive fill with the two
	// minority categories as half-ring segments.
	icon := Synthesize(ratings.Counts{Positive: 5, Neutral: 2, Negative: 1}, Membership{})
	if icon.Shape != ShapeRing || icon.Fill != ColorPositive {
		t.Fatalf("expected positive ring icon, got %+v", icon)
	}
	want := []Segment{
		{Color: ColorNeutral, Start: 0, Sweep: 180},
		{Color: ColorNegative, Start: 180, Sweep: 180},
	}
	if !reflect.DeepEqual(icon.Segments, want) {
		t.Errorf("segments = %v, want %v", icon.Segments, want)
	}
}

func TestMajorityRingSingleMinority(t *testing.T) {
	icon := Synthesize(ratings.Counts{Positive: 3, Negative: 1}, Membership{})
	if icon.Shape != ShapeRing || icon.Fill != ColorPositive {
		t.Fatalf("expected positive ring icon, got %+v", icon)
	}
	if len(icon.Segments) != 1 || icon.Segments[0].Sweep != 360 || icon.Segments[0].Color != ColorNegative {
		t.Errorf("expected one full negative ring segment, got %v", icon.Segments)
	}
}

func TestTiePie(t *testing.T) {
	// positive 2, neutral 2: exact 50/50 pie, positive sector first,
	// starting at 12 o'clock.
	icon := Synthesize(ratings.Counts{Positive: 2, Neutral: 2}, Membership{})
	if icon.Shape != ShapePie {
		t.Fatalf("expected pie icon, got %+v", icon)
	}
	want := []Segment{
		{Color: ColorPositive, Start: 0, Sweep: 180},
		{Color: ColorNeutral, Start: 180, Sweep: 180},
	}
	if !reflect.DeepEqual(icon.Segments, want) {
		t.Errorf("segments = %v, want %v", icon.Segments, want)
	}
}

func TestThreeWayTiePie(t *testing.T) {
	icon := Synthesize(ratings.Counts{Positive: 1, Neutral: 1, Negative: 1}, Membership{})
	if icon.Shape != ShapePie || len(icon.Segments) != 3 {
		t.Fatalf("expected three-sector pie, got %+v", icon)
	}
	for i, seg := range icon.Segments {
		if seg.Sweep != 120 {
			t.Errorf("sector %d sweep = %f, want 120", i, seg.Sweep)
		}
	}
	if icon.Segments[0].Start != 0 || icon.Segments[1].Start != 120 || icon.Segments[2].Start != 240 {
		t.Errorf("sectors not contiguous from top: %v", icon.Segments)
	}
}

func TestProportionalPie(t *testing.T) {
	// Tied lead between positive and neutral with a smaller negative
	// share: sectors are proportional, 135/135/90.
	icon := Synthesize(ratings.Counts{Positive: 3, Neutral: 3, Negative: 2}, Membership{})
	if icon.Shape != ShapePie {
		t.Fatalf("expected pie, got %+v", icon)
	}
	if icon.Segments[0].Sweep != 135 || icon.Segments[1].Sweep != 135 || icon.Segments[2].Sweep != 90 {
		t.Errorf("sweeps not proportional to vote share: %v", icon.Segments)
	}
}

func TestIntentBadgeOverlaysRatingIcon(t *testing.T) {
	icon := Synthesize(ratings.Counts{Positive: 1}, Membership{Intent: "wantToGo"})
	if icon.Shape != ShapeSolid {
		t.Fatalf("intent must not replace the rating icon, got %+v", icon)
	}
	if icon.Badge == nil || icon.Badge.Kind != "wantToGo" || icon.Badge.Color != ColorPositive {
		t.Errorf("expected wantToGo badge, got %+v", icon.Badge)
	}

	icon = Synthesize(ratings.Counts{Neutral: 2}, Membership{Intent: "heardNegative"})
	if icon.Badge == nil || icon.Badge.Color != ColorNegative {
		t.Errorf("expected heardNegative badge, got %+v", icon.Badge)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	counts := ratings.Counts{Positive: 2, Neutral: 2, Negative: 1}
	m := Membership{Bookmarked: true, Intent: "wantToGo"}
	first := Synthesize(counts, m)
	second := Synthesize(counts, m)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("synthesize not deterministic: %+v vs %+v", first, second)
	}
}
