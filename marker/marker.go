package marker

import (
	"trusti/ratings"
)

// Colors shared with the list UI.
const (
	ColorPositive = "#22c55e"
	ColorNeutral  = "#eab308"
	ColorNegative = "#ef4444"
	ColorBookmark = "#8b5cf6"
	ColorKeyword  = "#16a34a"
	ColorDefault  = "#9ca3af"
	ColorBorder   = "#ffffff"
)

// Shape identifies the marker glyph family.
type Shape string

const (
	ShapeSolid Shape = "solid" // single-colour circle
	ShapeRing  Shape = "ring"  // solid fill with minority ring segments
	ShapePie   Shape = "pie"   // proportional sectors
	ShapeStar  Shape = "star"  // bookmarked place
	ShapePin   Shape = "pin"   // keyword search match
	ShapeDot   Shape = "dot"   // default browsing dot
)

// Segment is one ring segment or pie sector. Angles are degrees clockwise
// from 12 o'clock.
type Segment struct {
	Color string  `json:"color"`
	Start float64 `json:"start"`
	Sweep float64 `json:"sweep"`
}

// Badge is a small intent indicator drawn on top of a rating icon.
type Badge struct {
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

// Icon is a declarative marker descriptor. The rendering surface is
// responsible for translating it into its native drawing primitives.
type Icon struct {
	Shape    Shape     `json:"shape"`
	Fill     string    `json:"fill,omitempty"`
	Border   string    `json:"border,omitempty"`
	Scale    float64   `json:"scale"`
	Segments []Segment `json:"segments,omitempty"`
	Badge    *Badge    `json:"badge,omitempty"`
}

// Membership carries the non-rating signals for a place.
type Membership struct {
	Bookmarked     bool
	KeywordMatched bool
	Intent         string // intent kind, empty when no active intent
}

func categoryColor(cat ratings.Category) string {
	switch cat {
	case ratings.Positive:
		return ColorPositive
	case ratings.Neutral:
		return ColorNeutral
	case ratings.Negative:
		return ColorNegative
	}
	return ColorDefault
}

func intentBadge(kind string) *Badge {
	switch kind {
	case "wantToGo":
		return &Badge{Kind: kind, Color: ColorPositive}
	case "heardNegative":
		return &Badge{Kind: kind, Color: ColorNegative}
	}
	return nil
}

// Synthesize produces the icon descriptor for a place. It is a pure
// function of its inputs: identical counts and membership always yield an
// identical descriptor.
//
// Priority: rating icon, then bookmark star, then keyword pin, then the
// default dot. An active intent is drawn as a badge on a rating icon and
// never replaces it.
func Synthesize(counts ratings.Counts, m Membership) Icon {
	if counts.HasAny() {
		icon := ratingIcon(counts)
		icon.Badge = intentBadge(m.Intent)
		return icon
	}
	if m.Bookmarked {
		return Icon{Shape: ShapeStar, Fill: ColorBookmark, Border: ColorBorder, Scale: 1.2}
	}
	if m.KeywordMatched {
		return Icon{Shape: ShapePin, Fill: ColorKeyword, Border: ColorBorder, Scale: 1.4}
	}
	return Icon{Shape: ShapeDot, Fill: ColorDefault, Border: ColorBorder, Scale: 7}
}

// ratingIcon encodes nonzero counts as a solid circle, a majority fill
// with a minority ring, or a proportional pie when the lead is tied.
func ratingIcon(counts ratings.Counts) Icon {
	active := counts.Active()
	if len(active) == 1 {
		return Icon{Shape: ShapeSolid, Fill: categoryColor(active[0]), Border: ColorBorder, Scale: 12}
	}

	max := 0
	for _, cat := range active {
		if n := counts.Get(cat); n > max {
			max = n
		}
	}
	var leaders int
	for _, cat := range active {
		if counts.Get(cat) == max {
			leaders++
		}
	}

	if leaders == 1 {
		// Strict majority: majority colour fills the circle and the
		// remaining categories split the ring evenly.
		majority := ratings.Dominant(counts)
		var minorities []ratings.Category
		for _, cat := range active {
			if cat != majority {
				minorities = append(minorities, cat)
			}
		}
		sweep := 360.0 / float64(len(minorities))
		segments := make([]Segment, 0, len(minorities))
		start := 0.0
		for _, cat := range minorities {
			segments = append(segments, Segment{Color: categoryColor(cat), Start: start, Sweep: sweep})
			start += sweep
		}
		return Icon{Shape: ShapeRing, Fill: categoryColor(majority), Border: ColorBorder, Scale: 12, Segments: segments}
	}

	// Tied lead: pie chart with sectors proportional to vote share,
	// placed in enumeration order starting at 12 o'clock, clockwise.
	total := float64(counts.Total())
	segments := make([]Segment, 0, len(active))
	start := 0.0
	for _, cat := range active {
		sweep := 360.0 * float64(counts.Get(cat)) / total
		segments = append(segments, Segment{Color: categoryColor(cat), Start: start, Sweep: sweep})
		start += sweep
	}
	return Icon{Shape: ShapePie, Border: ColorBorder, Scale: 12, Segments: segments}
}
