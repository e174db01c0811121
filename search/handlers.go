package search

import (
	"net/http"
	"strconv"

	"trusti/app"
	"trusti/places"
)

// parseBounds reads viewport bounds from query or form values.
func parseBounds(get func(string) string) (places.Bounds, bool) {
	var b places.Bounds
	var err error
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"min_lat", &b.MinLat}, {"min_lng", &b.MinLng},
		{"max_lat", &b.MaxLat}, {"max_lng", &b.MaxLng},
	} {
		*f.dst, err = strconv.ParseFloat(get(f.key), 64)
		if err != nil {
			return places.Bounds{}, false
		}
	}
	return b, true
}

// Handler serves /search. A JSON request runs a search cycle and returns
// the committed snapshot; anything else gets the map page.
func (e *Engine) Handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/search/select" {
		e.selectHandler(w, r)
		return
	}

	if !app.WantsJSON(r) {
		app.Respond(w, r, app.Response{
			Title:       "Trusti",
			Description: "Places your people actually trust",
			HTML:        renderMapPage(),
		})
		return
	}

	q := r.URL.Query()
	bounds, ok := parseBounds(q.Get)
	if !ok {
		app.BadRequest(w, r, "viewport bounds are required")
		return
	}
	req := Request{
		UserID:  q.Get("user_id"),
		Bounds:  bounds,
		Keyword: q.Get("keyword"),
		Filter:  Filter(q.Get("filter")),
	}
	if req.UserID == "" {
		app.BadRequest(w, r, "user_id is required")
		return
	}

	snap := e.Search(r.Context(), req)
	if snap == nil {
		// Superseded by a newer search; that one carries the results,
		// so this request has nothing current to render.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	app.RespondJSON(w, snap)
}

// selectHandler records a marker or list-item click and returns the
// selected place for a detail view.
func (e *Engine) selectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}
	r.ParseForm()
	placeID := r.Form.Get("place_id")
	if placeID == "" {
		app.BadRequest(w, r, "place_id is required")
		return
	}
	selected := e.Select(placeID)
	if selected == nil {
		app.RespondError(w, http.StatusNotFound, "place not in the current results")
		return
	}
	app.RespondJSON(w, selected)
}
