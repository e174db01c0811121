package signals

import (
	"net/http"
	"strconv"

	"trusti/app"
	"trusti/places"
	"trusti/ratings"
)

// placeFromForm rebuilds the denormalized place snapshot sent with a
// signal write. Coordinates are optional; a place without them is still
// accepted and surfaces in list views only.
func placeFromForm(r *http.Request) places.Place {
	p := places.Place{
		ID:      r.Form.Get("place_id"),
		Name:    r.Form.Get("name"),
		Address: r.Form.Get("address"),
	}
	latStr := r.Form.Get("lat")
	lngStr := r.Form.Get("lng")
	if latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr == nil && lngErr == nil {
			p.Lat = lat
			p.Lng = lng
			p.HasCoords = true
		}
	}
	return p
}

// RatingHandler records a rating event for a place.
func RatingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}
	r.ParseForm()

	userID := r.Form.Get("user_id")
	category := ratings.Category(r.Form.Get("category"))
	snap := placeFromForm(r)

	ev, err := AddRating(userID, category, snap)
	if err != nil {
		app.BadRequest(w, r, err.Error())
		return
	}
	app.RespondJSON(w, ev)
}

// BookmarkHandler saves or removes a bookmark. Pass action=remove to
// delete, anything else saves.
func BookmarkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}
	r.ParseForm()

	userID := r.Form.Get("user_id")
	if r.Form.Get("action") == "remove" {
		placeID := r.Form.Get("place_id")
		if userID == "" || placeID == "" {
			app.BadRequest(w, r, "user and place are required")
			return
		}
		if err := RemoveBookmark(userID, placeID); err != nil {
			app.ServerError(w, r, err.Error())
			return
		}
		app.RespondJSON(w, map[string]string{"status": "removed"})
		return
	}

	if err := SetBookmark(userID, placeFromForm(r)); err != nil {
		app.BadRequest(w, r, err.Error())
		return
	}
	app.RespondJSON(w, map[string]string{"status": "saved"})
}

// IntentHandler sets or clears a user's intent for a place. Pass
// action=clear to delete, anything else replaces the active intent.
func IntentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}
	r.ParseForm()

	userID := r.Form.Get("user_id")
	placeID := r.Form.Get("place_id")
	if userID == "" || placeID == "" {
		app.BadRequest(w, r, "user and place are required")
		return
	}

	if r.Form.Get("action") == "clear" {
		if err := ClearIntent(userID, placeID); err != nil {
			app.ServerError(w, r, err.Error())
			return
		}
		app.RespondJSON(w, map[string]string{"status": "cleared"})
		return
	}

	in, err := SetIntent(userID, placeID, Kind(r.Form.Get("kind")), r.Form.Get("note"))
	if err != nil {
		app.BadRequest(w, r, err.Error())
		return
	}
	app.RespondJSON(w, in)
}
