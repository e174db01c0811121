package api

import (
	"fmt"
)

type Endpoint struct {
	Name        string
	Path        string
	Method      string
	Params      []*Param
	Response    []*Value
	Description string
}

type Param struct {
	Name        string
	Value       string
	Description string
}

type Value struct {
	Type   string
	Params []*Param
}

var Endpoints = []*Endpoint{{
	Name:        "Search",
	Path:        "/search",
	Method:      "GET",
	Description: "Search the visible map region and annotate results with trust signals",
	Params: []*Param{
		{
			Name:        "user_id",
			Value:       "string",
			Description: "User whose bookmarks and intents annotate the results",
		},
		{
			Name:        "min_lat, min_lng, max_lat, max_lng",
			Value:       "float",
			Description: "Viewport bounds to search within",
		},
		{
			Name:        "keyword",
			Value:       "string",
			Description: "Optional text query; a bare 5-digit zip code moves the search there instead",
		},
		{
			Name:        "filter",
			Value:       "string",
			Description: "One of all, reviewedOnly, bookmarkedOnly",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "generation",
					Value:       "int",
					Description: "Monotonic search generation this result belongs to",
				},
				{
					Name:        "places",
					Value:       "array",
					Description: "Ranked annotated places; [{'place': {...}, 'counts': {...}, 'bookmarked': bool, ...}]",
				},
				{
					Name:        "icons",
					Value:       "array",
					Description: "Marker icon descriptors, parallel to places",
				},
				{
					Name:        "advisory",
					Value:       "string",
					Description: "Optional user-facing message for degraded searches",
				},
				{
					Name:        "recenter",
					Value:       "object",
					Description: "Coordinates to pan to when a zip code was resolved",
				},
			},
		},
	},
}, {
	Name:        "Select",
	Path:        "/search/select",
	Method:      "POST",
	Description: "Select a place from the current results, e.g. a marker click",
	Params: []*Param{
		{
			Name:        "place_id",
			Value:       "string",
			Description: "Place to select",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "place",
					Value:       "object",
					Description: "The selected annotated place",
				},
			},
		},
	},
}, {
	Name:        "Rate",
	Path:        "/signals/rating",
	Method:      "POST",
	Description: "Rate a place; your latest rating per place is the one that counts",
	Params: []*Param{
		{
			Name:        "user_id",
			Value:       "string",
			Description: "Rating user",
		},
		{
			Name:        "place_id",
			Value:       "string",
			Description: "Rated place",
		},
		{
			Name:        "category",
			Value:       "string",
			Description: "One of positive, neutral, negative",
		},
		{
			Name:        "name, address, lat, lng",
			Value:       "string",
			Description: "Denormalized place snapshot cached at rating time",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "id",
					Value:       "string",
					Description: "The stored rating event",
				},
			},
		},
	},
}, {
	Name:        "Bookmark",
	Path:        "/signals/bookmark",
	Method:      "POST",
	Description: "Save a place, or remove it with action=remove",
	Params: []*Param{
		{
			Name:        "user_id",
			Value:       "string",
			Description: "Saving user",
		},
		{
			Name:        "place_id",
			Value:       "string",
			Description: "Saved place",
		},
		{
			Name:        "action",
			Value:       "string",
			Description: "Set to 'remove' to delete the bookmark",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "status",
					Value:       "string",
					Description: "saved or removed",
				},
			},
		},
	},
}, {
	Name:        "Intent",
	Path:        "/signals/intent",
	Method:      "POST",
	Description: "State an intent for a place; the latest intent per place wins",
	Params: []*Param{
		{
			Name:        "user_id",
			Value:       "string",
			Description: "User stating the intent",
		},
		{
			Name:        "place_id",
			Value:       "string",
			Description: "Place the intent is about",
		},
		{
			Name:        "kind",
			Value:       "string",
			Description: "One of wantToGo, heardNegative",
		},
		{
			Name:        "note",
			Value:       "string",
			Description: "Optional note, up to 200 characters",
		},
		{
			Name:        "action",
			Value:       "string",
			Description: "Set to 'clear' to remove the active intent",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "kind",
					Value:       "string",
					Description: "The stored intent",
				},
			},
		},
	},
}, {
	Name:        "Stream",
	Path:        "/stream",
	Method:      "GET",
	Description: "WebSocket feed of committed search results; send {'type':'select','place_id':...} to select",
	Params: []*Param{
		{
			Name:        "user_id",
			Value:       "string",
			Description: "Connecting user",
		},
	},
	Response: []*Value{
		{
			Type: "JSON",
			Params: []*Param{
				{
					Name:        "snapshot",
					Value:       "object",
					Description: "The latest committed search snapshot",
				},
			},
		},
	},
}}

func Markdown() string {
	var data string

	data += "# API Documentation\n\n"
	data += "The search API is read-only and unauthenticated; signal writes\n"
	data += "identify the user by the `user_id` parameter.\n\n"
	data += "All endpoints return JSON when the request carries\n"
	data += "`Accept: application/json`; `/search` otherwise renders the map page.\n\n"
	data += "---\n\n"
	data += "## Endpoints\n\n"

	for _, endpoint := range Endpoints {
		data += "## " + endpoint.Name
		data += fmt.Sprintln()
		data += fmt.Sprintln()
		data += fmt.Sprintln(endpoint.Description)
		data += fmt.Sprintln()
		data += fmt.Sprintf("```%s %s```", endpoint.Method, endpoint.Path)
		data += fmt.Sprintln()
		data += fmt.Sprintln()

		data += fmt.Sprintln("#### Params")
		data += fmt.Sprintln()
		for _, param := range endpoint.Params {
			data += fmt.Sprintf("- `%s` (%s) - %s", param.Name, param.Value, param.Description)
			data += fmt.Sprintln()
		}
		data += fmt.Sprintln()

		data += fmt.Sprintln("#### Response")
		data += fmt.Sprintln()
		for _, value := range endpoint.Response {
			for _, param := range value.Params {
				data += fmt.Sprintf("- `%s` (%s) - %s", param.Name, param.Value, param.Description)
				data += fmt.Sprintln()
			}
		}
		data += fmt.Sprintln()
	}

	return data
}
