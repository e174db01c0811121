package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"trusti/api"
	"trusti/app"
	"trusti/places"
	"trusti/search"
	"trusti/signals"
	"trusti/stream"
)

var EnvFlag = flag.String("env", "dev", "Set the environment")
var ServeFlag = flag.Bool("serve", false, "Run the server")
var AddressFlag = flag.String("address", ":8080", "Address for server")

func main() {
	flag.Parse()

	if !*ServeFlag {
		fmt.Println("--serve not set")
		return
	}

	// load .env for GOOGLE_API_KEY and friends
	godotenv.Load()

	// render the api markdown
	md := api.Markdown()
	apiDoc := app.Render([]byte(md))
	apiHTML := app.RenderHTML("API", "API documentation", string(apiDoc))

	// load the signal stores and place index
	signals.Load()

	provider := places.NewGoogleProvider()
	geocoder := places.NewNominatimGeocoder()
	engine := search.New(provider, geocoder)

	// a new rating, bookmark or intent re-runs the current search so
	// committed results are replaced, never patched
	signals.Subscribe(func() {
		go engine.Refresh()
	})

	// serve the map and search
	http.HandleFunc("/search", engine.Handler)
	http.HandleFunc("/search/select", engine.Handler)

	// signal writes
	http.HandleFunc("/signals/rating", signals.RatingHandler)
	http.HandleFunc("/signals/bookmark", signals.BookmarkHandler)
	http.HandleFunc("/signals/intent", signals.IntentHandler)

	// live results over websocket, one engine per connection
	http.HandleFunc("/stream", stream.NewHandler(provider, geocoder))

	// serve the api doc
	http.Handle("/api", app.ServeHTML(apiHTML))

	// everything else lands on the map
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/search", 302)
	})

	address := *AddressFlag
	if v := os.Getenv("TRUSTI_ADDRESS"); v != "" {
		address = v
	}

	fmt.Println("Starting server on", address)

	if err := http.ListenAndServe(address, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *EnvFlag == "dev" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		if v := len(r.URL.Path); v > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = r.URL.Path[:v-1]
		}

		http.DefaultServeMux.ServeHTTP(w, r)
	})); err != nil {
		fmt.Printf("Server error: %v\n", err)
		return
	}
}
