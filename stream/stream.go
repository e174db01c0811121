// Package stream connects rendering surfaces over WebSocket. Each
// connection gets its own search engine and camera controller, so one
// user's committed results and bookmark/intent membership never reach
// another user's surface, and connections cannot supersede each other's
// search generations.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trusti/app"
	"trusti/places"
	"trusti/search"
	"trusti/signals"
	"trusti/viewport"
)

// defaultCenter is where a fresh camera starts.
var defaultCenter = places.LatLng{Lat: 30.2672, Lng: -97.7431}

// Client represents a connected rendering surface.
type Client struct {
	Conn        *websocket.Conn
	UserID      string
	ConnectedAt time.Time

	mu sync.Mutex // serializes writes to Conn
}

func (c *Client) send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

var (
	clients      = make(map[*websocket.Conn]*Client)
	clientsMutex sync.RWMutex
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// message is the wire format in both directions.
type message struct {
	Type string `json:"type"`

	// server to client
	Snapshot *search.Snapshot  `json:"snapshot,omitempty"`
	Command  *viewport.Command `json:"command,omitempty"`
	Advisory string            `json:"advisory,omitempty"`

	// client to server
	PlaceID string         `json:"place_id,omitempty"`
	Center  *places.LatLng `json:"center,omitempty"`
	Zoom    int            `json:"zoom,omitempty"`
	Bounds  *places.Bounds `json:"bounds,omitempty"`
	Keyword string         `json:"keyword,omitempty"`
	Filter  string         `json:"filter,omitempty"`
	Code    int            `json:"code,omitempty"`
}

// NewHandler returns the /stream WebSocket handler. Every connection
// builds its own engine over the shared provider and geocoder; its
// committed snapshots and camera commands flow only to that connection.
func NewHandler(provider places.Provider, geocoder places.Geocoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			app.Log("stream", "WebSocket upgrade error: %v", err)
			return
		}

		userID := r.URL.Query().Get("user_id")
		client := &Client{
			Conn:        conn,
			UserID:      userID,
			ConnectedAt: time.Now(),
		}

		eng := search.New(provider, geocoder)
		eng.Subscribe(func(snap *search.Snapshot) {
			client.send(message{Type: "results", Snapshot: snap})
		})

		ctrl := viewport.NewController(eng, userID, defaultCenter)
		ctrl.SubscribeCommands(func(cmd viewport.Command) {
			c := cmd
			client.send(message{Type: "command", Command: &c})
		})

		// A new rating, bookmark or intent re-runs this connection's
		// current search. The subscription dies with the connection.
		cancelRefresh := signals.Subscribe(func() {
			go eng.Refresh()
		})

		clientsMutex.Lock()
		clients[conn] = client
		total := len(clients)
		clientsMutex.Unlock()
		app.Log("stream", "Client connected: %s (total: %d)", userID, total)

		go func() {
			defer func() {
				cancelRefresh()
				clientsMutex.Lock()
				delete(clients, conn)
				total := len(clients)
				clientsMutex.Unlock()
				conn.Close()
				app.Log("stream", "Client disconnected: %s (total: %d)", userID, total)
			}()

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					break
				}
				var msg message
				if err := json.Unmarshal(data, &msg); err != nil {
					continue
				}
				handleMessage(eng, ctrl, client, msg)
			}
		}()
	}
}

// handleMessage routes one client event into the engine or controller.
func handleMessage(engine *search.Engine, ctrl *viewport.Controller, client *Client, msg message) {
	switch msg.Type {
	case "select":
		if msg.PlaceID != "" {
			engine.Select(msg.PlaceID)
		}
	case "moved":
		if msg.Center != nil && msg.Bounds != nil {
			ctrl.Moved(*msg.Center, msg.Zoom, *msg.Bounds)
		}
	case "keyword":
		ctrl.SetKeyword(msg.Keyword)
	case "filter":
		ctrl.SetFilter(search.Filter(msg.Filter))
	case "located":
		if msg.Center != nil {
			ctrl.Located(*msg.Center)
		}
	case "locate_failed":
		client.send(message{Type: "advisory", Advisory: ctrl.LocateFailed(msg.Code)})
	}
}
