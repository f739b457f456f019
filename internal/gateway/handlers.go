package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"surge-systemv1/internal/engine"
	"surge-systemv1/internal/markethours"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux.
// onConfigUpdate (optional) is called with "accepted" or "rejected" after
// each config write attempt.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, processStart time.Time, onConfigUpdate func(result string)) {
	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.Register(conn)
	})

	// REST: active alerts, ?sort=score (default) | time
	mux.HandleFunc("/api/alerts/active", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		order := engine.SortByScore
		if r.URL.Query().Get("sort") == "time" {
			order = engine.SortByRecency
		}
		json.NewEncoder(w).Encode(hub.book.Active(order))
	})

	// REST: exited alerts (bounded audit list, oldest first)
	mux.HandleFunc("/api/alerts/exited", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.book.Exited())
	})

	// REST: latest quotes for the whole universe
	mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.quotes.All())
	})

	// REST: GET current config / PUT replacement config.
	// PUT accepts either a full DetectorConfig body or ?preset=<name>.
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)

		case http.MethodGet:
			json.NewEncoder(w).Encode(hub.cfg.Get())

		case http.MethodPut, http.MethodPost:
			var cfg engine.DetectorConfig
			if name := r.URL.Query().Get("preset"); name != "" {
				preset, ok := engine.Preset(name)
				if !ok {
					if onConfigUpdate != nil {
						onConfigUpdate("rejected")
					}
					http.Error(w, `{"error":"unknown preset"}`, http.StatusBadRequest)
					return
				}
				cfg = preset
			} else if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				if onConfigUpdate != nil {
					onConfigUpdate("rejected")
				}
				http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
				return
			}

			if err := hub.cfg.Update(cfg); err != nil {
				if onConfigUpdate != nil {
					onConfigUpdate("rejected")
				}
				http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
				return
			}
			if onConfigUpdate != nil {
				onConfigUpdate("accepted")
			}
			log.Printf("[gateway] detector config updated")
			hub.BroadcastConfig()
			json.NewEncoder(w).Encode(hub.cfg.Get())

		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
	})

	// REST: available policy presets with their resolved configs
	mux.HandleFunc("/api/presets", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		presets := make(map[string]engine.DetectorConfig, 3)
		for _, name := range engine.PresetNames() {
			cfg, _ := engine.Preset(name)
			presets[name] = cfg
		}
		json.NewEncoder(w).Encode(presets)
	})

	// REST: market session status
	mux.HandleFunc("/api/market", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		now := time.Now()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"open":      markethours.IsMarketOpen(now),
			"status":    markethours.StatusString(now),
			"next_open": markethours.NextOpen(now).Format(time.RFC3339),
		})
	})

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		active, exited := hub.book.Counts()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "ok",
			"ws_clients":    hub.ClientCount(),
			"active_alerts": active,
			"exited_alerts": exited,
			"symbols":       hub.quotes.Len(),
			"uptime_sec":    int64(time.Since(processStart).Seconds()),
			"ts":            time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
