// cmd/feedsim — Demo PSX feed server.
// Speaks the same wire protocol as the vendor feed so surgeengine can run
// end-to-end without market access: clients send {"symbol":"PSO"} subscribe
// frames and receive tick envelopes with random-walk prices and a growing
// session-cumulative volume.
//
// Config (env vars):
//
//	FEEDSIM_ADDR         — listen address (default ":9001")
//	FEEDSIM_SYMBOLS      — comma-separated symbols (default "PSO,OGDC,PPL,HBL,MCB")
//	FEEDSIM_INTERVAL_MS  — tick interval per symbol in ms (default "250")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// stock holds per-symbol simulation state.
type stock struct {
	Symbol    string
	Price     float64 // PKR
	PrevClose float64 // yesterday's close (ldcp)
	Low       float64 // running session low
	CumVolume int64
}

// tickBody mirrors the vendor tick payload.
type tickBody struct {
	Symbol     string  `json:"s"`
	Close      float64 `json:"c"`
	Volume     float64 `json:"v"`
	TS         int64   `json:"t"`
	LDCP       float64 `json:"ldcp"`
	PrevClose  float64 `json:"pc"`
	SessionLow float64 `json:"l"`
	PctChange  float64 `json:"pch"` // fraction, 0.0123 = 1.23%
}

func envelope(body tickBody) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"message": "Received tick",
		"data": map[string]interface{}{
			"type": "tick",
			"data": body,
		},
	})
	return b
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type client struct {
	send chan []byte

	mu   sync.RWMutex
	subs map[string]bool
}

func (c *client) subscribe(symbol string) {
	c.mu.Lock()
	c.subs[symbol] = true
	c.mu.Unlock()
}

func (c *client) wants(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subs) == 0 {
		return false // vendor sends nothing before the first subscribe
	}
	return c.subs[symbol]
}

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]*client)}
}

func (h *hub) register(conn *websocket.Conn) *client {
	c := &client{
		send: make(chan []byte, 256),
		subs: make(map[string]bool),
	}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	return c
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if c, ok := h.clients[conn]; ok {
		close(c.send)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(symbol string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.wants(symbol) {
			continue
		}
		select {
		case c.send <- msg:
		default: // slow client — drop tick
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[feedsim] upgrade error: %v", err)
			return
		}
		log.Printf("[feedsim] client connected: %s", r.RemoteAddr)

		c := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[feedsim] client disconnected: %s", r.RemoteAddr)
		}()

		// Read pump: subscribe frames ({"symbol":"PSO"}) and auth frames
		// (accepted and ignored).
		go func() {
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var frame struct {
					Symbol string `json:"symbol"`
					Auth   string `json:"auth"`
				}
				if json.Unmarshal(raw, &frame) != nil {
					continue
				}
				if frame.Symbol != "" {
					c.subscribe(frame.Symbol)
					log.Printf("[feedsim] %s subscribed to %s", r.RemoteAddr, frame.Symbol)
				}
			}
		}()

		// Write pump
		for msg := range c.send {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── Tick generator ──────────────────────────────────────────────────────────

// walkPrice applies a tiny random walk (±0.15%) with an occasional volume
// burst so the surge detector has something to find.
func runGenerator(h *hub, stocks []stock, intervalMs int) {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for range ticker.C {
		for i := range stocks {
			s := &stocks[i]

			pct := (rng.Float64()*0.3 - 0.15) / 100.0
			s.Price += s.Price * pct
			if s.Price < 1 {
				s.Price = 1
			}
			if s.Price < s.Low {
				s.Low = s.Price
			}

			// Baseline trade flow with rare 10x bursts
			qty := int64(rng.Intn(2000) + 100)
			if rng.Intn(200) == 0 {
				qty *= 10
				s.Price *= 1.004 // bursts come with a small pop
			}
			s.CumVolume += qty

			body := tickBody{
				Symbol:     s.Symbol,
				Close:      round2(s.Price),
				Volume:     float64(s.CumVolume),
				TS:         time.Now().Unix(),
				LDCP:       s.PrevClose,
				PrevClose:  s.PrevClose,
				SessionLow: round2(s.Low),
				PctChange:  (s.Price - s.PrevClose) / s.PrevClose,
			}
			h.broadcast(s.Symbol, envelope(body))
		}
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[feedsim] starting demo feed server...")

	addr := envOrDefault("FEEDSIM_ADDR", ":9001")
	symbolsEnv := envOrDefault("FEEDSIM_SYMBOLS", "PSO,OGDC,PPL,HBL,MCB")
	intervalMs := envIntOrDefault("FEEDSIM_INTERVAL_MS", 250)

	stocks := buildStocks(symbolsEnv)
	if len(stocks) == 0 {
		log.Fatalf("[feedsim] no symbols configured via FEEDSIM_SYMBOLS")
	}
	log.Printf("[feedsim] symbols: %d, interval: %dms", len(stocks), intervalMs)

	h := newHub()
	go runGenerator(h, stocks, intervalMs)

	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/ws/market/feed/", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"feedsim"}`)
	})

	log.Printf("[feedsim] ✅ listening on %s  (WebSocket: ws://localhost%s/ws)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[feedsim] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func buildStocks(s string) []stock {
	// Rough real-world anchors in PKR; unknown symbols start at 100.
	basePrices := map[string]float64{
		"PSO":  315.50,
		"OGDC": 227.80,
		"PPL":  185.25,
		"HBL":  258.00,
		"MCB":  343.75,
	}

	var result []stock
	for _, part := range strings.Split(s, ",") {
		sym := strings.TrimSpace(part)
		if sym == "" {
			continue
		}
		price := basePrices[sym]
		if price == 0 {
			price = 100.00
		}
		result = append(result, stock{
			Symbol:    sym,
			Price:     price,
			PrevClose: price,
			Low:       price,
		})
	}
	return result
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
