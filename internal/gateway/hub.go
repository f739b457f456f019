// Package gateway exposes the engine state to dashboard clients: a WebSocket
// stream of alert transitions, quote snapshots and completed candles, plus a
// small REST surface for polling and runtime config changes.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"surge-systemv1/internal/engine"
	"surge-systemv1/internal/markethours"
	"surge-systemv1/internal/model"
)

// Hub manages WebSocket clients and fans engine events out to them.
// Slow clients lose messages, never block the hub.
type Hub struct {
	book   *engine.AlertBook
	quotes *engine.QuoteBoard
	cfg    *engine.ConfigStore

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a Hub over the engine's live state.
func NewHub(book *engine.AlertBook, quotes *engine.QuoteBoard, cfg *engine.ConfigStore) *Hub {
	return &Hub{
		book:    book,
		quotes:  quotes,
		cfg:     cfg,
		clients: make(map[*Client]bool),
	}
}

// envelope is the wire format for all WS pushes.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	TS   string      `json:"ts"`
}

func marshalEnvelope(typ string, data interface{}) []byte {
	b, err := json.Marshal(envelope{
		Type: typ,
		Data: data,
		TS:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Printf("[gateway] envelope marshal error (%s): %v", typ, err)
		return nil
	}
	return b
}

// Register upgrades conn into a managed client and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)

	client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues data on every client, dropping for full queues.
func (h *Hub) broadcast(data []byte) {
	if data == nil {
		return
	}
	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
	h.mu.RUnlock()
}

// BroadcastAlert pushes an alert transition ("entry", "update", "exit").
func (h *Hub) BroadcastAlert(event string, alert model.Alert) {
	h.broadcast(marshalEnvelope("alert", struct {
		Event string      `json:"event"`
		Alert model.Alert `json:"alert"`
	}{Event: event, Alert: alert}))
}

// RunCandles pushes completed candles from the fan-out bus to all clients.
// Blocks until ctx is cancelled or the channel is closed.
func (h *Hub) RunCandles(ctx context.Context, candleCh <-chan model.Candle) {
	for {
		select {
		case <-ctx.Done():
			return
		case candle, ok := <-candleCh:
			if !ok {
				return
			}
			h.broadcast(marshalEnvelope("candle", candle))
		}
	}
}

// StartQuoteBroadcast pushes a quote snapshot and market status to all
// clients every interval. Per-tick quote pushes would swamp small clients
// for no visible benefit.
func (h *Hub) StartQuoteBroadcast(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				now := time.Now()
				h.broadcast(marshalEnvelope("quotes", struct {
					Quotes       []model.Quote `json:"quotes"`
					MarketOpen   bool          `json:"market_open"`
					MarketStatus string        `json:"market_status"`
				}{
					Quotes:       h.quotes.All(),
					MarketOpen:   markethours.IsMarketOpen(now),
					MarketStatus: markethours.StatusString(now),
				}))
			}
		}
	}()
}

// BroadcastConfig pushes the active detector config after a change.
func (h *Hub) BroadcastConfig() {
	h.broadcast(marshalEnvelope("config", h.cfg.Get()))
}
