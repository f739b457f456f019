package gateway

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"surge-systemv1/internal/engine"
	"surge-systemv1/internal/markethours"
	"surge-systemv1/internal/model"
)

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// sendInitialState queues a full snapshot so a fresh client renders
// immediately: active alerts, recent exits, quotes, config, market status.
func (c *Client) sendInitialState() {
	now := time.Now()
	snapshot := marshalEnvelope("snapshot", struct {
		Active       []model.Alert `json:"active"`
		Exited       []model.Alert `json:"exited"`
		Quotes       []model.Quote `json:"quotes"`
		Config       interface{}   `json:"config"`
		MarketOpen   bool          `json:"market_open"`
		MarketStatus string        `json:"market_status"`
	}{
		Active:       c.hub.book.Active(engine.SortByScore),
		Exited:       c.hub.book.Exited(),
		Quotes:       c.hub.quotes.All(),
		Config:       c.hub.cfg.Get(),
		MarketOpen:   markethours.IsMarketOpen(now),
		MarketStatus: markethours.StatusString(now),
	})
	if snapshot == nil {
		return
	}
	select {
	case c.send <- snapshot:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			// Write coalescing: batch queued messages into a single frame
			// with newline separators.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		// The only inbound frame is an application-level ping.
		var base struct {
			Ping int64 `json:"ping"`
		}
		if json.Unmarshal(msg, &base) != nil {
			continue
		}
		if base.Ping > 0 {
			// Built by hand: this runs once per client ping, no need to marshal
			pong := []byte(`{"type":"pong","ping":` + model.Itoa(int(base.Ping)) +
				`,"server_ts":` + model.Itoa(int(time.Now().UnixMilli())) + `}`)
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}
