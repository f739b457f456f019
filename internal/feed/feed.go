// Package feed provides the WebSocket client for the PSX market data feed.
// It dials the vendor endpoint, optionally authenticates with a TOTP code,
// subscribes to the configured symbol universe, and streams decoded ticks
// into the engine's tick channel. Reconnects automatically with exponential
// backoff; per-symbol candle histories are deliberately NOT reset across
// reconnects — continuity is preferred over consistency across a feed gap,
// and any cumulative-volume discontinuity is absorbed by the aggregator's
// clamp rule.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pquerna/otp/totp"

	"surge-systemv1/internal/model"
)

// Config holds configuration for the feed client.
type Config struct {
	// URL of the market feed, e.g. "wss://host/ws/market/feed/".
	URL string

	// Symbols is the universe to subscribe to. The same universe is re-sent
	// on every (re)connect.
	Symbols []string

	// TOTPSecret enables the vendor auth frame when non-empty: a fresh TOTP
	// code is generated and sent before subscribing.
	TOTPSecret string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds if zero.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

func (c *Config) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// Client connects to the PSX feed and pushes decoded ticks into tickCh.
type Client struct {
	cfg Config

	// Optional hooks
	OnReconnect func()
	OnTick      func(model.Tick) // called before the channel push (metrics)
}

// New creates a new feed client. Returns an error if the URL is unparseable.
func New(cfg Config) (*Client, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("feed: parse url: %w", err)
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("feed: empty symbol universe")
	}
	return &Client{cfg: cfg}, nil
}

// Start connects and streams ticks into tickCh. Blocks until ctx is
// cancelled. Reconnects automatically on disconnect, resetting the backoff
// after each successful session.
func (c *Client) Start(ctx context.Context, tickCh chan<- model.Tick) error {
	delay := c.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := time.Now()
		err := c.runOnce(ctx, tickCh)
		if err == nil {
			// Context cancelled cleanly
			return nil
		}

		// A session that lived for a while earns a fresh backoff.
		if time.Since(start) > time.Minute {
			delay = c.cfg.ReconnectDelay
		}

		log.Printf("[feed] disconnected (%v), reconnecting in %s...", err, delay)
		if c.OnReconnect != nil {
			c.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}
	}
}

// runOnce makes a single connection attempt: auth (optional), subscribe the
// universe, then read until disconnect or ctx cancel.
func (c *Client) runOnce(ctx context.Context, tickCh chan<- model.Tick) error {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", c.cfg.URL)

	if err := c.authenticate(conn); err != nil {
		return err
	}
	if err := c.subscribe(conn); err != nil {
		return err
	}

	// Async context watcher — closes the connection when ctx is cancelled.
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		tick, ok, err := Decode(raw)
		if err != nil {
			log.Printf("[feed] parse error: %v (raw: %.120s)", err, raw)
			continue
		}
		if !ok {
			continue // ack / heartbeat frame
		}

		if c.OnTick != nil {
			c.OnTick(tick)
		}

		select {
		case tickCh <- tick:
		default:
			log.Println("[feed] tickCh full, dropping tick")
		}
	}
}

// authenticate sends the vendor auth frame carrying a fresh TOTP code.
// No-op when no secret is configured (the public feed needs none).
func (c *Client) authenticate(conn *websocket.Conn) error {
	if c.cfg.TOTPSecret == "" {
		return nil
	}
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("feed: totp generate: %w", err)
	}
	frame, _ := json.Marshal(map[string]string{"auth": code})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("feed: auth frame: %w", err)
	}
	log.Println("[feed] auth frame sent")
	return nil
}

// subscribe sends one subscribe frame per symbol, matching the vendor
// protocol: {"symbol":"PSO"}.
func (c *Client) subscribe(conn *websocket.Conn) error {
	for _, s := range c.cfg.Symbols {
		frame, _ := json.Marshal(map[string]string{"symbol": s})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("feed: subscribe %s: %w", s, err)
		}
	}
	log.Printf("[feed] subscribed to %d symbols", len(c.cfg.Symbols))
	return nil
}
