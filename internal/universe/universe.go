// Package universe resolves the tracked symbol list at startup from the
// exchange lookup service, with a static fallback when the service is
// unreachable. The universe is fixed for the life of the process; the feed
// client re-subscribes the same set on every reconnect.
package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Lookup fetches symbols over HTTP.
type Lookup struct {
	url      string
	fallback []string
	client   *http.Client
}

// New creates a Lookup for the given endpoint.
// fallback is returned (with a warning) when the endpoint fails.
func New(url string, fallback []string) *Lookup {
	return &Lookup{
		url:      url,
		fallback: fallback,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// stockList is the lookup service response. Entries are either plain symbol
// strings or objects carrying a "symbol" field.
type stockList struct {
	Stocks []json.RawMessage `json:"stocks"`
}

// Symbols resolves the universe. Never returns an empty list: on any failure
// the static fallback is used so the engine can still start.
func (l *Lookup) Symbols(ctx context.Context) []string {
	symbols, err := l.fetch(ctx)
	if err != nil {
		log.Printf("[universe] lookup failed: %v — using fallback list (%d symbols)", err, len(l.fallback))
		return l.fallback
	}
	if len(symbols) == 0 {
		log.Printf("[universe] lookup returned no symbols — using fallback list")
		return l.fallback
	}
	log.Printf("[universe] resolved %d symbols", len(symbols))
	return symbols
}

func (l *Lookup) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("universe: create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("universe: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("universe: unexpected status %d", resp.StatusCode)
	}

	var list stockList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("universe: decode: %w", err)
	}

	symbols := make([]string, 0, len(list.Stocks))
	for _, raw := range list.Stocks {
		// Plain string entry
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				symbols = append(symbols, s)
			}
			continue
		}
		// Object entry with a "symbol" field
		var obj struct {
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Symbol != "" {
			symbols = append(symbols, obj.Symbol)
		}
	}
	return symbols, nil
}
