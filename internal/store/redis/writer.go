// Package redis caches live quotes, streams completed candles, and publishes
// alert transitions for external consumers. All writes go through a circuit
// breaker: when Redis is down the data is shed, never queued — the engine's
// in-memory state stays authoritative.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"surge-systemv1/internal/model"
)

const (
	// Stream trimming: a full PSX session of 1m candles is 360; keep a
	// generous multiple so interval changes never truncate a live session.
	candleStreamMaxLen = 2000

	latestTTL = 30 * time.Minute

	// AlertChannel carries alert transition events as JSON envelopes.
	AlertChannel = "pub:alerts"
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int

	// Breaker settings; zero values get defaults (5 failures, 10s reset).
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

// Writer writes quotes, candles, and alert events to Redis.
type Writer struct {
	client  *goredis.Client
	breaker *CircuitBreaker

	// OnWrite is called with the duration of each pipeline round trip.
	OnWrite func(time.Duration)
}

// New creates a Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerResetTimeout == 0 {
		cfg.BreakerResetTimeout = 10 * time.Second
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{
		client:  client,
		breaker: NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout),
	}, nil
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// Breaker returns the circuit breaker for metrics wiring.
func (w *Writer) Breaker() *CircuitBreaker { return w.breaker }

// Run reads completed candles from candleCh and writes them to Redis.
// Blocks until ctx is cancelled or candleCh is closed.
func (w *Writer) Run(ctx context.Context, candleCh <-chan model.Candle) {
	for {
		select {
		case <-ctx.Done():
			return
		case candle, ok := <-candleCh:
			if !ok {
				return
			}
			w.writeCandle(ctx, candle)
		}
	}
}

// writeCandle performs pipelined writes for a completed candle:
// SET latest + XADD stream + PUBLISH.
func (w *Writer) writeCandle(ctx context.Context, candle model.Candle) {
	latestKey := "candle:latest:" + candle.Symbol
	streamKey := "candle:" + candle.Symbol
	pubsubCh := "pub:candle:" + candle.Symbol
	jsonData := string(candle.JSON())

	err := w.execute(ctx, func(pipe goredis.Pipeliner) {
		pipe.Set(ctx, latestKey, jsonData, latestTTL)
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: streamKey,
			MaxLen: candleStreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": jsonData},
		})
		pipe.Publish(ctx, pubsubCh, jsonData)
	})
	if err != nil && err != ErrCircuitOpen {
		log.Printf("[redis] candle pipeline error for %s block %d: %v", candle.Symbol, candle.Block, err)
	}
}

// WriteQuotes writes a quote snapshot batch in a single pipeline: one SET
// with TTL per symbol. Called periodically, not per tick.
func (w *Writer) WriteQuotes(ctx context.Context, quotes []model.Quote) {
	if len(quotes) == 0 {
		return
	}

	err := w.execute(ctx, func(pipe goredis.Pipeliner) {
		for i := range quotes {
			q := &quotes[i]
			pipe.Set(ctx, "quote:latest:"+q.Symbol, string(q.JSON()), latestTTL)
		}
	})
	if err != nil && err != ErrCircuitOpen {
		log.Printf("[redis] quote batch pipeline error (%d quotes): %v", len(quotes), err)
	}
}

// alertEvent is the pubsub envelope for alert transitions.
type alertEvent struct {
	Event string      `json:"event"` // "entry" | "update" | "exit"
	Alert model.Alert `json:"alert"`
}

// PublishAlert publishes an alert transition. PubSub only: alert history is
// intentionally not persisted, the engine rebuilds alert state from live
// ticks after a restart.
func (w *Writer) PublishAlert(ctx context.Context, event string, alert model.Alert) {
	payload, err := json.Marshal(alertEvent{Event: event, Alert: alert})
	if err != nil {
		log.Printf("[redis] alert marshal error for %s: %v", alert.Symbol, err)
		return
	}

	err = w.breaker.Execute(func() error {
		start := time.Now()
		err := w.client.Publish(ctx, AlertChannel, string(payload)).Err()
		if w.OnWrite != nil {
			w.OnWrite(time.Since(start))
		}
		return err
	})
	if err != nil && err != ErrCircuitOpen {
		log.Printf("[redis] alert publish error for %s: %v", alert.Symbol, err)
	}
}

// execute runs a pipeline build through the circuit breaker.
func (w *Writer) execute(ctx context.Context, build func(goredis.Pipeliner)) error {
	return w.breaker.Execute(func() error {
		pipe := w.client.Pipeline()
		build(pipe)

		start := time.Now()
		_, err := pipe.Exec(ctx)
		if w.OnWrite != nil {
			w.OnWrite(time.Since(start))
		}
		return err
	})
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
