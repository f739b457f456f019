package engine

import (
	"context"
	"hash/fnv"
	"log"
	"sync"

	"surge-systemv1/internal/model"
	"surge-systemv1/internal/ringbuf"
)

// shard owns a slice of the symbol universe. One goroutine per shard drains
// its ring buffer, so every SymbolHistory is touched by exactly one goroutine
// and ticks for a symbol are processed strictly in arrival order.
type shard struct {
	ring *ringbuf.Ring
	wake chan struct{}
	agg  *Aggregator
}

// Engine wires the four core components together: ticks offered by the feed
// are demultiplexed by symbol hash onto shard workers, each of which runs
// aggregation, evaluation, scoring, and alert lifecycle transitions inline.
// Nothing in the per-tick path blocks; completed candles are handed to the
// persistence fan-out through a buffered channel with drop-on-full.
type Engine struct {
	cfg    *ConfigStore
	shards []*shard
	book   *AlertBook
	quotes *QuoteBoard

	candleCh chan model.Candle

	// Metrics hooks (optional, set before Run)
	OnTick          func()
	OnMalformedTick func()
	OnDroppedTick   func()
	OnCandleClosed  func()
}

// Config holds engine construction parameters.
type Config struct {
	// Shards is the number of worker goroutines. Defaults to 4.
	Shards int
	// ShardQueue is the per-shard ring capacity (rounded up to a power of
	// two). Defaults to 1024.
	ShardQueue int
	// CandleBuffer sizes the completed-candle output channel. Defaults to 4096.
	CandleBuffer int
}

func (c *Config) defaults() {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.ShardQueue <= 0 {
		c.ShardQueue = 1024
	}
	if c.CandleBuffer <= 0 {
		c.CandleBuffer = 4096
	}
}

// New creates an engine reading its detector tunables from store.
func New(store *ConfigStore, cfg Config) *Engine {
	cfg.defaults()

	detector := store.Get()
	e := &Engine{
		cfg:      store,
		book:     NewAlertBook(detector.MaxExitedKept),
		quotes:   NewQuoteBoard(),
		candleCh: make(chan model.Candle, cfg.CandleBuffer),
	}

	e.shards = make([]*shard, cfg.Shards)
	for i := range e.shards {
		sh := &shard{
			ring: ringbuf.New(cfg.ShardQueue),
			wake: make(chan struct{}, 1),
			agg:  NewAggregator(),
		}
		sh.agg.OnCandleClosed = e.emitCandle
		e.shards[i] = sh
	}
	return e
}

// Book returns the alert store for snapshot readers.
func (e *Engine) Book() *AlertBook { return e.book }

// Quotes returns the live quote board for snapshot readers.
func (e *Engine) Quotes() *QuoteBoard { return e.quotes }

// Candles returns the completed-candle output channel for the persistence
// fan-out.
func (e *Engine) Candles() <-chan model.Candle { return e.candleCh }

// Run starts the shard workers. Blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, sh := range e.shards {
		wg.Add(1)
		go func(sh *shard) {
			defer wg.Done()
			e.runShard(ctx, sh)
		}(sh)
	}
	wg.Wait()
	close(e.candleCh)
}

// Offer hands one tick to the engine. Malformed ticks are dropped without any
// state mutation; a full shard queue drops the newest tick rather than
// blocking the feed reader (candle state is recoverable from the next
// cumulative-volume delta). Returns false when the tick was dropped.
func (e *Engine) Offer(tick model.Tick) bool {
	if !tick.Valid() {
		if e.OnMalformedTick != nil {
			e.OnMalformedTick()
		}
		return false
	}
	if e.OnTick != nil {
		e.OnTick()
	}

	sh := e.shards[shardIndex(tick.Symbol, len(e.shards))]
	if !sh.ring.Push(tick) {
		if e.OnDroppedTick != nil {
			e.OnDroppedTick()
		}
		return false
	}
	select {
	case sh.wake <- struct{}{}:
	default:
	}
	return true
}

// runShard drains the shard's ring whenever woken, processing each tick
// through the full detection path.
func (e *Engine) runShard(ctx context.Context, sh *shard) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sh.wake:
			for {
				tick, ok := sh.ring.Pop()
				if !ok {
					break
				}
				e.process(sh, tick)
			}
		}
	}
}

// process runs one tick through aggregation, evaluation, scoring, and the
// alert state machine. All pure in-memory computation; never blocks.
func (e *Engine) process(sh *shard, tick model.Tick) {
	cfg := e.cfg.Get()

	h := sh.agg.Ingest(tick, int64(cfg.IntervalSeconds), cfg.Capacity)

	e.quotes.Set(model.Quote{
		Symbol:     tick.Symbol,
		Price:      tick.Price,
		CumVolume:  tick.CumVolume,
		PctChange:  tick.PctChange,
		PrevClose:  h.PrevClose,
		SessionLow: h.SessionLow,
		TS:         tick.TS,
	})

	metrics, ok := Evaluate(h, cfg.SurgeThreshold)
	if !ok {
		// Not enough history yet — evaluator abstains, no transition.
		return
	}

	now := tick.TS
	close := h.Current.Close

	if e.book.HasActive(tick.Symbol) {
		// Sticky semantics: an active alert is held purely on the uptrend
		// condition; volume and entry filters are not re-checked.
		if Uptrend(h) {
			score := Score(metrics, h)
			e.book.Refresh(tick.Symbol, close, tick.PctChange, metrics, score, now)
		} else {
			e.book.Exit(tick.Symbol, close, now)
		}
		return
	}

	if EntrySignal(h, metrics, cfg) {
		score := Score(metrics, h)
		e.book.Enter(tick.Symbol, close, tick.PctChange, metrics, score, now)
	}
}

// emitCandle forwards a finalized candle to the output channel. Non-blocking:
// a slow persistence consumer must not stall the detection path.
func (e *Engine) emitCandle(c model.Candle) {
	if e.OnCandleClosed != nil {
		e.OnCandleClosed()
	}
	select {
	case e.candleCh <- c:
	default:
		log.Printf("[engine] candle channel full, dropping candle %s block=%d", c.Symbol, c.Block)
	}
}

// shardIndex maps a symbol to its shard by FNV-1a hash.
func shardIndex(symbol string, n int) int {
	if n == 1 {
		return 0
	}
	hsh := fnv.New32a()
	hsh.Write([]byte(symbol))
	return int(hsh.Sum32() % uint32(n))
}

// Drain processes any ticks still queued in the shard rings. Intended for
// tests and shutdown paths where Run's workers are not running.
func (e *Engine) Drain() {
	for _, sh := range e.shards {
		for {
			tick, ok := sh.ring.Pop()
			if !ok {
				break
			}
			e.process(sh, tick)
		}
	}
}

// History exposes a symbol's aggregator state for diagnostics. The returned
// pointer must only be read from the owning shard's goroutine or while the
// engine is idle.
func (e *Engine) History(symbol string) *SymbolHistory {
	sh := e.shards[shardIndex(symbol, len(e.shards))]
	return sh.agg.History(symbol)
}
