// Package bus fans completed candles out from the engine to the persistence
// and gateway consumers.
package bus

import (
	"context"
	"log"
	"sync"

	"surge-systemv1/internal/model"
)

// FanOut broadcasts candles from a single input channel to N output channels.
// If an output channel is full, the candle is dropped for that consumer so a
// slow sink (Redis, SQLite, gateway) can never stall candle emission.
type FanOut struct {
	mu      sync.RWMutex
	outputs []subscriber
	bufSize int

	// OnDrop is called when a candle is dropped for a subscriber.
	OnDrop func(name string)
}

type subscriber struct {
	name string
	ch   chan model.Candle
}

// New creates a FanOut with the given buffer size for output channels.
func New(outputBufferSize int) *FanOut {
	return &FanOut{
		bufSize: outputBufferSize,
	}
}

// Subscribe creates and returns a new named output channel. The name shows
// up in drop logs and metrics labels.
func (f *FanOut) Subscribe(name string) <-chan model.Candle {
	ch := make(chan model.Candle, f.bufSize)
	f.mu.Lock()
	f.outputs = append(f.outputs, subscriber{name: name, ch: ch})
	f.mu.Unlock()
	return ch
}

// Run reads from the input channel and fans out to all subscribers.
// Blocks until ctx is cancelled or input is closed, then closes all
// subscriber channels.
func (f *FanOut) Run(ctx context.Context, input <-chan model.Candle) {
	defer func() {
		f.mu.RLock()
		for _, sub := range f.outputs {
			close(sub.ch)
		}
		f.mu.RUnlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case candle, ok := <-input:
			if !ok {
				return
			}
			f.mu.RLock()
			for _, sub := range f.outputs {
				select {
				case sub.ch <- candle:
				default:
					if f.OnDrop != nil {
						f.OnDrop(sub.name)
					} else {
						log.Printf("[bus] %s channel full, dropping candle %s/%d", sub.name, candle.Symbol, candle.Block)
					}
				}
			}
			f.mu.RUnlock()
		}
	}
}

// ChannelStat is the fill state of one subscriber channel, used for
// reporting channel saturation percentage.
type ChannelStat struct {
	Name string
	Len  int
	Cap  int
}

func (f *FanOut) ChannelStats() []ChannelStat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	stats := make([]ChannelStat, len(f.outputs))
	for i, sub := range f.outputs {
		stats[i] = ChannelStat{Name: sub.name, Len: len(sub.ch), Cap: cap(sub.ch)}
	}
	return stats
}
