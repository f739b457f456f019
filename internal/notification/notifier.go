// Package notification delivers surge alert transitions to external
// channels (Telegram, webhooks). Delivery is best-effort: a failed send is
// logged and counted, never retried — the gateway stream remains the
// authoritative view of alert state.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"surge-systemv1/internal/model"
)

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Message is a notification to be sent.
type Message struct {
	Level  Level  `json:"level"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Symbol string `json:"symbol,omitempty"`
	Score  int    `json:"score,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers a message. Returns error if delivery fails.
	Send(ctx context.Context, msg Message) error
}

// LogNotifier logs messages instead of delivering them (development).
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	log.Printf("[notify] [%s] %s: %s", msg.Level, msg.Title, msg.Body)
	return nil
}

// SurgeEntry formats a NONE→ACTIVE transition. Strong alerts escalate the
// severity so channel routing can treat them differently.
func SurgeEntry(a model.Alert) Message {
	level := LevelInfo
	if a.Strength == model.StrengthStrong {
		level = LevelWarning
	}
	return Message{
		Level:  level,
		Title:  fmt.Sprintf("Volume surge: %s", a.Symbol),
		Symbol: a.Symbol,
		Score:  a.Score,
		Body: fmt.Sprintf("%s entered at Rs %s | score %d (%s) | vol %s vs avg %.0f | %+.2f%% today",
			a.Symbol,
			fmtPKR(a.EntryPrice),
			a.Score,
			a.Strength,
			fmtQty(a.Metrics.CurrentVolume),
			a.Metrics.IntradayAvgVolume,
			a.PctChange),
	}
}

// SurgeExit formats an ACTIVE→EXITED transition.
func SurgeExit(a model.Alert, now time.Time) Message {
	return Message{
		Level:  LevelInfo,
		Title:  fmt.Sprintf("Surge ended: %s", a.Symbol),
		Symbol: a.Symbol,
		Score:  a.Score,
		Body: fmt.Sprintf("%s exited at Rs %s (entry Rs %s) after %s | final score %d",
			a.Symbol,
			fmtPKR(a.ExitPrice),
			fmtPKR(a.EntryPrice),
			a.Duration(now).Round(time.Second),
			a.Score),
	}
}

// fmtPKR renders a paisa amount as rupees with two decimals.
func fmtPKR(paisa int64) string {
	neg := ""
	if paisa < 0 {
		neg = "-"
		paisa = -paisa
	}
	return fmt.Sprintf("%s%d.%02d", neg, paisa/100, paisa%100)
}

// fmtQty renders share counts compactly (1.2M, 450K).
func fmtQty(v int64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0fK", float64(v)/1_000)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// Dispatcher fans a message out to all configured notifiers without
// blocking the caller.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration

	// OnFailure is called once per failed delivery (metrics).
	OnFailure func()
}

// NewDispatcher creates a dispatcher over the given backends.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   10 * time.Second,
	}
}

// Dispatch sends msg to every backend in its own goroutine.
func (d *Dispatcher) Dispatch(msg Message) {
	for _, n := range d.notifiers {
		go func(n Notifier) {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := n.Send(ctx, msg); err != nil {
				log.Printf("[notify] delivery failed: %v", err)
				if d.OnFailure != nil {
					d.OnFailure()
				}
			}
		}(n)
	}
}
