package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"surge-systemv1/internal/model"
)

// ActiveSort selects the ordering of the active-alert snapshot.
type ActiveSort int

const (
	SortByScore   ActiveSort = iota // score descending, recency breaks ties
	SortByRecency                   // entry time descending
)

// AlertBook owns every alert in the process. Shard workers mutate it through
// Enter/Refresh/Exit while the gateway reads concurrent snapshots, so all
// state lives behind a RWMutex and accessors return copies — a reader can
// never observe a partially updated alert or hold a live reference.
//
// Exited alerts are kept in a bounded FIFO list purely for audit; they are
// never persisted and never resurrect.
type AlertBook struct {
	mu        sync.RWMutex
	active    map[string]*model.Alert
	exited    []model.Alert
	maxExited int

	// Transition hooks (optional, set before Run). Called outside the lock.
	OnEnter func(model.Alert)
	OnExit  func(model.Alert)
}

// NewAlertBook creates an empty book keeping at most maxExited exited alerts.
func NewAlertBook(maxExited int) *AlertBook {
	if maxExited < 1 {
		maxExited = 1
	}
	return &AlertBook{
		active:    make(map[string]*model.Alert, 64),
		maxExited: maxExited,
	}
}

// HasActive reports whether the symbol currently has an ACTIVE alert.
func (b *AlertBook) HasActive(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.active[symbol]
	return ok
}

// Enter creates a new ACTIVE alert for the symbol. An earlier EXITED alert
// for the same symbol does not block re-entry; the new alert gets a fresh ID.
// The caller must ensure no ACTIVE alert exists (enforced here as a no-op
// safeguard returning the existing alert).
func (b *AlertBook) Enter(symbol string, close int64, pctChange float64, m model.SurgeMetrics, score int, now time.Time) model.Alert {
	b.mu.Lock()
	if existing, ok := b.active[symbol]; ok {
		cp := *existing
		b.mu.Unlock()
		return cp
	}
	a := &model.Alert{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		State:      model.AlertActive,
		EntryPrice: close,
		EntryTS:    now,
		Price:      close,
		Metrics:    m,
		Score:      score,
		Strength:   StrengthFor(score),
		PctChange:  pctChange,
		UpdatedTS:  now,
	}
	b.active[symbol] = a
	cp := *a
	b.mu.Unlock()

	if b.OnEnter != nil {
		b.OnEnter(cp)
	}
	return cp
}

// Refresh updates the ACTIVE alert's price, metrics, and score in place.
// Entry fields (ID, EntryPrice, EntryTS) are never touched. Returns false if
// no ACTIVE alert exists for the symbol.
func (b *AlertBook) Refresh(symbol string, close int64, pctChange float64, m model.SurgeMetrics, score int, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.active[symbol]
	if !ok {
		return false
	}
	a.Price = close
	a.PctChange = pctChange
	a.Metrics = m
	a.Score = score
	a.Strength = StrengthFor(score)
	a.UpdatedTS = now
	return true
}

// Exit transitions the symbol's ACTIVE alert to EXITED, freezing it and
// moving it to the audit list. Returns the frozen alert, or false if the
// symbol had no ACTIVE alert.
func (b *AlertBook) Exit(symbol string, close int64, now time.Time) (model.Alert, bool) {
	b.mu.Lock()
	a, ok := b.active[symbol]
	if !ok {
		b.mu.Unlock()
		return model.Alert{}, false
	}
	delete(b.active, symbol)
	a.State = model.AlertExited
	a.ExitTS = now
	a.ExitPrice = close
	a.UpdatedTS = now

	b.exited = append(b.exited, *a)
	if len(b.exited) > b.maxExited {
		b.exited = b.exited[1:]
	}
	cp := *a
	b.mu.Unlock()

	if b.OnExit != nil {
		b.OnExit(cp)
	}
	return cp, true
}

// Active returns a snapshot of all ACTIVE alerts in the requested order.
func (b *AlertBook) Active(order ActiveSort) []model.Alert {
	b.mu.RLock()
	out := make([]model.Alert, 0, len(b.active))
	for _, a := range b.active {
		out = append(out, *a)
	}
	b.mu.RUnlock()

	switch order {
	case SortByRecency:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].EntryTS.After(out[j].EntryTS)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			return out[i].EntryTS.After(out[j].EntryTS)
		})
	}
	return out
}

// Exited returns a snapshot of the audit list, most recent exit last.
func (b *AlertBook) Exited() []model.Alert {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Alert, len(b.exited))
	copy(out, b.exited)
	return out
}

// Counts returns (active, exited) sizes.
func (b *AlertBook) Counts() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.active), len(b.exited)
}
