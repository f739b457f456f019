// Package sqlite persists completed candles for end-of-day review. Writes
// are batched into transactions so a busy close-of-block burst costs one
// commit, not hundreds.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"surge-systemv1/internal/model"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 500 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // e.g. "data/candles.db"
}

// Writer is a single-goroutine SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB

	// OnCommit is called with the duration of each batch commit.
	OnCommit func(time.Duration)
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens (or creates) the database in WAL mode and applies the schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol       TEXT    NOT NULL,
			block        INTEGER NOT NULL,
			ts           INTEGER NOT NULL,
			open         INTEGER NOT NULL,
			high         INTEGER NOT NULL,
			low          INTEGER NOT NULL,
			close        INTEGER NOT NULL,
			volume       INTEGER NOT NULL,
			start_volume INTEGER NOT NULL,
			PRIMARY KEY (symbol, block)
		);

		CREATE INDEX IF NOT EXISTS idx_candles_ts ON candles (ts);
	`)
	return err
}

// Run reads candles from candleCh and inserts them in batched transactions.
// Flushes every batchSize candles OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or candleCh is closed.
func (w *Writer) Run(ctx context.Context, candleCh <-chan model.Candle) {
	batch := make([]model.Candle, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else if w.OnCommit != nil {
			w.OnCommit(time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case candle, ok := <-candleCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, candle)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// insertBatch inserts a batch of candles in a single transaction.
// INSERT OR REPLACE keeps re-emitted blocks idempotent.
func (w *Writer) insertBatch(candles []model.Candle) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, block, ts, open, high, low, close, volume, start_volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.Exec(c.Symbol, c.Block, c.TS.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume, c.StartVolume)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LastBlock returns the most recent stored candle block for a symbol.
// Returns 0 if no candles exist.
func (w *Writer) LastBlock(symbol string) (int64, error) {
	var block sql.NullInt64
	err := w.db.QueryRow(
		`SELECT MAX(block) FROM candles WHERE symbol = ?`,
		symbol,
	).Scan(&block)
	if err != nil {
		return 0, err
	}
	if !block.Valid {
		return 0, nil
	}
	return block.Int64, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
