package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists pipeline history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read
	// while the pipeline writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS run_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			coin          TEXT,
			symbol        TEXT,
			current_price REAL,
			ath           REAL,
			ath_ts        INTEGER,
			atl           REAL,
			atl_ts        INTEGER,
			drawdown_pct  REAL,
			chart_points  INTEGER,
			file_key      TEXT,
			status        TEXT,
			note          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_ts ON run_snapshots(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_run_symbol ON run_snapshots(symbol)`,

		`CREATE TABLE IF NOT EXISTS upload_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			file_key     TEXT,
			bytes        INTEGER,
			content_type TEXT,
			status       TEXT,
			note         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_upload_ts ON upload_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var athTS, atlTS int64
	if !snap.ATHTime.IsZero() {
		athTS = snap.ATHTime.Unix()
	}
	if !snap.ATLTime.IsZero() {
		atlTS = snap.ATLTime.Unix()
	}

	_, err := r.db.Exec(`INSERT INTO run_snapshots
		(timestamp, coin, symbol, current_price, ath, ath_ts, atl, atl_ts,
		 drawdown_pct, chart_points, file_key, status, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Coin, snap.Symbol, snap.CurrentPrice,
		snap.ATH, athTS, snap.ATL, atlTS,
		snap.DrawdownPct, snap.ChartPoints, snap.FileKey, snap.Status, snap.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordUpload(evt *UploadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO upload_events
		(timestamp, file_key, bytes, content_type, status, note)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Key, evt.Bytes, evt.ContentType, evt.Status, evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
