package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			period       TEXT,
			bar_interval TEXT,
			indicators   TEXT,
			ok           INTEGER NOT NULL,
			failed_stage TEXT,
			error        TEXT,
			row_count    INTEGER,
			last_close   REAL,
			change       REAL,
			high         REAL,
			low          REAL,
			position     REAL,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS forecast_points (
			run_id     INTEGER NOT NULL REFERENCES runs(id),
			ds         INTEGER NOT NULL,
			yhat       REAL,
			yhat_lower REAL,
			yhat_upper REAL,
			PRIMARY KEY (run_id, ds)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run row and its forecast-only rows in one transaction.
func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(timestamp, symbol, period, bar_interval, indicators, ok, failed_stage, error,
		 row_count, last_close, change, high, low, position, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.At.Unix(), snap.Symbol, snap.Period, snap.Interval, snap.Indicators,
		snap.OK, snap.FailedStage, snap.Error,
		snap.Rows, snap.LastClose, snap.Change, snap.High, snap.Low, snap.Position,
		snap.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(snap.Future) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO forecast_points (run_id, ds, yhat, yhat_lower, yhat_upper) VALUES (?,?,?,?,?)`)
		if err != nil {
			return 0, fmt.Errorf("prepare forecast insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range snap.Future {
			if _, err := stmt.Exec(id, p.Time.Unix(), p.Point, p.Lower, p.Upper); err != nil {
				return 0, fmt.Errorf("insert forecast point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
