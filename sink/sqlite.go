package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"financescrapper/record"
)

// SQLiteStore keeps every completed record in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Sink = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		date TEXT NOT NULL,
		company_name TEXT,
		market_cap TEXT,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_ticker ON records(ticker);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Append implements Sink.
func (s *SQLiteStore) Append(ctx context.Context, r record.Record) error {
	if err := CheckComplete(r); err != nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	ticker, _ := r.Ticker.Get()
	date, _ := r.Date.Get()
	name, _ := r.CompanyName.Get()
	marketCap, _ := r.MarketCap.Get()

	_, err = sq.Insert("records").
		Columns("ticker", "date", "company_name", "market_cap", "payload", "created_at").
		Values(ticker, date, name, marketCap.String(), string(payload), s.now().UTC()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Latest returns the most recently stored record for ticker.
func (s *SQLiteStore) Latest(ctx context.Context, ticker string) (record.Record, bool, error) {
	var payload string
	err := sq.Select("payload").
		From("records").
		Where(sq.Eq{"ticker": ticker}).
		OrderBy("id DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, fmt.Errorf("query latest %s: %w", ticker, err)
	}

	var r record.Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return record.Record{}, false, fmt.Errorf("decode record: %w", err)
	}
	return r, true, nil
}

// Count returns the number of stored records for ticker.
func (s *SQLiteStore) Count(ctx context.Context, ticker string) (int, error) {
	var n int
	err := sq.Select("COUNT(*)").
		From("records").
		Where(sq.Eq{"ticker": ticker}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", ticker, err)
	}
	return n, nil
}
