package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ip TEXT NOT NULL,
	reason TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_ip ON logs(ip);
CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at);
`

// SQLiteStore is the SQL block store. The driver is chosen at build time:
// pure-Go modernc.org/sqlite by default, mattn/go-sqlite3 with -tags cgo_sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between the pool's connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("SQLite block store opened")
	return &SQLiteStore{db: db, now: o.now}, nil
}

func (s *SQLiteStore) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ip, reason FROM logs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.Address, &h.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Latest(ctx context.Context, address string) (domain.BlockRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ip, reason, created_at FROM logs WHERE ip = ? ORDER BY id DESC LIMIT 1`, address)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlockRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.BlockRecord{}, fmt.Errorf("failed to query latest record: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, address, reason string) (domain.BlockRecord, error) {
	created := s.now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (ip, reason, created_at) VALUES (?, ?, ?)`, address, reason, created.Unix())
	if err != nil {
		return domain.BlockRecord{}, fmt.Errorf("failed to insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.BlockRecord{}, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return domain.BlockRecord{ID: id, Address: address, Reason: reason, CreatedAt: created}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListMonth(ctx context.Context, month time.Time) ([]domain.BlockRecord, error) {
	start, end := monthBounds(month)
	return s.query(ctx,
		`SELECT id, ip, reason, created_at FROM logs WHERE created_at >= ? AND created_at < ? ORDER BY id`,
		start.Unix(), end.Unix())
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.BlockRecord, error) {
	return s.query(ctx, `SELECT id, ip, reason, created_at FROM logs ORDER BY id`)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.BlockRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []domain.BlockRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.BlockRecord, error) {
	var (
		rec     domain.BlockRecord
		created int64
	)
	if err := row.Scan(&rec.ID, &rec.Address, &rec.Reason, &created); err != nil {
		return domain.BlockRecord{}, err
	}
	rec.CreatedAt = time.Unix(created, 0).UTC()
	return rec, nil
}
