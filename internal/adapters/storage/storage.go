// Package storage persists block records, the history consulted by the
// reputation detector and the source of the published server configuration.
//
// Backends:
//   - SQLite (default): table logs(id, ip, reason, created_at)
//   - Bolt: bucket "blocks", big-endian sequence keys, JSON values
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xoelrdgz/ironwatch/internal/ports"
)

// ErrNotFound is returned when no record matches the request.
var ErrNotFound = errors.New("block record not found")

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Option customises a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used to stamp inserted records.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens the block store for driver at path, creating parent
// directories as needed. An empty driver selects SQLite.
func Open(driver, path string, opts ...Option) (ports.BlockStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	switch driver {
	case "", DriverSQLite:
		return OpenSQLite(path, opts...)
	case DriverBolt:
		return OpenBolt(path, opts...)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// monthBounds returns [start, end) of t's calendar month in UTC.
func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
