package ports

import (
	"context"
	"time"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// BlockStore is the persisted block list, a keyed table of BlockRecords.
//
// Only the Blocker writes to it. The scanner sees it through HistoryReader.
type BlockStore interface {
	HistoryReader

	// Latest returns the most recent record for address or
	// storage.ErrNotFound.
	Latest(ctx context.Context, address string) (domain.BlockRecord, error)

	// Insert persists a new record stamped with the current time.
	Insert(ctx context.Context, address, reason string) (domain.BlockRecord, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id int64) error

	// ListMonth returns records created in month's calendar month (UTC),
	// oldest first.
	ListMonth(ctx context.Context, month time.Time) ([]domain.BlockRecord, error)

	// List returns every record, oldest first.
	List(ctx context.Context) ([]domain.BlockRecord, error)

	Close() error
}
