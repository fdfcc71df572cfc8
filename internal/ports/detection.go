// Package ports defines the interfaces between the detection core and its
// collaborators, following the ports and adapters layout.
//
// Design Principles:
//   - The core only reads: history, whitelist and reputation are inputs
//   - All mutation (block records, server configuration, reload) lives
//     behind BlockStore and ConfigPublisher and happens after a scan returns
//   - Implementations live in internal/adapters/
package ports

import (
	"context"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// HistoryReader yields every verdict previously persisted in the block store.
//
// Implementations:
//   - storage.SQLiteStore
//   - storage.BoltStore
type HistoryReader interface {
	// History returns all recorded verdicts. Callers treat an error as an
	// empty history.
	History(ctx context.Context) ([]domain.HistoryEntry, error)
}

// ReputationClient queries an external abuse-confidence service.
//
// Contract:
//   - Score is in [0, 100]
//   - Any transport failure, non-success status or malformed payload is
//     returned as an error; callers map it to a score of 0
//   - No retries
type ReputationClient interface {
	Score(ctx context.Context, address, credential string) (int, error)
}

// Reputation lookup outcomes reported to a ScanObserver.
const (
	LookupHistory = "history"
	LookupCached  = "cached"
	LookupAPI     = "api"
	LookupError   = "error"
)

// ScanObserver receives counters from a scan run. Implemented by the
// Prometheus adapter.
//
// Thread Safety: Implementations MUST be safe for concurrent calls; the
// reputation detector reports lookups from several goroutines.
type ScanObserver interface {
	// ObserveRecords records how many log records a rule analysed.
	ObserveRecords(rule string, count int)

	// ObserveSuspects records how many suspects a rule added to the aggregate.
	ObserveSuspects(rule string, count int)

	// ObserveReputationLookup records one address decision by outcome.
	ObserveReputationLookup(outcome string)
}
