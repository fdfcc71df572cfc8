package ports

import (
	"context"
	"time"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// ConfigPublisher turns the block list into the web server's configuration
// and makes the server pick it up.
type ConfigPublisher interface {
	// Publish renders records for month and writes the configuration file.
	// It returns the path written.
	Publish(ctx context.Context, month time.Time, records []domain.BlockRecord) (string, error)

	// Reload runs the configured server reload command.
	Reload(ctx context.Context) error
}

// SuspectReporter presents the result of a scan to the operator.
//
// Implementations:
//   - output.TableRenderer: terminal table
//   - output.JSONReporter: machine-readable report
type SuspectReporter interface {
	Report(ctx context.Context, runID string, suspects []domain.Suspect) error
}

// BlockObserver is notified of every record newly written to the store.
type BlockObserver interface {
	ObserveBlock()
}
