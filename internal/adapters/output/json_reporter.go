// Package output provides the presentation and publication adapters.
//
// This file implements JSON output of scan results and stored records, for
// piping into other tooling (--json).
package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// ScanReport is the JSON document emitted for one scan run.
type ScanReport struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Count       int              `json:"count"`
	Suspects    []domain.Suspect `json:"suspects"`
}

// JSONReporter writes scan reports and record listings as JSON.
//
// Thread Safety: Safe for concurrent calls via mutex.
type JSONReporter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	now     func() time.Time
}

// NewJSONReporter creates a reporter writing to w, indented when pretty is set.
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &JSONReporter{encoder: enc, now: time.Now}
}

// Report implements ports.SuspectReporter.
func (r *JSONReporter) Report(ctx context.Context, runID string, suspects []domain.Suspect) error {
	if suspects == nil {
		suspects = []domain.Suspect{}
	}
	report := ScanReport{
		RunID:       runID,
		GeneratedAt: r.now().UTC(),
		Count:       len(suspects),
		Suspects:    suspects,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoder.Encode(report)
}

// Records writes records as a JSON array.
func (r *JSONReporter) Records(records []domain.BlockRecord) error {
	if records == nil {
		records = []domain.BlockRecord{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoder.Encode(records)
}
