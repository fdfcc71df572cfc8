package input

import (
	"time"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// FilterRecent keeps the records whose timestamp lies in [now-recency, now].
// Records with unparsable timestamps are dropped. A non-positive recency
// returns records unchanged.
func FilterRecent(records []domain.LogRecord, recency time.Duration, now time.Time, layout string) []domain.LogRecord {
	if recency <= 0 {
		return records
	}

	start := now.Add(-recency)
	out := make([]domain.LogRecord, 0, len(records))
	for _, r := range records {
		ts, err := time.Parse(layout, r.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(start) || ts.After(now) {
			continue
		}
		out = append(out, r)
	}
	return out
}
