package detection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xoelrdgz/ironwatch/internal/domain"
)

const testLayout = "02/Jan/2006:15:04:05 -0700"

var testBase = time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

func hits(addr string, offsets ...int) []domain.LogRecord {
	out := make([]domain.LogRecord, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, domain.LogRecord{
			Address:   addr,
			Timestamp: testBase.Add(time.Duration(off) * time.Second).Format(testLayout),
		})
	}
	return out
}

func TestRateLimitDetector_Flagged(t *testing.T) {
	tests := []struct {
		name     string
		records  []domain.LogRecord
		requests int
		window   int
		want     []string
	}{
		{
			name:     "four hits in two seconds reach three",
			records:  hits("1.2.3.4", 0, 1, 2, 3),
			requests: 3,
			window:   2,
			want:     []string{"1.2.3.4"},
		},
		{
			name:     "four hits never reach five",
			records:  hits("1.2.3.4", 0, 1, 2, 3),
			requests: 5,
			window:   2,
		},
		{
			name:     "window end is inclusive",
			records:  hits("1.2.3.4", 0, 10),
			requests: 2,
			window:   10,
			want:     []string{"1.2.3.4"},
		},
		{
			name:     "hits spread wider than the window",
			records:  hits("1.2.3.4", 0, 11, 22),
			requests: 2,
			window:   10,
		},
		{
			name:     "threshold of one flags any hit",
			records:  hits("9.9.9.9", 100),
			requests: 1,
			window:   1,
			want:     []string{"9.9.9.9"},
		},
		{
			name:     "no records",
			requests: 1,
			window:   60,
		},
		{
			name: "identical timestamps all count",
			records: append(hits("5.5.5.5", 7, 7, 7),
				hits("6.6.6.6", 7)...),
			requests: 3,
			window:   0,
			want:     []string{"5.5.5.5"},
		},
	}

	d := NewRateLimitDetector(testLayout)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Flagged(tt.records, tt.requests, tt.window)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimitDetector_OrderIndependent(t *testing.T) {
	d := NewRateLimitDetector(testLayout)
	ordered := hits("1.2.3.4", 0, 1, 2, 3)
	shuffled := []domain.LogRecord{ordered[3], ordered[0], ordered[2], ordered[1]}

	assert.Equal(t, d.Flagged(ordered, 3, 2), d.Flagged(shuffled, 3, 2))
	assert.Equal(t, d.Flagged(ordered, 5, 2), d.Flagged(shuffled, 5, 2))
}

func TestRateLimitDetector_UnparsableTimestampsIgnored(t *testing.T) {
	d := NewRateLimitDetector(testLayout)
	records := append(hits("1.2.3.4", 0, 1),
		domain.LogRecord{Address: "1.2.3.4", Timestamp: "garbage"},
		domain.LogRecord{Address: "1.2.3.4", Timestamp: "also garbage"},
	)

	assert.Empty(t, d.Flagged(records, 3, 60))
	assert.Equal(t, []string{"1.2.3.4"}, d.Flagged(records, 2, 60))
}

func TestRateLimitDetector_Detect(t *testing.T) {
	d := NewRateLimitDetector(testLayout)
	rule := domain.RateLimitRule{Name: "login-burst", Path: "/login", Requests: 2, WindowSeconds: 5}

	records := append(hits("10.0.0.1", 0, 1), hits("10.0.0.2", 0, 2)...)
	records = append(records, hits("10.0.0.3", 0, 30)...)
	whitelist := domain.NewWhitelist("10.0.0.2")

	suspects := d.Detect(context.Background(), rule, records, whitelist)
	require.Len(t, suspects, 1)

	s := suspects[0]
	assert.Equal(t, "10.0.0.1", s.Address)
	assert.Equal(t, "login-burst", s.Rule)
	assert.Equal(t, "(RULE: login-burst)[IP 10.0.0.1 EXCEEDED 2 REQUESTS IN 5 SECONDS WINDOW]", s.Reason)
}

func TestExceedsRate_SortsInPlace(t *testing.T) {
	ts := []time.Time{testBase.Add(3 * time.Second), testBase, testBase.Add(time.Second)}
	assert.True(t, ExceedsRate(ts, 3, 3*time.Second))
	assert.True(t, ts[0].Equal(testBase))
}

func BenchmarkRateLimitDetector_Flagged(b *testing.B) {
	d := NewRateLimitDetector(testLayout)
	var records []domain.LogRecord
	for i := 0; i < 200; i++ {
		offsets := make([]int, 50)
		for j := range offsets {
			offsets[j] = j * 3
		}
		records = append(records, hits(fmt.Sprintf("10.0.%d.%d", i/256, i%256), offsets...)...)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Flagged(records, 30, 60)
	}
}
