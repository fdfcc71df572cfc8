package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(hour, minute int) time.Time {
	return time.Date(2026, time.January, 10, hour, minute, 0, 0, time.Local)
}

func TestSelectCredential(t *testing.T) {
	three := []string{"a", "b", "c"}

	tests := []struct {
		name  string
		creds []string
		now   time.Time
		want  string
	}{
		{"midnight selects first", three, clock(0, 0), "a"},
		{"end of first segment", three, clock(7, 59), "a"},
		{"08:00 selects second", three, clock(8, 0), "b"},
		{"16:00 selects third", three, clock(16, 0), "c"},
		{"last minute of day", three, clock(23, 59), "c"},
		{"single credential morning", []string{"only"}, clock(3, 0), "only"},
		{"single credential evening", []string{"only"}, clock(22, 30), "only"},
		// 1440/7 = 205; minute 1435 is segment 7, wrapping to index 0.
		{"uneven pool wraps remainder", []string{"0", "1", "2", "3", "4", "5", "6"}, clock(23, 55), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectCredential(tt.creds, tt.now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectCredential_EmptyPool(t *testing.T) {
	got, ok := SelectCredential(nil, clock(12, 0))
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestSelectCredential_PoolLargerThanDay(t *testing.T) {
	creds := make([]string, 2000)
	for i := range creds {
		creds[i] = string(rune('a' + i%26))
	}
	_, ok := SelectCredential(creds, clock(23, 59))
	assert.True(t, ok)
}
