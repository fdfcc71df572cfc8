package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryIndex_Lookup(t *testing.T) {
	idx := NewHistoryIndex([]HistoryEntry{
		{Address: "1.2.3.4", Reason: "first"},
		{Address: "5.6.7.8", Reason: "other"},
		{Address: "1.2.3.4", Reason: "second"},
	})

	assert.Equal(t, 2, idx.Len())

	h, ok := idx.Lookup("1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, "first", h.Reason)

	_, ok = idx.Lookup("9.9.9.9")
	assert.False(t, ok)
}

func TestHistoryIndex_NilAndEmpty(t *testing.T) {
	var nilIdx *HistoryIndex
	_, ok := nilIdx.Lookup("1.2.3.4")
	assert.False(t, ok)

	empty := NewHistoryIndex(nil)
	_, ok = empty.Lookup("1.2.3.4")
	assert.False(t, ok)
	assert.Zero(t, empty.Len())
}

func TestHistoryIndex_Large(t *testing.T) {
	entries := make([]HistoryEntry, 0, 5000)
	for i := 0; i < 5000; i++ {
		entries = append(entries, HistoryEntry{Address: fmt.Sprintf("10.%d.%d.1", i/256, i%256), Reason: "r"})
	}
	idx := NewHistoryIndex(entries)

	for _, e := range entries {
		_, ok := idx.Lookup(e.Address)
		assert.True(t, ok, e.Address)
	}
	_, ok := idx.Lookup("192.168.0.1")
	assert.False(t, ok)
}

func TestBlockRecord_History(t *testing.T) {
	r := BlockRecord{ID: 7, Address: "1.2.3.4", Reason: "why"}
	assert.Equal(t, HistoryEntry{Address: "1.2.3.4", Reason: "why"}, r.History())
}
