package domain

import (
	"time"

	"github.com/xoelrdgz/ironwatch/pkg/bloomfilter"
)

// HistoryEntry is a verdict previously persisted in the block store.
type HistoryEntry struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// BlockRecord is a row of the block store.
type BlockRecord struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (r BlockRecord) History() HistoryEntry {
	return HistoryEntry{Address: r.Address, Reason: r.Reason}
}

// HistoryIndex is a read-only snapshot of the block store used to skip
// reputation queries for addresses that were already adjudicated.
//
// Lookup Flow:
//  1. Bloom filter rejects most unknown addresses without touching the map
//  2. Exact map lookup confirms and yields the stored reason
type HistoryIndex struct {
	bloom   *bloomfilter.Filter
	entries map[string]HistoryEntry
}

// NewHistoryIndex indexes entries by address. When an address has several
// entries the first one wins.
func NewHistoryIndex(entries []HistoryEntry) *HistoryIndex {
	idx := &HistoryIndex{
		bloom:   bloomfilter.New(uint(len(entries)), 0.01),
		entries: make(map[string]HistoryEntry, len(entries)),
	}
	for _, e := range entries {
		if _, ok := idx.entries[e.Address]; ok {
			continue
		}
		idx.entries[e.Address] = e
		idx.bloom.Add(e.Address)
	}
	return idx
}

// Lookup returns the prior verdict for address, if any.
func (h *HistoryIndex) Lookup(address string) (HistoryEntry, bool) {
	if h == nil || !h.bloom.MayContain(address) {
		return HistoryEntry{}, false
	}
	e, ok := h.entries[address]
	return e, ok
}

func (h *HistoryIndex) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}
