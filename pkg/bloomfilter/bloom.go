// Package bloomfilter implements a string-keyed Bloom filter.
//
// A Bloom filter answers "definitely not present" or "possibly present".
// IronWatch uses it in front of the block-history map so that the common
// case, an address with no prior verdict, never reaches the exact lookup.
//
// Properties:
//   - No false negatives
//   - False positive rate close to the one requested at construction
//
// Thread Safety: Add must not race with MayContain. Filters are built once
// and then only read.
package bloomfilter

import (
	"hash/maphash"
	"math"
	"math/bits"
)

var hashSeed = maphash.MakeSeed()

// Filter is a fixed-size Bloom filter.
//
// Sizing:
//   - m = -n*ln(p) / (ln(2)^2)
//   - k = m/n * ln(2)
type Filter struct {
	words   []uint64
	m       uint64
	k       uint64
	inserts uint
}

// New sizes a filter for expectedItems entries at fpRate false positives.
// Zero items or an out-of-range rate fall back to 64 items at 1%.
func New(expectedItems uint, fpRate float64) *Filter {
	if expectedItems == 0 {
		expectedItems = 64
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}

	m := uint64(math.Ceil(-float64(expectedItems) * math.Log(fpRate) / (math.Ln2 * math.Ln2)))
	k := uint64(math.Ceil(float64(m) / float64(expectedItems) * math.Ln2))
	if k == 0 {
		k = 1
	}

	return &Filter{
		words: make([]uint64, (m+63)/64),
		m:     m,
		k:     k,
	}
}

// Add records key.
func (f *Filter) Add(key string) {
	h1, h2 := split(key)
	for i := uint64(0); i < f.k; i++ {
		pos := (h1 + i*h2) % f.m
		f.words[pos/64] |= 1 << (pos % 64)
	}
	f.inserts++
}

// MayContain reports false only when key was never added.
func (f *Filter) MayContain(key string) bool {
	h1, h2 := split(key)
	for i := uint64(0); i < f.k; i++ {
		pos := (h1 + i*h2) % f.m
		if f.words[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of Add calls.
func (f *Filter) Count() uint {
	return f.inserts
}

// FillRatio is the fraction of set bits. Above 0.5 the false positive rate
// climbs quickly.
func (f *Filter) FillRatio() float64 {
	var set int
	for _, w := range f.words {
		set += bits.OnesCount64(w)
	}
	return float64(set) / float64(f.m)
}

// split derives two hash values from one maphash sum (double hashing).
func split(key string) (uint64, uint64) {
	sum := maphash.String(hashSeed, key)
	return sum, bits.RotateLeft64(sum, 32) | 1
}
