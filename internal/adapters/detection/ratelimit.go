// Package detection implements IronWatch's two detection algorithms.
//
// This file provides volumetric rate limiting over a batch of log records:
// an address is flagged when at least N of its hits fall inside some
// W-second window.
//
// Algorithm (forward-anchored sliding window):
//  1. Group records by address and parse timestamps (unparsable ones dropped)
//  2. Sort each address's timestamps ascending
//  3. For each anchor t, count timestamps in [t, t+W] (both ends inclusive)
//  4. Flag on the first anchor reaching the threshold and stop
//
// Sorting first makes the verdict independent of input order.
package detection

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/adapters/input"
	"github.com/xoelrdgz/ironwatch/internal/domain"
)

// RateLimitDetector evaluates RateLimitRules.
//
// Thread Safety: Stateless apart from the layout; safe for concurrent use.
type RateLimitDetector struct {
	layout string // Go time layout of the log timestamps
}

// NewRateLimitDetector creates a detector parsing timestamps with layout.
func NewRateLimitDetector(layout string) *RateLimitDetector {
	return &RateLimitDetector{layout: layout}
}

// Flagged returns the addresses with at least requests hits inside some
// windowSeconds-long window, in first-seen order.
func (d *RateLimitDetector) Flagged(records []domain.LogRecord, requests, windowSeconds int) []string {
	order, groups := domain.GroupByAddress(records)
	window := time.Duration(windowSeconds) * time.Second

	var flagged []string
	for _, addr := range order {
		timestamps := input.ParseTimestamps(groups[addr], d.layout)
		if ExceedsRate(timestamps, requests, window) {
			flagged = append(flagged, addr)
		}
	}
	return flagged
}

// Detect applies rule to records and returns one suspect per flagged,
// non-whitelisted address.
func (d *RateLimitDetector) Detect(ctx context.Context, rule domain.RateLimitRule, records []domain.LogRecord, whitelist domain.Whitelist) []domain.Suspect {
	var suspects []domain.Suspect
	for _, addr := range d.Flagged(records, rule.Requests, rule.WindowSeconds) {
		if whitelist.Contains(addr) {
			log.Debug().Str("rule", rule.Name).Str("ip", addr).Msg("Rate limit exceeded by whitelisted address, ignoring")
			continue
		}
		suspects = append(suspects, domain.NewSuspect(
			rule.Name,
			addr,
			domain.RateLimitReason(rule.Name, addr, rule.Requests, rule.WindowSeconds),
		))
	}
	return suspects
}

// ExceedsRate reports whether some window [t, t+window] anchored at one of
// timestamps contains at least requests timestamps. timestamps is sorted in
// place.
func ExceedsRate(timestamps []time.Time, requests int, window time.Duration) bool {
	slices.SortFunc(timestamps, func(a, b time.Time) int { return a.Compare(b) })

	n := len(timestamps)
	for _, start := range timestamps {
		end := start.Add(window)
		lo := sort.Search(n, func(j int) bool { return !timestamps[j].Before(start) })
		hi := sort.Search(n, func(j int) bool { return timestamps[j].After(end) })
		if hi-lo >= requests {
			return true
		}
	}
	return false
}
