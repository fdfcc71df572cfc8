// Package detection implements IronWatch's two detection algorithms.
//
// This file provides reputation scoring against an external abuse-confidence
// service, with the block history acting as a cache of earlier verdicts.
//
// Per-address decision order (first match wins):
//  1. Whitelisted: excluded
//  2. Already reported by an earlier rule this run: excluded
//  3. Present in history: flagged with the stored reason, no external call
//  4. Otherwise query the service (failure scores 0) and flag when the score
//     reaches the rule's confidence
//
// External calls are bounded to one per address per run: scores are kept in
// a run-scoped LRU shared by every reputation rule.
package detection

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/adapters/input"
	"github.com/xoelrdgz/ironwatch/internal/domain"
	"github.com/xoelrdgz/ironwatch/internal/ports"
	"github.com/xoelrdgz/ironwatch/pkg/lru"
)

// ReputationConfig configures a ReputationDetector.
type ReputationConfig struct {
	Layout      string // Go time layout of log timestamps
	Concurrency int    // Parallel external lookups (default: 4)
	CacheSize   int    // Verdict cache capacity (default: 10000)
}

// DefaultReputationConfig returns production defaults.
func DefaultReputationConfig() ReputationConfig {
	return ReputationConfig{
		Concurrency: 4,
		CacheSize:   10000,
	}
}

// ReputationDetector evaluates ReputationRules. Create one per scan run so
// its verdict cache spans exactly one run.
type ReputationDetector struct {
	client      ports.ReputationClient
	observer    ports.ScanObserver
	layout      string
	concurrency int
	verdicts    *lru.Cache[string, int]
}

// ReputationInput carries everything one rule evaluation reads.
type ReputationInput struct {
	Rule       domain.ReputationRule
	Records    []domain.LogRecord
	Now        time.Time
	History    *domain.HistoryIndex
	Whitelist  domain.Whitelist
	Reported   func(address string) bool // cross-rule dedup, may be nil
	Credential string                    // empty disables external lookups
}

// NewReputationDetector creates a detector. observer may be nil.
func NewReputationDetector(client ports.ReputationClient, observer ports.ScanObserver, config ReputationConfig) *ReputationDetector {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 10000
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &ReputationDetector{
		client:      client,
		observer:    observer,
		layout:      config.Layout,
		concurrency: config.Concurrency,
		verdicts:    lru.New[string, int](config.CacheSize),
	}
}

// Detect evaluates in.Rule and returns suspects in first-seen log order.
//
// Returns:
//   - Suspects (possibly empty)
//   - ctx.Err() if the run was cancelled while lookups were in flight
func (d *ReputationDetector) Detect(ctx context.Context, in ReputationInput) ([]domain.Suspect, error) {
	rule := in.Rule
	records := input.FilterRecent(in.Records, time.Duration(rule.RecencySeconds)*time.Second, in.Now, d.layout)
	addresses := domain.UniqueAddresses(records)

	decided := make([]*domain.Suspect, len(addresses))
	var pending []int

	for i, addr := range addresses {
		if in.Whitelist.Contains(addr) {
			continue
		}
		if in.Reported != nil && in.Reported(addr) {
			continue
		}
		if h, ok := in.History.Lookup(addr); ok {
			s := domain.NewSuspect(rule.Name, addr, h.Reason)
			decided[i] = &s
			d.observer.ObserveReputationLookup(ports.LookupHistory)
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 && in.Credential == "" {
		log.Warn().
			Str("rule", rule.Name).
			Int("addresses", len(pending)).
			Msg("No reputation credential configured, skipping external lookups")
		pending = nil
	}

	scores := d.lookup(ctx, addresses, pending, in.Credential)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, i := range pending {
		if scores[i] >= rule.Confidence {
			s := domain.NewSuspect(rule.Name, addresses[i], domain.ReputationReason(rule.Name, addresses[i], scores[i]))
			decided[i] = &s
		}
	}

	suspects := make([]domain.Suspect, 0, len(addresses))
	for _, s := range decided {
		if s != nil {
			suspects = append(suspects, *s)
		}
	}

	log.Debug().
		Str("rule", rule.Name).
		Int("addresses", len(addresses)).
		Int("queried", len(pending)).
		Int("suspects", len(suspects)).
		Msg("Reputation rule evaluated")
	return suspects, nil
}

// lookup resolves scores for addresses[i], i in pending, on a bounded pool.
// The result is indexed like addresses.
func (d *ReputationDetector) lookup(ctx context.Context, addresses []string, pending []int, credential string) []int {
	scores := make([]int, len(addresses))
	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup

	for _, i := range pending {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			scores[i] = d.score(ctx, addresses[i], credential)
		}(i)
	}
	wg.Wait()
	return scores
}

// score returns the cached or freshly queried score of address. A failed
// query scores 0 and is cached too, so the address is not retried this run.
func (d *ReputationDetector) score(ctx context.Context, address, credential string) int {
	if s, ok := d.verdicts.Get(address); ok {
		d.observer.ObserveReputationLookup(ports.LookupCached)
		return s
	}

	s, err := d.client.Score(ctx, address, credential)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("ip", address).Msg("Reputation lookup failed, scoring 0")
			d.observer.ObserveReputationLookup(ports.LookupError)
			d.verdicts.Put(address, 0)
		}
		return 0
	}

	d.observer.ObserveReputationLookup(ports.LookupAPI)
	d.verdicts.Put(address, s)
	return s
}

type noopObserver struct{}

func (noopObserver) ObserveRecords(string, int)     {}
func (noopObserver) ObserveSuspects(string, int)    {}
func (noopObserver) ObserveReputationLookup(string) {}
