// Package app wires the detection engine and the block workflow.
//
// Scan Flow (one run):
//  1. Rules are evaluated sequentially in declaration order
//  2. Each rule's log path is resolved from its date template
//  3. Records are extracted and handed to the rule's detector
//  4. Survivors of the whitelist and cross-rule dedup join the aggregate
//
// The first rule to flag an address wins; later rules contribute nothing for
// it. Data-source failures degrade coverage but never abort a run.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xoelrdgz/ironwatch/internal/adapters/detection"
	"github.com/xoelrdgz/ironwatch/internal/adapters/input"
	"github.com/xoelrdgz/ironwatch/internal/adapters/reputation"
	"github.com/xoelrdgz/ironwatch/internal/domain"
	"github.com/xoelrdgz/ironwatch/internal/ports"
)

// ScannerDeps are the collaborators of a Scanner. Reputation defaults to an
// HTTP client built from the abuseip settings; Observer and Now are optional.
type ScannerDeps struct {
	History    ports.HistoryReader
	Reputation ports.ReputationClient
	Observer   ports.ScanObserver
	Now        func() time.Time
}

// ScanResult is the outcome of one run.
type ScanResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Suspects  []domain.Suspect
}

type Scanner struct {
	cfg       *Config
	extractor *input.Extractor
	rateLimit *detection.RateLimitDetector
	history   ports.HistoryReader
	client    ports.ReputationClient
	observer  ports.ScanObserver
	now       func() time.Time
}

func NewScanner(cfg *Config, deps ScannerDeps) (*Scanner, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoRules
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Reputation == nil {
		deps.Reputation = reputation.NewClient(cfg.ReputationClientConfig())
	}

	return &Scanner{
		cfg:       cfg,
		extractor: input.NewExtractor(),
		rateLimit: detection.NewRateLimitDetector(cfg.TimestampLayout),
		history:   deps.History,
		client:    deps.Reputation,
		observer:  deps.Observer,
		now:       deps.Now,
	}, nil
}

// Scan runs every rule once and returns the deduplicated aggregate.
// The only error is ctx's.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	result := ScanResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	logger := log.With().Str("run_id", result.RunID).Logger()
	logger.Info().Int("rules", len(s.cfg.Rules)).Msg("Scan started")

	run := &scanRun{
		Scanner:   s,
		logger:    logger,
		now:       result.StartedAt,
		aggregate: domain.NewSuspectSet(),
		reputation: detection.NewReputationDetector(s.client, s.observer, detection.ReputationConfig{
			Layout:      s.cfg.TimestampLayout,
			Concurrency: s.cfg.AbuseIP.Concurrency,
		}),
	}

	for _, rule := range s.cfg.Rules {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := run.evaluate(ctx, rule); err != nil {
			return result, err
		}
	}

	result.Suspects = run.aggregate.Suspects()
	result.Duration = s.now().Sub(result.StartedAt)
	logger.Info().
		Int("suspects", len(result.Suspects)).
		Dur("duration", result.Duration).
		Msg("Scan completed")
	return result, nil
}

// scanRun holds the state of one Scan call.
type scanRun struct {
	*Scanner
	logger     zerolog.Logger
	now        time.Time
	aggregate  *domain.SuspectSet
	reputation *detection.ReputationDetector

	historyLoaded bool
	historyIndex  *domain.HistoryIndex
}

func (r *scanRun) evaluate(ctx context.Context, rule domain.Rule) error {
	path := input.ResolvePathTemplate(r.cfg.LogTemplate(rule), r.now)
	records, err := r.extractor.Records(ctx, path, rule.Route())
	if err != nil {
		return err
	}
	r.observer.ObserveRecords(rule.RuleName(), len(records))

	var found []domain.Suspect
	switch rl := rule.(type) {
	case domain.RateLimitRule:
		found = r.rateLimit.Detect(ctx, rl, records, r.cfg.Whitelist)

	case domain.ReputationRule:
		credential, ok := reputation.SelectCredential(r.cfg.AbuseIP.Tokens, r.now)
		if !ok {
			r.logger.Warn().Str("rule", rl.Name).Msg("No reputation credentials configured")
		}
		found, err = r.reputation.Detect(ctx, detection.ReputationInput{
			Rule:       rl,
			Records:    records,
			Now:        r.now,
			History:    r.loadHistory(ctx),
			Whitelist:  r.cfg.Whitelist,
			Reported:   r.aggregate.Contains,
			Credential: credential,
		})
		if err != nil {
			return err
		}

	default:
		r.logger.Warn().Str("rule", rule.RuleName()).Str("kind", string(rule.Kind())).Msg("Unsupported rule type, skipping")
		return nil
	}

	added := 0
	for _, suspect := range found {
		if r.cfg.Whitelist.Contains(suspect.Address) {
			continue
		}
		if r.aggregate.Add(suspect) {
			added++
		}
	}
	r.observer.ObserveSuspects(rule.RuleName(), added)

	r.logger.Info().
		Str("rule", rule.RuleName()).
		Str("log", path).
		Int("records", len(records)).
		Int("flagged", len(found)).
		Int("added", added).
		Msg("Rule evaluated")
	return nil
}

// loadHistory reads the block history once per run. A failing or absent
// store yields an empty index.
func (r *scanRun) loadHistory(ctx context.Context) *domain.HistoryIndex {
	if r.historyLoaded {
		return r.historyIndex
	}
	r.historyLoaded = true

	if r.history == nil {
		r.historyIndex = domain.NewHistoryIndex(nil)
		return r.historyIndex
	}

	entries, err := r.history.History(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to read block history, continuing without it")
		entries = nil
	}
	r.historyIndex = domain.NewHistoryIndex(entries)
	r.logger.Debug().Int("entries", r.historyIndex.Len()).Msg("Block history loaded")
	return r.historyIndex
}

type nopObserver struct{}

func (nopObserver) ObserveRecords(string, int)     {}
func (nopObserver) ObserveSuspects(string, int)    {}
func (nopObserver) ObserveReputationLookup(string) {}
