package domain

// RuleKind is the configuration tag of a detection rule.
type RuleKind string

const (
	RuleKindRateLimit  RuleKind = "rate_limit_rule"
	RuleKindReputation RuleKind = "abuse_report_rule"
)

// Rule declares one detection policy. Implementations are RateLimitRule and
// ReputationRule; the scanner dispatches on the concrete type.
type Rule interface {
	RuleName() string
	Route() string
	// LogTemplate overrides the global log location when non-empty.
	LogTemplate() string
	Kind() RuleKind
}

// RateLimitRule flags an address with at least Requests hits inside any
// WindowSeconds-long window.
type RateLimitRule struct {
	Name          string
	Path          string
	Requests      int
	WindowSeconds int
	Log           string
}

func (r RateLimitRule) RuleName() string    { return r.Name }
func (r RateLimitRule) Route() string       { return r.Path }
func (r RateLimitRule) LogTemplate() string { return r.Log }
func (r RateLimitRule) Kind() RuleKind      { return RuleKindRateLimit }

// ReputationRule flags an address whose external abuse-confidence score is at
// least Confidence. RecencySeconds > 0 restricts analysis to addresses seen in
// that trailing window.
type ReputationRule struct {
	Name           string
	Path           string
	Confidence     int
	RecencySeconds int
	Log            string
}

func (r ReputationRule) RuleName() string    { return r.Name }
func (r ReputationRule) Route() string       { return r.Path }
func (r ReputationRule) LogTemplate() string { return r.Log }
func (r ReputationRule) Kind() RuleKind      { return RuleKindReputation }
