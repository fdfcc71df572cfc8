package domain

import "fmt"

// Suspect is the detection engine's unit of output: an address and the
// rule-tagged justification for blocking it.
type Suspect struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
	Rule    string `json:"rule"`
}

func NewSuspect(rule, address, reason string) Suspect {
	return Suspect{Address: address, Reason: reason, Rule: rule}
}

// RateLimitReason formats the justification for a rate-limit verdict.
func RateLimitReason(rule, address string, requests, windowSeconds int) string {
	return fmt.Sprintf("(RULE: %s)[IP %s EXCEEDED %d REQUESTS IN %d SECONDS WINDOW]",
		rule, address, requests, windowSeconds)
}

// ReputationReason formats the justification for a reputation verdict.
// The observed confidence score is always embedded.
func ReputationReason(rule, address string, score int) string {
	return fmt.Sprintf("(RULE: %s)[IP: %s IS A POTENTIAL SPAM (CONFIDENCE: %d)]",
		rule, address, score)
}

// SuspectSet is the ordered, address-unique aggregate of one scan run.
// The first suspect recorded for an address wins.
type SuspectSet struct {
	items []Suspect
	index map[string]struct{}
}

func NewSuspectSet() *SuspectSet {
	return &SuspectSet{index: make(map[string]struct{})}
}

// Add appends s unless its address is already present. It reports whether s
// was added.
func (s *SuspectSet) Add(suspect Suspect) bool {
	if _, ok := s.index[suspect.Address]; ok {
		return false
	}
	s.index[suspect.Address] = struct{}{}
	s.items = append(s.items, suspect)
	return true
}

func (s *SuspectSet) Contains(address string) bool {
	_, ok := s.index[address]
	return ok
}

func (s *SuspectSet) Len() int {
	return len(s.items)
}

// Suspects returns a copy of the aggregate in insertion order.
func (s *SuspectSet) Suspects() []Suspect {
	out := make([]Suspect, len(s.items))
	copy(out, s.items)
	return out
}
