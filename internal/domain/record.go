package domain

// LogRecord is one access-log hit on a watched route. The timestamp is kept
// exactly as written in the log; detectors parse it with the configured layout.
type LogRecord struct {
	Address   string `json:"address"`
	Timestamp string `json:"timestamp"`
}

// GroupByAddress buckets records per address, preserving first-seen order of
// the addresses in the returned key slice.
func GroupByAddress(records []LogRecord) ([]string, map[string][]string) {
	order := make([]string, 0)
	groups := make(map[string][]string)
	for _, r := range records {
		if _, ok := groups[r.Address]; !ok {
			order = append(order, r.Address)
		}
		groups[r.Address] = append(groups[r.Address], r.Timestamp)
	}
	return order, groups
}

// UniqueAddresses returns the distinct addresses of records in first-seen order.
func UniqueAddresses(records []LogRecord) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Address]; ok {
			continue
		}
		seen[r.Address] = struct{}{}
		out = append(out, r.Address)
	}
	return out
}
