package domain

import "strings"

// Whitelist holds addresses exempt from every rule. It is built once per run
// and only read afterwards.
type Whitelist map[string]struct{}

func NewWhitelist(addresses ...string) Whitelist {
	w := make(Whitelist, len(addresses))
	for _, a := range addresses {
		w.Add(a)
	}
	return w
}

func (w Whitelist) Add(address string) {
	address = strings.TrimSpace(address)
	if address == "" {
		return
	}
	w[address] = struct{}{}
}

func (w Whitelist) Contains(address string) bool {
	if w == nil {
		return false
	}
	_, ok := w[address]
	return ok
}

func (w Whitelist) Len() int {
	return len(w)
}
