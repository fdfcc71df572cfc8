package input

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultTimestampFormat matches the bracketed field of nginx/Apache logs.
const DefaultTimestampFormat = "%d/%b/%Y:%H:%M:%S %z"

// ResolveTimestampLayout converts a configured timestamp format into a Go
// time layout. Formats containing '%' are strftime specifications; anything
// else is taken as a Go layout verbatim.
func ResolveTimestampLayout(format string) (string, error) {
	if format == "" {
		format = DefaultTimestampFormat
	}
	if !strings.Contains(format, "%") {
		return format, nil
	}
	layout, err := strftime.Layout(format)
	if err != nil {
		return "", fmt.Errorf("unsupported timestamp format %q: %w", format, err)
	}
	return layout, nil
}

// ParseTimestamps parses raw timestamps with layout, dropping the ones that
// do not match.
func ParseTimestamps(raw []string, layout string) []time.Time {
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		if t, err := time.Parse(layout, s); err == nil {
			out = append(out, t)
		}
	}
	return out
}
