package input

import (
	"strconv"
	"strings"
	"time"
)

// ResolvePathTemplate expands date tokens in a file path using t's local
// calendar date.
//
// Tokens:
//   - {YYYY} 4-digit year, {YY} 2-digit year
//   - {MM} {DD} zero-padded month/day, {M} {D} unpadded
//   - {MD} month+day ("0105"), {YYYYMMDD} full date ("20260105")
func ResolvePathTemplate(template string, t time.Time) string {
	if !strings.Contains(template, "{") {
		return template
	}
	r := strings.NewReplacer(
		"{YYYYMMDD}", t.Format("20060102"),
		"{YYYY}", t.Format("2006"),
		"{YY}", t.Format("06"),
		"{MD}", t.Format("0102"),
		"{MM}", t.Format("01"),
		"{DD}", t.Format("02"),
		"{M}", strconv.Itoa(int(t.Month())),
		"{D}", strconv.Itoa(t.Day()),
	)
	return r.Replace(template)
}
