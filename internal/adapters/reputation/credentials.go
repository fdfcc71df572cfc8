package reputation

import "time"

const minutesPerDay = 24 * 60

// SelectCredential picks the credential for the time-of-day segment containing
// now. The day is split into len(credentials) segments of 1440/n minutes; the
// remainder minutes at the end of the day wrap around to the first segments.
// now is interpreted in its own location, so pass local time.
//
// Returns false for an empty pool.
func SelectCredential(credentials []string, now time.Time) (string, bool) {
	n := len(credentials)
	if n == 0 {
		return "", false
	}

	segment := minutesPerDay / n
	if segment == 0 {
		segment = 1
	}
	minutes := now.Hour()*60 + now.Minute()
	return credentials[(minutes/segment)%n], true
}
