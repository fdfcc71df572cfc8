// Package sanitize neutralises attacker-controlled text before it reaches a
// terminal. Log lines and stored block reasons can carry escape sequences.
package sanitize

import (
	"net/netip"
	"strings"
)

const DefaultMaxDisplayLength = 256

// String strips control characters and truncates to maxLen bytes
// (no limit when maxLen <= 0).
func String(s string, maxLen int) string {
	out := ForTerminal(s)
	if maxLen > 0 && len(out) > maxLen {
		if maxLen > 3 {
			return out[:maxLen-3] + "..."
		}
		return out[:maxLen]
	}
	return out
}

// ForTerminal replaces ANSI escape sequences and other control bytes with
// visible placeholders.
func ForTerminal(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if isControl(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 0x1B:
			// Swallow a CSI sequence: ESC [ params final-byte.
			if i+1 < len(s) && s[i+1] == '[' {
				i += 2
				for i < len(s) && !isCSIFinal(s[i]) {
					i++
				}
			}
			b.WriteString("[ESC]")
		case c == '\t' || c == '\n':
			b.WriteByte(' ')
		case c == '\r':
			b.WriteString("[CR]")
		case c == 0x7F:
			b.WriteString("[DEL]")
		case c < 0x20:
			b.WriteString("[CTRL]")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Address returns the canonical form of an IP address, or "[INVALID]".
func Address(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "[INVALID]"
	}
	return addr.String()
}

func isControl(c byte) bool {
	return c < 0x20 || c == 0x7F
}

func isCSIFinal(c byte) bool {
	return c >= 0x40 && c <= 0x7E
}
