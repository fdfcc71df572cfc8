package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForTerminal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "clean", input: "(RULE: login)[IP 10.0.0.1]", expected: "(RULE: login)[IP 10.0.0.1]"},
		{name: "ansi color", input: "\x1b[31mred\x1b[0m", expected: "[ESC]red[ESC]"},
		{name: "tab and newline", input: "a\tb\nc", expected: "a b c"},
		{name: "carriage return", input: "a\rb", expected: "a[CR]b"},
		{name: "other control", input: "a\x01b", expected: "a[CTRL]b"},
		{name: "delete", input: "a\x7fb", expected: "a[DEL]b"},
		{name: "lone escape", input: "a\x1b", expected: "a[ESC]"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ForTerminal(tc.input))
		})
	}
}

func TestString_Truncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	out := String(long, DefaultMaxDisplayLength)
	assert.Len(t, out, DefaultMaxDisplayLength)
	assert.True(t, strings.HasSuffix(out, "..."))

	assert.Equal(t, "ab", String("abcdef", 2))
	assert.Equal(t, "abcdef", String("abcdef", 0))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "10.0.0.5", Address(" 10.0.0.5 "))
	assert.Equal(t, "2001:db8::1", Address("2001:DB8::1"))
	assert.Equal(t, "[INVALID]", Address("10.0.0.5\x1b[2J"))
	assert.Equal(t, "[INVALID]", Address(""))
}
