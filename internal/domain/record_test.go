package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupByAddress(t *testing.T) {
	records := []LogRecord{
		{Address: "b", Timestamp: "1"},
		{Address: "a", Timestamp: "2"},
		{Address: "b", Timestamp: "3"},
	}

	order, groups := GroupByAddress(records)
	assert.Equal(t, []string{"b", "a"}, order)
	assert.Equal(t, []string{"1", "3"}, groups["b"])
	assert.Equal(t, []string{"2"}, groups["a"])

	assert.Equal(t, []string{"b", "a"}, UniqueAddresses(records))
}

func TestWhitelist(t *testing.T) {
	w := NewWhitelist(" 10.0.0.1 ", "", "10.0.0.2")
	assert.Equal(t, 2, w.Len())
	assert.True(t, w.Contains("10.0.0.1"))
	assert.False(t, w.Contains("10.0.0.3"))

	var nilList Whitelist
	assert.False(t, nilList.Contains("10.0.0.1"))
}
