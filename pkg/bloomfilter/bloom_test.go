package bloomfilter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_NoFalseNegatives(t *testing.T) {
	f := New(1000, 0.01)
	for i := 0; i < 1000; i++ {
		f.Add(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	for i := 0; i < 1000; i++ {
		assert.True(t, f.MayContain(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	assert.Equal(t, uint(1000), f.Count())
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	f := New(1000, 0.01)
	for i := 0; i < 1000; i++ {
		f.Add(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}

	falsePositives := 0
	for i := 0; i < 10000; i++ {
		if f.MayContain(fmt.Sprintf("172.16.%d.%d", i/256, i%256)) {
			falsePositives++
		}
	}
	// 1% requested; allow generous slack.
	assert.Less(t, falsePositives, 500)
}

func TestFilter_EmptyAndDefaults(t *testing.T) {
	f := New(0, 5)
	assert.False(t, f.MayContain("192.0.2.1"))
	assert.Equal(t, 0.0, f.FillRatio())

	f.Add("192.0.2.1")
	assert.True(t, f.MayContain("192.0.2.1"))
	assert.Greater(t, f.FillRatio(), 0.0)
}

func BenchmarkFilter_MayContain(b *testing.B) {
	f := New(10000, 0.01)
	for i := 0; i < 10000; i++ {
		f.Add(fmt.Sprintf("10.%d.%d.1", i/256, i%256))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.MayContain("203.0.113.7")
	}
}
