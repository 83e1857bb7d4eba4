package source

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressIsMonotonicAndClamped(t *testing.T) {
	t.Parallel()

	var p Progress
	assert.Equal(t, 0.0, p.Value())
	assert.True(t, p.Set(0.4))
	assert.False(t, p.Set(0.2))
	assert.Equal(t, 0.4, p.Value())
	assert.False(t, p.Set(math.NaN()))
	assert.True(t, p.Set(7))
	assert.Equal(t, 1.0, p.Value())
	assert.False(t, p.Set(1))

	var nilProgress *Progress
	assert.False(t, nilProgress.Set(0.5))
	assert.Equal(t, 0.0, nilProgress.Value())
}

func TestProgressConcurrentWritersKeepMaximum(t *testing.T) {
	t.Parallel()

	var p Progress
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			p.Set(v)
		}(float64(i) / 100)
	}
	wg.Wait()
	assert.Equal(t, 1.0, p.Value())
}
