package trainer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEarlyStopping(t *testing.T) {
	e := NewEarlyStopping(3, 0)

	tests := []struct {
		value    float64
		improved bool
		stop     bool
	}{
		{1.0, true, false},
		{0.8, true, false},
		{0.9, false, false},
		{0.8, false, false},
		{math.NaN(), false, true},
	}

	for i, test := range tests {
		improved, stop := e.Observe(test.value)
		assert.Equal(t, test.improved, improved, "epoch %v", i+1)
		assert.Equal(t, test.stop, stop, "epoch %v", i+1)
	}
	assert.Equal(t, 0.8, e.Best())
	assert.Equal(t, 2, e.BestEpoch())
}

func TestEarlyStoppingMinDelta(t *testing.T) {
	e := NewEarlyStopping(1, 0.1)

	improved, _ := e.Observe(1.0)
	assert.True(t, improved)

	// Improvement smaller than the minimum delta
	improved, stop := e.Observe(0.95)
	assert.False(t, improved)
	assert.True(t, stop)
}

func TestEarlyStoppingDisabled(t *testing.T) {
	e := NewEarlyStopping(0, 0)
	e.Observe(1.0)
	for i := 0; i < 100; i++ {
		_, stop := e.Observe(2.0)
		assert.False(t, stop)
	}
	assert.Equal(t, 1, e.BestEpoch())
}
