package serialize

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.1, "0.1"},
		{3.0, "3"},
		{-0.000001, "-0.000001"},
		{1.5, "1.5"},
		{2.0, "2"},
		{0, "0"},
		{10, "10"},
		{-250.25, "-250.25"},
		{1234567.1234567, "1234567.123457"},
		{0.0000004, "0"},
		{-0.0000001, "-0"},
		{1e20, "100000000000000000000"},
	}

	for _, test := range tests {
		got, err := Number(test.in)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "number(%v)", test.in)
	}
}

func TestNumberNonFinite(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Number(x)
		require.Error(t, err, "number(%v)", x)
		assert.ErrorIs(t, err, ErrNonFinite)
	}
}

func TestNumberRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 10_000; i++ {
		x := (rng.Float64() - 0.5) * math.Pow(10, float64(rng.Intn(8)-3))

		s, err := Number(x)
		require.NoError(t, err)

		assert.NotContains(t, s, "e")
		assert.False(t, strings.HasSuffix(s, "."), "trailing point: %v", s)
		if strings.Contains(s, ".") {
			assert.False(t, strings.HasSuffix(s, "0"), "trailing zero: %v", s)
			assert.LessOrEqual(t, len(s)-strings.Index(s, ".")-1, Precision)
		}

		parsed, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		assert.InDelta(t, x, parsed, 5e-7+1e-12, "number(%v) = %v", x, s)
	}
}

func BenchmarkNumber(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Number(-0.0123456789)
	}
}
