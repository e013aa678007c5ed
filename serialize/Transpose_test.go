package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestTranspose(t *testing.T) {
	m := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}

	got, err := Transpose(m)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, got)
}

func TestTransposeEmpty(t *testing.T) {
	got, err := Transpose(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTransposeRagged(t *testing.T) {
	_, err := Transpose([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrRagged)
}

func TestTransposeInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		rows, cols := rng.Intn(10)+1, rng.Intn(10)+1
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
			for j := range m[i] {
				m[i][j] = rng.NormFloat64()
			}
		}

		tr, err := Transpose(m)
		require.NoError(t, err)
		require.Len(t, tr, cols)

		back, err := Transpose(tr)
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}
