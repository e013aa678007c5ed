package checkpointer

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder records the filenames it is saved to
type recorder struct {
	saves []string
	err   error
}

func (r *recorder) Save(filename string) error {
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, filename)
	return nil
}

func TestBestOnly(t *testing.T) {
	r := &recorder{}
	c := NewBestOnly(r, "best.bin")

	losses := []float64{0.5, 0.4, 0.45, math.NaN(), 0.4, 0.1}
	for epoch, loss := range losses {
		require.NoError(t, c.Checkpoint(epoch+1, loss))
	}

	// Only 0.5, 0.4 and 0.1 are improvements
	assert.Equal(t, []string{"best.bin", "best.bin", "best.bin"}, r.saves)
}

func TestBestOnlySaveError(t *testing.T) {
	r := &recorder{err: errors.New("disk full")}
	c := NewBestOnly(r, "best.bin")

	assert.Error(t, c.Checkpoint(1, 1.0))

	// A failed save is not recorded as the best value
	r.err = nil
	require.NoError(t, c.Checkpoint(2, 2.0))
	assert.Len(t, r.saves, 1)
}

func TestNStep(t *testing.T) {
	r := &recorder{}
	c, err := NewNStep(2, r, FilenameEnumerator(0, "model", ".bin"))
	require.NoError(t, err)

	for epoch := 1; epoch <= 5; epoch++ {
		require.NoError(t, c.Checkpoint(epoch, 0))
	}
	assert.Equal(t, []string{"model1.bin", "model2.bin"}, r.saves)

	_, err = NewNStep(0, r, FilenameEnumerator(0, "model", ".bin"))
	assert.Error(t, err)
}

func TestFileTimer(t *testing.T) {
	next := FileTimer("run", ".bin")

	first := next()
	assert.True(t, strings.HasPrefix(first, "run-"))
	assert.True(t, strings.HasSuffix(first, ".bin"))

	stamp := strings.TrimSuffix(strings.TrimPrefix(first, "run-"), ".bin")
	_, err := time.Parse(timeLayout, stamp)
	assert.NoError(t, err)

	assert.LessOrEqual(t, first, next())
}
