package trainer

import "math"

// EarlyStopping tracks a monitored value, such as the validation loss,
// over epochs and signals when it has stopped improving.
type EarlyStopping struct {
	patience int
	minDelta float64

	best      float64
	bestEpoch int
	epoch     int
	wait      int
}

// NewEarlyStopping returns a new EarlyStopping which signals a stop
// once patience consecutive epochs have passed without the monitored
// value decreasing by more than minDelta. If patience <= 0, a stop is
// never signalled but the best epoch is still tracked.
func NewEarlyStopping(patience int, minDelta float64) *EarlyStopping {
	return &EarlyStopping{
		patience: patience,
		minDelta: math.Abs(minDelta),
		best:     math.Inf(1),
	}
}

// Observe records the monitored value at the end of an epoch. It
// returns whether the value is the best seen so far and whether
// training should stop. NaN values never improve.
func (e *EarlyStopping) Observe(value float64) (improved, stop bool) {
	e.epoch++

	if value < e.best-e.minDelta {
		e.best = value
		e.bestEpoch = e.epoch
		e.wait = 0
		return true, false
	}

	e.wait++
	return false, e.patience > 0 && e.wait >= e.patience
}

// Best returns the best value observed
func (e *EarlyStopping) Best() float64 {
	return e.best
}

// BestEpoch returns the epoch, starting from 1, at which the best value
// was observed, or 0 if no value has improved yet
func (e *EarlyStopping) BestEpoch() int {
	return e.bestEpoch
}
