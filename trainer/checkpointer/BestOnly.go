package checkpointer

import "math"

// bestOnly implements checkpointing whenever the monitored value
// improves on the lowest value seen so far
type bestOnly struct {
	object   Serializable
	filename string
	best     float64
}

// NewBestOnly returns a checkpointer that saves object to filename
// each time it is given a monitored value lower than any value it was
// previously given. Each save overwrites the last, so that filename
// always holds the best object seen.
func NewBestOnly(object Serializable, filename string) Checkpointer {
	return &bestOnly{
		object:   object,
		filename: filename,
		best:     math.Inf(1),
	}
}

// Checkpoint saves the tracked object if monitored is an improvement.
// NaN values are never an improvement.
func (b *bestOnly) Checkpoint(_ int, monitored float64) error {
	if !(monitored < b.best) {
		return nil
	}

	if err := b.object.Save(b.filename); err != nil {
		return err
	}
	b.best = monitored
	return nil
}
