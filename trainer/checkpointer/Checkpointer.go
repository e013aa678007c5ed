// Package checkpointer implements saving of models during training
package checkpointer

// Serializable is an object that can be saved to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer checkpoints/saves serializable objects at the end of
// training epochs. The monitored value is the metric the epoch ended
// with, for example the validation loss.
type Checkpointer interface {
	Checkpoint(epoch int, monitored float64) error
}
