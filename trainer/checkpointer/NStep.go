package checkpointer

import "fmt"

// nStep implements checkpointing every N epochs
type nStep struct {
	interval int
	object   Serializable // Object to save

	// filename returns the filename of the file to save the object in.
	//
	// If each checkpoint should be saved in a separate file with each
	// file having an incremented number as a suffix (e.g. model1.bin,
	// model2.bin, ..., modelK.bin), use FilenameEnumerator. To name
	// files by the time they are saved, use FileTimer. To overwrite a
	// single file, return a constant.
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n epochs.
func NewNStep(n int, object Serializable,
	filename func() string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newnstep: checkpoint interval must be "+
			"positive \n\twant(>0) \n\thave(%v)", n)
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if epoch is a multiple of the
// checkpointing interval
func (n *nStep) Checkpoint(epoch int, _ float64) error {
	if epoch%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}
