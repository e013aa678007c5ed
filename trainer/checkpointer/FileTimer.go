package checkpointer

import "time"

// timeLayout is the UTC timestamp layout used by FileTimer. Timestamps
// in this layout sort lexically in time order.
const timeLayout = "20060102T150405.000000000"

// FileTimer returns a function which names files by the time they are
// saved, as filename-<timestamp>extension.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return filename + "-" + time.Now().UTC().Format(timeLayout) +
			extension
	}
}
