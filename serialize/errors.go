package serialize

import "errors"

var (
	// ErrNonFinite is returned when a NaN or infinite value would be
	// serialized
	ErrNonFinite = errors.New("non-finite value")

	// ErrUnsupportedType is returned by CheckFinite when it encounters
	// a value that is neither a number nor a sequence
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRagged is returned when a matrix does not have rows of equal
	// length
	ErrRagged = errors.New("ragged matrix")
)
