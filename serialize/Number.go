package serialize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Precision is the number of fractional digits numbers are rounded to
const Precision = 6

// Number returns the shortest fixed-point representation of x rounded
// to Precision fractional digits. Trailing zeros and a trailing decimal
// point are removed, so that 1.5 is written as "1.5" and 2 as "2".
func Number(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", fmt.Errorf("number: %w: %v", ErrNonFinite, x)
	}

	s := strconv.FormatFloat(x, 'f', Precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s, nil
}
