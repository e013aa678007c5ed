package serialize

import (
	"fmt"
	"strings"
)

// Default number of elements per line
const (
	DefaultVectorWrap = 100
	DefaultMatrixWrap = 8
)

// Vector renders v as a brace-delimited, comma-separated Lua table.
//
// If wrap <= 0, all elements are written on a single line. Otherwise
// elements are grouped into lines of at most wrap elements, with lines
// joined by a comma and newline. An empty vector renders as "{}".
func Vector(v []float64, wrap int) (string, error) {
	if len(v) == 0 {
		return "{}", nil
	}

	nums := make([]string, len(v))
	for i, x := range v {
		s, err := Number(x)
		if err != nil {
			return "", fmt.Errorf("vector: element %d: %w", i, err)
		}
		nums[i] = s
	}

	if wrap <= 0 {
		return "{" + strings.Join(nums, ",") + "}", nil
	}

	lines := make([]string, 0, (len(nums)+wrap-1)/wrap)
	for i := 0; i < len(nums); i += wrap {
		end := i + wrap
		if end > len(nums) {
			end = len(nums)
		}
		lines = append(lines, strings.Join(nums[i:end], ","))
	}
	return "{" + strings.Join(lines, ",\n") + "}", nil
}

// Matrix renders m as a Lua table of tables. Each row is rendered with
// Vector using the given wrap and starts on its own line.
func Matrix(m [][]float64, wrap int) (string, error) {
	rows := make([]string, len(m))
	for i, row := range m {
		r, err := Vector(row, wrap)
		if err != nil {
			return "", fmt.Errorf("matrix: row %d: %w", i, err)
		}
		rows[i] = r
	}
	return "{\n" + strings.Join(rows, ",\n") + "\n}", nil
}
