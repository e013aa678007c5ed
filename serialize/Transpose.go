package serialize

import "fmt"

// Transpose returns the transpose of the rectangular matrix m, such
// that element (i, j) of m is element (j, i) of the result. An error is
// returned if the rows of m do not all have the same length.
func Transpose(m [][]float64) ([][]float64, error) {
	if len(m) == 0 {
		return [][]float64{}, nil
	}

	cols := len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("transpose: %w: row %d\n\twant(%d)"+
				"\n\thave(%d)", ErrRagged, i, cols, len(row))
		}
	}

	t := make([][]float64, cols)
	for j := range t {
		t[j] = make([]float64, len(m))
		for i := range m {
			t[j][i] = m[i][j]
		}
	}
	return t, nil
}
