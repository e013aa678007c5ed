package serialize

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/mat"
)

// CheckFinite walks obj and returns an error wrapping ErrNonFinite at
// the first NaN or infinite value found.
//
// obj may be a number, a float slice, a gonum mat.Matrix, or a
// []interface{} whose elements are any of these, nested to any depth.
// Any other value, including a nil matrix pointer, results in an error
// wrapping ErrUnsupportedType.
func CheckFinite(obj interface{}) error {
	switch v := obj.(type) {
	case float64:
		return checkFloat(v)
	case float32:
		return checkFloat(float64(v))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil

	case []float64:
		for _, x := range v {
			if err := checkFloat(x); err != nil {
				return err
			}
		}
		return nil
	case []float32:
		for _, x := range v {
			if err := checkFloat(float64(x)); err != nil {
				return err
			}
		}
		return nil
	case [][]float64:
		for _, row := range v {
			if err := CheckFinite(row); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		for _, elem := range v {
			if err := CheckFinite(elem); err != nil {
				return err
			}
		}
		return nil

	case mat.Matrix:
		if isNilPointer(v) {
			break
		}
		r, c := v.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if err := checkFloat(v.At(i, j)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return fmt.Errorf("checkfinite: %w: %T", ErrUnsupportedType, obj)
}

// isNilPointer reports whether m is a typed nil pointer, such as a nil
// *mat.Dense
func isNilPointer(m mat.Matrix) bool {
	rv := reflect.ValueOf(m)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func checkFloat(x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("checkfinite: %w detected: %v", ErrNonFinite, x)
	}
	return nil
}
