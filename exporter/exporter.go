// Package exporter implements exporting the weights of a trained
// two-layer classifier as Lua modules.
//
// The first two layers of the classifier with weights are exported to
// four files in an output directory:
//
//	W1.lua, B1.lua, W2.lua, B2.lua
//
// Weight matrices are transposed before export so that row i of a
// matrix holds the weights into output unit i of its layer.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/luaweights/network"
	"github.com/samuelfneumann/luaweights/serialize"
)

// ErrMissingLayers is returned when a model has fewer than two layers
// with weights
var ErrMissingLayers = errors.New("model has fewer than two weighted layers")

// Config describes where a model is read from and how it is exported
type Config struct {
	ModelPath  string // Model saved by network.NeuralNet.Save
	OutDir     string // Directory to write the Lua modules to
	MatrixWrap int    // Numbers per line in weight matrices
	VectorWrap int    // Numbers per line in bias vectors
}

// DefaultConfig returns the default export configuration
func DefaultConfig() Config {
	return Config{
		ModelPath:  "weight/mnist256.bin",
		OutDir:     "luau_weights",
		MatrixWrap: serialize.DefaultMatrixWrap,
		VectorWrap: serialize.DefaultVectorWrap,
	}
}

// Array is a single exported array
type Array struct {
	Name string
	File string // Path of the written module

	// Matrix holds the rows of a weight matrix, Vector the values of a
	// bias vector. Exactly one is non-nil.
	Matrix [][]float64
	Vector []float64
}

// Shape returns the shape of the array as "RxC" for matrices and "N"
// for vectors
func (a Array) Shape() string {
	if a.Matrix != nil {
		cols := 0
		if len(a.Matrix) > 0 {
			cols = len(a.Matrix[0])
		}
		return fmt.Sprintf("%dx%d", len(a.Matrix), cols)
	}
	return fmt.Sprintf("%d", len(a.Vector))
}

// render renders the array as a Lua table
func (a Array) render(c Config) (string, error) {
	if a.Matrix != nil {
		return serialize.Matrix(a.Matrix, c.MatrixWrap)
	}
	return serialize.Vector(a.Vector, c.VectorWrap)
}

// Export loads the model at c.ModelPath and writes its first two weight
// matrices and bias vectors to c.OutDir. The shape of each exported
// array is printed to out.
//
// All arrays are checked to be finite before any file is written, so
// that a model with a NaN or infinite value produces no output at all.
func Export(c Config, out io.Writer) ([]Array, error) {
	net, err := network.Load(c.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	arrays, err := Arrays(net)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	values := make([]interface{}, len(arrays))
	for i, a := range arrays {
		if a.Matrix != nil {
			values[i] = a.Matrix
		} else {
			values[i] = a.Vector
		}
	}
	if err := serialize.CheckFinite(values); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	for i := range arrays {
		body, err := arrays[i].render(c)
		if err != nil {
			return nil, fmt.Errorf("export: %v: %w", arrays[i].Name, err)
		}

		arrays[i].File = filepath.Join(c.OutDir, arrays[i].Name+".lua")
		if err := serialize.WriteModule(arrays[i].File, body); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	fmt.Fprintln(out, "Export complete:")
	for _, a := range arrays {
		fmt.Fprintf(out, "%v: %v\n", a.Name, a.Shape())
	}

	return arrays, nil
}

// Arrays returns the transposed weights and the biases of the first
// two weighted layers of net, in the order W1, B1, W2, B2
func Arrays(net network.NeuralNet) ([]Array, error) {
	weighted := network.Weighted(net.Layers())
	if len(weighted) < 2 {
		return nil, fmt.Errorf("arrays: %w: found %v", ErrMissingLayers,
			len(weighted))
	}

	arrays := make([]Array, 0, 4)
	for i, layer := range weighted[:2] {
		weights, err := network.WeightMatrix(layer)
		if err != nil {
			return nil, fmt.Errorf("arrays: %v", err)
		}

		transposed, err := serialize.Transpose(rows(weights))
		if err != nil {
			return nil, fmt.Errorf("arrays: %w", err)
		}

		bias, err := network.BiasVector(layer)
		if err != nil {
			return nil, fmt.Errorf("arrays: %v", err)
		}

		arrays = append(arrays,
			Array{Name: fmt.Sprintf("W%d", i+1), Matrix: transposed},
			Array{Name: fmt.Sprintf("B%d", i+1), Vector: bias},
		)
	}
	return arrays, nil
}

// rows returns the rows of a matrix as slices
func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
