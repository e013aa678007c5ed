package exporter

import (
	"bytes"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/luaweights/network"
	"github.com/samuelfneumann/luaweights/serialize"
)

// saveMLP saves an MNIST-shaped MLP with the given hidden layers and
// returns the path it was saved to along with the network
func saveMLP(t *testing.T, hidden []int) (string, network.NeuralNet) {
	t.Helper()

	biases := make([]bool, len(hidden))
	acts := make([]*network.Activation, len(hidden))
	for i := range hidden {
		biases[i] = true
		acts[i] = network.ReLU()
	}

	net, err := network.NewMLP([]int{28, 28}, 1, 10, G.NewGraph(), hidden,
		biases, G.GlorotU(1.0), acts, network.SoftMax())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "weight", "model.bin")
	require.NoError(t, net.Save(path))
	return path, net
}

func TestExport(t *testing.T) {
	modelPath, net := saveMLP(t, []int{256})

	c := DefaultConfig()
	c.ModelPath = modelPath
	c.OutDir = filepath.Join(t.TempDir(), "luau_weights")

	var out bytes.Buffer
	arrays, err := Export(c, &out)
	require.NoError(t, err)

	assert.Equal(t, "Export complete:\nW1: 256x784\nB1: 256\n"+
		"W2: 10x256\nB2: 10\n", out.String())

	require.Len(t, arrays, 4)
	names := []string{"W1", "B1", "W2", "B2"}
	for i, a := range arrays {
		assert.Equal(t, names[i], a.Name)
		assert.Equal(t, filepath.Join(c.OutDir, names[i]+".lua"), a.File)

		data, err := os.ReadFile(a.File)
		require.NoError(t, err)

		var body string
		if a.Matrix != nil {
			body, err = serialize.Matrix(a.Matrix, c.MatrixWrap)
		} else {
			body, err = serialize.Vector(a.Vector, c.VectorWrap)
		}
		require.NoError(t, err)
		assert.Equal(t, "return "+body+"\n", string(data))
	}

	// Exported weight matrices are the transposed layer weights
	w1, err := network.WeightMatrix(network.Weighted(net.Layers())[0])
	require.NoError(t, err)
	for _, idx := range [][2]int{{0, 0}, {783, 0}, {5, 255}, {783, 255}} {
		i, j := idx[0], idx[1]
		assert.Equal(t, w1.At(i, j), arrays[0].Matrix[j][i])
	}

	// Each row of W1 is wrapped at 8 numbers per line
	lines := strings.Split(strings.TrimSpace(readFile(t, arrays[0].File)), "\n")
	assert.Equal(t, "return {", lines[0])
	assert.Equal(t, "}", lines[len(lines)-1])
	assert.Equal(t, 256*(784/8)+2, len(lines))
}

func TestExportOverwrites(t *testing.T) {
	modelPath, _ := saveMLP(t, []int{4})

	c := DefaultConfig()
	c.ModelPath = modelPath
	c.OutDir = t.TempDir()

	stale := filepath.Join(c.OutDir, "B2.lua")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	var out bytes.Buffer
	_, err := Export(c, &out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(readFile(t, stale), "return {"))
	assert.Contains(t, out.String(), "W1: 4x784\n")
}

func TestExportMissingLayers(t *testing.T) {
	// Without hidden layers, the network has a single weighted layer
	modelPath, _ := saveMLP(t, []int{})

	c := DefaultConfig()
	c.ModelPath = modelPath
	c.OutDir = filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	_, err := Export(c, &out)
	assert.ErrorIs(t, err, ErrMissingLayers)
	assert.NoDirExists(t, c.OutDir)
	assert.Empty(t, out.String())
}

func TestExportNonFinite(t *testing.T) {
	net, err := network.NewMLP([]int{3}, 1, 2, G.NewGraph(), []int{2},
		[]bool{true}, G.GlorotU(1.0), []*network.Activation{network.ReLU()},
		network.SoftMax())
	require.NoError(t, err)

	// Corrupt a single weight of the second layer
	layer := network.Weighted(net.Layers())[1]
	layer.Weights().Value().Data().([]float64)[1] = math.NaN()

	modelPath := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, net.Save(modelPath))

	c := DefaultConfig()
	c.ModelPath = modelPath
	c.OutDir = filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	_, err = Export(c, &out)
	assert.ErrorIs(t, err, serialize.ErrNonFinite)

	// Validation happens before any file is written
	assert.NoDirExists(t, c.OutDir)
}

func TestExportMissingModel(t *testing.T) {
	c := DefaultConfig()
	c.ModelPath = filepath.Join(t.TempDir(), "missing.bin")
	c.OutDir = t.TempDir()

	var out bytes.Buffer
	_, err := Export(c, &out)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestArrayShape(t *testing.T) {
	assert.Equal(t, "2x3", Array{Matrix: [][]float64{{1, 2, 3}, {4, 5, 6}}}.Shape())
	assert.Equal(t, "0x0", Array{Matrix: [][]float64{}}.Shape())
	assert.Equal(t, "3", Array{Vector: []float64{1, 2, 3}}.Shape())
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
