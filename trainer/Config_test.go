package trainer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/luaweights/solver"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, []int{28, 28}, c.InputShape)
	assert.Equal(t, []int{256}, c.HiddenSizes)
	assert.Equal(t, 10, c.Outputs)
	assert.Equal(t, 30, c.Epochs)
	assert.Equal(t, 128, c.BatchSize)
	assert.Equal(t, 3, c.Patience)
	assert.Equal(t, solver.Adam, c.Solver.Type)
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"HiddenSizes": [64, 32],
		"Biases": [true, false],
		"Activations": ["relu", "tanh"],
		"Epochs": 5,
		"Solver": {"Type": "Vanilla", "Config": {"StepSize": 0.1, "Batch": 1}},
		"InitWFn": {"Type": "HeN", "Config": {"Gain": 2}}
	}`
	require.NoError(t, os.WriteFile(filename, []byte(data), 0o644))

	c, err := LoadConfig(filename)
	require.NoError(t, err)

	assert.Equal(t, []int{64, 32}, c.HiddenSizes)
	assert.Equal(t, []bool{true, false}, c.Biases)
	require.Len(t, c.Activations, 2)
	assert.Equal(t, "tanh", c.Activations[1].String())
	assert.Equal(t, 5, c.Epochs)
	assert.Equal(t, solver.Vanilla, c.Solver.Type)

	// Fields missing from the file keep their defaults
	assert.Equal(t, 128, c.BatchSize)
	assert.Equal(t, "softmax", c.OutputAct.String())
}

func TestLoadConfigInvalid(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.json")
	data := `{"HiddenSizes": [64, 32]}`
	require.NoError(t, os.WriteFile(filename, []byte(data), 0o644))

	_, err := LoadConfig(filename)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"Epochs", func(c *Config) { c.Epochs = 0 }},
		{"BatchSize", func(c *Config) { c.BatchSize = 0 }},
		{"EvalBatchSize", func(c *Config) { c.EvalBatchSize = -1 }},
		{"Outputs", func(c *Config) { c.Outputs = 0 }},
		{"InputShape", func(c *Config) { c.InputShape = nil }},
		{"Biases", func(c *Config) { c.Biases = nil }},
		{"Solver", func(c *Config) { c.Solver = nil }},
		{"InitWFn", func(c *Config) { c.InitWFn = nil }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := DefaultConfig()
			test.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}
