package trainer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/luaweights/initwfn"
	"github.com/samuelfneumann/luaweights/network"
	"github.com/samuelfneumann/luaweights/solver"
)

// Config describes a classifier and how it is trained. Configs can be
// JSON serialized; LoadConfig fills any field missing from a JSON file
// with its value in DefaultConfig.
type Config struct {
	// Network architecture
	InputShape  []int                 // Shape of a single input
	HiddenSizes []int                 // Layer sizes of hidden layers
	Biases      []bool                // Whether each hidden layer has a bias
	Activations []*network.Activation // Activation of each hidden layer
	Outputs     int                   // Number of classes
	OutputAct   *network.Activation   // Activation of the output layer

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Solver for learning weights
	Solver *solver.Solver

	Epochs        int
	BatchSize     int
	EvalBatchSize int  // Batch size used when evaluating
	Shuffle       bool // Shuffle the training set every epoch
	Seed          uint64

	// Early stopping on the validation loss. A Patience <= 0 disables
	// early stopping.
	Patience int
	MinDelta float64

	DataDir        string // Directory of the MNIST IDX files
	CheckpointPath string // Best model during training, "" to disable
	ModelPath      string // Final model
}

// DefaultConfig returns the configuration of a 784-256-10 MNIST
// classifier trained with Adam for up to 30 epochs in batches of 128,
// stopping once the validation loss has not improved for 3 epochs.
func DefaultConfig() Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	// The loss is averaged over the batch, so gradients must not be
	// scaled again by the solver
	adam, err := solver.NewDefaultAdam(1e-3, 1)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	return Config{
		InputShape:  []int{28, 28},
		HiddenSizes: []int{256},
		Biases:      []bool{true},
		Activations: []*network.Activation{network.ReLU()},
		Outputs:     10,
		OutputAct:   network.SoftMax(),

		InitWFn: init,
		Solver:  adam,

		Epochs:        30,
		BatchSize:     128,
		EvalBatchSize: 1000,
		Shuffle:       true,
		Seed:          42,

		Patience: 3,
		MinDelta: 0,

		DataDir:        "data/mnist",
		CheckpointPath: "weight/mnist256.bin",
		ModelPath:      "weight/mnist256.bin",
	}
}

// LoadConfig loads a JSON Config from a file
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadconfig: could not read file: %v",
			err)
	}

	c := DefaultConfig()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadconfig: could not decode config: %v",
			err)
	}

	return c, c.Validate()
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	if len(c.HiddenSizes) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.HiddenSizes), len(c.Biases))
	}

	if len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.HiddenSizes),
			len(c.Activations))
	}

	if len(c.InputShape) == 0 {
		return fmt.Errorf("validate: input shape must not be empty")
	}

	if c.Outputs < 1 {
		return fmt.Errorf("validate: outputs must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.Outputs)
	}

	if c.Epochs < 1 {
		return fmt.Errorf("validate: epochs must be positive"+
			"\n\twant(>0)\n\thave(%v)", c.Epochs)
	}

	if c.BatchSize < 1 || c.EvalBatchSize < 1 {
		return fmt.Errorf("validate: batch sizes must be positive"+
			"\n\twant(>0, >0)\n\thave(%v, %v)", c.BatchSize, c.EvalBatchSize)
	}

	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}

	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}

	return nil
}
