// Package trainer implements supervised training of classifiers built
// by package network.
package trainer

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/luaweights/network"
	"github.com/samuelfneumann/luaweights/solver"
	"github.com/samuelfneumann/luaweights/trainer/checkpointer"
	"github.com/samuelfneumann/luaweights/utils/progressbar"
)

// Dataset is a labelled dataset that can be split into batches
type Dataset interface {
	Len() int

	// Batch returns the flattened inputs and the labels of the samples
	// at the given indices
	Batch(indices []int) ([]float64, []int)
}

// Epoch records the metrics of a single training epoch
type Epoch struct {
	Epoch       int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
}

// History records the metrics of all epochs of a call to Fit
type History struct {
	Epochs    []Epoch
	BestEpoch int  // Epoch whose weights the network ended with
	Stopped   bool // Whether training was stopped early
}

// Trainer trains a classifier with mini-batch gradient descent on the
// categorical cross entropy loss.
type Trainer struct {
	config Config
	net    network.NeuralNet
	solver *solver.Solver
	train  *objective

	// Evaluation objectives, keyed by batch size
	evals map[int]*objective

	rng           *rand.Rand
	logger        *log.Logger
	progress      io.Writer
	checkpointers []checkpointer.Checkpointer
}

// Option configures a Trainer
type Option func(*Trainer)

// WithLogger sets the logger that per-epoch metrics are written to.
// By default, nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithProgress sets a writer to display a per-epoch progress bar on
func WithProgress(w io.Writer) Option {
	return func(t *Trainer) {
		t.progress = w
	}
}

// WithCheckpointer registers a Checkpointer which is called at the end
// of every epoch with the validation loss
func WithCheckpointer(c checkpointer.Checkpointer) Option {
	return func(t *Trainer) {
		t.checkpointers = append(t.checkpointers, c)
	}
}

// New returns a new Trainer for a newly constructed network described
// by config. If config has a CheckpointPath, the network is saved there
// every time the validation loss improves.
func New(config Config, opts ...Option) (*Trainer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	net, err := network.NewMLP(
		config.InputShape,
		config.BatchSize,
		config.Outputs,
		G.NewGraph(),
		config.HiddenSizes,
		config.Biases,
		config.InitWFn.InitWFn(),
		config.Activations,
		config.OutputAct,
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create network: %v", err)
	}

	train, err := newObjective(net, true)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	// Each Trainer gets its own solver state
	s := *config.Solver
	s.Reset()

	t := &Trainer{
		config: config,
		net:    net,
		solver: &s,
		train:  train,
		evals:  make(map[int]*objective),
		rng:    rand.New(rand.NewSource(config.Seed)),
		logger: log.New(io.Discard, "", 0),
	}

	if config.CheckpointPath != "" {
		t.checkpointers = append(t.checkpointers,
			checkpointer.NewBestOnly(net, config.CheckpointPath))
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Network returns the network being trained
func (t *Trainer) Network() network.NeuralNet {
	return t.net
}

// Save saves the network being trained
func (t *Trainer) Save(filename string) error {
	return t.net.Save(filename)
}

// Close releases the resources held by the Trainer
func (t *Trainer) Close() error {
	err := t.train.close()
	for _, eval := range t.evals {
		if e := eval.close(); err == nil {
			err = e
		}
	}
	return err
}

// Fit trains the network on train for the configured number of epochs.
//
// At the end of each epoch the network is evaluated on val, and the
// validation loss is passed to all checkpointers and used for early
// stopping. If val is nil or empty, the training loss is used instead.
// When training ends, the network is reset to the weights it had at the
// end of the epoch with the lowest monitored loss.
//
// Only full batches are used for training. Inputs left over after the
// last full batch of an epoch are skipped, and since the training set
// is shuffled every epoch, a different subset is skipped each time.
func (t *Trainer) Fit(train, val Dataset) (History, error) {
	batchSize := t.config.BatchSize
	numBatches := train.Len() / batchSize
	if numBatches == 0 {
		return History{}, fmt.Errorf("fit: training set smaller than batch "+
			"size\n\twant(>=%v)\n\thave(%v)", batchSize, train.Len())
	}

	best, err := t.net.Clone()
	if err != nil {
		return History{}, fmt.Errorf("fit: could not clone network: %v", err)
	}

	var history History
	stopper := NewEarlyStopping(t.config.Patience, t.config.MinDelta)

	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		e, err := t.epoch(train, numBatches)
		if err != nil {
			return history, fmt.Errorf("fit: epoch %v: %v", epoch, err)
		}
		e.Epoch = epoch

		monitored := e.Loss
		if val != nil && val.Len() > 0 {
			e.ValLoss, e.ValAccuracy, err = t.Evaluate(val)
			if err != nil {
				return history, fmt.Errorf("fit: epoch %v: %v", epoch, err)
			}
			monitored = e.ValLoss
		}
		history.Epochs = append(history.Epochs, e)

		t.logger.Printf("Epoch %d/%d - loss: %.4f - accuracy: %.4f - "+
			"val_loss: %.4f - val_accuracy: %.4f", epoch, t.config.Epochs,
			e.Loss, e.Accuracy, e.ValLoss, e.ValAccuracy)

		for _, c := range t.checkpointers {
			if err := c.Checkpoint(epoch, monitored); err != nil {
				return history, fmt.Errorf("fit: could not checkpoint: %v", err)
			}
		}

		improved, stop := stopper.Observe(monitored)
		if improved {
			if err := best.Set(t.net); err != nil {
				return history, fmt.Errorf("fit: could not store best "+
					"weights: %v", err)
			}
		}
		if stop {
			t.logger.Printf("Epoch %d: early stopping", epoch)
			history.Stopped = true
			break
		}
	}

	history.BestEpoch = stopper.BestEpoch()
	if history.BestEpoch > 0 {
		t.logger.Printf("Restoring weights from the end of epoch %d",
			history.BestEpoch)
		if err := t.net.Set(best); err != nil {
			return history, fmt.Errorf("fit: could not restore best "+
				"weights: %v", err)
		}
	}

	return history, nil
}

// epoch runs a single epoch of training
func (t *Trainer) epoch(train Dataset, numBatches int) (Epoch, error) {
	batchSize := t.config.BatchSize

	var indices []int
	if t.config.Shuffle {
		indices = t.rng.Perm(train.Len())
	} else {
		indices = make([]int, train.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	var bar *progressbar.ManualProgressBar
	if t.progress != nil {
		bar = progressbar.NewManualProgressBar(t.progress, 30, numBatches)
		defer bar.Close()
	}

	losses := make([]float64, 0, numBatches)
	correct := 0
	for b := 0; b < numBatches; b++ {
		x, y := train.Batch(indices[b*batchSize : (b+1)*batchSize])

		loss, c, err := t.train.run(x, y, t.solver)
		if err != nil {
			return Epoch{}, err
		}
		losses = append(losses, loss)
		correct += c

		if bar != nil {
			bar.Increment()
			bar.SetSuffix(fmt.Sprintf("loss: %.4f", stat.Mean(losses, nil)))
			bar.Display()
		}
	}

	return Epoch{
		Loss:     stat.Mean(losses, nil),
		Accuracy: float64(correct) / float64(numBatches*batchSize),
	}, nil
}

// Evaluate returns the mean loss and the accuracy of the network on ds
func (t *Trainer) Evaluate(ds Dataset) (loss, accuracy float64, err error) {
	n := ds.Len()
	if n == 0 {
		return 0, 0, fmt.Errorf("evaluate: empty dataset")
	}

	batchSize := t.config.EvalBatchSize
	if batchSize > n {
		batchSize = n
	}

	// Batch-weighted sums of losses
	var lossSum float64
	correct := 0

	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}

		eval, err := t.evaluator(end - start)
		if err != nil {
			return 0, 0, fmt.Errorf("evaluate: %v", err)
		}

		indices := make([]int, end-start)
		for i := range indices {
			indices[i] = start + i
		}
		x, y := ds.Batch(indices)

		l, c, err := eval.run(x, y, nil)
		if err != nil {
			return 0, 0, fmt.Errorf("evaluate: %v", err)
		}
		lossSum += l * float64(end-start)
		correct += c
	}

	return lossSum / float64(n), float64(correct) / float64(n), nil
}

// evaluator returns an evaluation objective with the given batch size
// whose network has the current weights of the trained network
func (t *Trainer) evaluator(batchSize int) (*objective, error) {
	eval, ok := t.evals[batchSize]
	if !ok {
		net, err := t.net.CloneWithBatch(batchSize)
		if err != nil {
			return nil, err
		}

		eval, err = newObjective(net, false)
		if err != nil {
			return nil, err
		}
		t.evals[batchSize] = eval
		return eval, nil
	}

	return eval, eval.net.Set(t.net)
}
