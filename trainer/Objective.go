package trainer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/luaweights/network"
)

// epsilon keeps the log of predicted probabilities finite
const epsilon = 1e-12

// objective adds the categorical cross entropy loss of a network's
// predictions to the network's graph and compiles the graph into a VM.
type objective struct {
	net     network.NeuralNet
	labels  *G.Node // One-hot labels
	loss    *G.Node
	lossVal G.Value
	vm      G.VM
}

// newObjective returns a new objective for net. If train is true, the
// gradient of the loss with respect to the network's learnables is
// added to the graph so that a solver can be stepped after each run.
func newObjective(net network.NeuralNet, train bool) (*objective, error) {
	g := net.Graph()

	labels := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(net.BatchSize(), net.Outputs()),
		G.WithName("labels"),
		G.WithInit(G.Zeroes()),
	)

	// Compute the mean categorical cross entropy:
	// -mean_i[ sum_j y_ij * log(p_ij) ]
	probs := G.Must(G.Add(net.Prediction(), G.NewConstant(epsilon)))
	losses := G.Must(G.HadamardProd(labels, G.Must(G.Log(probs))))
	losses = G.Must(G.Sum(losses, 1))
	loss := G.Must(G.Neg(G.Must(G.Mean(losses))))

	o := &objective{
		net:    net,
		labels: labels,
		loss:   loss,
	}
	G.Read(loss, &o.lossVal)

	if train {
		if _, err := G.Grad(loss, net.Learnables()...); err != nil {
			return nil, fmt.Errorf("newobjective: could not compute "+
				"gradient: %v", err)
		}
		o.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))
	} else {
		o.vm = G.NewTapeMachine(g)
	}

	return o, nil
}

// run computes the loss on a batch of inputs x with labels y, returning
// the mean loss over the batch and the number of correctly classified
// inputs. If s is not nil, it is stepped on the gradient of the loss.
func (o *objective) run(x []float64, y []int, s G.Solver) (float64, int,
	error) {
	defer o.vm.Reset()

	batch, outputs := o.net.BatchSize(), o.net.Outputs()
	if len(y) != batch {
		return 0, 0, fmt.Errorf("run: invalid number of labels\n\twant(%v)"+
			"\n\thave(%v)", batch, len(y))
	}

	if err := o.net.SetInput(x); err != nil {
		return 0, 0, fmt.Errorf("run: could not set input: %v", err)
	}

	oneHot := make([]float64, batch*outputs)
	for i, label := range y {
		if label < 0 || label >= outputs {
			return 0, 0, fmt.Errorf("run: label %v out of range [0, %v)",
				label, outputs)
		}
		oneHot[i*outputs+label] = 1.0
	}
	labels := tensor.New(
		tensor.WithShape(batch, outputs),
		tensor.WithBacking(oneHot),
	)
	if err := G.Let(o.labels, labels); err != nil {
		return 0, 0, fmt.Errorf("run: could not set labels: %v", err)
	}

	if err := o.vm.RunAll(); err != nil {
		return 0, 0, fmt.Errorf("run: could not run graph: %v", err)
	}

	if s != nil {
		if err := s.Step(o.net.Model()); err != nil {
			return 0, 0, fmt.Errorf("run: could not step solver: %v", err)
		}
	}

	loss, ok := o.lossVal.Data().(float64)
	if !ok {
		return 0, 0, fmt.Errorf("run: loss has dtype %v, expected float64",
			o.lossVal.Dtype())
	}

	probs, ok := o.net.Output().Data().([]float64)
	if !ok {
		return 0, 0, fmt.Errorf("run: output has dtype %v, expected float64",
			o.net.Output().Dtype())
	}

	correct := 0
	for i, label := range y {
		if floats.MaxIdx(probs[i*outputs:(i+1)*outputs]) == label {
			correct++
		}
	}

	return loss, correct, nil
}

// close releases the resources held by the objective's VM
func (o *objective) close() error {
	return o.vm.Close()
}
