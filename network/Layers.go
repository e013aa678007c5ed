package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single layer of a feed forward neural network. Layers
// without learnable parameters return nil from Weights and Bias.
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(*G.ExprGraph) Layer
	Name() string
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// Weighted returns the layers that have weights, in order
func Weighted(layers []Layer) []Layer {
	weighted := make([]Layer, 0, len(layers))
	for _, l := range layers {
		if l.Weights() != nil {
			weighted = append(weighted, l)
		}
	}
	return weighted
}

// flattenLayer reshapes its input to a (batch, features) matrix. It has
// no learnable parameters.
type flattenLayer struct {
	name string
}

func (f *flattenLayer) fwd(x *G.Node) (*G.Node, error) {
	if x.IsMatrix() {
		return x, nil
	}

	shape := x.Shape()
	batch := shape[0]
	return G.Reshape(x, tensor.Shape{batch, shape.TotalSize() / batch})
}

// CloneTo clones a flattenLayer to a new computational graph
func (f *flattenLayer) CloneTo(g *G.ExprGraph) Layer {
	return &flattenLayer{name: f.name}
}

func (f *flattenLayer) Name() string            { return f.name }
func (f *flattenLayer) Weights() *G.Node        { return nil }
func (f *flattenLayer) Bias() *G.Node           { return nil }
func (f *flattenLayer) Activation() *Activation { return nil }

// fcLayer implements a fully connected layer of a feed forward neural
// network. Weights have shape (inputs, outputs) and the bias has shape
// (1, outputs).
type fcLayer struct {
	name    string
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		name:    f.name,
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

func (f *fcLayer) Name() string {
	return f.name
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// addfcLayers adds fully connected layers to the graph g, the first of
// which takes features inputs. Layer i has hiddenSizes[i] units, a bias
// unit if biases[i] is true, and activation activations[i].
func addfcLayers(g *G.ExprGraph, features int, hiddenSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn) []Layer {
	layers := make([]Layer, 0, len(hiddenSizes))

	in := features
	for i, out := range hiddenSizes {
		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("L%dW", i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, out),
				G.WithName(fmt.Sprintf("L%dB", i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers = append(layers, &fcLayer{
			name:    fmt.Sprintf("dense_%d", i),
			weights: weights,
			bias:    bias,
			act:     activations[i],
		})
		in = out
	}
	return layers
}

// WeightMatrix returns a copy of the weights of a layer as a
// (inputs, outputs) matrix
func WeightMatrix(l Layer) (*mat.Dense, error) {
	if l.Weights() == nil {
		return nil, fmt.Errorf("weightmatrix: layer %v has no weights",
			l.Name())
	}

	data, shape, err := nodeData(l.Weights())
	if err != nil {
		return nil, fmt.Errorf("weightmatrix: %v", err)
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("weightmatrix: weights must be a matrix "+
			"\n\twant(2 dims)\n\thave(%v)", shape)
	}

	return mat.NewDense(shape[0], shape[1], data), nil
}

// BiasVector returns a copy of the bias of a layer. If the layer has
// no bias unit, an empty vector is returned.
func BiasVector(l Layer) ([]float64, error) {
	if l.Bias() == nil {
		return []float64{}, nil
	}

	data, _, err := nodeData(l.Bias())
	if err != nil {
		return nil, fmt.Errorf("biasvector: %v", err)
	}
	return data, nil
}

// nodeData returns a copy of the float64 values bound to a node
// together with the node's shape
func nodeData(n *G.Node) ([]float64, []int, error) {
	value := n.Value()
	if value == nil {
		return nil, nil, fmt.Errorf("node %v has no value", n.Name())
	}

	data, ok := value.Data().([]float64)
	if !ok {
		return nil, nil, fmt.Errorf("node %v has dtype %v, expected float64",
			n.Name(), value.Dtype())
	}

	out := make([]float64, len(data))
	copy(out, data)
	return out, []int(value.Shape().Clone()), nil
}
