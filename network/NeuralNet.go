// Package network implements feed forward neural networks built on
// Gorgonia computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network whose layers are stored in a single
// Gorgonia computational graph.
//
// The network's input node is set with SetInput, after which a
// G.VM over Graph() can be run to compute Output(). The weights of two
// NeuralNets with the same architecture can be copied with Set, which
// is how networks with different batch sizes share weights.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	InputShape() []int
	SetInput([]float64) error
	Set(NeuralNet) error
	Layers() []Layer
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
	Save(filename string) error
}
