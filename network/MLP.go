package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron. The input is first
// flattened to a (batch, features) matrix, then passed through a number
// of fully connected hidden layers and a final fully connected output
// layer.
type mlp struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	inputShape []int
	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	outputAct   *Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron. The graph
// parameter g is populated with the MLP.
//
// Inputs to the network have shape inputShape, for example []int{28,
// 28} for MNIST images, and are given to the network in batches of size
// batch. The first layer of the network flattens each input to a
// vector. The MLP then has len(hiddenSizes) + 1 fully connected layers.
// For index i, hiddenSizes[i] is the number of nodes in hidden layer i;
// biases[i] is true if the hidden layer will contain a bias unit and
// false otherwise; and activations[i] is the activation function for
// hidden layer i. A final layer with outputs nodes, a bias unit, and
// activation outputAct is always added. The parameter init determines
// the weight initialization scheme, biases are initialized to zero.
func NewMLP(inputShape []int, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, outputAct *Activation) (NeuralNet, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmlp: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newmlp: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if len(inputShape) == 0 {
		return nil, fmt.Errorf("newmlp: input shape must not be empty")
	}
	if batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newmlp: batch size and outputs must be "+
			"positive \n\twant(>0, >0) \n\thave(%v, %v)", batch, outputs)
	}
	if outputAct == nil {
		outputAct = Identity()
	}
	activations = append([]*Activation{}, activations...)
	for i := range activations {
		if activations[i] == nil {
			activations[i] = Identity()
		}
	}

	features := 1
	for _, dim := range inputShape {
		features *= dim
	}

	// Set up the input node
	input := newInput(g, batch, inputShape)

	sizes := append(append([]int{}, hiddenSizes...), outputs)
	bs := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), outputAct)

	layers := []Layer{&flattenLayer{name: "flatten"}}
	layers = append(layers, addfcLayers(g, features, sizes, bs, acts,
		init)...)

	// Create the network and run the forward pass on the input node
	network := mlp{
		g:           g,
		layers:      layers,
		input:       input,
		inputShape:  append([]int{}, inputShape...),
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: append([]int{}, hiddenSizes...),
		biases:      append([]bool{}, biases...),
		activations: activations,
		outputAct:   outputAct,
	}
	if _, err := network.fwd(input); err != nil {
		msg := "newmlp: could not compute forward pass: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return &network, nil
}

// newInput creates the input node of an MLP, which has shape
// (batch, inputShape...)
func newInput(g *G.ExprGraph, batch int, inputShape []int) *G.Node {
	shape := append([]int{batch}, inputShape...)
	return G.NewTensor(
		g,
		tensor.Float64,
		len(shape),
		G.WithShape(shape...),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)
}

// Graph returns the computational graph of the mlp.
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones an mlp
func (e *mlp) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones an mlp to a new computational graph with a new
// input batch size. Weights are copied to the clone.
func (e *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be "+
			"positive \n\twant(>0) \n\thave(%v)", batchSize)
	}

	graph := G.NewGraph()
	input := newInput(graph, batchSize, e.inputShape)

	// Copy layers
	l := make([]Layer, len(e.layers))
	for i := range e.layers {
		l[i] = e.layers[i].CloneTo(graph)
	}

	// Create the network and run the forward pass on the input node
	network := mlp{
		g:           graph,
		layers:      l,
		input:       input,
		inputShape:  e.inputShape,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
		outputAct:   e.outputAct,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not clone: %v", err)
	}

	if err := network.Set(e); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not copy weights: %v",
			err)
	}

	return &network, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single flattened input
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// InputShape returns the shape of a single input to the network
func (e *mlp) InputShape() []int {
	return append([]int{}, e.inputShape...)
}

// Layers returns the layers of the network in order, starting with the
// input layer
func (e *mlp) Layers() []Layer {
	return e.layers
}

// SetInput sets the value of the input node before running the forward
// pass. The input should contain BatchSize() inputs of Features()
// values each, in row-major order.
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of an mlp to be equal to the weights of another
// NeuralNet with the same architecture
func (dest *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: invalid number of learnables\n\twant(%v)"+
			"\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		if !destLearnable.Shape().Eq(sourceNodes[i].Shape()) {
			return fmt.Errorf("set: invalid shape for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", i, destLearnable.Shape(),
				sourceNodes[i].Shape())
		}

		sourceValue, ok := sourceNodes[i].Value().(tensor.Tensor)
		if !ok {
			return fmt.Errorf("set: learnable %v has no tensor value", i)
		}
		err := G.Let(destLearnable, sourceValue.Clone())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in an mlp
func (m *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		m.learnables = m.computeLearnables()
	}
	return m.learnables
}

// computeLearnables computes all the learnables for the network
func (e *mlp) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		if weights := e.layers[i].Weights(); weights != nil {
			learnables = append(learnables, weights)
		}
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnables nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		m.model = m.computeModel()
	}
	return m.model
}

// computeModel computes the model for the network
func (e *mlp) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the mlp on the input node
func (e *mlp) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	e.prediction = pred

	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Output returns the output of the mlp after a VM over its graph has
// been run
func (e *mlp) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// Save saves the mlp to a file, creating the file's directory if
// needed
func (e *mlp) Save(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save: could not create directory: %v", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("save: could not encode network: %v", err)
	}
	return file.Close()
}

// Load loads a NeuralNet previously saved with Save
func Load(filename string) (NeuralNet, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open file: %w", err)
	}
	defer file.Close()

	var net mlp
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&net); err != nil {
		return nil, fmt.Errorf("load: could not decode network: %w", err)
	}
	return &net, nil
}

// learnableData is the gobbed form of a single learnable node
type learnableData struct {
	Shape []int
	Data  []float64
}

// GobEncode implements the gob.GobEncoder interface
func (e *mlp) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(e.inputShape)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode input shape")
	}

	err = enc.Encode(e.numOutputs)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of outputs")
	}

	err = enc.Encode(e.BatchSize())
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size")
	}

	err = enc.Encode(e.hiddenSizes)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}

	err = enc.Encode(e.biases)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}

	err = enc.Encode(e.activations)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	err = enc.Encode(e.outputAct)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode output " +
			"activation")
	}

	// Store the learned values in layer order
	for i, node := range e.Learnables() {
		data, shape, err := nodeData(node)
		if err != nil {
			return nil, fmt.Errorf("gobencode: learnable %v: %v", i, err)
		}

		err = enc.Encode(learnableData{Shape: shape, Data: data})
		if err != nil {
			msg := "gobencode: could not encode learnable %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *mlp) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var inputShape []int
	err := dec.Decode(&inputShape)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode input shape")
	}

	var numOutputs int
	err = dec.Decode(&numOutputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of outputs")
	}

	var batchSize int
	err = dec.Decode(&batchSize)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size")
	}

	var hiddenSizes []int
	err = dec.Decode(&hiddenSizes)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	err = dec.Decode(&biases)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	err = dec.Decode(&activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	var outputAct Activation
	err = dec.Decode(&outputAct)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode output activation")
	}

	// Create a new MLP
	g := G.NewGraph()
	newNet, err := NewMLP(inputShape, batchSize, numOutputs, g,
		hiddenSizes, biases, G.Zeroes(), activations, &outputAct)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}
	newMLP, ok := newNet.(*mlp)
	if !ok {
		panic("NewMLP() returned type != *mlp")
	}

	// Fill the new MLP's learnables with the stored values
	for i, node := range newMLP.Learnables() {
		var l learnableData
		if err := dec.Decode(&l); err != nil {
			return fmt.Errorf("gobdecode: could not decode learnable %v: %v",
				i, err)
		}

		if !node.Shape().Eq(tensor.Shape(l.Shape)) {
			return fmt.Errorf("gobdecode: invalid shape for learnable %v"+
				"\n\twant(%v)\n\thave(%v)", i, node.Shape(), l.Shape)
		}

		value := tensor.New(tensor.WithShape(l.Shape...),
			tensor.WithBacking(l.Data))
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("gobdecode: could not set learnable %v: %v",
				i, err)
		}
	}

	*e = *newMLP
	return nil
}
